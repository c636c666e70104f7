// Package api provides the Upstox REST client used by the ingestion
// pipeline.
//
// Endpoints consumed:
//   - GET /feed/market-data-feed/authorize — one-time websocket redirect URL
//   - GET /market-quote/ltp — last traded price for an instrument key
//   - instrument master snapshot (gzipped JSON array, separate host)
//
// All requests carry a bearer access token and the Api-Version header.
package api
