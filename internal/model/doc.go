// Package model defines shared data types used across the ingestion pipeline.
//
// Conventions:
//   - Prices and strikes: float64 rupees (exchange strikes are exact
//     multiples of the strike gap, so float64 round-trips exactly)
//   - Timestamps: time.Time in the domain, int64 microseconds since the
//     Unix epoch at the sink boundary
//   - Instrument keys: vendor strings such as "NSE_FO|54321"
package model
