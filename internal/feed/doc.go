// Package feed owns one streaming connection to the market-data feed:
// the authorization handshake, the websocket transport, the subscribe
// control message, the heartbeat, and the binary frame decoder.
//
// A Session runs the state machine
//
//	Idle → Authorizing → Connected → Subscribed → Closing | Failed
//
// and reports its termination on Done(). Sessions are single-use: the
// supervisor builds a fresh one for every (re)connect.
package feed
