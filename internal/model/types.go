package model

import "time"

// InstrumentType classifies an entry in the instrument master.
type InstrumentType string

const (
	TypeCall  InstrumentType = "CALL"
	TypePut   InstrumentType = "PUT"
	TypeIndex InstrumentType = "INDEX"
)

// Segment identifies the exchange segment an instrument trades on.
type Segment string

const (
	SegmentFO    Segment = "NSE_FO"    // NSE futures & options
	SegmentIndex Segment = "NSE_INDEX" // NSE indices (spot)
)

// Instrument is one entry from the instrument master snapshot.
// Immutable after catalog load.
type Instrument struct {
	Key        string         // Vendor instrument key, unique (e.g. "NSE_FO|54321")
	Underlying string         // Underlying symbol (e.g. "NIFTY")
	Segment    Segment        // Exchange segment
	Expiry     time.Time      // Contract expiry; zero for INDEX
	Strike     float64        // Strike price; zero for INDEX
	Type       InstrumentType // CALL, PUT or INDEX
}

// StrikeWindow is a symmetric set of strikes around the at-the-money strike.
// Derived from spot price; recomputed when spot drifts past the threshold.
type StrikeWindow struct {
	ATM     float64   // At-the-money strike (spot rounded to the gap)
	Gap     float64   // Distance between adjacent strikes
	Range   int       // Strikes on each side of ATM
	Strikes []float64 // 2*Range+1 strictly increasing values centered on ATM
}

// Contains reports whether the window includes the given strike.
func (w StrikeWindow) Contains(strike float64) bool {
	for _, s := range w.Strikes {
		if s == strike {
			return true
		}
	}
	return false
}

// Subscription is the immutable instrument set one feed session subscribes to.
type Subscription struct {
	Expiry         time.Time // Nearest future expiry at resolution time
	InstrumentKeys []string  // Resolved option keys, never empty
	SpotKey        string    // Index instrument key carried for spot extraction
}

// Tick is one normalized price update decoded from a feed frame.
// Created by the decoder, handed to the sink, not retained.
type Tick struct {
	InstrumentKey   string
	LastTradedPrice float64
	SpotPrice       float64 // 0 if the frame carried no index feed
	ObservedAt      time.Time
}
