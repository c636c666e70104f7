// Package catalog parses the bulk instrument master snapshot into a
// queryable in-memory index.
//
// A catalog is immutable after Load; all queries are pure reads, so no
// locking is needed. Lifetime is one snapshot: the process loads it at
// startup and may replace it wholesale on a refresh.
package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/apatel/nifty-data/internal/model"
)

// ParseError indicates the instrument master could not be parsed.
// The catalog cannot partially succeed: any ParseError aborts startup.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse instrument master: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// groupKey indexes instruments by (underlying, segment).
type groupKey struct {
	underlying string
	segment    model.Segment
}

// Catalog is an immutable, indexed snapshot of the instrument master.
type Catalog struct {
	instruments []model.Instrument
	byGroup     map[groupKey][]int // indices into instruments, load order
	byKey       map[string]int
}

// rawInstrument mirrors one entry of the vendor's instrument JSON array.
type rawInstrument struct {
	InstrumentKey    string  `json:"instrument_key"`
	Segment          string  `json:"segment"`
	Name             string  `json:"name"`
	UnderlyingSymbol string  `json:"underlying_symbol"`
	Expiry           int64   `json:"expiry"` // epoch milliseconds
	StrikePrice      float64 `json:"strike_price"`
	InstrumentType   string  `json:"instrument_type"` // CE, PE, FUT, EQ, INDEX
}

// Load parses the raw instrument master bytes into a Catalog.
// Futures and equities are filtered out; only CALL/PUT/INDEX instruments
// participate in the ingestion pipeline. A duplicate instrument key is a
// ParseError, as is any malformed JSON.
func Load(raw []byte) (*Catalog, error) {
	var entries []rawInstrument
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, &ParseError{Err: err}
	}

	c := &Catalog{
		byGroup: make(map[groupKey][]int),
		byKey:   make(map[string]int),
	}

	for i, e := range entries {
		typ, ok := mapType(e.InstrumentType)
		if !ok {
			continue
		}
		if e.InstrumentKey == "" {
			return nil, &ParseError{Err: fmt.Errorf("entry %d: empty instrument_key", i)}
		}
		if _, dup := c.byKey[e.InstrumentKey]; dup {
			return nil, &ParseError{Err: fmt.Errorf("duplicate instrument_key %q", e.InstrumentKey)}
		}

		underlying := e.UnderlyingSymbol
		if underlying == "" {
			underlying = e.Name
		}

		inst := model.Instrument{
			Key:        e.InstrumentKey,
			Underlying: underlying,
			Segment:    model.Segment(e.Segment),
			Strike:     e.StrikePrice,
			Type:       typ,
		}
		if e.Expiry > 0 {
			inst.Expiry = time.UnixMilli(e.Expiry).UTC()
		}

		idx := len(c.instruments)
		c.instruments = append(c.instruments, inst)
		c.byKey[inst.Key] = idx

		gk := groupKey{underlying: inst.Underlying, segment: inst.Segment}
		c.byGroup[gk] = append(c.byGroup[gk], idx)
	}

	return c, nil
}

func mapType(vendorType string) (model.InstrumentType, bool) {
	switch vendorType {
	case "CE":
		return model.TypeCall, true
	case "PE":
		return model.TypePut, true
	case "INDEX":
		return model.TypeIndex, true
	default:
		return "", false
	}
}

// Len returns the number of loaded instruments.
func (c *Catalog) Len() int {
	return len(c.instruments)
}

// Get returns the instrument with the given key.
func (c *Catalog) Get(key string) (model.Instrument, bool) {
	idx, ok := c.byKey[key]
	if !ok {
		return model.Instrument{}, false
	}
	return c.instruments[idx], true
}

// FindExpiries returns the sorted unique expiries of all instruments
// matching (underlying, segment). One pass over the group index.
func (c *Catalog) FindExpiries(underlying string, segment model.Segment) []time.Time {
	seen := make(map[time.Time]struct{})
	var expiries []time.Time

	for _, idx := range c.byGroup[groupKey{underlying: underlying, segment: segment}] {
		exp := c.instruments[idx].Expiry
		if exp.IsZero() {
			continue
		}
		if _, ok := seen[exp]; ok {
			continue
		}
		seen[exp] = struct{}{}
		expiries = append(expiries, exp)
	}

	sort.Slice(expiries, func(i, j int) bool { return expiries[i].Before(expiries[j]) })
	return expiries
}

// FindByStrikesAndExpiry returns instruments of the given types matching
// (underlying, segment) whose expiry equals expiry exactly and whose strike
// is in strikes. Order follows catalog load order.
func (c *Catalog) FindByStrikesAndExpiry(
	underlying string,
	segment model.Segment,
	expiry time.Time,
	strikes []float64,
	types []model.InstrumentType,
) []model.Instrument {
	strikeSet := make(map[float64]struct{}, len(strikes))
	for _, s := range strikes {
		strikeSet[s] = struct{}{}
	}
	typeSet := make(map[model.InstrumentType]struct{}, len(types))
	for _, t := range types {
		typeSet[t] = struct{}{}
	}

	var out []model.Instrument
	for _, idx := range c.byGroup[groupKey{underlying: underlying, segment: segment}] {
		inst := c.instruments[idx]
		if !inst.Expiry.Equal(expiry) {
			continue
		}
		if _, ok := typeSet[inst.Type]; !ok {
			continue
		}
		if _, ok := strikeSet[inst.Strike]; !ok {
			continue
		}
		out = append(out, inst)
	}
	return out
}
