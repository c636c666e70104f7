// Package resolve maps a strike window and underlying onto concrete
// instrument keys using the catalog.
//
// Resolution failures are operator-attention errors (stale catalog,
// misspelled underlying, window/catalog mismatch) rather than transient
// conditions; callers surface them to the supervisor restart path.
package resolve

import (
	"errors"
	"fmt"
	"time"

	"github.com/apatel/nifty-data/internal/catalog"
	"github.com/apatel/nifty-data/internal/model"
)

// ErrNotFound indicates no matching expiry or instruments exist in the
// catalog for the requested query.
var ErrNotFound = errors.New("not found in catalog")

// NearestFutureExpiry returns the minimum expiry strictly after now among
// instruments matching (underlying, segment).
func NearestFutureExpiry(cat *catalog.Catalog, underlying string, segment model.Segment, now time.Time) (time.Time, error) {
	for _, expiry := range cat.FindExpiries(underlying, segment) {
		if expiry.After(now) {
			return expiry, nil
		}
	}
	return time.Time{}, fmt.Errorf("no future expiry for %s/%s: %w", underlying, segment, ErrNotFound)
}

// ResolveKeys returns the ordered CALL and PUT instrument keys at the given
// strikes for the exact expiry. Order follows catalog filter order.
func ResolveKeys(cat *catalog.Catalog, underlying string, segment model.Segment, expiry time.Time, strikes []float64) ([]string, error) {
	instruments := cat.FindByStrikesAndExpiry(
		underlying, segment, expiry, strikes,
		[]model.InstrumentType{model.TypeCall, model.TypePut},
	)
	if len(instruments) == 0 {
		return nil, fmt.Errorf("no instruments for %s/%s expiry %s across %d strikes: %w",
			underlying, segment, expiry.Format("2006-01-02"), len(strikes), ErrNotFound)
	}

	keys := make([]string, 0, len(instruments))
	for _, inst := range instruments {
		keys = append(keys, inst.Key)
	}
	return keys, nil
}
