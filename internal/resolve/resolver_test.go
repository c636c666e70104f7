package resolve

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/apatel/nifty-data/internal/catalog"
	"github.com/apatel/nifty-data/internal/model"
)

// buildCatalog loads a small NIFTY option chain with the given expiries
// (one CE+PE pair per strike per expiry).
func buildCatalog(t *testing.T, strikes []float64, expiries []time.Time) *catalog.Catalog {
	t.Helper()

	raw := "["
	key := 0
	for _, exp := range expiries {
		for _, s := range strikes {
			for _, typ := range []string{"CE", "PE"} {
				if key > 0 {
					raw += ","
				}
				raw += fmt.Sprintf(
					`{"instrument_key":"NSE_FO|%d","segment":"NSE_FO","underlying_symbol":"NIFTY","expiry":%d,"strike_price":%v,"instrument_type":%q}`,
					key, exp.UnixMilli(), s, typ,
				)
				key++
			}
		}
	}
	raw += "]"

	cat, err := catalog.Load([]byte(raw))
	if err != nil {
		t.Fatalf("catalog.Load failed: %v", err)
	}
	return cat
}

func TestNearestFutureExpiry(t *testing.T) {
	now := time.Date(2025, 6, 24, 10, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	near := now.Add(24 * time.Hour)
	far := now.Add(5 * 24 * time.Hour)

	t.Run("picks minimum strictly future expiry", func(t *testing.T) {
		cat := buildCatalog(t, []float64{25000}, []time.Time{past, near, far})

		got, err := NearestFutureExpiry(cat, "NIFTY", model.SegmentFO, now)
		if err != nil {
			t.Fatalf("NearestFutureExpiry failed: %v", err)
		}
		if !got.Equal(near.UTC()) {
			t.Errorf("expiry = %v, want %v", got, near.UTC())
		}
	})

	t.Run("expiry equal to now is not future", func(t *testing.T) {
		cat := buildCatalog(t, []float64{25000}, []time.Time{now, far})

		got, err := NearestFutureExpiry(cat, "NIFTY", model.SegmentFO, now)
		if err != nil {
			t.Fatalf("NearestFutureExpiry failed: %v", err)
		}
		if !got.Equal(far.UTC()) {
			t.Errorf("expiry = %v, want %v", got, far.UTC())
		}
	})

	t.Run("all past fails", func(t *testing.T) {
		cat := buildCatalog(t, []float64{25000}, []time.Time{past})

		_, err := NearestFutureExpiry(cat, "NIFTY", model.SegmentFO, now)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("unknown underlying fails", func(t *testing.T) {
		cat := buildCatalog(t, []float64{25000}, []time.Time{far})

		_, err := NearestFutureExpiry(cat, "MIDCPNIFTY", model.SegmentFO, now)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestResolveKeys(t *testing.T) {
	expiry := time.Date(2025, 6, 26, 10, 0, 0, 0, time.UTC)
	strikes := []float64{24950, 25000, 25050}

	t.Run("returns call and put keys for window", func(t *testing.T) {
		cat := buildCatalog(t, strikes, []time.Time{expiry})

		keys, err := ResolveKeys(cat, "NIFTY", model.SegmentFO, expiry, strikes)
		if err != nil {
			t.Fatalf("ResolveKeys failed: %v", err)
		}
		// CE+PE per strike
		if len(keys) != 6 {
			t.Fatalf("len(keys) = %d, want 6", len(keys))
		}
		seen := make(map[string]struct{})
		for _, k := range keys {
			if _, dup := seen[k]; dup {
				t.Errorf("duplicate key %q", k)
			}
			seen[k] = struct{}{}
		}
	})

	t.Run("subset of strikes", func(t *testing.T) {
		cat := buildCatalog(t, strikes, []time.Time{expiry})

		keys, err := ResolveKeys(cat, "NIFTY", model.SegmentFO, expiry, []float64{25000})
		if err != nil {
			t.Fatalf("ResolveKeys failed: %v", err)
		}
		if len(keys) != 2 {
			t.Errorf("len(keys) = %d, want 2", len(keys))
		}
	})

	t.Run("no matches fails", func(t *testing.T) {
		cat := buildCatalog(t, strikes, []time.Time{expiry})

		_, err := ResolveKeys(cat, "NIFTY", model.SegmentFO, expiry, []float64{30000, 30050})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("wrong expiry fails", func(t *testing.T) {
		cat := buildCatalog(t, strikes, []time.Time{expiry})

		_, err := ResolveKeys(cat, "NIFTY", model.SegmentFO, expiry.Add(7*24*time.Hour), strikes)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}
