// Package strike computes at-the-money strikes and symmetric strike
// windows around them. Pure functions, no I/O.
package strike

import (
	"math"

	"github.com/apatel/nifty-data/internal/model"
)

// ComputeATM rounds spot to the nearest multiple of gap (half away from
// zero on ties, matching standard round-to-nearest semantics).
func ComputeATM(spot, gap float64) float64 {
	return math.Round(spot/gap) * gap
}

// GenerateWindow produces the 2*rng+1 strikes from atm-rng*gap to
// atm+rng*gap inclusive, strictly increasing and symmetric around atm.
func GenerateWindow(atm, gap float64, rng int) model.StrikeWindow {
	strikes := make([]float64, 0, 2*rng+1)
	for i := -rng; i <= rng; i++ {
		strikes = append(strikes, atm+float64(i)*gap)
	}
	return model.StrikeWindow{
		ATM:     atm,
		Gap:     gap,
		Range:   rng,
		Strikes: strikes,
	}
}

// HasDrifted reports whether the ATM has moved at least threshold away
// from its previous value. The threshold is inclusive: a move of exactly
// threshold counts as drift.
func HasDrifted(oldATM, newATM, threshold float64) bool {
	return math.Abs(newATM-oldATM) >= threshold
}
