package forecast

import (
	"github.com/shopspring/decimal"

	"github.com/andresuchdata/salescast/backend-go/internal/domain"
)

// LagState carries the two lag features through a recursive multi-step forecast.
type LagState struct {
	Last      float64
	SevenBack float64
}

// SeedLagState initialises the state from up to seven of the most recent quantities, oldest first.
// Last is the newest value; SevenBack is the seventh newest, or 0 with fewer than seven.
func SeedLagState(history []domain.SalesRecord) LagState {
	var s LagState
	n := len(history)
	if n >= 1 {
		s.Last = float64(history[n-1].Qty)
	}
	if n >= 7 {
		s.SevenBack = float64(history[n-7].Qty)
	}
	return s
}

// Step advances the state after a prediction. The raw prediction is fed back unrounded.
func (s LagState) Step(prediction float64) LagState {
	return LagState{Last: prediction, SevenBack: s.Last}
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
