package strategy

import (
	"github.com/evdnx/equiscan/indicator"
	"github.com/evdnx/equiscan/types"
)

// Bollinger is a band mean-reversion strategy: buy on the close crossing
// below the lower band, sell on the close crossing above the upper band.
func Bollinger(period int, stdDev float64) Strategy {
	return Strategy{
		Key:    "bollinger",
		Weight: 0.7,
		Verdict: func(w *types.Window) int {
			return bollingerVerdict(w, period, stdDev)
		},
	}
}

func bollingerVerdict(w *types.Window, period int, stdDev float64) int {
	n := w.Len()
	if n == 0 {
		return 0
	}
	_, upper, lower := indicator.Bollinger(w.Close, period, stdDev)
	last := n - 1
	if !indicator.IsDefined(upper[last]) || !indicator.IsDefined(lower[last]) {
		return 0
	}
	current := w.Close[last]
	prev := current
	prevUpper, prevLower := upper[last], lower[last]
	if n > 1 {
		prev = w.Close[last-1]
		if indicator.IsDefined(upper[last-1]) {
			prevUpper = upper[last-1]
		}
		if indicator.IsDefined(lower[last-1]) {
			prevLower = lower[last-1]
		}
	}
	switch {
	case prev >= prevLower && current < lower[last]:
		return 1
	case prev <= prevUpper && current > upper[last]:
		return -1
	default:
		return 0
	}
}
