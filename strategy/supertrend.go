package strategy

import (
	"github.com/evdnx/equiscan/indicator"
	"github.com/evdnx/equiscan/types"
)

// SuperTrend follows the SuperTrend line's direction flips: buy the bar
// direction turns bullish, sell the bar it turns bearish. A held
// direction (no flip) never fires.
func SuperTrend(period int, multiplier float64) Strategy {
	return Strategy{
		Key:    "supertrend",
		Weight: 1.2,
		Verdict: func(w *types.Window) int {
			return superTrendVerdict(w, period, multiplier)
		},
	}
}

func superTrendVerdict(w *types.Window, period int, multiplier float64) int {
	n := w.Len()
	if n < 2 {
		return 0
	}
	_, direction := indicator.SuperTrend(w.High, w.Low, w.Close, period, multiplier)
	last := n - 1
	prev := n - 2
	switch {
	case direction[prev] == -1 && direction[last] == 1:
		return 1
	case direction[prev] == 1 && direction[last] == -1:
		return -1
	default:
		return 0
	}
}
