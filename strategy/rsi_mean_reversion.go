package strategy

import (
	"github.com/evdnx/equiscan/indicator"
	"github.com/evdnx/equiscan/types"
)

// RSIMeanReversion fires when RSI crosses into an extreme: buy on the bar
// RSI drops below oversold, sell on the bar it rises above overbought.
// A sustained extreme reading doesn't keep re-firing.
func RSIMeanReversion(period, overbought, oversold int) Strategy {
	return Strategy{
		Key:    "rsi",
		Weight: 0.8,
		Verdict: func(w *types.Window) int {
			return rsiMeanReversionVerdict(w, period, overbought, oversold)
		},
	}
}

func rsiMeanReversionVerdict(w *types.Window, period, overbought, oversold int) int {
	n := w.Len()
	if n == 0 {
		return 0
	}
	rsi := indicator.RSI(w.Close, period)
	last := n - 1
	if !indicator.IsDefined(rsi[last]) {
		return 0
	}
	current := rsi[last]
	prev := current
	if n > 1 && indicator.IsDefined(rsi[last-1]) {
		prev = rsi[last-1]
	}
	ob := float64(overbought)
	os := float64(oversold)
	switch {
	case current < os && prev >= os:
		return 1
	case current > ob && prev <= ob:
		return -1
	default:
		return 0
	}
}
