package strategy

import (
	"github.com/evdnx/equiscan/indicator"
	"github.com/evdnx/equiscan/types"
)

// StochRSI combines RSI and stochastic %K: both oscillators oversold is a
// stronger buy signal than either alone, and symmetrically for overbought.
func StochRSI(rsiPeriod, stochPeriod int) Strategy {
	return Strategy{
		Key:    "stoch_rsi",
		Weight: 0.8,
		Verdict: func(w *types.Window) int {
			return stochRSIVerdict(w, rsiPeriod, stochPeriod)
		},
	}
}

func stochRSIVerdict(w *types.Window, rsiPeriod, stochPeriod int) int {
	n := w.Len()
	if n == 0 {
		return 0
	}
	rsi := indicator.RSI(w.Close, rsiPeriod)
	k, _ := indicator.Stochastic(w.High, w.Low, w.Close, stochPeriod, 3, 3)
	last := n - 1
	if !indicator.IsDefined(rsi[last]) || !indicator.IsDefined(k[last]) {
		return 0
	}
	switch {
	case rsi[last] < 30 && k[last] < 20:
		return 1
	case rsi[last] > 70 && k[last] > 80:
		return -1
	default:
		return 0
	}
}
