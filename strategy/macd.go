package strategy

import (
	"github.com/evdnx/equiscan/indicator"
	"github.com/evdnx/equiscan/types"
)

// MACD buys when the MACD line crosses above its signal line, sells on
// the reverse cross.
func MACD(fast, slow, signal int) Strategy {
	return Strategy{
		Key:    "macd",
		Weight: 1.0,
		Verdict: func(w *types.Window) int {
			return macdVerdict(w, fast, slow, signal)
		},
	}
}

func macdVerdict(w *types.Window, fast, slow, signal int) int {
	n := w.Len()
	if n < 2 {
		return 0
	}
	line, sig, _ := indicator.MACD(w.Close, fast, slow, signal)
	last := n - 1
	prev := n - 2
	if !indicator.IsDefined(line[last]) || !indicator.IsDefined(sig[last]) ||
		!indicator.IsDefined(line[prev]) || !indicator.IsDefined(sig[prev]) {
		return 0
	}
	switch {
	case line[prev] <= sig[prev] && line[last] > sig[last]:
		return 1
	case line[prev] >= sig[prev] && line[last] < sig[last]:
		return -1
	default:
		return 0
	}
}
