package strategy

import (
	"github.com/evdnx/equiscan/indicator"
	"github.com/evdnx/equiscan/types"
)

// MACrossover is the golden-cross / death-cross strategy: buy when the
// short moving average crosses above the long one, sell on the reverse
// cross. useEMA switches both legs from SMA to EMA.
func MACrossover(shortPeriod, longPeriod int, useEMA bool) Strategy {
	key := "ma_crossover"
	if useEMA {
		key = "ema_crossover"
	}
	return Strategy{
		Key:    key,
		Weight: 1.0,
		Verdict: func(w *types.Window) int {
			return maCrossoverVerdict(w, shortPeriod, longPeriod, useEMA)
		},
	}
}

// EMACrossover is MACrossover with both legs forced to EMA, matching the
// separately-weighted "ema_crossover" entry in the default registry.
func EMACrossover(shortPeriod, longPeriod int) Strategy {
	return MACrossover(shortPeriod, longPeriod, true)
}

func maCrossoverVerdict(w *types.Window, shortPeriod, longPeriod int, useEMA bool) int {
	n := w.Len()
	if n < 2 {
		return 0
	}
	var shortMA, longMA []float64
	if useEMA {
		shortMA = indicator.EMA(w.Close, shortPeriod)
		longMA = indicator.EMA(w.Close, longPeriod)
	} else {
		shortMA = indicator.SMA(w.Close, shortPeriod)
		longMA = indicator.SMA(w.Close, longPeriod)
	}
	last := n - 1
	prev := n - 2
	if !indicator.IsDefined(shortMA[last]) || !indicator.IsDefined(longMA[last]) ||
		!indicator.IsDefined(shortMA[prev]) || !indicator.IsDefined(longMA[prev]) {
		return 0
	}
	switch {
	case shortMA[prev] <= longMA[prev] && shortMA[last] > longMA[last]:
		return 1
	case shortMA[prev] >= longMA[prev] && shortMA[last] < longMA[last]:
		return -1
	default:
		return 0
	}
}
