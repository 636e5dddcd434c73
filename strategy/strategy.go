// Package strategy holds the multi-strategy library the voting engine
// draws on. Each strategy is a capability value rather than a type
// hierarchy: a Key, a Weight, and a pure Verdict function over a window.
// This avoids a base-class/override chain for what is, per strategy,
// a handful of lines of crossover logic.
package strategy

import "github.com/evdnx/equiscan/types"

// Strategy is one vote-contributing signal generator.
type Strategy struct {
	Key    string
	Weight float64
	// Verdict inspects the window and returns -1 (sell), 0 (hold), or 1
	// (buy). It must not mutate w and must be safe to call concurrently
	// across symbols.
	Verdict func(w *types.Window) int
}

// DefaultRegistry returns the seven built-in strategies as eight entries
// (the moving-average crossover appears as both "ma_crossover" and
// "ema_crossover"), keyed the same way the strategy-configuration port and
// ResolveStrategyKeys name them, each carrying its default weight.
func DefaultRegistry() map[string]Strategy {
	reg := map[string]Strategy{}
	for _, s := range []Strategy{
		MACrossover(20, 50, false),
		EMACrossover(12, 26),
		RSIMeanReversion(14, 70, 30),
		Bollinger(20, 2.0),
		MACD(12, 26, 9),
		VWAP(1.5),
		SuperTrend(10, 3.0),
		StochRSI(14, 14),
	} {
		reg[s.Key] = s
	}
	return reg
}

// Keys returns the registry's keys in a stable, priority-relevant order:
// the order ResolveStrategyKeys checks them in (specific before general).
func Keys() []string {
	return []string{
		"ema_crossover",
		"macd",
		"stoch_rsi",
		"ma_crossover",
		"rsi",
		"bollinger",
		"vwap",
		"supertrend",
	}
}
