// Package voting combines the strategy library's individual verdicts into
// a single weighted trading decision.
package voting

import (
	"github.com/evdnx/equiscan/strategy"
	"github.com/evdnx/equiscan/types"
)

const threshold = 0.30

// Engine evaluates a window against a fixed strategy registry.
type Engine struct {
	registry map[string]strategy.Strategy
}

// NewEngine builds a voting engine over the given strategy registry.
func NewEngine(registry map[string]strategy.Strategy) *Engine {
	return &Engine{registry: registry}
}

// Evaluate runs every strategy named in activeKeys (strategies not in the
// registry are silently skipped, matching the original engine's
// "if name in self.strategies" guard), and combines their verdicts into a
// single weighted signal. The per-strategy verdicts are returned alongside
// the combined one for the signal log.
func (e *Engine) Evaluate(w *types.Window, activeKeys []string) (signals map[string]int, combined int) {
	signals = make(map[string]int, len(activeKeys))
	var weightedSum, totalWeight float64

	for _, key := range activeKeys {
		s, ok := e.registry[key]
		if !ok {
			continue
		}
		v := s.Verdict(w)
		signals[key] = v
		weightedSum += float64(v) * s.Weight
		totalWeight += s.Weight
	}

	var normalized float64
	if totalWeight > 0 {
		normalized = weightedSum / totalWeight
	}

	switch {
	case normalized > threshold:
		combined = 1
	case normalized < -threshold:
		combined = -1
	default:
		combined = 0
	}
	return signals, combined
}
