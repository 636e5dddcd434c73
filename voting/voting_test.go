package voting

import (
	"testing"

	"github.com/evdnx/equiscan/strategy"
	"github.com/evdnx/equiscan/types"
)

func constantStrategy(key string, weight float64, verdict int) strategy.Strategy {
	return strategy.Strategy{
		Key:    key,
		Weight: weight,
		Verdict: func(*types.Window) int {
			return verdict
		},
	}
}

func TestEvaluateBoundaryTieResolvesToHold(t *testing.T) {
	// weighted average exactly 0.30 must NOT cross the strict threshold.
	reg := map[string]strategy.Strategy{
		"a": constantStrategy("a", 0.3, 1),
		"b": constantStrategy("b", 0.7, 0),
	}
	e := NewEngine(reg)
	_, combined := e.Evaluate(nil, []string{"a", "b"})
	if combined != 0 {
		t.Fatalf("expected hold at exact threshold, got %d", combined)
	}
}

func TestEvaluateAboveThresholdBuys(t *testing.T) {
	reg := map[string]strategy.Strategy{
		"a": constantStrategy("a", 0.31, 1),
		"b": constantStrategy("b", 0.69, 0),
	}
	e := NewEngine(reg)
	_, combined := e.Evaluate(nil, []string{"a", "b"})
	if combined != 1 {
		t.Fatalf("expected buy above threshold, got %d", combined)
	}
}

func TestEvaluateOpposingVotesTieToHold(t *testing.T) {
	reg := map[string]strategy.Strategy{
		"a": constantStrategy("a", 1.0, 1),
		"b": constantStrategy("b", 1.0, -1),
	}
	e := NewEngine(reg)
	signals, combined := e.Evaluate(nil, []string{"a", "b"})
	if combined != 0 {
		t.Fatalf("expected hold on a tie, got %d", combined)
	}
	if signals["a"] != 1 || signals["b"] != -1 {
		t.Fatalf("unexpected per-strategy signals: %+v", signals)
	}
}

func TestEvaluateSkipsUnknownKeys(t *testing.T) {
	reg := map[string]strategy.Strategy{
		"a": constantStrategy("a", 1.0, 1),
	}
	e := NewEngine(reg)
	signals, combined := e.Evaluate(nil, []string{"a", "ghost"})
	if combined != 1 {
		t.Fatalf("expected buy from the one known strategy, got %d", combined)
	}
	if _, ok := signals["ghost"]; ok {
		t.Fatalf("unknown key should not appear in signals")
	}
}

func TestEvaluateNoActiveStrategiesHolds(t *testing.T) {
	e := NewEngine(map[string]strategy.Strategy{})
	signals, combined := e.Evaluate(nil, nil)
	if combined != 0 {
		t.Fatalf("expected hold with zero total weight, got %d", combined)
	}
	if len(signals) != 0 {
		t.Fatalf("expected no signals, got %+v", signals)
	}
}
