package signallog

import "testing"

func TestAppendAndLastOrdersMostRecentFirst(t *testing.T) {
	l := New()
	l.Append(Signal{Symbol: "AAA", Action: "HOLD"})
	l.Append(Signal{Symbol: "AAA", Action: "TRADE_EXECUTED"})

	last := l.Last(2, "")
	if len(last) != 2 {
		t.Fatalf("expected 2 signals, got %d", len(last))
	}
	if last[0].Action != "TRADE_EXECUTED" {
		t.Fatalf("expected most recent first, got %q", last[0].Action)
	}
}

func TestLastFiltersBySymbol(t *testing.T) {
	l := New()
	l.Append(Signal{Symbol: "AAA", Action: "HOLD"})
	l.Append(Signal{Symbol: "BBB", Action: "HOLD"})

	last := l.Last(10, "BBB")
	if len(last) != 1 || last[0].Symbol != "BBB" {
		t.Fatalf("expected only BBB signals, got %+v", last)
	}
}

func TestRingBufferEvictsOldestAtCapacity(t *testing.T) {
	l := New()
	for i := 0; i < capacity+10; i++ {
		l.Append(Signal{Symbol: "AAA", Action: "HOLD"})
	}
	if l.Len() != capacity {
		t.Fatalf("expected length capped at %d, got %d", capacity, l.Len())
	}
}

func TestLastCapsAtAvailableSignals(t *testing.T) {
	l := New()
	l.Append(Signal{Symbol: "AAA"})
	last := l.Last(100, "")
	if len(last) != 1 {
		t.Fatalf("expected 1 signal, got %d", len(last))
	}
}
