package config

import "testing"

func TestDefaultMatchesSpecDefaults(t *testing.T) {
	cfg := Default()
	if cfg.MaxPositionSizePct != 2.0 || cfg.MaxDailyLossPct != 5.0 || cfg.MaxTradesPerDay != 50 {
		t.Fatalf("unexpected risk defaults: %+v", cfg)
	}
	if cfg.StopLossPct != 1.5 || cfg.TakeProfitPct != 3.0 || cfg.TrailingStopPct != 1.0 {
		t.Fatalf("unexpected stop/target defaults: %+v", cfg)
	}
	if cfg.MarketHours.OpenHour != 9 || cfg.MarketHours.OpenMinute != 15 {
		t.Fatalf("unexpected market open: %+v", cfg.MarketHours)
	}
	if cfg.MarketHours.CloseHour != 15 || cfg.MarketHours.CloseMinute != 30 {
		t.Fatalf("unexpected market close: %+v", cfg.MarketHours)
	}
}

func TestDefaultConfigValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("expected default config to validate, got %v", err)
	}
}

func TestValidateRejectsInvalidRSIThresholds(t *testing.T) {
	cfg := Default()
	cfg.RSIOversold = 80
	cfg.RSIOverbought = 70
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for oversold >= overbought")
	}
}

func TestValidateRejectsNonPositiveScanInterval(t *testing.T) {
	cfg := Default()
	cfg.ScanInterval = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for zero scan interval")
	}
}

func TestResolveStrategyKeysOrdersSpecificBeforeGeneral(t *testing.T) {
	got := ResolveStrategyKeys([]string{"EMA Crossover Strategy", "MA Crossover"})
	want := []string{"ema_crossover", "ma_crossover"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestResolveStrategyKeysMACDBeforeGeneral(t *testing.T) {
	got := ResolveStrategyKeys([]string{"MACD Strategy"})
	if len(got) != 1 || got[0] != "macd" {
		t.Fatalf("expected [macd], got %v", got)
	}
}

func TestResolveStrategyKeysDeduplicatesPreservingFirstOccurrence(t *testing.T) {
	got := ResolveStrategyKeys([]string{"rsi mean reversion", "RSI oscillator"})
	if len(got) != 1 || got[0] != "rsi" {
		t.Fatalf("expected deduplicated [rsi], got %v", got)
	}
}

func TestResolveStrategyKeysStochRSIBeforePlainRSI(t *testing.T) {
	got := ResolveStrategyKeys([]string{"stoch_rsi combined"})
	if len(got) != 1 || got[0] != "stoch_rsi" {
		t.Fatalf("expected [stoch_rsi], got %v", got)
	}
}

func TestResolveStrategyKeysSkipsUnknownNames(t *testing.T) {
	got := ResolveStrategyKeys([]string{"totally unknown strategy"})
	if len(got) != 0 {
		t.Fatalf("expected no matches, got %v", got)
	}
}
