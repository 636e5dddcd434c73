package scanner

import (
	"context"
	"testing"
	"time"

	"github.com/evdnx/equiscan/config"
	"github.com/evdnx/equiscan/risk"
	"github.com/evdnx/equiscan/strategy"
	"github.com/evdnx/equiscan/testutils"
	"github.com/evdnx/equiscan/types"
	"github.com/evdnx/equiscan/voting"
)

// flatWindow builds a minWindowBars+-sized window with constant
// high/low/close so ATR(14) converges exactly to (high-low), and the
// default strategy registry holds at verdict 0 throughout (no crossover,
// no band breakout).
func flatWindow(n int, high, low, closePrice float64) *types.Window {
	bars := make([]types.Bar, n)
	base := time.Date(2026, 1, 1, 9, 15, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = types.Bar{
			Time:   base.Add(time.Duration(i) * time.Minute),
			Open:   closePrice,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: 1000,
		}
	}
	return types.NewWindow(bars)
}

// constantVotingEngine returns the default registry with key overridden
// to always vote verdict, wired so ResolveStrategyKeys maps name straight
// back to key.
func constantVotingEngine(key string, verdict int) *voting.Engine {
	reg := strategy.DefaultRegistry()
	reg[key] = strategy.Strategy{Key: key, Weight: 1.0, Verdict: func(*types.Window) int { return verdict }}
	return voting.NewEngine(reg)
}

func testConfig(symbols ...string) config.Config {
	cfg := config.Default()
	cfg.Watchlist = symbols
	cfg.ScanInterval = time.Second
	return cfg
}

func newTestScanner(cfg config.Config, votes *voting.Engine, market *testutils.FakeMarketData, exec *testutils.FakeExecution, persist *testutils.FakePersistence, money *risk.MoneyManager) *Scanner {
	log := testutils.NewMockLogger()
	s := New(cfg, ModeSimulation, market, exec, persist, money, votes, log)
	s.reloadActiveKeys(context.Background())
	return s
}

func defaultMoneyManager() *risk.MoneyManager {
	cfg := risk.Config{
		MaxPositionSizePct: 2.0,
		MaxDailyLossPct:    5.0,
		MaxTradesPerDay:    50,
		StopLossPct:        1.5,
		TrailingStopPct:    1.0,
	}
	return risk.NewMoneyManager(100000, cfg, testutils.NewMockLogger())
}

// TestScannerFullTickBuy matches spec scenario 2: combined=+1, no existing
// position, can_trade=true, atr=10, price=100 ⇒ qty=100, opens LONG at
// 100 with stop=80/target=140, one TRADE_EXECUTED signal.
func TestScannerFullTickBuy(t *testing.T) {
	market := testutils.NewFakeMarketData()
	market.SetWindow("X", flatWindow(60, 105, 95, 100))

	exec := testutils.NewFakeExecution()
	persist := testutils.NewFakePersistence([]string{"ma_crossover"})
	money := defaultMoneyManager()
	votes := constantVotingEngine("ma_crossover", 1)

	s := newTestScanner(testConfig("X"), votes, market, exec, persist, money)
	s.runTick(context.Background())

	pos, ok := money.Position("X")
	if !ok {
		t.Fatalf("expected an open position on X")
	}
	if pos.Quantity != 100 {
		t.Fatalf("expected qty 100, got %d", pos.Quantity)
	}
	if pos.StopLoss != 80 || pos.TakeProfit != 140 {
		t.Fatalf("expected stop=80 target=140, got stop=%v target=%v", pos.StopLoss, pos.TakeProfit)
	}

	signals := s.Signals(10, "X")
	if len(signals) != 1 || signals[0].Action != "TRADE_EXECUTED" {
		t.Fatalf("expected one TRADE_EXECUTED signal, got %+v", signals)
	}
	if len(exec.Submits) != 1 || exec.Submits[0].Qty != 100 {
		t.Fatalf("expected one submitted order of 100 shares, got %+v", exec.Submits)
	}
}

// TestScannerStopLossExit matches spec scenario 3: LONG at 100 qty=100
// stop=90, price drops to 89 ⇒ STOP_LOSS exit, pnl=-1100.
func TestScannerStopLossExit(t *testing.T) {
	market := testutils.NewFakeMarketData()
	market.SetWindow("X", flatWindow(60, 95, 85, 89))

	exec := testutils.NewFakeExecution()
	persist := testutils.NewFakePersistence(nil)
	money := defaultMoneyManager()
	// atr=5 so calculateStopLoss(100, Long, 5) = 90.
	money.OpenPosition("X", types.Long, 100, 100, 5)

	votes := constantVotingEngine("ma_crossover", 1)
	s := newTestScanner(testConfig("X"), votes, market, exec, persist, money)
	s.runTick(context.Background())

	if _, ok := money.Position("X"); ok {
		t.Fatalf("expected position to be closed")
	}
	if len(persist.Trades) != 1 {
		t.Fatalf("expected one recorded trade, got %d", len(persist.Trades))
	}
	trade := persist.Trades[0]
	if trade.Reason != "STOP_LOSS" || trade.PnL != -1100 {
		t.Fatalf("expected STOP_LOSS pnl=-1100, got reason=%s pnl=%v", trade.Reason, trade.PnL)
	}

	signals := s.Signals(10, "X")
	if len(signals) != 1 || signals[0].Action != "POSITION_CLOSED(STOP_LOSS)" {
		t.Fatalf("expected POSITION_CLOSED(STOP_LOSS) signal, got %+v", signals)
	}
}

// TestScannerDailyLossGateBlocksEntry matches spec scenario 4: forcing
// daily_pnl past the loss limit blocks a BUY verdict with BLOCKED(DAILY_LOSS_LIMIT)
// and leaves no position opened.
func TestScannerDailyLossGateBlocksEntry(t *testing.T) {
	market := testutils.NewFakeMarketData()
	market.SetWindow("X", flatWindow(60, 105, 95, 100))
	market.SetWindow("WARMUP", flatWindow(60, 105, 95, 100))

	exec := testutils.NewFakeExecution()
	persist := testutils.NewFakePersistence([]string{"ma_crossover"})
	money := defaultMoneyManager()

	// Force daily_pnl <= -5000 (5% of 100000) via a realized loss on an
	// unrelated symbol, exactly as the production path would.
	money.OpenPosition("WARMUP", types.Long, 1000, 100, 2)
	money.ClosePosition("WARMUP", 94.9, "TEST_SEED")

	if ok, _ := money.CanTrade(); ok {
		t.Fatalf("expected CanTrade to already be false after the seeded loss")
	}

	votes := constantVotingEngine("ma_crossover", 1)
	s := newTestScanner(testConfig("X"), votes, market, exec, persist, money)
	s.runTick(context.Background())

	if _, ok := money.Position("X"); ok {
		t.Fatalf("expected no position opened on X")
	}
	signals := s.Signals(10, "X")
	if len(signals) != 1 || signals[0].Action != "BLOCKED(DAILY_LOSS_LIMIT)" {
		t.Fatalf("expected BLOCKED(DAILY_LOSS_LIMIT), got %+v", signals)
	}
	for _, sub := range exec.Submits {
		if sub.Symbol == "X" {
			t.Fatalf("expected no order submitted for X, got %+v", sub)
		}
	}
}

// TestScannerTrailingStopExit matches spec scenario 5: a favorable move to
// 110 tightens the trailing stop to 109 (entry·trailing_stop_pct
// subtracted from the high), and a subsequent 108.5 triggers TRAILING_STOP.
func TestScannerTrailingStopExit(t *testing.T) {
	market := testutils.NewFakeMarketData()
	exec := testutils.NewFakeExecution()
	persist := testutils.NewFakePersistence(nil)
	money := defaultMoneyManager()
	money.OpenPosition("X", types.Long, 10, 100, 10)

	votes := constantVotingEngine("ma_crossover", 1)
	s := newTestScanner(testConfig("X"), votes, market, exec, persist, money)

	market.SetWindow("X", flatWindow(60, 112, 108, 110))
	s.runTick(context.Background())
	if _, ok := money.Position("X"); !ok {
		t.Fatalf("expected position still open after favorable move")
	}

	market.SetWindow("X", flatWindow(60, 110, 106, 108.5))
	s.runTick(context.Background())
	if _, ok := money.Position("X"); ok {
		t.Fatalf("expected trailing stop to close the position")
	}
	if len(persist.Trades) != 1 || persist.Trades[0].Reason != "TRAILING_STOP" {
		t.Fatalf("expected a TRAILING_STOP trade, got %+v", persist.Trades)
	}
}

// TestScannerVotingTieHolds matches spec scenario 6: three equally
// weighted strategies voting (+1, -1, 0) average to 0 ⇒ HOLD, no
// can_trade check, no order submitted.
func TestScannerVotingTieHolds(t *testing.T) {
	market := testutils.NewFakeMarketData()
	market.SetWindow("X", flatWindow(60, 105, 95, 100))

	exec := testutils.NewFakeExecution()
	persist := testutils.NewFakePersistence([]string{"ema_crossover", "macd", "stoch_rsi"})
	money := defaultMoneyManager()

	reg := strategy.DefaultRegistry()
	reg["ema_crossover"] = strategy.Strategy{Key: "ema_crossover", Weight: 1.0, Verdict: func(*types.Window) int { return 1 }}
	reg["macd"] = strategy.Strategy{Key: "macd", Weight: 1.0, Verdict: func(*types.Window) int { return -1 }}
	reg["stoch_rsi"] = strategy.Strategy{Key: "stoch_rsi", Weight: 1.0, Verdict: func(*types.Window) int { return 0 }}
	votes := voting.NewEngine(reg)

	s := newTestScanner(testConfig("X"), votes, market, exec, persist, money)
	s.runTick(context.Background())

	if _, ok := money.Position("X"); ok {
		t.Fatalf("expected no position opened on a tied vote")
	}
	signals := s.Signals(10, "X")
	if len(signals) != 1 || signals[0].Action != "HOLD" {
		t.Fatalf("expected HOLD, got %+v", signals)
	}
	if len(exec.Submits) != 0 {
		t.Fatalf("expected no orders submitted, got %+v", exec.Submits)
	}
}

// TestScannerSkipsShortWindows verifies the <50-bar skip rule: a symbol
// with too little history produces no signal event and no position.
func TestScannerSkipsShortWindows(t *testing.T) {
	market := testutils.NewFakeMarketData()
	market.SetWindow("X", flatWindow(10, 105, 95, 100))

	exec := testutils.NewFakeExecution()
	persist := testutils.NewFakePersistence(nil)
	money := defaultMoneyManager()
	votes := constantVotingEngine("ma_crossover", 1)

	s := newTestScanner(testConfig("X"), votes, market, exec, persist, money)
	s.runTick(context.Background())

	if s.Signals(10, "X") != nil && len(s.Signals(10, "X")) != 0 {
		t.Fatalf("expected no signal for a short window, got %+v", s.Signals(10, "X"))
	}
	if _, ok := money.Position("X"); ok {
		t.Fatalf("expected no position opened")
	}
}

// TestScannerExitBeforeEntrySameTick verifies a symbol that exits this
// tick never also opens a new position in the same tick (spec.md §8's
// "exit and entry never both occur" invariant).
func TestScannerExitBeforeEntrySameTick(t *testing.T) {
	market := testutils.NewFakeMarketData()
	market.SetWindow("X", flatWindow(60, 95, 85, 89))

	exec := testutils.NewFakeExecution()
	persist := testutils.NewFakePersistence(nil)
	money := defaultMoneyManager()
	money.OpenPosition("X", types.Long, 100, 100, 5) // stop=90

	votes := constantVotingEngine("ma_crossover", 1) // would otherwise BUY
	s := newTestScanner(testConfig("X"), votes, market, exec, persist, money)
	s.runTick(context.Background())

	signals := s.Signals(10, "X")
	if len(signals) != 1 {
		t.Fatalf("expected exactly one signal event, got %d", len(signals))
	}
	if signals[0].Action != "POSITION_CLOSED(STOP_LOSS)" {
		t.Fatalf("expected the exit to win over entry this tick, got %q", signals[0].Action)
	}
	if _, ok := money.Position("X"); ok {
		t.Fatalf("expected no position re-opened in the same tick")
	}
}

// TestScannerStatusReflectsMoneyManager checks the read-surface snapshot
// wires through to the money manager's live metrics.
func TestScannerStatusReflectsMoneyManager(t *testing.T) {
	market := testutils.NewFakeMarketData()
	exec := testutils.NewFakeExecution()
	persist := testutils.NewFakePersistence(nil)
	money := defaultMoneyManager()
	votes := constantVotingEngine("ma_crossover", 1)

	s := newTestScanner(testConfig("X"), votes, market, exec, persist, money)
	status := s.Status()
	if status.Mode != ModeSimulation {
		t.Fatalf("expected simulation mode, got %v", status.Mode)
	}
	if status.CurrentCapital != 100000 {
		t.Fatalf("expected initial capital reflected, got %v", status.CurrentCapital)
	}
	if status.OpenPositions != 0 {
		t.Fatalf("expected no open positions, got %d", status.OpenPositions)
	}
}
