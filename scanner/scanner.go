// Package scanner implements the periodic orchestrator: it fans out over
// a watchlist every scan interval, drives each symbol's exit-then-entry
// pipeline, and appends exactly one signal event per evaluated symbol per
// tick. A symbol skipped for a failed fetch or a short window appends none.
package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/evdnx/equiscan/config"
	"github.com/evdnx/equiscan/execution"
	"github.com/evdnx/equiscan/indicator"
	"github.com/evdnx/equiscan/logger"
	"github.com/evdnx/equiscan/marketdata"
	"github.com/evdnx/equiscan/metrics"
	"github.com/evdnx/equiscan/persistence"
	"github.com/evdnx/equiscan/risk"
	"github.com/evdnx/equiscan/signallog"
	"github.com/evdnx/equiscan/strategy"
	"github.com/evdnx/equiscan/types"
	"github.com/evdnx/equiscan/voting"
)

// minWindowBars is the shortest window a symbol's pipeline will act on;
// shorter windows are skipped outright (spec.md §4.7.3a).
const minWindowBars = 50

// atrPeriod is the lookback the scanner uses for current-volatility ATR,
// independent of any strategy's own ATR/SuperTrend period.
const atrPeriod = 14

// Mode distinguishes a broker-backed deployment from the bundled
// simulation, surfaced on StatusSnapshot for operators.
type Mode string

const (
	ModeLive       Mode = "LIVE"
	ModeSimulation Mode = "SIMULATION"
)

// StatusSnapshot is the read-only engine-status view of spec.md §6.
type StatusSnapshot struct {
	Running          bool
	MarketHours      config.MarketHours
	Mode             Mode
	ActiveStrategies []string
	OpenPositions    int
	DailyTrades      int
	DailyPnL         float64
	CurrentCapital   float64
	ScanCount        int64
	LastScanTime     time.Time
	SignalsInMemory  int
}

// Scanner is the orchestrator: it owns the watchlist, the per-tick
// schedule, and wires the money manager, voting engine, and I/O ports
// together, per spec.md §4.7.
type Scanner struct {
	cfg     config.Config
	mode    Mode
	market  marketdata.Port
	exec    execution.Port
	persist persistence.Port
	money   *risk.MoneyManager
	votes   *voting.Engine
	signals *signallog.Log
	log     logger.Logger

	mu           sync.Mutex
	running      bool
	activeKeys   []string
	scanCount    int64
	lastScanTime time.Time
}

// New builds a scanner over the given config and ports. The active
// strategy set starts at the registry's default keys; the first tick
// reloads it from persist (spec.md §4.7.2).
func New(cfg config.Config, mode Mode, market marketdata.Port, exec execution.Port, persist persistence.Port, money *risk.MoneyManager, votes *voting.Engine, log logger.Logger) *Scanner {
	return &Scanner{
		cfg:        cfg,
		mode:       mode,
		market:     market,
		exec:       exec,
		persist:    persist,
		money:      money,
		votes:      votes,
		signals:    signallog.New(),
		log:        log,
		activeKeys: strategy.Keys(),
	}
}

// Run drives the scan loop until ctx is cancelled or Stop is called.
// It blocks the caller; start it in its own goroutine.
func (s *Scanner) Run(ctx context.Context) {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	for {
		if ctx.Err() != nil || !s.isRunning() {
			s.haltOpenPositions(context.Background())
			return
		}

		if !withinMarketHours(time.Now(), s.cfg.MarketHours) {
			if s.sleep(ctx, 60*time.Second) {
				s.haltOpenPositions(context.Background())
				return
			}
			continue
		}

		s.reloadActiveKeys(ctx)

		start := time.Now()
		tickErr := s.runTickSafely(ctx)
		metrics.ScanDurationSeconds.Observe(time.Since(start).Seconds())

		s.mu.Lock()
		s.scanCount++
		s.lastScanTime = time.Now()
		s.mu.Unlock()
		metrics.ScansTotal.Inc()
		m := s.money.GetMetrics()
		metrics.EquityGauge.Set(m.AvailableCapital)
		metrics.OpenPositionsGauge.Set(float64(s.money.OpenPositionCount()))
		metrics.DailyPnLGauge.Set(m.DailyPnL)

		sleepFor := s.cfg.ScanInterval
		if tickErr != nil {
			s.log.Error("scan tick failed", logger.Err(tickErr))
			sleepFor = 10 * time.Second
		}
		if s.sleep(ctx, sleepFor) {
			s.haltOpenPositions(context.Background())
			return
		}
	}
}

// Stop flips the running flag; the loop observes it at the next sleep or
// tick boundary and closes out open positions before returning (spec.md
// §4.7's "On stop" clause and §5's cooperative-cancellation rule).
func (s *Scanner) Stop() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

func (s *Scanner) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// sleep waits for d, or returns true early if ctx is cancelled first.
func (s *Scanner) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return true
	case <-time.After(d):
		return false
	}
}

func withinMarketHours(now time.Time, hours config.MarketHours) bool {
	local := now.Local()
	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	open := time.Date(local.Year(), local.Month(), local.Day(), hours.OpenHour, hours.OpenMinute, 0, 0, local.Location())
	closeTime := time.Date(local.Year(), local.Month(), local.Day(), hours.CloseHour, hours.CloseMinute, 0, 0, local.Location())
	return !local.Before(open) && !local.After(closeTime)
}

// reloadActiveKeys pulls the active strategy set from the persistence
// port every tick, falling back to the registry's default keys when none
// are configured (spec.md §4.7.2, §6).
func (s *Scanner) reloadActiveKeys(ctx context.Context) {
	names, err := s.persist.LoadActiveStrategyNames(ctx)
	if err != nil {
		s.log.Warn("load active strategy names failed, keeping prior set", logger.Err(err))
		return
	}
	keys := config.ResolveStrategyKeys(names)
	if len(keys) == 0 {
		keys = strategy.Keys()
	}
	s.mu.Lock()
	s.activeKeys = keys
	s.mu.Unlock()
}

func (s *Scanner) runTickSafely(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scanner: tick panicked: %v", r)
		}
	}()
	s.runTick(ctx)
	return nil
}

// runTick fans out one goroutine per watchlist symbol and blocks until
// every symbol's pipeline completes, so no tick overlaps another
// (spec.md §5's scheduling model).
func (s *Scanner) runTick(ctx context.Context) {
	var wg sync.WaitGroup
	for _, symbol := range s.cfg.Watchlist {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					s.log.Error("symbol pipeline panicked",
						logger.Symbol(symbol),
						logger.Any("panic", r),
					)
				}
			}()
			s.processSymbol(ctx, symbol)
		}(symbol)
	}
	wg.Wait()
}

// processSymbol is one symbol's exit-then-entry pipeline (spec.md
// §4.7.3): fetch, exit phase, and — only if no exit fired — entry phase.
func (s *Scanner) processSymbol(ctx context.Context, symbol string) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.ScanInterval)
	window, tradable, err := s.market.Fetch(fetchCtx, symbol, time.Minute, 200)
	cancel()
	if err != nil {
		s.log.Warn("market data fetch failed", logger.Symbol(symbol), logger.Err(err))
		return
	}
	if !tradable || window.Len() < minWindowBars {
		s.log.Debug("symbol skipped this tick",
			logger.Symbol(symbol),
			logger.Any("tradable", tradable),
			logger.Int("bars", window.Len()),
		)
		return
	}

	atrSeries := indicator.ATR(window.High, window.Low, window.Close, atrPeriod)
	currentATR := atrSeries[len(atrSeries)-1]
	if !indicator.IsDefined(currentATR) {
		currentATR = window.LastClose() * 0.02
	}
	currentPrice := window.LastClose()
	s.log.Debug("symbol pipeline evaluating",
		logger.Symbol(symbol),
		logger.Float64("price", currentPrice),
		logger.Float64("atr", currentATR),
	)

	if _, open := s.money.Position(symbol); open {
		if exit, reason := s.money.ShouldExit(symbol, currentPrice); exit {
			s.closePosition(ctx, symbol, currentPrice, reason)
			return
		}
	}

	s.evaluateEntry(ctx, symbol, window, currentPrice, currentATR)
}

// closePosition realizes PnL on a should_exit trigger, submits the
// closing order best-effort, records the trade, and appends the
// POSITION_CLOSED signal event.
func (s *Scanner) closePosition(ctx context.Context, symbol string, price float64, reason string) {
	pos, ok := s.money.Position(symbol)
	if !ok {
		return
	}

	submitCtx, cancel := context.WithTimeout(ctx, s.cfg.ScanInterval)
	_, _ = s.exec.Submit(submitCtx, symbol, pos.Side.ExitSide(), pos.Quantity, price)
	cancel()

	pnl := s.money.ClosePosition(symbol, price, reason)
	metrics.ExitReasonsTotal.WithLabelValues(reason, string(pos.Side)).Inc()

	if err := s.persist.RecordTrade(ctx, risk.ClosedTrade{
		Symbol:     symbol,
		Side:       pos.Side,
		Quantity:   pos.Quantity,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  price,
		PnL:        pnl,
		EntryTime:  pos.EntryTime,
		ExitTime:   time.Now(),
		Reason:     reason,
	}); err != nil {
		s.log.Warn("persistence record_trade failed", logger.Err(err))
	}

	s.signals.Append(signallog.Signal{
		Time:         time.Now(),
		Symbol:       symbol,
		CurrentPrice: price,
		Action:       "POSITION_CLOSED(" + reason + ")",
	})
}

// evaluateEntry runs the voting engine and, on a non-hold verdict, walks
// the can_trade / already-in-position / submit_order decision chain
// (spec.md §4.7.3d).
func (s *Scanner) evaluateEntry(ctx context.Context, symbol string, window *types.Window, price, atr float64) {
	s.mu.Lock()
	keys := append([]string(nil), s.activeKeys...)
	s.mu.Unlock()

	signals, combined := s.votes.Evaluate(window, keys)
	metrics.DecisionsTotal.WithLabelValues(verdictLabel(combined)).Inc()
	confidence := agreementConfidence(signals, combined)

	if combined == 0 {
		s.appendEntrySignal(symbol, price, signals, combined, "HOLD", 0, 0, 0, confidence)
		return
	}

	qty := s.money.CalculatePositionSize(price, atr)
	stop, target := plannedStopTarget(types.Verdict(combined), price, atr)

	if ok, reason := s.money.CanTrade(); !ok {
		metrics.RiskDenialsTotal.WithLabelValues(reason).Inc()
		s.appendEntrySignal(symbol, price, signals, combined, "BLOCKED("+reason+")", qty, stop, target, confidence)
		return
	}

	if _, exists := s.money.Position(symbol); exists {
		s.appendEntrySignal(symbol, price, signals, combined, "ALREADY_IN_POSITION", qty, stop, target, confidence)
		return
	}

	side, _ := types.Verdict(combined).Side()

	submitCtx, cancel := context.WithTimeout(ctx, s.cfg.ScanInterval)
	accepted, err := s.exec.Submit(submitCtx, symbol, side.EntrySide(), qty, price)
	cancel()

	if err != nil || !accepted {
		metrics.OrdersSubmittedTotal.WithLabelValues(string(side.EntrySide()), "failure").Inc()
		s.appendEntrySignal(symbol, price, signals, combined, "EXECUTION_FAILED", qty, stop, target, confidence)
		return
	}
	metrics.OrdersSubmittedTotal.WithLabelValues(string(side.EntrySide()), "success").Inc()

	opened := s.money.OpenPosition(symbol, side, qty, price, atr)
	s.appendEntrySignal(symbol, price, signals, combined, "TRADE_EXECUTED", qty, opened.StopLoss, opened.TakeProfit, confidence)
}

func (s *Scanner) appendEntrySignal(symbol string, price float64, signals map[string]int, combined int, action string, qty int, stop, target, confidence float64) {
	s.signals.Append(signallog.Signal{
		Time:              time.Now(),
		Symbol:            symbol,
		Combined:          combined,
		VerdictLabel:      verdictLabel(combined),
		CurrentPrice:      price,
		Verdicts:          signals,
		Confidence:        confidence,
		SuggestedQuantity: qty,
		StopLoss:          stop,
		TakeProfit:        target,
		Action:            action,
	})
}

func verdictLabel(v int) string {
	switch {
	case v > 0:
		return "BUY"
	case v < 0:
		return "SELL"
	default:
		return "HOLD"
	}
}

// plannedStopTarget mirrors the money manager's 2x/4x-ATR stop and target
// calculation so a BLOCKED/ALREADY_IN_POSITION/EXECUTION_FAILED signal
// event can still report what the trade would have looked like. HOLD
// events report a zero stop and target.
func plannedStopTarget(v types.Verdict, price, atr float64) (stop, target float64) {
	side, ok := v.Side()
	if !ok {
		return 0, 0
	}
	stopDistance := atr * 2
	profitDistance := atr * 4
	if side == types.Short {
		return price + stopDistance, price - profitDistance
	}
	return price - stopDistance, price + profitDistance
}

// agreementConfidence is the fraction of voting strategies whose verdict
// matches the combined sign (spec.md §3's confidence field).
func agreementConfidence(signals map[string]int, combined int) float64 {
	if len(signals) == 0 {
		return 0
	}
	var agree int
	for _, v := range signals {
		if sign(v) == sign(combined) {
			agree++
		}
	}
	return float64(agree) / float64(len(signals))
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// haltOpenPositions closes every open position with reason ENGINE_STOP,
// best-effort, per spec.md §4.7's "On stop" clause.
func (s *Scanner) haltOpenPositions(ctx context.Context) {
	for _, symbol := range s.money.OpenSymbols() {
		pos, ok := s.money.Position(symbol)
		if !ok {
			continue
		}
		fetchCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		window, tradable, err := s.market.Fetch(fetchCtx, symbol, time.Minute, 1)
		cancel()

		price := pos.EntryPrice
		if err == nil && tradable && window.Len() > 0 {
			price = window.LastClose()
		}
		s.closePosition(ctx, symbol, price, "ENGINE_STOP")
	}
}

// Status returns a snapshot of the engine's current read surface
// (spec.md §6).
func (s *Scanner) Status() StatusSnapshot {
	s.mu.Lock()
	running := s.running
	keys := append([]string(nil), s.activeKeys...)
	scanCount := s.scanCount
	lastScan := s.lastScanTime
	s.mu.Unlock()

	m := s.money.GetMetrics()
	return StatusSnapshot{
		Running:          running,
		MarketHours:      s.cfg.MarketHours,
		Mode:             s.mode,
		ActiveStrategies: keys,
		OpenPositions:    s.money.OpenPositionCount(),
		DailyTrades:      m.DailyTrades,
		DailyPnL:         m.DailyPnL,
		CurrentCapital:   m.AvailableCapital,
		ScanCount:        scanCount,
		LastScanTime:     lastScan,
		SignalsInMemory:  s.signals.Len(),
	}
}

// Signals returns up to n of the most recent signal events, optionally
// filtered to one symbol.
func (s *Scanner) Signals(n int, symbol string) []signallog.Signal {
	return s.signals.Last(n, symbol)
}
