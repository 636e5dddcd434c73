// Package risk implements the money manager: position sizing, stop-loss
// and take-profit calculation, trailing-stop tracking, daily risk gating,
// and trade-history-derived risk metrics. It is the single source of
// truth for available capital — market-data and execution stay
// stateless with respect to it.
package risk

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/evdnx/equiscan/logger"
	"github.com/evdnx/equiscan/types"
)

// Position is an open position tracked by the money manager.
type Position struct {
	Symbol       string
	Side         types.PositionSide
	Quantity     int
	EntryPrice   float64
	EntryTime    time.Time
	StopLoss     float64
	TakeProfit   float64
	TrailingStop *float64
	HighestPrice *float64
	LowestPrice  *float64
}

// ClosedTrade is the record written once a position is closed.
type ClosedTrade struct {
	Symbol     string
	Side       types.PositionSide
	Quantity   int
	EntryPrice float64
	ExitPrice  float64
	PnL        float64
	EntryTime  time.Time
	ExitTime   time.Time
	Reason     string
}

// Metrics is a snapshot of the manager's risk state.
type Metrics struct {
	TotalCapital     float64
	AvailableCapital float64
	DailyPnL         float64
	DailyTrades      int
	MaxDrawdown      float64
	WinRate          float64
	ProfitFactor     float64
	SharpeRatio      float64
}

// Config bundles the money manager's tunables (spec.md §6 defaults).
type Config struct {
	MaxPositionSizePct float64
	MaxDailyLossPct    float64
	MaxTradesPerDay    int
	StopLossPct        float64
	TrailingStopPct    float64
}

// MoneyManager is the sole owner of trading capital and open positions.
// Every mutating method is guarded by a single mutex, per the shared
// mutable position map requirement.
type MoneyManager struct {
	mu sync.Mutex

	cfg Config
	log logger.Logger

	initialCapital float64
	currentCapital float64
	positions      map[string]*Position
	dailyPnL       float64
	dailyTrades    int
	tradeHistory   []ClosedTrade
	equityCurve    []float64
	lastResetDate  time.Time
}

// NewMoneyManager constructs a manager with the given starting capital.
func NewMoneyManager(initialCapital float64, cfg Config, log logger.Logger) *MoneyManager {
	return &MoneyManager{
		cfg:            cfg,
		log:            log,
		initialCapital: initialCapital,
		currentCapital: initialCapital,
		positions:      make(map[string]*Position),
		equityCurve:    []float64{initialCapital},
		lastResetDate:  time.Now(),
	}
}

func sameCalendarDay(a, b time.Time) bool {
	ya, ma, da := a.Date()
	yb, mb, db := b.Date()
	return ya == yb && ma == mb && da == db
}

// resetDailyStatsLocked resets daily counters once the local calendar date
// has advanced past the last reset. Caller must hold mu.
func (m *MoneyManager) resetDailyStatsLocked() {
	today := time.Now().Local()
	if !sameCalendarDay(today, m.lastResetDate) && today.After(m.lastResetDate) {
		m.dailyPnL = 0
		m.dailyTrades = 0
		m.lastResetDate = today
	}
}

// CanTrade reports whether trading is currently allowed, and if not, why.
func (m *MoneyManager) CanTrade() (bool, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetDailyStatsLocked()

	dailyLossLimit := m.initialCapital * (m.cfg.MaxDailyLossPct / 100)
	if m.dailyPnL <= -dailyLossLimit {
		return false, "DAILY_LOSS_LIMIT"
	}
	if m.dailyTrades >= m.cfg.MaxTradesPerDay {
		return false, "MAX_DAILY_TRADES"
	}
	return true, ""
}

// CalculatePositionSize sizes a position from ATR-based stop distance,
// capped by both a minimum of one share and available capital.
func (m *MoneyManager) CalculatePositionSize(price, atr float64) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	riskAmount := m.currentCapital * (m.cfg.MaxPositionSizePct / 100)
	stopDistance := atr * 2
	if stopDistance <= 0 {
		stopDistance = price * (m.cfg.StopLossPct / 100)
	}

	var shares int
	if stopDistance > 0 {
		shares = int(riskAmount / stopDistance)
	} else {
		shares = int(riskAmount / price)
	}
	if shares < 1 {
		shares = 1
	}

	if price > 0 {
		maxShares := int(m.currentCapital / price)
		if shares > maxShares {
			shares = maxShares
		}
	}
	return shares
}

func calculateStopLoss(entryPrice float64, side types.PositionSide, atr float64) float64 {
	stopDistance := atr * 2
	if side == types.Short {
		return entryPrice + stopDistance
	}
	return entryPrice - stopDistance
}

func calculateTakeProfit(entryPrice float64, side types.PositionSide, atr float64) float64 {
	profitDistance := atr * 4
	if side == types.Short {
		return entryPrice - profitDistance
	}
	return entryPrice + profitDistance
}

// OpenPosition opens a new position and deducts its notional from
// available capital. The caller is responsible for ensuring no position
// already exists for symbol (per spec.md's precondition); violating it is
// a programming error and panics.
func (m *MoneyManager) OpenPosition(symbol string, side types.PositionSide, quantity int, price, atr float64) Position {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.positions[symbol]; exists {
		panic(fmt.Sprintf("risk: OpenPosition called for %s with a position already open", symbol))
	}

	stopLoss := calculateStopLoss(price, side, atr)
	takeProfit := calculateTakeProfit(price, side, atr)

	pos := &Position{
		Symbol:     symbol,
		Side:       side,
		Quantity:   quantity,
		EntryPrice: price,
		EntryTime:  time.Now(),
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
	}
	if side == types.Long {
		h := price
		pos.HighestPrice = &h
	} else {
		l := price
		pos.LowestPrice = &l
	}

	m.positions[symbol] = pos
	m.dailyTrades++
	m.currentCapital -= float64(quantity) * price

	if m.log != nil {
		m.log.Info("position opened",
			logger.Symbol(symbol),
			logger.String("side", string(side)),
			logger.Int("quantity", quantity),
			logger.Float64("price", price),
		)
	}
	return *pos
}

// UpdateTrailingStop tightens a position's trailing stop when price moves
// favorably. It is a no-op if the symbol has no open position. The stop
// only ever tightens: once set it never loosens, and it starts nil until
// the first favorable extreme is recorded.
func (m *MoneyManager) UpdateTrailingStop(symbol string, currentPrice float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateTrailingStopLocked(symbol, currentPrice)
}

func (m *MoneyManager) updateTrailingStopLocked(symbol string, currentPrice float64) {
	pos, ok := m.positions[symbol]
	if !ok {
		return
	}
	trailingDistance := pos.EntryPrice * (m.cfg.TrailingStopPct / 100)

	if pos.Side == types.Long {
		if pos.HighestPrice == nil || currentPrice > *pos.HighestPrice {
			h := currentPrice
			pos.HighestPrice = &h
			newStop := currentPrice - trailingDistance
			if pos.TrailingStop == nil || newStop > *pos.TrailingStop {
				pos.TrailingStop = &newStop
			}
		}
		return
	}
	if pos.LowestPrice == nil || currentPrice < *pos.LowestPrice {
		l := currentPrice
		pos.LowestPrice = &l
		newStop := currentPrice + trailingDistance
		if pos.TrailingStop == nil || newStop < *pos.TrailingStop {
			pos.TrailingStop = &newStop
		}
	}
}

// ShouldExit reports whether the symbol's open position should be closed
// at currentPrice, and the reason (STOP_LOSS, TRAILING_STOP, TAKE_PROFIT).
// It refreshes the trailing stop first, matching the original engine's
// should_exit/update_trailing_stop coupling.
func (m *MoneyManager) ShouldExit(symbol string, currentPrice float64) (bool, string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos, ok := m.positions[symbol]
	if !ok {
		return false, ""
	}
	m.updateTrailingStopLocked(symbol, currentPrice)

	if pos.Side == types.Long {
		if currentPrice <= pos.StopLoss {
			return true, "STOP_LOSS"
		}
		if pos.TrailingStop != nil && currentPrice <= *pos.TrailingStop {
			return true, "TRAILING_STOP"
		}
		if currentPrice >= pos.TakeProfit {
			return true, "TAKE_PROFIT"
		}
		return false, ""
	}

	if currentPrice >= pos.StopLoss {
		return true, "STOP_LOSS"
	}
	if pos.TrailingStop != nil && currentPrice >= *pos.TrailingStop {
		return true, "TRAILING_STOP"
	}
	if currentPrice <= pos.TakeProfit {
		return true, "TAKE_PROFIT"
	}
	return false, ""
}

// ClosePosition closes the symbol's open position at exitPrice, crediting
// capital and recording the trade. It returns the realized PnL, or 0 if no
// position was open. Note update_trailing_stop is intentionally not
// refreshed here; ENGINE_STOP close-outs close at whatever trailing state
// the last ShouldExit call left behind.
func (m *MoneyManager) ClosePosition(symbol string, exitPrice float64, reason string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos, ok := m.positions[symbol]
	if !ok {
		return 0
	}

	var pnl float64
	if pos.Side == types.Long {
		pnl = (exitPrice - pos.EntryPrice) * float64(pos.Quantity)
	} else {
		pnl = (pos.EntryPrice - exitPrice) * float64(pos.Quantity)
	}

	m.currentCapital += float64(pos.Quantity) * exitPrice
	m.dailyPnL += pnl
	m.equityCurve = append(m.equityCurve, m.currentCapital)

	m.tradeHistory = append(m.tradeHistory, ClosedTrade{
		Symbol:     symbol,
		Side:       pos.Side,
		Quantity:   pos.Quantity,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  exitPrice,
		PnL:        pnl,
		EntryTime:  pos.EntryTime,
		ExitTime:   time.Now(),
		Reason:     reason,
	})

	delete(m.positions, symbol)

	if m.log != nil {
		m.log.Info("position closed",
			logger.Symbol(symbol),
			logger.String("reason", reason),
			logger.Float64("pnl", pnl),
		)
	}
	return pnl
}

// Position returns a copy of the open position for symbol, if any.
func (m *MoneyManager) Position(symbol string) (Position, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pos, ok := m.positions[symbol]
	if !ok {
		return Position{}, false
	}
	return *pos, true
}

// OpenPositionCount returns the number of currently open positions.
func (m *MoneyManager) OpenPositionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.positions)
}

// OpenSymbols returns the symbols with an open position, in no particular order.
func (m *MoneyManager) OpenSymbols() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.positions))
	for s := range m.positions {
		out = append(out, s)
	}
	return out
}

// GetMetrics computes the current risk metrics from trade history.
func (m *MoneyManager) GetMetrics() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.tradeHistory) == 0 {
		return Metrics{
			TotalCapital:     m.initialCapital,
			AvailableCapital: m.currentCapital,
			DailyPnL:         m.dailyPnL,
			DailyTrades:      m.dailyTrades,
		}
	}

	var wins int
	var grossProfit, grossLoss float64
	for _, t := range m.tradeHistory {
		if t.PnL > 0 {
			wins++
			grossProfit += t.PnL
		} else if t.PnL < 0 {
			grossLoss += -t.PnL
		}
	}
	winRate := float64(wins) / float64(len(m.tradeHistory)) * 100

	var profitFactor float64
	switch {
	case grossLoss > 0:
		profitFactor = grossProfit / grossLoss
	case grossProfit > 0:
		profitFactor = math.Inf(1)
	default:
		profitFactor = 0
	}

	maxDrawdown := maxDrawdownPct(m.equityCurve)
	sharpe := sharpeRatio(m.equityCurve)

	return Metrics{
		TotalCapital:     m.initialCapital,
		AvailableCapital: m.currentCapital,
		DailyPnL:         m.dailyPnL,
		DailyTrades:      m.dailyTrades,
		MaxDrawdown:      maxDrawdown,
		WinRate:          winRate,
		ProfitFactor:     profitFactor,
		SharpeRatio:      sharpe,
	}
}

func maxDrawdownPct(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}
	runningMax := equity[0]
	var worst float64
	for _, e := range equity {
		if e > runningMax {
			runningMax = e
		}
		if runningMax == 0 {
			continue
		}
		dd := (e - runningMax) / runningMax * 100
		if dd < worst {
			worst = dd
		}
	}
	return math.Abs(worst)
}

func sharpeRatio(equity []float64) float64 {
	if len(equity) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1] == 0 {
			continue
		}
		returns = append(returns, (equity[i]-equity[i-1])/equity[i-1])
	}
	if len(returns) == 0 {
		return 0
	}
	mean := meanOf(returns)
	sd := stdevOf(returns, mean)
	if sd == 0 {
		return 0
	}
	return (mean / sd) * math.Sqrt(252)
}

func meanOf(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdevOf(values []float64, mean float64) float64 {
	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

// KellyFraction returns the half-Kelly capital fraction, clamped to
// [0, maxPositionSizePct/100].
func KellyFraction(winRatePct, avgWin, avgLoss, maxPositionSizePct float64) float64 {
	if avgLoss == 0 {
		return 0
	}
	p := winRatePct / 100
	q := 1 - p
	b := avgWin / math.Abs(avgLoss)
	if b == 0 {
		return 0
	}
	kelly := (b*p - q) / b
	halfKelly := kelly / 2
	return math.Max(0, math.Min(halfKelly, maxPositionSizePct/100))
}
