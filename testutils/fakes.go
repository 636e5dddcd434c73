package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/evdnx/equiscan/risk"
	"github.com/evdnx/equiscan/types"
)

// FakeMarketData is an in-memory marketdata.Port backed by windows set by
// the test, so scanner/risk tests can drive specific OHLCV sequences
// instead of the random-walk simulation.
type FakeMarketData struct {
	mu       sync.Mutex
	windows  map[string]*types.Window
	tradable map[string]bool
	err      map[string]error
}

// NewFakeMarketData returns an empty fake feed.
func NewFakeMarketData() *FakeMarketData {
	return &FakeMarketData{
		windows:  make(map[string]*types.Window),
		tradable: make(map[string]bool),
		err:      make(map[string]error),
	}
}

// SetWindow installs the window a subsequent Fetch for symbol returns.
func (f *FakeMarketData) SetWindow(symbol string, w *types.Window) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows[symbol] = w
	f.tradable[symbol] = true
}

// SetError makes Fetch return err for symbol.
func (f *FakeMarketData) SetError(symbol string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err[symbol] = err
}

func (f *FakeMarketData) Fetch(_ context.Context, symbol string, _ time.Duration, _ int) (*types.Window, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.err[symbol]; ok {
		return nil, false, err
	}
	w, ok := f.windows[symbol]
	if !ok {
		return types.NewWindow(nil), false, nil
	}
	return w, f.tradable[symbol], nil
}

// FakeExecution is an in-memory execution.Port that records every order
// it is asked to submit, and can be configured to fail a symbol.
type FakeExecution struct {
	mu      sync.Mutex
	fail    map[string]bool
	Submits []FakeSubmit
}

// FakeSubmit is one recorded Submit call.
type FakeSubmit struct {
	Symbol string
	Side   types.OrderSide
	Qty    int
	Price  float64
}

// NewFakeExecution returns an execution fake that accepts every order.
func NewFakeExecution() *FakeExecution {
	return &FakeExecution{fail: make(map[string]bool)}
}

// FailSymbol makes subsequent Submit calls for symbol return false.
func (f *FakeExecution) FailSymbol(symbol string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[symbol] = true
}

func (f *FakeExecution) Submit(_ context.Context, symbol string, side types.OrderSide, qty int, price float64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Submits = append(f.Submits, FakeSubmit{Symbol: symbol, Side: side, Qty: qty, Price: price})
	if f.fail[symbol] {
		return false, nil
	}
	return true, nil
}

// FakePersistence is an in-memory persistence.Port recording every trade.
type FakePersistence struct {
	mu             sync.Mutex
	Trades         []risk.ClosedTrade
	ActiveStrategy []string
}

// NewFakePersistence returns a persistence fake seeded with the given
// active strategy names.
func NewFakePersistence(activeStrategies []string) *FakePersistence {
	return &FakePersistence{ActiveStrategy: activeStrategies}
}

func (f *FakePersistence) RecordTrade(_ context.Context, trade risk.ClosedTrade) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Trades = append(f.Trades, trade)
	return nil
}

func (f *FakePersistence) LoadActiveStrategyNames(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ActiveStrategy, nil
}
