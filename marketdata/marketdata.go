// Package marketdata provides the bar-feed port the scanner pulls
// candles through, plus a deterministic simulation generator used when no
// broker integration is wired in.
package marketdata

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/evdnx/equiscan/types"
)

// Port is the bar-feed contract the scanner depends on.
type Port interface {
	// Fetch returns up to limit bars for symbol at the given interval,
	// the most recent first-class window, and whether the feed is
	// currently tradeable (e.g. the broker reports data availability).
	Fetch(ctx context.Context, symbol string, interval time.Duration, limit int) (*types.Window, bool, error)
}

// BrokerFetcher is the port a real broker/candle-provider integration
// would implement; NewPort falls back to Simulation when none is given.
type BrokerFetcher interface {
	FetchCandles(ctx context.Context, symbol string, interval time.Duration, limit int) ([]types.Bar, error)
}

// NewPort returns broker wrapped as a Port if non-nil, otherwise a fresh
// Simulation.
func NewPort(broker BrokerFetcher) Port {
	if broker != nil {
		return &brokerPort{broker: broker}
	}
	return NewSimulation()
}

type brokerPort struct {
	broker BrokerFetcher
}

func (b *brokerPort) Fetch(ctx context.Context, symbol string, interval time.Duration, limit int) (*types.Window, bool, error) {
	bars, err := b.broker.FetchCandles(ctx, symbol, interval, limit)
	if err != nil {
		return nil, false, err
	}
	if len(bars) == 0 {
		return types.NewWindow(nil), false, nil
	}
	return types.NewWindow(bars), true, nil
}

// Simulation is a deterministic geometric-random-walk bar generator. Each
// symbol gets a stable base price derived from its FNV hash and its own
// seeded random source, so repeated runs against the same symbol set
// produce a reproducible, symbol-distinguishable price path.
type Simulation struct {
	mu    sync.Mutex
	state map[string]*symbolState
}

type symbolState struct {
	rng       *rand.Rand
	lastPrice float64
	bars      []types.Bar
}

// NewSimulation constructs an empty simulated feed.
func NewSimulation() *Simulation {
	return &Simulation{state: make(map[string]*symbolState)}
}

func basePrice(symbol string) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(symbol))
	// Map the hash into a readable equity-like price range, e.g. $20-$520.
	return 20 + float64(h.Sum32()%50000)/100
}

func (s *Simulation) stateFor(symbol string) *symbolState {
	st, ok := s.state[symbol]
	if ok {
		return st
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(symbol))
	seed := int64(h.Sum32())
	st = &symbolState{
		rng:       rand.New(rand.NewSource(seed)),
		lastPrice: basePrice(symbol),
	}
	s.state[symbol] = st
	return st
}

// Fetch generates (or extends) a deterministic bar series for symbol and
// returns the most recent limit bars. It always reports the feed as
// tradeable.
func (s *Simulation) Fetch(_ context.Context, symbol string, interval time.Duration, limit int) (*types.Window, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stateFor(symbol)
	need := limit - len(st.bars)
	now := time.Now()
	for need > 0 {
		logReturn := st.rng.NormFloat64() * 0.001
		next := st.lastPrice * math.Exp(logReturn)
		if next <= 0 {
			next = st.lastPrice
		}
		ts := now.Add(-time.Duration(need) * interval)
		// spec.md §4.5's per-bar distribution: open ≈ close·(1±0.5%),
		// high ≈ close·(1+U[0,1%]), low ≈ close·(1−U[0,1%]),
		// volume ∼ U[1000, 100000].
		open := next * (1 + (st.rng.Float64()*2-1)*0.005)
		high := next * (1 + st.rng.Float64()*0.01)
		low := next * (1 - st.rng.Float64()*0.01)
		volume := 1000 + st.rng.Float64()*99000

		st.bars = append(st.bars, types.Bar{
			Time:   ts,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  next,
			Volume: volume,
		})
		st.lastPrice = next
		need--
	}

	if len(st.bars) > limit {
		st.bars = st.bars[len(st.bars)-limit:]
	}
	window := types.NewWindow(st.bars)
	return window, true, nil
}
