// Package execution provides the order-submission port the scanner uses
// to act on trading decisions. It is submit-only: no balance bookkeeping
// happens here, since the risk package's money manager is the single
// source of truth for capital.
package execution

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/evdnx/equiscan/logger"
	"github.com/evdnx/equiscan/types"
)

// Port is the order-submission contract the scanner depends on.
type Port interface {
	// Submit places an order for qty shares of symbol at side, returning
	// whether it was accepted.
	Submit(ctx context.Context, symbol string, side types.OrderSide, qty int, price float64) (bool, error)
}

// BrokerSubmitter is the port a real broker integration would implement.
type BrokerSubmitter interface {
	SubmitOrder(ctx context.Context, symbol string, side types.OrderSide, quantity int, validity, product, orderType string) (string, error)
}

// NewPort returns broker wrapped as a Port if non-nil, otherwise a
// logging Simulation.
func NewPort(broker BrokerSubmitter, log logger.Logger) Port {
	if broker != nil {
		return &brokerPort{broker: broker, log: log}
	}
	return NewSimulation(log)
}

type brokerPort struct {
	broker BrokerSubmitter
	log    logger.Logger
}

func (b *brokerPort) Submit(ctx context.Context, symbol string, side types.OrderSide, qty int, price float64) (bool, error) {
	orderID, err := b.broker.SubmitOrder(ctx, symbol, side, qty, "DAY", symbol, "MARKET")
	if err != nil {
		if b.log != nil {
			b.log.Error("order submission failed",
				logger.Symbol(symbol),
				logger.Err(err),
			)
		}
		return false, err
	}
	if b.log != nil {
		b.log.Info("order submitted",
			logger.Symbol(symbol),
			logger.String("order_id", orderID),
			logger.String("side", string(side)),
			logger.Int("quantity", qty),
			logger.Float64("price", price),
		)
	}
	return true, nil
}

// Simulation always accepts an order and logs the intent; it keeps no
// balance state of its own.
type Simulation struct {
	log logger.Logger
}

// NewSimulation builds a logging-only execution simulation.
func NewSimulation(log logger.Logger) *Simulation {
	return &Simulation{log: log}
}

func (s *Simulation) Submit(_ context.Context, symbol string, side types.OrderSide, qty int, price float64) (bool, error) {
	orderID := uuid.New().String()
	if s.log != nil {
		s.log.Info("simulated order filled",
			logger.Symbol(symbol),
			logger.String("order_id", orderID),
			logger.String("side", string(side)),
			logger.Int("quantity", qty),
			logger.Float64("price", price),
			logger.Any("filled_at", time.Now()),
		)
	}
	return true, nil
}
