// Package persistence defines the storage port the scanner consumes for
// trade history and strategy configuration. It is an external
// collaborator per spec.md's scope — only a logging, non-persisting
// default adapter lives here; a real CRUD/database layer is out of scope.
package persistence

import (
	"context"

	"github.com/evdnx/equiscan/logger"
	"github.com/evdnx/equiscan/risk"
)

// Port is the persistence contract the scanner depends on.
type Port interface {
	RecordTrade(ctx context.Context, trade risk.ClosedTrade) error
	LoadActiveStrategyNames(ctx context.Context) ([]string, error)
}

// NoopPort logs trade records instead of persisting them, and returns no
// active strategy names (the scanner falls back to its configured
// default set). Persistence failures never abort a tick, so this
// adapter never returns an error.
type NoopPort struct {
	log logger.Logger
}

// NewNoopPort builds a logging-only persistence adapter.
func NewNoopPort(log logger.Logger) *NoopPort {
	return &NoopPort{log: log}
}

func (p *NoopPort) RecordTrade(_ context.Context, trade risk.ClosedTrade) error {
	if p.log != nil {
		p.log.Info("trade recorded",
			logger.Symbol(trade.Symbol),
			logger.String("side", string(trade.Side)),
			logger.Int("quantity", trade.Quantity),
			logger.Float64("pnl", trade.PnL),
			logger.String("reason", trade.Reason),
		)
	}
	return nil
}

func (p *NoopPort) LoadActiveStrategyNames(_ context.Context) ([]string, error) {
	return nil, nil
}
