package execution

import (
	"context"
	"errors"
	"testing"

	"github.com/evdnx/equiscan/types"
)

func TestSimulationAlwaysSucceeds(t *testing.T) {
	sim := NewSimulation(nil)
	ok, err := sim.Submit(context.Background(), "AAA", types.OrderBuy, 10, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected simulation to always accept")
	}
}

type fakeBroker struct {
	err error
}

func (f *fakeBroker) SubmitOrder(_ context.Context, _ string, _ types.OrderSide, _ int, _, _, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "broker-order-1", nil
}

func TestBrokerPortPropagatesSuccess(t *testing.T) {
	port := NewPort(&fakeBroker{}, nil)
	ok, err := port.Submit(context.Background(), "AAA", types.OrderSell, 5, 50)
	if err != nil || !ok {
		t.Fatalf("expected success, got ok=%v err=%v", ok, err)
	}
}

func TestBrokerPortPropagatesFailure(t *testing.T) {
	port := NewPort(&fakeBroker{err: errors.New("rejected")}, nil)
	ok, err := port.Submit(context.Background(), "AAA", types.OrderSell, 5, 50)
	if err == nil || ok {
		t.Fatalf("expected failure to propagate, got ok=%v err=%v", ok, err)
	}
}

func TestNewPortFallsBackToSimulationWhenNoBroker(t *testing.T) {
	port := NewPort(nil, nil)
	if _, ok := port.(*Simulation); !ok {
		t.Fatalf("expected NewPort(nil, ...) to return a Simulation")
	}
}
