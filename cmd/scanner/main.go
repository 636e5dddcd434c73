// Package main is the scanner process entrypoint.
//
// Boot sequence:
//  1. config.Load()         - read every tunable from the environment
//  2. logger.NewZapLogger() - structured JSON logging
//  3. wire the marketdata/execution/persistence ports (simulation by
//     default; no broker is wired in since none is in scope here)
//  4. risk.MoneyManager + voting.Engine + scanner.Scanner
//  5. start the Prometheus /healthz + /metrics server on PORT
//  6. run the scan loop until SIGINT/SIGTERM
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/evdnx/equiscan/config"
	"github.com/evdnx/equiscan/execution"
	"github.com/evdnx/equiscan/logger"
	"github.com/evdnx/equiscan/marketdata"
	"github.com/evdnx/equiscan/persistence"
	"github.com/evdnx/equiscan/risk"
	"github.com/evdnx/equiscan/scanner"
	"github.com/evdnx/equiscan/strategy"
	"github.com/evdnx/equiscan/voting"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logger.NewZapLogger()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	market := marketdata.NewPort(nil)
	exec := execution.NewPort(nil, lg)
	persist := persistence.NewNoopPort(lg)

	money := risk.NewMoneyManager(cfg.InitialCapital, risk.Config{
		MaxPositionSizePct: cfg.MaxPositionSizePct,
		MaxDailyLossPct:    cfg.MaxDailyLossPct,
		MaxTradesPerDay:    cfg.MaxTradesPerDay,
		StopLossPct:        cfg.StopLossPct,
		TrailingStopPct:    cfg.TrailingStopPct,
	}, lg)

	votes := voting.NewEngine(strategy.DefaultRegistry())

	s := scanner.New(cfg, scanner.ModeSimulation, market, exec, persist, money, votes, lg)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		status := s.Status()
		fmt.Fprintf(w, "%+v\n", status)
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: ":" + port, Handler: mux}
	go func() {
		lg.Info("serving metrics", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	<-ctx.Done()
	lg.Info("shutdown signal received, stopping scanner")
	s.Stop()
	<-done

	shutdownCtx, c := context.WithTimeout(context.Background(), 2*time.Second)
	defer c()
	_ = srv.Shutdown(shutdownCtx)
}
