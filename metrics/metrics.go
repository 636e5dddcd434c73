// Package metrics exposes the scanner's Prometheus instrumentation:
// scan cadence, per-verdict decisions, orders, exits, risk denials, and
// the money manager's live equity/position counts.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ScansTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scanner_scans_total",
			Help: "Total number of completed scan ticks.",
		},
	)

	DecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanner_decisions_total",
			Help: "Combined voting-engine verdicts produced, by verdict.",
		},
		[]string{"verdict"}, // buy|sell|hold
	)

	OrdersSubmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanner_orders_submitted_total",
			Help: "Orders submitted to the execution port, by side and result.",
		},
		[]string{"side", "result"}, // result: success|failure
	)

	ExitReasonsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanner_exit_reasons_total",
			Help: "Closed positions, by exit reason and side.",
		},
		[]string{"reason", "side"},
	)

	RiskDenialsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanner_risk_denials_total",
			Help: "Entry attempts blocked by the money manager, by reason.",
		},
		[]string{"reason"},
	)

	EquityGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scanner_equity",
			Help: "Current available capital.",
		},
	)

	OpenPositionsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scanner_open_positions",
			Help: "Current number of open positions.",
		},
	)

	DailyPnLGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scanner_daily_pnl",
			Help: "Realized PnL accumulated since the last daily reset.",
		},
	)

	ScanDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scanner_scan_duration_seconds",
			Help:    "Wall-clock duration of a full scan tick across all symbols.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(
		ScansTotal,
		DecisionsTotal,
		OrdersSubmittedTotal,
		ExitReasonsTotal,
		RiskDenialsTotal,
		EquityGauge,
		OpenPositionsGauge,
		DailyPnLGauge,
		ScanDurationSeconds,
	)
}
