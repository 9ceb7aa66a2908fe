package scanner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CyclesTotal tracks scan cycles by outcome.
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_scanner_cycles_total",
			Help: "Total number of scan cycles by outcome",
		},
		[]string{"outcome"},
	)

	// CycleDurationSeconds tracks the duration of a scan cycle.
	CycleDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polymarket_scanner_cycle_duration_seconds",
		Help:    "Duration of a scan cycle excluding the interval sleep",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	})

	// CyclePanicsTotal tracks recovered cycle panics.
	CyclePanicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_scanner_cycle_panics_total",
		Help: "Total number of scan cycles that panicked",
	})

	// TradesTotal tracks executed opportunities by type and result.
	TradesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_scanner_trades_total",
			Help: "Total number of opportunities executed by the scan loop",
		},
		[]string{"type", "result"},
	)

	// StateGauge is 1 for the current orchestrator state and 0 otherwise.
	StateGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "polymarket_scanner_state",
			Help: "Current orchestrator state (1 = active)",
		},
		[]string{"state"},
	)
)
