package execution

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExecutionsTotal tracks opportunity executions by type and result.
	ExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_execution_executions_total",
			Help: "Total number of opportunity executions",
		},
		[]string{"type", "result"},
	)

	// LegsTotal tracks individual order legs.
	LegsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_execution_legs_total",
			Help: "Total number of order legs submitted",
		},
		[]string{"outcome", "side", "result"},
	)

	// ProfitRealizedUSD tracks cumulative profit. Can go down.
	ProfitRealizedUSD = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "polymarket_execution_profit_realized_usd",
			Help: "Cumulative profit realized (simulated for paper trading)",
		},
		[]string{"mode"},
	)

	// ExecutionDurationSeconds tracks execution latency.
	ExecutionDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polymarket_execution_duration_seconds",
		Help:    "Duration of trade execution",
		Buckets: prometheus.DefBuckets,
	})
)
