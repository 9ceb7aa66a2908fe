package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PagesFetchedTotal tracks listing pages fetched from the Gamma API.
	PagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_gateway_pages_fetched_total",
		Help: "Total number of market listing pages fetched",
	})

	// MarketsNormalizedTotal tracks markets accepted by normalization.
	MarketsNormalizedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_gateway_markets_normalized_total",
		Help: "Total number of markets normalized into binary snapshots",
	})

	// ItemsSkippedTotal tracks raw items dropped during normalization.
	ItemsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_gateway_items_skipped_total",
			Help: "Total number of raw market items skipped by reason",
		},
		[]string{"reason"},
	)

	// RequestDurationSeconds tracks Gamma API request latency.
	RequestDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polymarket_gateway_request_duration_seconds",
		Help:    "Duration of Gamma API requests",
		Buckets: prometheus.DefBuckets,
	})

	// RequestErrorsTotal tracks Gamma API failures by kind.
	RequestErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_gateway_request_errors_total",
			Help: "Total number of Gamma API request failures",
		},
		[]string{"kind"},
	)

	// FetchStoppedTotal tracks why pagination ended.
	FetchStoppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_gateway_fetch_stopped_total",
			Help: "Total number of market fetches by stop reason",
		},
		[]string{"reason"},
	)
)
