package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// AcquisitionsTotal tracks admitted calls per limiter.
	AcquisitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_ratelimit_acquisitions_total",
			Help: "Total number of calls admitted by the rate limiter",
		},
		[]string{"limiter"},
	)

	// WaitSeconds tracks how long callers were held back.
	WaitSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "polymarket_ratelimit_wait_seconds",
			Help:    "Time spent waiting for a rate limiter slot",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"limiter"},
	)
)
