package pricefeed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PriceUSD tracks the last observed BTC price per source.
	PriceUSD = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "polymarket_pricefeed_price_usd",
			Help: "Last observed BTC spot price",
		},
		[]string{"source"},
	)

	// FetchErrorsTotal tracks failed price fetches per source.
	FetchErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_pricefeed_fetch_errors_total",
			Help: "Total number of failed price fetches",
		},
		[]string{"source"},
	)
)
