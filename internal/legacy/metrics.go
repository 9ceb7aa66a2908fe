package legacy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SignalsTotal tracks detected entry signals by side.
	SignalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_legacy_signals_total",
			Help: "Total number of UP/DOWN entry signals detected",
		},
		[]string{"side"},
	)

	// ClosedTradesTotal tracks closed positions by reason.
	ClosedTradesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_legacy_closed_trades_total",
			Help: "Total number of closed legacy positions by reason",
		},
		[]string{"reason"},
	)

	// OpenPositions tracks the number of open legacy positions.
	OpenPositions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polymarket_legacy_open_positions",
		Help: "Number of open legacy positions",
	})

	// CapitalUSD tracks free legacy capital.
	CapitalUSD = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polymarket_legacy_capital_usd",
		Help: "Free capital of the legacy strategy",
	})

	// RealizedPnLUSD accumulates realized legacy PnL.
	RealizedPnLUSD = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polymarket_legacy_realized_pnl_usd",
		Help: "Realized PnL of the legacy strategy",
	})
)
