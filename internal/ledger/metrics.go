package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BalanceUSD tracks the realized trading balance.
	BalanceUSD = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polymarket_ledger_balance_usd",
		Help: "Current realized trading balance in USD",
	})

	// RealizedPnLUSD tracks balance minus starting capital.
	RealizedPnLUSD = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polymarket_ledger_realized_pnl_usd",
		Help: "Realized profit and loss since start in USD",
	})
)
