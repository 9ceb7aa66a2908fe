package orders

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersTotal tracks filled order legs.
	OrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_orders_filled_total",
			Help: "Total number of order legs filled",
		},
		[]string{"mode", "outcome", "side"},
	)

	// OrderErrorsTotal tracks rejected order and redeem calls.
	OrderErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_orders_errors_total",
			Help: "Total number of order or redeem failures",
		},
		[]string{"mode", "kind"},
	)

	// RedeemedTotal tracks complete sets redeemed.
	RedeemedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_orders_redeemed_sets_total",
			Help: "Total number of complete YES+NO sets redeemed",
		},
		[]string{"mode"},
	)
)
