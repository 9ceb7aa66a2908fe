// Package pricefeed provides BTC spot prices and their recent change.
package pricefeed

import (
	"context"
	"errors"
	"time"
)

// ErrNoPrice is returned when a feed has neither a fresh nor a previous price.
var ErrNoPrice = errors.New("no price available")

// Feed is a BTC spot price source that remembers what it served.
type Feed interface {
	// Price returns the current price and records it in the history.
	Price(ctx context.Context) (float64, error)
	// Change returns the percent change over window, or 0 when the history
	// does not reach back that far.
	Change(window time.Duration) float64
	// Source names the feed for logs and metrics.
	Source() string
}
