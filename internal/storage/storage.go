package storage

import (
	"context"

	"github.com/mselser95/polyarb-agent/internal/arbitrage"
	"github.com/mselser95/polyarb-agent/pkg/types"
)

// Storage is the write-only journal for opportunities and completed trades.
// Nothing is read back; balances do not survive a restart.
type Storage interface {
	// StoreOpportunity records a detected opportunity.
	StoreOpportunity(ctx context.Context, opp *arbitrage.Opportunity) error

	// StoreTrade records a completed execution.
	StoreTrade(ctx context.Context, trade *types.TradeLog) error

	// Close closes the storage connection.
	Close() error
}
