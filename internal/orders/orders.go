// Package orders submits order legs and redeems complete sets.
package orders

import (
	"context"

	"github.com/mselser95/polyarb-agent/pkg/types"
	"go.uber.org/zap"
)

// Client places single-leg market orders and redeems YES+NO pairs.
type Client interface {
	CreateMarketOrder(ctx context.Context, req types.OrderRequest) (*types.Order, error)
	Redeem(ctx context.Context, conditionID string, yesShares, noShares float64) (float64, error)
	Mode() string
}

// Config selects and configures an order client.
type Config struct {
	PaperTrading bool
	MockMode     bool
	APIKey       string
	APISecret    string
	PrivateKey   string
	Host         string
	Logger       *zap.Logger
}

// New returns the paper client when paper trading or mock mode is on,
// otherwise the live client.
func New(cfg *Config) (Client, error) {
	if cfg.PaperTrading || cfg.MockMode {
		return NewPaperClient(cfg.Logger), nil
	}

	return NewLiveClient(&LiveConfig{
		APIKey:     cfg.APIKey,
		APISecret:  cfg.APISecret,
		PrivateKey: cfg.PrivateKey,
		Host:       cfg.Host,
		Logger:     cfg.Logger,
	})
}
