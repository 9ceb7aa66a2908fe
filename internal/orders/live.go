package orders

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mselser95/polyarb-agent/pkg/types"
	"go.uber.org/zap"
)

// LiveClient holds venue credentials. Order routing to the CLOB is not
// implemented; every call fails with ErrLiveTradingDisabled.
type LiveClient struct {
	apiKey    string
	apiSecret string
	host      string
	address   string // derived from the private key, empty without one
	logger    *zap.Logger
}

// LiveConfig holds live client configuration.
type LiveConfig struct {
	APIKey     string
	APISecret  string
	PrivateKey string // optional, hex with or without 0x
	Host       string
	Logger     *zap.Logger
}

// NewLiveClient validates credentials and creates a live client.
func NewLiveClient(cfg *LiveConfig) (*LiveClient, error) {
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, errors.New("live trading requires POLYMARKET_API_KEY and POLYMARKET_API_SECRET")
	}

	var address string
	if cfg.PrivateKey != "" {
		privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}

		publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
		if !ok {
			return nil, errors.New("derive public key")
		}
		address = crypto.PubkeyToAddress(*publicKey).Hex()
	}

	cfg.Logger.Warn("live-order-client-created",
		zap.String("host", cfg.Host),
		zap.String("address", address),
		zap.String("status", "orders-disabled"))

	return &LiveClient{
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		host:      cfg.Host,
		address:   address,
		logger:    cfg.Logger,
	}, nil
}

// Mode returns "live".
func (c *LiveClient) Mode() string {
	return "live"
}

// Address returns the signer address derived from the private key.
func (c *LiveClient) Address() string {
	return c.address
}

// CreateMarketOrder always fails.
func (c *LiveClient) CreateMarketOrder(_ context.Context, req types.OrderRequest) (*types.Order, error) {
	OrderErrorsTotal.WithLabelValues(c.Mode(), "disabled").Inc()
	return nil, &types.OrderError{
		Code:    types.ErrCodeSubmit,
		Message: "live order routing unavailable",
		Outcome: req.Outcome,
		Side:    req.Side,
		Err:     types.ErrLiveTradingDisabled,
	}
}

// Redeem always fails.
func (c *LiveClient) Redeem(_ context.Context, conditionID string, _, _ float64) (float64, error) {
	OrderErrorsTotal.WithLabelValues(c.Mode(), "disabled").Inc()
	return 0, fmt.Errorf("redeem %s: %w", conditionID, types.ErrLiveTradingDisabled)
}
