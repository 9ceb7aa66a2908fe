package app

import (
	"context"

	"github.com/mselser95/polyarb-agent/internal/arbitrage"
	"github.com/mselser95/polyarb-agent/internal/gateway"
	"github.com/mselser95/polyarb-agent/pkg/config"
	"github.com/mselser95/polyarb-agent/pkg/types"
	"go.uber.org/zap"
)

// ScanOnce runs a single detection pass without executing or journaling
// anything.
func ScanOnce(
	ctx context.Context,
	cfg *config.Config,
	logger *zap.Logger,
	limit int,
) ([]*arbitrage.Opportunity, arbitrage.ScanStats) {
	gw := setupGateway(cfg, logger, nil)
	detector := setupDetector(cfg, logger, gw, nil)
	return detector.ScanMarkets(ctx, limit)
}

// ListMarkets fetches and normalizes up to limit markets.
func ListMarkets(
	ctx context.Context,
	cfg *config.Config,
	logger *zap.Logger,
	limit int,
) ([]types.BinaryMarket, gateway.FetchReport) {
	return setupGateway(cfg, logger, nil).GetTopMarkets(ctx, limit)
}
