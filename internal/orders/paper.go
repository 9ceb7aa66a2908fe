package orders

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/mselser95/polyarb-agent/pkg/types"
	"go.uber.org/zap"
)

// PaperClient fills every valid order immediately at the requested price.
type PaperClient struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewPaperClient creates a simulated order client.
func NewPaperClient(logger *zap.Logger) *PaperClient {
	return &PaperClient{
		logger: logger,
		now:    time.Now,
	}
}

// Mode returns "paper".
func (c *PaperClient) Mode() string {
	return "paper"
}

// CreateMarketOrder validates the request and returns a filled order.
func (c *PaperClient) CreateMarketOrder(ctx context.Context, req types.OrderRequest) (*types.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !(req.Shares > 0) || math.IsInf(req.Shares, 0) {
		return nil, fmt.Errorf("%w: shares must be > 0, got %v", types.ErrInvalidOrder, req.Shares)
	}
	if !(req.ExpectedPrice > 0 && req.ExpectedPrice < 1) {
		return nil, fmt.Errorf("%w: price must be in (0, 1), got %v", types.ErrInvalidOrder, req.ExpectedPrice)
	}
	if req.Outcome != types.OutcomeYes && req.Outcome != types.OutcomeNo {
		return nil, fmt.Errorf("%w: unknown outcome %q", types.ErrInvalidOrder, req.Outcome)
	}
	if req.Side != types.SideBuy && req.Side != types.SideSell {
		return nil, fmt.Errorf("%w: unknown side %q", types.ErrInvalidOrder, req.Side)
	}

	order := &types.Order{
		ID:        "paper-" + uuid.NewString(),
		MarketID:  req.MarketID,
		Outcome:   req.Outcome,
		Side:      req.Side,
		Price:     req.ExpectedPrice,
		Shares:    req.Shares,
		FilledAt:  c.now(),
		PaperFill: true,
	}

	OrdersTotal.WithLabelValues(c.Mode(), string(req.Outcome), string(req.Side)).Inc()

	c.logger.Debug("paper-order-filled",
		zap.String("order-id", order.ID),
		zap.String("market-id", req.MarketID),
		zap.String("outcome", string(req.Outcome)),
		zap.String("side", string(req.Side)),
		zap.Float64("shares", req.Shares),
		zap.Float64("price", req.ExpectedPrice))

	return order, nil
}

// Redeem pays out one unit per complete YES+NO pair.
func (c *PaperClient) Redeem(ctx context.Context, conditionID string, yesShares, noShares float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if yesShares <= 0 || noShares <= 0 {
		return 0, nil
	}

	redeemed := math.Min(yesShares, noShares)
	RedeemedTotal.WithLabelValues(c.Mode()).Add(redeemed)

	c.logger.Debug("paper-redeem",
		zap.String("condition-id", conditionID),
		zap.Float64("yes-shares", yesShares),
		zap.Float64("no-shares", noShares),
		zap.Float64("redeemed", redeemed))

	return redeemed, nil
}
