package execution

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/mselser95/polyarb-agent/internal/arbitrage"
	"github.com/mselser95/polyarb-agent/internal/orders"
	"github.com/mselser95/polyarb-agent/pkg/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	errInvalidAmount   = errors.New("invalid amount")
	errInvalidPriceSum = errors.New("invalid combined leg price")
)

// Executor turns an opportunity and a dollar amount into a pair of legs.
type Executor struct {
	client orders.Client
	logger *zap.Logger
}

// Config holds executor configuration.
type Config struct {
	Client orders.Client
	Logger *zap.Logger
}

// New creates a new trade executor.
func New(cfg *Config) *Executor {
	return &Executor{
		client: cfg.Client,
		logger: cfg.Logger,
	}
}

// Mode returns the order client mode ("paper" or "live").
func (e *Executor) Mode() string {
	return e.client.Mode()
}

// Execute runs one opportunity. It never returns an error: failures are
// reported through Success=false, Profit=0 and Error on the result.
func (e *Executor) Execute(ctx context.Context, opp *arbitrage.Opportunity, amount float64) *types.ExecutionResult {
	start := time.Now()

	result := &types.ExecutionResult{
		OpportunityID: opp.ID,
		Market:        opp.MarketID,
		ConditionID:   opp.ConditionID,
		Type:          opp.Type,
		Invested:      amount,
		ExecutedAt:    start,
	}

	var err error
	switch opp.Type {
	case types.ArbitrageLong:
		err = e.executeLong(ctx, opp, amount, result)
	case types.ArbitrageShort:
		err = e.executeShort(ctx, opp, amount, result)
	default:
		err = fmt.Errorf("unknown arbitrage type %q", opp.Type)
	}

	result.Elapsed = time.Since(start)
	ExecutionDurationSeconds.Observe(result.Elapsed.Seconds())

	if err != nil {
		result.Success = false
		result.Profit = 0
		result.Error = err.Error()

		ExecutionsTotal.WithLabelValues(string(opp.Type), "failure").Inc()
		e.logger.Error("execution-failed",
			zap.String("opportunity-id", opp.ID),
			zap.String("market-id", opp.MarketID),
			zap.String("type", string(opp.Type)),
			zap.Float64("amount", amount),
			zap.Duration("elapsed", result.Elapsed),
			zap.Error(err))
		return result
	}

	result.Success = true
	ExecutionsTotal.WithLabelValues(string(opp.Type), "success").Inc()
	ProfitRealizedUSD.WithLabelValues(e.client.Mode()).Add(result.Profit)

	e.logger.Info("execution-succeeded",
		zap.String("opportunity-id", opp.ID),
		zap.String("market-id", opp.MarketID),
		zap.String("type", string(opp.Type)),
		zap.Float64("invested", result.Invested),
		zap.Float64("received", result.Received),
		zap.Float64("profit", result.Profit),
		zap.Duration("elapsed", result.Elapsed))

	return result
}

// executeLong buys equal share counts of YES and NO and redeems matched sets.
func (e *Executor) executeLong(ctx context.Context, opp *arbitrage.Opportunity, amount float64, result *types.ExecutionResult) error {
	if err := validate(opp, amount); err != nil {
		return err
	}

	shares := amount / (opp.YesPrice + opp.NoPrice)

	yesOrder, noOrder, err := e.placePair(ctx, opp, types.SideBuy, shares)
	if err != nil {
		return err
	}
	result.YesOrder = yesOrder
	result.NoOrder = noOrder

	redeemed, err := e.client.Redeem(ctx, opp.ConditionID, yesOrder.Shares, noOrder.Shares)
	if err != nil {
		return fmt.Errorf("redeem: %w", err)
	}

	result.Received = redeemed
	result.Profit = redeemed - amount
	return nil
}

// executeShort sells one share of each outcome per dollar of notional.
func (e *Executor) executeShort(ctx context.Context, opp *arbitrage.Opportunity, amount float64, result *types.ExecutionResult) error {
	if err := validate(opp, amount); err != nil {
		return err
	}

	yesOrder, noOrder, err := e.placePair(ctx, opp, types.SideSell, amount)
	if err != nil {
		return err
	}
	result.YesOrder = yesOrder
	result.NoOrder = noOrder

	// Proceeds do not depend on redemption; the call keeps both paths symmetric.
	_, err = e.client.Redeem(ctx, opp.ConditionID, 0, 0)
	if err != nil {
		return fmt.Errorf("redeem: %w", err)
	}

	result.Received = yesOrder.Notional() + noOrder.Notional()
	result.Profit = result.Received - amount
	return nil
}

// placePair submits the YES and NO legs concurrently and waits for both.
// Either leg failing fails the pair.
func (e *Executor) placePair(ctx context.Context, opp *arbitrage.Opportunity, side types.Side, shares float64) (*types.Order, *types.Order, error) {
	var yesOrder, noOrder *types.Order
	var g errgroup.Group

	g.Go(func() error {
		order, err := e.placeLeg(ctx, opp, types.OutcomeYes, side, shares, opp.YesPrice)
		yesOrder = order
		return err
	})
	g.Go(func() error {
		order, err := e.placeLeg(ctx, opp, types.OutcomeNo, side, shares, opp.NoPrice)
		noOrder = order
		return err
	})

	err := g.Wait()
	if err != nil {
		return nil, nil, err
	}
	return yesOrder, noOrder, nil
}

func (e *Executor) placeLeg(
	ctx context.Context,
	opp *arbitrage.Opportunity,
	outcome types.Outcome,
	side types.Side,
	shares float64,
	price float64,
) (*types.Order, error) {
	order, err := e.client.CreateMarketOrder(ctx, types.OrderRequest{
		MarketID:      opp.MarketID,
		ConditionID:   opp.ConditionID,
		Outcome:       outcome,
		Side:          side,
		Shares:        shares,
		ExpectedPrice: price,
	})
	if err != nil {
		LegsTotal.WithLabelValues(string(outcome), string(side), "failure").Inc()

		var orderErr *types.OrderError
		if errors.As(err, &orderErr) {
			return nil, orderErr
		}
		return nil, &types.OrderError{
			Code:    types.ErrCodeSubmit,
			Message: err.Error(),
			Outcome: outcome,
			Side:    side,
			Err:     err,
		}
	}

	if order == nil {
		LegsTotal.WithLabelValues(string(outcome), string(side), "failure").Inc()
		return nil, &types.OrderError{
			Code:    types.ErrCodeRejected,
			Message: "order client returned no order",
			Outcome: outcome,
			Side:    side,
		}
	}

	LegsTotal.WithLabelValues(string(outcome), string(side), "success").Inc()
	return order, nil
}

func validate(opp *arbitrage.Opportunity, amount float64) error {
	if !(amount > 0) || math.IsInf(amount, 0) {
		return fmt.Errorf("%w: %v", errInvalidAmount, amount)
	}

	sum := opp.YesPrice + opp.NoPrice
	if !(sum > 0) || math.IsInf(sum, 0) {
		return fmt.Errorf("%w: %v", errInvalidPriceSum, sum)
	}
	return nil
}
