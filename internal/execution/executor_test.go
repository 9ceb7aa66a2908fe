package execution

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/mselser95/polyarb-agent/internal/arbitrage"
	"github.com/mselser95/polyarb-agent/internal/orders"
	"github.com/mselser95/polyarb-agent/internal/testutil"
	"github.com/mselser95/polyarb-agent/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func newTestExecutor(t *testing.T, client orders.Client) *Executor {
	t.Helper()
	return New(&Config{
		Client: client,
		Logger: zaptest.NewLogger(t),
	})
}

func TestExecute_Long(t *testing.T) {
	client := testutil.NewMockOrderClient()
	e := newTestExecutor(t, client)

	opp := arbitrage.CreateTestOpportunity("m1", "Long?")
	result := e.Execute(context.Background(), opp, 10)

	require.True(t, result.Success, result.Error)
	shares := 10 / 0.97
	assert.InDelta(t, shares, result.Received, 1e-9)
	assert.InDelta(t, shares-10, result.Profit, 1e-9)
	assert.InDelta(t, 0.309278, result.Profit, 1e-6)
	assert.Equal(t, 10.0, result.Invested)
	assert.Equal(t, types.ArbitrageLong, result.Type)
	assert.Equal(t, "m1", result.Market)
	assert.Empty(t, result.Error)

	placed := client.GetPlacedOrders()
	require.Len(t, placed, 2)
	for _, o := range placed {
		assert.Equal(t, types.SideBuy, o.Side)
		assert.InDelta(t, shares, o.Shares, 1e-9)
	}

	require.NotNil(t, result.YesOrder)
	require.NotNil(t, result.NoOrder)
	assert.Equal(t, 0.48, result.YesOrder.Price)
	assert.Equal(t, 0.49, result.NoOrder.Price)

	redeems := client.GetRedeems()
	require.Len(t, redeems, 1)
	assert.InDelta(t, shares, redeems[0][0], 1e-9)
}

func TestExecute_Short(t *testing.T) {
	client := testutil.NewMockOrderClient()
	e := newTestExecutor(t, client)

	opp := arbitrage.CreateTestShortOpportunity("m2", "Short?")
	result := e.Execute(context.Background(), opp, 10)

	require.True(t, result.Success, result.Error)
	assert.InDelta(t, 10.2, result.Received, 1e-9)
	assert.InDelta(t, 0.2, result.Profit, 1e-9)

	placed := client.GetPlacedOrders()
	require.Len(t, placed, 2)
	for _, o := range placed {
		assert.Equal(t, types.SideSell, o.Side)
		assert.Equal(t, 10.0, o.Shares)
	}

	assert.Equal(t, [][2]float64{{0, 0}}, client.GetRedeems())
}

func TestExecute_LegsRunConcurrently(t *testing.T) {
	client := testutil.NewMockOrderClient()
	client.Rendezvous = 2
	client.RendezvousTimeout = 2 * time.Second
	e := newTestExecutor(t, client)

	result := e.Execute(context.Background(), arbitrage.CreateTestOpportunity("m1", "q"), 10)

	assert.True(t, result.Success, result.Error)
}

func TestExecute_UnevenFillsRedeemOnlyMatchedSets(t *testing.T) {
	client := testutil.NewMockOrderClient()
	client.SetFillRatio(types.OutcomeNo, 0.5)
	e := newTestExecutor(t, client)

	result := e.Execute(context.Background(), arbitrage.CreateTestOpportunity("m1", "q"), 10)

	require.True(t, result.Success)
	shares := 10 / 0.97
	assert.InDelta(t, shares/2, result.Received, 1e-9)
	assert.InDelta(t, shares/2-10, result.Profit, 1e-9)
	assert.Negative(t, result.Profit)
}

func TestExecute_Failures(t *testing.T) {
	tests := []struct {
		name    string
		opp     func() *arbitrage.Opportunity
		amount  float64
		setup   func(c *testutil.MockOrderClient)
		wantErr string
		legs    int
	}{
		{
			name:    "zero-amount",
			opp:     func() *arbitrage.Opportunity { return arbitrage.CreateTestOpportunity("m", "q") },
			amount:  0,
			wantErr: "invalid amount",
		},
		{
			name:    "negative-amount",
			opp:     func() *arbitrage.Opportunity { return arbitrage.CreateTestShortOpportunity("m", "q") },
			amount:  -5,
			wantErr: "invalid amount",
		},
		{
			name:    "nan-amount",
			opp:     func() *arbitrage.Opportunity { return arbitrage.CreateTestOpportunity("m", "q") },
			amount:  math.NaN(),
			wantErr: "invalid amount",
		},
		{
			name: "zero-price-sum",
			opp: func() *arbitrage.Opportunity {
				o := arbitrage.CreateTestOpportunity("m", "q")
				o.YesPrice, o.NoPrice = 0, 0
				return o
			},
			amount:  10,
			wantErr: "invalid combined leg price",
		},
		{
			name: "unknown-type",
			opp: func() *arbitrage.Opportunity {
				o := arbitrage.CreateTestOpportunity("m", "q")
				o.Type = "sideways"
				return o
			},
			amount:  10,
			wantErr: "unknown arbitrage type",
		},
		{
			name:    "no-leg-fails",
			opp:     func() *arbitrage.Opportunity { return arbitrage.CreateTestOpportunity("m", "q") },
			amount:  10,
			setup:   func(c *testutil.MockOrderClient) { c.SetFailure(types.OutcomeNo, "book empty") },
			wantErr: "book empty",
			legs:    1,
		},
		{
			name:    "yes-leg-fails-short",
			opp:     func() *arbitrage.Opportunity { return arbitrage.CreateTestShortOpportunity("m", "q") },
			amount:  10,
			setup:   func(c *testutil.MockOrderClient) { c.SetFailure(types.OutcomeYes, "rejected") },
			wantErr: "rejected",
			legs:    1,
		},
		{
			name:    "redeem-fails",
			opp:     func() *arbitrage.Opportunity { return arbitrage.CreateTestOpportunity("m", "q") },
			amount:  10,
			setup:   func(c *testutil.MockOrderClient) { c.SetRedeemError(errors.New("settlement down")) },
			wantErr: "settlement down",
			legs:    2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testutil.NewMockOrderClient()
			if tt.setup != nil {
				tt.setup(client)
			}
			e := newTestExecutor(t, client)

			result := e.Execute(context.Background(), tt.opp(), tt.amount)

			require.NotNil(t, result)
			assert.False(t, result.Success)
			assert.Zero(t, result.Profit)
			assert.Contains(t, result.Error, tt.wantErr)
			assert.Len(t, client.GetPlacedOrders(), tt.legs)
		})
	}
}

// emptyOrderClient returns neither an order nor an error for one outcome.
type emptyOrderClient struct {
	*testutil.MockOrderClient
	outcome types.Outcome
}

func (c *emptyOrderClient) CreateMarketOrder(ctx context.Context, req types.OrderRequest) (*types.Order, error) {
	if req.Outcome == c.outcome {
		return nil, nil
	}
	return c.MockOrderClient.CreateMarketOrder(ctx, req)
}

func TestExecute_NilOrderWithoutError(t *testing.T) {
	for _, outcome := range []types.Outcome{types.OutcomeYes, types.OutcomeNo} {
		t.Run(string(outcome), func(t *testing.T) {
			client := &emptyOrderClient{MockOrderClient: testutil.NewMockOrderClient(), outcome: outcome}
			e := newTestExecutor(t, client)

			for _, opp := range []*arbitrage.Opportunity{
				arbitrage.CreateTestOpportunity("m", "q"),
				arbitrage.CreateTestShortOpportunity("m", "q"),
			} {
				var result *types.ExecutionResult
				require.NotPanics(t, func() {
					result = e.Execute(context.Background(), opp, 10)
				})
				assert.False(t, result.Success)
				assert.Zero(t, result.Profit)
				assert.Contains(t, result.Error, "no order")
			}
			assert.Empty(t, client.GetRedeems())
		})
	}
}

func TestExecute_PaperClient(t *testing.T) {
	e := newTestExecutor(t, orders.NewPaperClient(zap.NewNop()))

	long := e.Execute(context.Background(), arbitrage.CreateTestOpportunity("m1", "q"), 10)
	require.True(t, long.Success, long.Error)
	assert.InDelta(t, 10/0.97-10, long.Profit, 1e-9)
	assert.True(t, long.YesOrder.PaperFill)

	short := e.Execute(context.Background(), arbitrage.CreateTestShortOpportunity("m2", "q"), 10)
	require.True(t, short.Success, short.Error)
	assert.InDelta(t, 0.2, short.Profit, 1e-9)
	assert.Equal(t, "paper", e.Mode())
}

func TestExecute_LiveClientFailsFast(t *testing.T) {
	live, err := orders.NewLiveClient(&orders.LiveConfig{APIKey: "k", APISecret: "s", Logger: zap.NewNop()})
	require.NoError(t, err)
	e := newTestExecutor(t, live)

	result := e.Execute(context.Background(), arbitrage.CreateTestOpportunity("m1", "q"), 10)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "live trading is not implemented")
}
