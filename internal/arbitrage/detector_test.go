package arbitrage

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/mselser95/polyarb-agent/internal/gateway"
	"github.com/mselser95/polyarb-agent/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticSource struct {
	markets []types.BinaryMarket
}

func (s *staticSource) GetTopMarkets(_ context.Context, limit int) ([]types.BinaryMarket, gateway.FetchReport) {
	out := s.markets
	if len(out) > limit {
		out = out[:limit]
	}
	return out, gateway.FetchReport{Markets: len(out), StopReason: gateway.StopShortPage}
}

func market(id string, yesBid, yesAsk, noBid, noAsk float64) types.BinaryMarket {
	return types.BinaryMarket{
		ID:          id,
		ConditionID: "cond-" + id,
		Question:    "Question " + id,
		Volume:      50000,
		YesBid:      yesBid,
		YesAsk:      yesAsk,
		NoBid:       noBid,
		NoAsk:       noAsk,
		Active:      true,
	}
}

func newTestDetector(markets ...types.BinaryMarket) *Detector {
	return New(Config{
		MinProfitThreshold: 0.005,
		MinMarketVolume:    10000,
		LongSumThreshold:   0.99,
		ShortSumThreshold:  1.01,
		Logger:             zap.NewNop(),
	}, &staticSource{markets: markets}, nil)
}

func TestAnalyzeMarket(t *testing.T) {
	d := newTestDetector()

	tests := []struct {
		name       string
		market     types.BinaryMarket
		wantType   types.ArbitrageType
		wantProfit float64
		wantReason RejectReason
	}{
		{
			name:       "long",
			market:     market("l", 0.47, 0.48, 0.48, 0.49),
			wantType:   types.ArbitrageLong,
			wantProfit: 0.03,
		},
		{
			name:       "short",
			market:     market("s", 0.52, 0.53, 0.50, 0.51),
			wantType:   types.ArbitrageShort,
			wantProfit: 0.02,
		},
		{
			name:       "fair-book",
			market:     market("f", 0.49, 0.50, 0.50, 0.51),
			wantReason: RejectNoArbitrage,
		},
		{
			name:       "sum-at-par",
			market:     market("t", 0.49, 0.50, 0.49, 0.50),
			wantReason: RejectNoArbitrage,
		},
		{
			name: "inactive",
			market: func() types.BinaryMarket {
				m := market("i", 0.47, 0.48, 0.48, 0.49)
				m.Active = false
				return m
			}(),
			wantReason: RejectInactive,
		},
		{
			name: "low-volume",
			market: func() types.BinaryMarket {
				m := market("v", 0.47, 0.48, 0.48, 0.49)
				m.Volume = 9999
				return m
			}(),
			wantReason: RejectLowVolume,
		},
		{
			name:       "zero-price",
			market:     market("z", 0, 0.48, 0.48, 0.49),
			wantReason: RejectInvalidPrice,
		},
		{
			name:       "nan-price",
			market:     market("n", math.NaN(), 0.48, 0.48, 0.49),
			wantReason: RejectInvalidPrice,
		},
		{
			name:       "crossed-yes",
			market:     market("cy", 0.45, 0.40, 0.48, 0.49),
			wantReason: RejectCrossedBook,
		},
		{
			name:       "crossed-no",
			market:     market("cn", 0.47, 0.48, 0.55, 0.49),
			wantReason: RejectCrossedBook,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opp, reason := d.AnalyzeMarket(&tt.market)

			if tt.wantReason != RejectNone {
				assert.Nil(t, opp)
				assert.Equal(t, tt.wantReason, reason)
				return
			}

			require.NotNil(t, opp)
			assert.Equal(t, RejectNone, reason)
			assert.Equal(t, tt.wantType, opp.Type)
			assert.InDelta(t, tt.wantProfit, opp.Profit, 1e-9)
			assert.Equal(t, tt.market.ID, opp.MarketID)
			assert.Equal(t, tt.market.ConditionID, opp.ConditionID)
			assert.NotEmpty(t, opp.ID)
		})
	}
}

func TestAnalyzeMarket_PricesFollowDirection(t *testing.T) {
	d := newTestDetector()

	long := market("l", 0.47, 0.48, 0.48, 0.49)
	opp, _ := d.AnalyzeMarket(&long)
	require.NotNil(t, opp)
	assert.Equal(t, 0.48, opp.YesPrice)
	assert.Equal(t, 0.49, opp.NoPrice)
	assert.InDelta(t, 0.97, opp.PriceSum, 1e-9)

	short := market("s", 0.52, 0.53, 0.50, 0.51)
	opp, _ = d.AnalyzeMarket(&short)
	require.NotNil(t, opp)
	assert.Equal(t, 0.52, opp.YesPrice)
	assert.Equal(t, 0.50, opp.NoPrice)
	assert.InDelta(t, 1.02, opp.PriceSum, 1e-9)
}

// With thresholds that overlap, both directions can qualify on one market.
func TestAnalyzeMarket_BothQualify(t *testing.T) {
	d := New(Config{
		LongSumThreshold:  1.05,
		ShortSumThreshold: 0.95,
		Logger:            zap.NewNop(),
	}, &staticSource{}, nil)

	tests := []struct {
		name     string
		market   types.BinaryMarket
		wantType types.ArbitrageType
	}{
		{name: "short-more-profitable", market: market("a", 0.50, 0.52, 0.50, 0.52), wantType: types.ArbitrageShort},
		{name: "tie-goes-long", market: market("b", 0.50, 0.50, 0.50, 0.50), wantType: types.ArbitrageLong},
		{name: "long-more-profitable", market: market("c", 0.48, 0.48, 0.48, 0.48), wantType: types.ArbitrageLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opp, _ := d.AnalyzeMarket(&tt.market)
			require.NotNil(t, opp)
			assert.Equal(t, tt.wantType, opp.Type)
		})
	}
}

func TestScanMarkets_ThreeMarketScenario(t *testing.T) {
	d := newTestDetector(
		market("none", 0.49, 0.50, 0.50, 0.51),
		market("short", 0.52, 0.53, 0.50, 0.51),
		market("long", 0.47, 0.48, 0.48, 0.49),
	)

	opps, stats := d.ScanMarkets(context.Background(), 100)

	require.Len(t, opps, 2)
	assert.Equal(t, types.ArbitrageLong, opps[0].Type)
	assert.InDelta(t, 0.03, opps[0].Profit, 1e-9)
	assert.Equal(t, types.ArbitrageShort, opps[1].Type)
	assert.InDelta(t, 0.02, opps[1].Profit, 1e-9)

	assert.Equal(t, 3, stats.Markets)
	assert.Equal(t, 2, stats.Opportunities)
	assert.Equal(t, 1, stats.Rejected[RejectNoArbitrage])
	assert.Equal(t, gateway.StopShortPage, stats.Fetch.StopReason)
}

func TestScanMarkets_StableOrderForEqualProfit(t *testing.T) {
	d := newTestDetector(
		market("a", 0.47, 0.48, 0.48, 0.49),
		market("b", 0.47, 0.48, 0.48, 0.49),
		market("c", 0.40, 0.41, 0.50, 0.51),
		market("d", 0.47, 0.48, 0.48, 0.49),
	)

	opps, _ := d.ScanMarkets(context.Background(), 100)

	require.Len(t, opps, 4)
	ids := []string{opps[0].MarketID, opps[1].MarketID, opps[2].MarketID, opps[3].MarketID}
	assert.Equal(t, []string{"c", "a", "b", "d"}, ids)
}

func TestScanMarkets_MinProfitFilter(t *testing.T) {
	d := newTestDetector(
		market("long", 0.47, 0.48, 0.48, 0.49),
		market("short", 0.52, 0.53, 0.50, 0.51),
	)
	d.config.MinProfitThreshold = 0.025

	opps, stats := d.ScanMarkets(context.Background(), 100)

	require.Len(t, opps, 1)
	assert.Equal(t, "long", opps[0].MarketID)
	assert.Equal(t, 1, stats.Rejected[RejectBelowMinimum])
}

func TestScanMarkets_RespectsLimit(t *testing.T) {
	d := newTestDetector(
		market("a", 0.47, 0.48, 0.48, 0.49),
		market("b", 0.47, 0.48, 0.48, 0.49),
		market("c", 0.47, 0.48, 0.48, 0.49),
	)

	opps, stats := d.ScanMarkets(context.Background(), 2)

	assert.Len(t, opps, 2)
	assert.Equal(t, 2, stats.Markets)
}

func TestScanMarkets_AnalysisPanicIsSkipped(t *testing.T) {
	d := newTestDetector(
		market("ok", 0.47, 0.48, 0.48, 0.49),
		market("boom", 0.47, 0.48, 0.48, 0.49),
		market("ok2", 0.52, 0.53, 0.50, 0.51),
	)
	d.analyze = func(m *types.BinaryMarket) (*Opportunity, RejectReason) {
		if m.ID == "boom" {
			panic("bad record")
		}
		return d.AnalyzeMarket(m)
	}

	opps, stats := d.ScanMarkets(context.Background(), 100)

	assert.Len(t, opps, 2)
	assert.Equal(t, 1, stats.Errors)
	assert.Equal(t, 1, stats.Rejected[RejectAnalysisPanic])
}

func TestScanMarkets_EmptyUniverse(t *testing.T) {
	d := newTestDetector()

	opps, stats := d.ScanMarkets(context.Background(), 100)

	assert.Empty(t, opps)
	assert.NotNil(t, opps)
	assert.Zero(t, stats.Markets)
}

func TestScanMarkets_StoresOpportunities(t *testing.T) {
	store := NewMockStorage()
	d := New(Config{
		MinProfitThreshold: 0.005,
		Logger:             zap.NewNop(),
	}, &staticSource{markets: []types.BinaryMarket{
		market("long", 0.47, 0.48, 0.48, 0.49),
		market("short", 0.52, 0.53, 0.50, 0.51),
	}}, store)

	opps, _ := d.ScanMarkets(context.Background(), 100)

	assert.Equal(t, opps, store.GetOpportunities())
}

func TestScanMarkets_StorageErrorDoesNotDropOpportunities(t *testing.T) {
	store := NewMockStorage()
	store.Err = errors.New("disk full")

	d := New(Config{
		MinProfitThreshold: 0.005,
		Logger:             zap.NewNop(),
	}, &staticSource{markets: []types.BinaryMarket{market("long", 0.47, 0.48, 0.48, 0.49)}}, store)

	opps, _ := d.ScanMarkets(context.Background(), 100)

	assert.Len(t, opps, 1)
	assert.Empty(t, store.GetOpportunities())
}

func TestScanMarkets_MockUniverse(t *testing.T) {
	gw := gateway.New(&gateway.Config{
		Mock:             true,
		MockSeed:         1337,
		MockUniverseSize: 1200,
		Logger:           zap.NewNop(),
	})

	d := New(Config{
		MinProfitThreshold: 0.005,
		MinMarketVolume:    10000,
		Logger:             zap.NewNop(),
	}, gw, nil)

	opps, stats := d.ScanMarkets(context.Background(), 1000)

	require.NotEmpty(t, opps)
	assert.Equal(t, 1000, stats.Markets)

	for i, opp := range opps {
		assert.GreaterOrEqual(t, opp.Profit, 0.005)
		if i > 0 {
			assert.GreaterOrEqual(t, opps[i-1].Profit, opp.Profit)
		}
		switch opp.Type {
		case types.ArbitrageLong:
			assert.Less(t, opp.PriceSum, 0.99)
		case types.ArbitrageShort:
			assert.Greater(t, opp.PriceSum, 1.01)
		default:
			t.Fatalf("unexpected type %q", opp.Type)
		}
	}
}

func TestOpportunity_String(t *testing.T) {
	opp := CreateTestOpportunity("m1", "Will it rain?")

	assert.Contains(t, opp.String(), "long arb on m1")
	assert.Equal(t, 300, opp.ProfitBPS())
}
