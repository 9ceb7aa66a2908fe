package app

import (
	"context"
	"testing"
	"time"

	"github.com/mselser95/polyarb-agent/internal/gateway"
	"github.com/mselser95/polyarb-agent/internal/scanner"
	"github.com/mselser95/polyarb-agent/internal/testutil"
	"github.com/mselser95/polyarb-agent/pkg/config"
	"github.com/mselser95/polyarb-agent/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testConfig(gammaURL string) *config.Config {
	return &config.Config{
		LogLevel:    "debug",
		HTTPEnabled: false,
		BotMode:     config.ModeArbitrage,

		PolymarketHost: "https://clob.polymarket.com",
		GammaHost:      gammaURL,
		HTTPTimeout:    2 * time.Second,

		StartingCapital: 100,
		PositionSize:    10,

		MinProfitThreshold: 0.005,
		MinMarketVolume:    10_000,
		LongSumThreshold:   0.99,
		ShortSumThreshold:  1.01,
		MarketScanLimit:    10,

		ScanInterval:          50 * time.Millisecond,
		ExecutionDelay:        0,
		NoOpportunityCooldown: 10 * time.Millisecond,

		GammaRPS:        100,
		GammaRatePeriod: time.Second,
		GammaPageSize:   500,

		PaperTrading:     true,
		MockSeed:         1337,
		MockUniverseSize: 50,
		MarketCacheTTL:   time.Minute,

		StorageMode: "console",
	}
}

func runApp(t *testing.T, a *App) <-chan error {
	t.Helper()
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Run()
	}()
	return errCh
}

func waitForExit(t *testing.T, errCh <-chan error) {
	t.Helper()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Shutdown")
	}
}

// A single mispriced market is fetched from the Gamma API, detected as a
// long opportunity, paper-executed and booked into the ledger.
func TestApp_LongArbitrageEndToEnd(t *testing.T) {
	api := testutil.NewMockGammaAPI([]map[string]any{
		testutil.CreateRawGammaMarket("m1", 0.44, 0.45, 0.50, 0.51),
		testutil.CreateRawGammaMarket("m2", 0.49, 0.50, 0.49, 0.50),
	})
	defer api.Close()

	a, err := New(testConfig(api.URL), zaptest.NewLogger(t))
	require.NoError(t, err)

	errCh := runApp(t, a)

	require.Eventually(t, func() bool {
		return a.Status().TradesExecuted >= 1
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, a.Shutdown())
	waitForExit(t, errCh)

	status := a.Status()
	assert.Equal(t, scanner.StateStopped, status.State)
	assert.Equal(t, "paper", status.Mode)
	assert.Greater(t, status.Balance, status.StartingCapital)
	assert.InDelta(t, status.Balance-status.StartingCapital, status.RealizedPnL, 1e-9)
	assert.GreaterOrEqual(t, api.RequestCount(), 1)
	assert.False(t, a.healthChecker.LastBeat().IsZero())

	trades := a.scanner.TradeLogs()
	require.NotEmpty(t, trades)
	assert.Equal(t, "m1", trades[0].Market)
	assert.Equal(t, types.ArbitrageLong, trades[0].Type)
	assert.InDelta(t, 10.0, trades[0].Invested, 1e-9)

	// the first trade on $100 with a $10 position returns 10/0.96 - 10
	assert.InDelta(t, 10.0/0.96-10.0, trades[0].Profit, 1e-6)
}

func TestApp_MockModeRuns(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.MockMode = true

	a, err := New(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	errCh := runApp(t, a)

	require.Eventually(t, func() bool {
		return a.Status().Cycles >= 1
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, a.Shutdown())
	waitForExit(t, errCh)

	status := a.Status()
	assert.Equal(t, scanner.StateStopped, status.State)
	require.NotNil(t, status.LastCycle)
	assert.Equal(t, 10, status.LastCycle.Markets)
}

func TestApp_MarketsCachedForLookup(t *testing.T) {
	api := testutil.NewMockGammaAPI([]map[string]any{
		testutil.CreateRawGammaMarket("m1", 0.44, 0.45, 0.50, 0.51),
	})
	defer api.Close()

	a, err := New(testConfig(api.URL), zaptest.NewLogger(t))
	require.NoError(t, err)

	errCh := runApp(t, a)

	require.Eventually(t, func() bool {
		m, ok := a.gateway.Lookup("m1")
		return ok && m.YesAsk == 0.45
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, a.Shutdown())
	waitForExit(t, errCh)
}

func TestApp_ShutdownBeforeRun(t *testing.T) {
	a, err := New(testConfig("http://127.0.0.1:1"), zaptest.NewLogger(t))
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		_ = a.Shutdown()
		_ = a.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown blocked without Run")
	}

	assert.Equal(t, scanner.StateIdle, a.Status().State)
}

func TestApp_CircuitBreakerWired(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.MockMode = true
	cfg.CircuitBreakerEnabled = true
	cfg.CircuitBreakerTradeMultiplier = 1
	cfg.CircuitBreakerMinAbsolute = 1
	cfg.CircuitBreakerHysteresisRatio = 1.2

	a, err := New(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer a.Shutdown() //nolint:errcheck

	require.NotNil(t, a.breaker)
	assert.NotNil(t, a.Status().Breaker)
}

func TestApp_InvalidBreakerConfig(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.CircuitBreakerEnabled = true
	cfg.CircuitBreakerHysteresisRatio = 0.5

	_, err := New(cfg, zaptest.NewLogger(t))
	require.Error(t, err)
}

func TestStaleAfter(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want time.Duration
	}{
		{
			name: "floor",
			cfg:  config.Config{ScanInterval: time.Second},
			want: minStaleAfter,
		},
		{
			name: "three-cycles",
			cfg: config.Config{
				ScanInterval:          30 * time.Second,
				NoOpportunityCooldown: 30 * time.Second,
				PostCycleDelay:        10 * time.Second,
			},
			want: 210 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, staleAfter(&tt.cfg))
		})
	}
}

func TestScanOnce(t *testing.T) {
	api := testutil.NewMockGammaAPI([]map[string]any{
		testutil.CreateRawGammaMarket("long", 0.44, 0.45, 0.50, 0.51),
		testutil.CreateRawGammaMarket("short", 0.53, 0.54, 0.50, 0.51),
		testutil.CreateRawGammaMarket("fair", 0.49, 0.50, 0.49, 0.50),
	})
	defer api.Close()

	opps, stats := ScanOnce(context.Background(), testConfig(api.URL), zaptest.NewLogger(t), 10)

	require.Len(t, opps, 2)
	assert.Equal(t, 3, stats.Markets)
	assert.Equal(t, 2, stats.Opportunities)
	assert.Equal(t, "long", opps[0].MarketID)
	assert.Equal(t, types.ArbitrageLong, opps[0].Type)
	assert.Equal(t, "short", opps[1].MarketID)
	assert.Equal(t, types.ArbitrageShort, opps[1].Type)
}

func TestListMarkets(t *testing.T) {
	raw := testutil.CreateRawGammaMarket("m2", 0.4, 0.41, 0.58, 0.6)
	delete(raw, "conditionId")

	api := testutil.NewMockGammaAPI([]map[string]any{
		testutil.CreateRawGammaMarket("m1", 0.44, 0.45, 0.50, 0.51),
		raw,
	})
	defer api.Close()

	markets, report := ListMarkets(context.Background(), testConfig(api.URL), zaptest.NewLogger(t), 10)

	require.Len(t, markets, 1)
	assert.Equal(t, "m1", markets[0].ID)
	assert.Equal(t, 2, report.RawItems)
	assert.Equal(t, 1, report.Skipped[gateway.SkipMissingCondition])
	assert.Equal(t, gateway.StopShortPage, report.StopReason)
}
