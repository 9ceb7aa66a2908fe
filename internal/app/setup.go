package app

import (
	"fmt"
	"time"

	"github.com/mselser95/polyarb-agent/internal/arbitrage"
	"github.com/mselser95/polyarb-agent/internal/circuitbreaker"
	"github.com/mselser95/polyarb-agent/internal/execution"
	"github.com/mselser95/polyarb-agent/internal/gateway"
	"github.com/mselser95/polyarb-agent/internal/orders"
	"github.com/mselser95/polyarb-agent/internal/storage"
	"github.com/mselser95/polyarb-agent/pkg/cache"
	"github.com/mselser95/polyarb-agent/pkg/config"
	"github.com/mselser95/polyarb-agent/pkg/healthprobe"
	"github.com/mselser95/polyarb-agent/pkg/ratelimit"
	"go.uber.org/zap"
)

// minStaleAfter is the floor for the readiness heartbeat window.
const minStaleAfter = 2 * time.Minute

func setupHealthChecker(cfg *config.Config) *healthprobe.HealthChecker {
	h := healthprobe.New()
	h.SetStaleAfter(staleAfter(cfg))
	return h
}

// staleAfter allows three full cycles, including cooldowns, between beats.
func staleAfter(cfg *config.Config) time.Duration {
	d := 3 * (cfg.ScanInterval + cfg.NoOpportunityCooldown + cfg.PostCycleDelay)
	if d < minStaleAfter {
		return minStaleAfter
	}
	return d
}

func setupCache(logger *zap.Logger) (*cache.RistrettoCache, error) {
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		Name:        "markets",
		NumCounters: 20000, // 10x expected max items
		MaxCost:     2000,  // one market per unit
		BufferItems: 64,
		Logger:      logger,
	})
}

func setupGammaClient(gammaHost string, timeout time.Duration, rps int, period time.Duration, logger *zap.Logger) *gateway.Client {
	return gateway.NewClient(&gateway.ClientConfig{
		BaseURL: gammaHost,
		Timeout: timeout,
		Limiter: ratelimit.New("gamma", rps, period),
		Logger:  logger,
	})
}

func setupGateway(cfg *config.Config, logger *zap.Logger, marketCache cache.Cache) *gateway.Gateway {
	client := setupGammaClient(cfg.GammaHost, cfg.HTTPTimeout, cfg.GammaRPS, cfg.GammaRatePeriod, logger)

	return gateway.New(&gateway.Config{
		Fetcher:          client,
		Cache:            marketCache,
		CacheTTL:         cfg.MarketCacheTTL,
		PageSize:         cfg.GammaPageSize,
		Mock:             cfg.MockMode,
		MockSeed:         cfg.MockSeed,
		MockUniverseSize: cfg.MockUniverseSize,
		Logger:           logger,
	})
}

func setupExecutor(cfg *config.Config, logger *zap.Logger) (*execution.Executor, error) {
	client, err := orders.New(&orders.Config{
		PaperTrading: cfg.PaperTrading,
		MockMode:     cfg.MockMode,
		APIKey:       cfg.PolymarketAPIKey,
		APISecret:    cfg.PolymarketAPISecret,
		PrivateKey:   cfg.PolymarketPrivateKey,
		Host:         cfg.PolymarketHost,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create order client: %w", err)
	}

	if cfg.LiveTrading() {
		logger.Warn("live-trading-requested",
			zap.String("mode", client.Mode()),
			zap.String("note", "live order submission is disabled, every execution will fail"))
	}

	return execution.New(&execution.Config{
		Client: client,
		Logger: logger,
	}), nil
}

func setupStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	if cfg.StorageMode == "postgres" {
		pgStorage, err := storage.NewPostgresStorage(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres storage: %w", err)
		}
		return pgStorage, nil
	}

	return storage.NewConsoleStorage(logger), nil
}

func setupCircuitBreaker(cfg *config.Config, logger *zap.Logger) (*circuitbreaker.BalanceCircuitBreaker, error) {
	if !cfg.CircuitBreakerEnabled {
		return nil, nil
	}

	breaker, err := circuitbreaker.New(&circuitbreaker.Config{
		TradeMultiplier: cfg.CircuitBreakerTradeMultiplier,
		MinAbsolute:     cfg.CircuitBreakerMinAbsolute,
		HysteresisRatio: cfg.CircuitBreakerHysteresisRatio,
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("circuit-breaker-enabled",
		zap.Float64("trade-multiplier", cfg.CircuitBreakerTradeMultiplier),
		zap.Float64("min-absolute", cfg.CircuitBreakerMinAbsolute),
		zap.Float64("hysteresis-ratio", cfg.CircuitBreakerHysteresisRatio))

	return breaker, nil
}

func setupDetector(
	cfg *config.Config,
	logger *zap.Logger,
	source arbitrage.MarketSource,
	journal arbitrage.Storage,
) *arbitrage.Detector {
	return arbitrage.New(
		arbitrage.Config{
			MinProfitThreshold: cfg.MinProfitThreshold,
			MinMarketVolume:    cfg.MinMarketVolume,
			LongSumThreshold:   cfg.LongSumThreshold,
			ShortSumThreshold:  cfg.ShortSumThreshold,
			Logger:             logger,
		},
		source,
		journal,
	)
}
