package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/mselser95/polyarb-agent/internal/arbitrage"
	"github.com/mselser95/polyarb-agent/internal/circuitbreaker"
	"github.com/mselser95/polyarb-agent/internal/execution"
	"github.com/mselser95/polyarb-agent/internal/gateway"
	"github.com/mselser95/polyarb-agent/internal/ledger"
	"github.com/mselser95/polyarb-agent/internal/scanner"
	"github.com/mselser95/polyarb-agent/internal/storage"
	"github.com/mselser95/polyarb-agent/pkg/cache"
	"github.com/mselser95/polyarb-agent/pkg/config"
	"github.com/mselser95/polyarb-agent/pkg/healthprobe"
	"github.com/mselser95/polyarb-agent/pkg/httpserver"
	"go.uber.org/zap"
)

// App is the arbitrage agent orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server // nil when HTTP is disabled
	marketCache   *cache.RistrettoCache
	gateway       *gateway.Gateway
	detector      *arbitrage.Detector
	executor      *execution.Executor
	ledger        *ledger.Ledger
	breaker       *circuitbreaker.BalanceCircuitBreaker
	storage       storage.Storage
	scanner       *scanner.Scanner

	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     atomic.Bool
	scannerDone chan struct{}

	shutdownOnce sync.Once
}

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := setupHealthChecker(cfg)

	marketCache, err := setupCache(logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	gw := setupGateway(cfg, logger, marketCache)

	executor, err := setupExecutor(cfg, logger)
	if err != nil {
		cancel()
		marketCache.Close()
		return nil, fmt.Errorf("setup executor: %w", err)
	}

	journal, err := setupStorage(cfg, logger)
	if err != nil {
		cancel()
		marketCache.Close()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	breaker, err := setupCircuitBreaker(cfg, logger)
	if err != nil {
		cancel()
		marketCache.Close()
		_ = journal.Close()
		return nil, fmt.Errorf("setup circuit breaker: %w", err)
	}

	detector := setupDetector(cfg, logger, gw, journal)
	capital := ledger.New(cfg.StartingCapital, cfg.PositionSize)

	scan := scanner.New(&scanner.Config{
		Detector: detector,
		Executor: executor,
		Ledger:   capital,
		Breaker:  breaker,
		Journal:  journal,
		OnCycle: func(scanner.CycleStats) {
			healthChecker.Beat()
		},
		MarketScanLimit:       cfg.MarketScanLimit,
		ScanInterval:          cfg.ScanInterval,
		ExecutionDelay:        cfg.ExecutionDelay,
		NoOpportunityCooldown: cfg.NoOpportunityCooldown,
		PostCycleDelay:        cfg.PostCycleDelay,
		MinPositionSize:       cfg.MinPositionSize,
		Logger:                logger,
	})

	var httpServer *httpserver.Server
	if cfg.HTTPEnabled {
		httpServer = httpserver.New(&httpserver.Config{
			Port:          cfg.HTTPPort,
			Logger:        logger,
			HealthChecker: healthChecker,
			Status:        func() any { return scan.Snapshot() },
			Trades:        func() any { return scan.TradeLogs() },
			Markets:       gw,
		})
	}

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		marketCache:   marketCache,
		gateway:       gw,
		detector:      detector,
		executor:      executor,
		ledger:        capital,
		breaker:       breaker,
		storage:       journal,
		scanner:       scan,
		ctx:           ctx,
		cancel:        cancel,
		scannerDone:   make(chan struct{}),
	}, nil
}

// Status returns the scanner status snapshot.
func (a *App) Status() scanner.Status {
	return a.scanner.Snapshot()
}
