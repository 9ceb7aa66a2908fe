package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/mselser95/polyarb-agent/internal/legacy"
	"github.com/mselser95/polyarb-agent/internal/pricefeed"
	"github.com/mselser95/polyarb-agent/pkg/config"
	"github.com/mselser95/polyarb-agent/pkg/healthprobe"
	"github.com/mselser95/polyarb-agent/pkg/httpserver"
	"go.uber.org/zap"
)

// legacyGammaRPS caps Gamma calls made by the live quote source.
const legacyGammaRPS = 5

// LegacyApp runs the 15-minute BTC UP/DOWN strategy.
type LegacyApp struct {
	cfg           *config.LegacyConfig
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server // nil when HTTP is disabled
	runner        *legacy.Runner

	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	started    atomic.Bool
	runnerDone chan struct{}

	shutdownOnce sync.Once
}

// NewLegacy creates the legacy strategy application. Mock mode uses a seeded
// random-walk BTC price and simulated quotes; otherwise prices come from
// Binance and quotes from the Gamma API.
func NewLegacy(cfg *config.LegacyConfig, logger *zap.Logger) (*LegacyApp, error) {
	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := healthprobe.New()
	healthChecker.SetStaleAfter(max(10*cfg.PollInterval, minStaleAfter))

	var (
		feed   pricefeed.Feed
		quotes legacy.QuoteSource
	)
	if cfg.MockMode {
		feed = pricefeed.NewMockFeed(cfg.MockSeed, nil)
		quotes = legacy.NewMockQuotes(nil)
	} else {
		feed = pricefeed.NewBinanceFeed(&pricefeed.BinanceConfig{
			APIKey:    cfg.BinanceAPIKey,
			APISecret: cfg.BinanceAPISecret,
			Logger:    logger,
		})
		quotes = legacy.NewGammaQuotes(&legacy.GammaQuotesConfig{
			Client: setupGammaClient(cfg.GammaHost, cfg.HTTPTimeout, legacyGammaRPS, time.Second, logger),
			Logger: logger,
		})
	}

	runner, err := legacy.NewRunner(&legacy.RunnerConfig{
		Feed:               feed,
		Quotes:             quotes,
		OnTick:             healthChecker.Beat,
		Capital:            cfg.Capital,
		PositionSize:       cfg.PositionSize,
		TakeProfit:         cfg.TakeProfit,
		StopLoss:           cfg.StopLoss,
		SpreadThreshold:    cfg.SpreadThreshold,
		PriceMoveThreshold: cfg.PriceMoveThreshold,
		TradingUntilMinute: cfg.TradingUntilMinute,
		PollInterval:       cfg.PollInterval,
		PriceChangeWindow:  cfg.PriceChangeWindow,
		Logger:             logger,
	})
	if err != nil {
		cancel()
		return nil, err
	}

	var httpServer *httpserver.Server
	if cfg.HTTPEnabled {
		httpServer = httpserver.New(&httpserver.Config{
			Port:          cfg.HTTPPort,
			Logger:        logger,
			HealthChecker: healthChecker,
			Status:        func() any { return runner.Snapshot() },
			Trades:        func() any { return runner.Trades() },
		})
	}

	return &LegacyApp{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		runner:        runner,
		ctx:           ctx,
		cancel:        cancel,
		runnerDone:    make(chan struct{}),
	}, nil
}

// Run starts the runner and blocks until shutdown.
func (a *LegacyApp) Run() error {
	a.logger.Info("legacy-application-starting",
		zap.Bool("paper-trading", a.cfg.PaperTrading),
		zap.Bool("mock-mode", a.cfg.MockMode),
		zap.Float64("capital", a.cfg.Capital),
		zap.Float64("position-size", a.cfg.PositionSize),
		zap.Int("trading-until-minute", a.cfg.TradingUntilMinute))

	if !a.cfg.PaperTrading && !a.cfg.MockMode {
		a.logger.Warn("legacy-live-orders-disabled",
			zap.String("note", "positions are tracked on paper against live quotes"))
	}

	if a.httpServer != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			err := a.httpServer.Start()
			if err != nil {
				a.logger.Error("http-server-error", zap.Error(err))
			}
		}()

		// Give HTTP server a moment to start
		time.Sleep(100 * time.Millisecond)
	}

	a.started.Store(true)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer close(a.runnerDone)
		err := a.runner.Run(a.ctx)
		if err != nil {
			a.logger.Error("legacy-runner-error", zap.Error(err))
		}
	}()

	a.healthChecker.SetReady(true)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	case <-a.runnerDone:
		a.logger.Info("legacy-runner-exited")
	}

	return a.Shutdown()
}

// Shutdown stops the runner, which force-closes open positions with reason
// SHUTDOWN, then stops the HTTP server. Safe to call more than once.
func (a *LegacyApp) Shutdown() error {
	a.shutdownOnce.Do(func() {
		a.logger.Info("legacy-application-shutting-down")
		a.healthChecker.SetReady(false)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		a.runner.Stop()
		if a.started.Load() {
			select {
			case <-a.runnerDone:
			case <-shutdownCtx.Done():
				a.logger.Warn("legacy-runner-stop-timeout", zap.Duration("timeout", shutdownTimeout))
			}
		}

		a.cancel()

		if a.httpServer != nil {
			err := a.httpServer.Shutdown(shutdownCtx)
			if err != nil {
				a.logger.Error("http-server-shutdown-error", zap.Error(err))
			}
		}

		a.wg.Wait()

		summary := a.runner.Snapshot().Summary
		a.logger.Info("legacy-application-shutdown-complete",
			zap.Int("trades", summary.Trades),
			zap.Float64("pnl", summary.PnL),
			zap.Float64("capital", summary.Capital))
	})
	return nil
}
