package app

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.String("bot-mode", a.cfg.BotMode),
		zap.String("execution-mode", a.executor.Mode()),
		zap.Bool("paper-trading", a.cfg.PaperTrading),
		zap.Bool("mock-mode", a.cfg.MockMode),
		zap.Float64("starting-capital", a.cfg.StartingCapital),
		zap.Float64("position-size", a.cfg.PositionSize),
		zap.Float64("min-profit-threshold", a.cfg.MinProfitThreshold),
		zap.String("storage-mode", a.cfg.StorageMode),
		zap.String("log-level", a.cfg.LogLevel))

	a.startComponents()

	a.healthChecker.SetReady(true)

	if a.httpServer != nil {
		a.logger.Info("application-ready", zap.String("http-addr", ":"+a.cfg.HTTPPort))
	} else {
		a.logger.Info("application-ready", zap.Bool("http-enabled", false))
	}

	return a.waitForShutdown()
}

func (a *App) startComponents() {
	if a.httpServer != nil {
		a.wg.Add(1)
		go a.runHTTPServer()

		// Give HTTP server a moment to start
		time.Sleep(100 * time.Millisecond)
	}

	a.started.Store(true)
	a.wg.Add(1)
	go a.runScanner()
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()
	err := a.httpServer.Start()
	if err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
	}
}

func (a *App) runScanner() {
	defer a.wg.Done()
	defer close(a.scannerDone)

	err := a.scanner.Run(a.ctx)
	if err != nil {
		a.logger.Error("scanner-error", zap.Error(err))
	}
}

func (a *App) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	case <-a.scannerDone:
		a.logger.Info("scanner-exited")
	}

	return a.Shutdown()
}
