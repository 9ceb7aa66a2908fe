package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// shutdownTimeout bounds the whole shutdown sequence.
const shutdownTimeout = 10 * time.Second

// Shutdown stops the scanner, lets an in-flight execution finish, and closes
// every component. Open arbitrage positions are left alone. Safe to call more
// than once.
func (a *App) Shutdown() error {
	a.shutdownOnce.Do(a.shutdown)
	return nil
}

func (a *App) shutdown() {
	a.logger.Info("application-shutting-down")

	a.healthChecker.SetReady(false)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// Stop before cancelling so a leg pair in flight completes
	a.scanner.Stop()
	if a.started.Load() {
		select {
		case <-a.scannerDone:
		case <-shutdownCtx.Done():
			a.logger.Warn("scanner-stop-timeout", zap.Duration("timeout", shutdownTimeout))
		}
	}

	a.cancel()

	if a.httpServer != nil {
		err := a.httpServer.Shutdown(shutdownCtx)
		if err != nil {
			a.logger.Error("http-server-shutdown-error", zap.Error(err))
		}
	}

	err := a.storage.Close()
	if err != nil {
		a.logger.Error("storage-close-error", zap.Error(err))
	}

	a.wg.Wait()

	a.marketCache.Close()

	status := a.scanner.Snapshot()
	a.logger.Info("application-shutdown-complete",
		zap.Int("cycles", status.Cycles),
		zap.Int("trades", status.TradesExecuted),
		zap.Float64("balance", status.Balance),
		zap.Float64("realized-pnl", status.RealizedPnL))
}
