package cmd

import (
	"fmt"

	"github.com/mselser95/polyarb-agent/internal/app"
	"github.com/mselser95/polyarb-agent/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var legacyCmd = &cobra.Command{
	Use:     "legacy",
	Aliases: []string{"btc-15m"},
	Short:   "Run the 15-minute BTC UP/DOWN strategy",
	Long: `Runs the legacy strategy on 15-minute BTC UP/DOWN markets:
a BTC move over PRICE_CHANGE_WINDOW implies a probability for the matching
side, and a position is opened when that probability exceeds the ask by at
least SPREAD_THRESHOLD. Positions exit on take-profit, stop-loss, or are
force-closed after TRADING_UNTIL_MINUTE of each window and on shutdown.

MOCK_MODE=true (default) uses a simulated BTC price and simulated quotes.`,
	RunE: runLegacy,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(legacyCmd)
}

func runLegacy(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadLegacyFromEnv()
	if err != nil {
		return fmt.Errorf("load legacy config: %w", err)
	}

	logger, err := newLogger(cmd, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	application, err := app.NewLegacy(cfg, logger)
	if err != nil {
		return fmt.Errorf("create legacy app: %w", err)
	}

	err = application.Run()
	if err != nil {
		return fmt.Errorf("run legacy app: %w", err)
	}

	return nil
}
