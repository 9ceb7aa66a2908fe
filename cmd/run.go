package cmd

import (
	"fmt"

	"github.com/mselser95/polyarb-agent/internal/app"
	"github.com/mselser95/polyarb-agent/pkg/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the agent",
	Long: `Starts the agent in the mode selected by BOT_MODE (or --mode):

ARBITRAGE_PURE (default):
1. Fetch the top markets from the Gamma API (or the mock universe)
2. Detect long (ask sum < 1) and short (bid sum > 1) opportunities
3. Execute them in profit order, two legs in parallel
4. Book realized profit into the capital ledger and sleep until the next cycle

LEGACY:
Runs the 15-minute BTC UP/DOWN strategy, same as the legacy command.`,
	RunE: runAgent,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("mode", "m", "", "Bot mode override: ARBITRAGE_PURE or LEGACY")
}

func runAgent(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	mode, _ := cmd.Flags().GetString("mode")
	cfg.BotMode = resolveMode(cfg.BotMode, mode)
	err = cfg.Validate()
	if err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	if cfg.BotMode == config.ModeLegacy {
		return runLegacy(cmd, args)
	}

	logger, err := newLogger(cmd, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}

// resolveMode prefers the flag over BOT_MODE.
func resolveMode(envMode string, flagMode string) string {
	if flagMode != "" {
		return config.NormalizeMode(flagMode)
	}
	return config.NormalizeMode(envMode)
}

// newLogger builds the process logger. --log-level wins over LOG_LEVEL.
func newLogger(cmd *cobra.Command, level string) (*zap.Logger, error) {
	if override, _ := cmd.Flags().GetString("log-level"); override != "" {
		level = override
	}

	logger, err := config.NewLogger(level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return logger, nil
}
