package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "polyarb-agent",
	Short: "Binary prediction-market arbitrage agent",
	Long: `Scans Polymarket binary YES/NO markets for complete-set mispricings:
buys both sides when YES ask + NO ask is below 1.0 and sells both sides when
YES bid + NO bid is above 1.0, sizing every trade from a simulated capital
ledger.

Paper trading and mock market data are the defaults. The legacy 15-minute
BTC UP/DOWN strategy is available through the legacy command.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().String("log-level", "", "Log level override (debug, info, warn, error)")
}
