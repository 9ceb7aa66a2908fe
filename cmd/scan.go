package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/mselser95/polyarb-agent/internal/app"
	"github.com/mselser95/polyarb-agent/internal/arbitrage"
	"github.com/mselser95/polyarb-agent/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one detection pass and print ranked opportunities",
	Long: `Fetches the market universe once, runs the detector and prints every
opportunity in profit order. Nothing is executed or journaled.`,
	RunE: runScan,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().IntP("limit", "l", 0, "Markets to scan (default MARKET_SCAN_LIMIT)")
	scanCmd.Flags().Bool("mock", false, "Scan the seeded mock universe instead of the Gamma API")
	scanCmd.Flags().Duration("timeout", 2*time.Minute, "Overall timeout")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cmd, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		limit = cfg.MarketScanLimit
	}
	if mock, _ := cmd.Flags().GetBool("mock"); mock {
		cfg.MockMode = true
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	opps, stats := app.ScanOnce(ctx, cfg, logger, limit)
	writeOpportunities(os.Stdout, opps, stats)

	return nil
}

func writeOpportunities(out io.Writer, opps []*arbitrage.Opportunity, stats arbitrage.ScanStats) {
	if len(opps) == 0 {
		fmt.Fprintf(out, "No opportunities in %d markets.\n", stats.Markets)
	} else {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "#\tTYPE\tMARKET\tYES\tNO\tSUM\tPROFIT\tVOLUME\tQUESTION\n")
		fmt.Fprintf(w, "-\t----\t------\t---\t--\t---\t------\t------\t--------\n")

		for i, opp := range opps {
			fmt.Fprintf(w, "%d\t%s\t%s\t%.4f\t%.4f\t%.4f\t%.2f%%\t%.0f\t%s\n",
				i+1, opp.Type, opp.MarketID, opp.YesPrice, opp.NoPrice,
				opp.PriceSum, opp.Profit*100, opp.Volume, shorten(opp.Question, 60))
		}

		w.Flush()
	}

	fmt.Fprintf(out, "\nScanned %d markets in %s: %d opportunities, %d errors\n",
		stats.Markets, stats.Duration.Round(time.Millisecond), stats.Opportunities, stats.Errors)

	reasons := make([]string, 0, len(stats.Rejected))
	for reason := range stats.Rejected {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		fmt.Fprintf(out, "  rejected %s: %d\n", reason, stats.Rejected[arbitrage.RejectReason(reason)])
	}

	if stats.Fetch.Err != nil {
		fmt.Fprintf(out, "Fetch stopped early: %v\n", stats.Fetch.Err)
	}
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
