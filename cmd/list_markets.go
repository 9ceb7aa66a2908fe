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
	"github.com/mselser95/polyarb-agent/internal/gateway"
	"github.com/mselser95/polyarb-agent/pkg/config"
	"github.com/mselser95/polyarb-agent/pkg/types"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var listMarketsCmd = &cobra.Command{
	Use:   "list-markets",
	Short: "List normalized binary markets from the Gamma API",
	Long: `Fetches active markets, normalizes them to YES/NO quotes and prints
them with their long and short sums. Skipped records are summarized by reason.`,
	RunE: runListMarkets,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(listMarketsCmd)
	listMarketsCmd.Flags().IntP("limit", "l", 20, "Maximum number of markets to fetch")
	listMarketsCmd.Flags().BoolP("verbose", "v", false, "Show condition id and volume")
	listMarketsCmd.Flags().Bool("mock", false, "List the seeded mock universe instead of the Gamma API")
}

func runListMarkets(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

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
	verbose, _ := cmd.Flags().GetBool("verbose")
	if mock, _ := cmd.Flags().GetBool("mock"); mock {
		cfg.MockMode = true
	}

	if limit <= 0 {
		return fmt.Errorf("limit must be > 0, got %d", limit)
	}

	fmt.Printf("Fetching up to %d markets...\n\n", limit)

	markets, report := app.ListMarkets(ctx, cfg, logger, limit)
	writeMarkets(os.Stdout, markets, report, verbose)

	return nil
}

func writeMarkets(out io.Writer, markets []types.BinaryMarket, report gateway.FetchReport, verbose bool) {
	if len(markets) == 0 {
		fmt.Fprintln(out, "No markets found.")
	} else {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		if verbose {
			fmt.Fprintf(w, "ID\tCONDITION\tVOLUME\tYES BID/ASK\tNO BID/ASK\tLONG\tSHORT\tQUESTION\n")
		} else {
			fmt.Fprintf(w, "ID\tYES BID/ASK\tNO BID/ASK\tLONG\tSHORT\tQUESTION\n")
		}

		for i := range markets {
			m := &markets[i]
			quotes := fmt.Sprintf("%.3f/%.3f\t%.3f/%.3f\t%.3f\t%.3f",
				m.YesBid, m.YesAsk, m.NoBid, m.NoAsk, m.LongSum(), m.ShortSum())
			if verbose {
				fmt.Fprintf(w, "%s\t%s\t%.0f\t%s\t%s\n", m.ID, m.ConditionID, m.Volume, quotes, shorten(m.Question, 60))
			} else {
				fmt.Fprintf(w, "%s\t%s\t%s\n", m.ID, quotes, shorten(m.Question, 60))
			}
		}

		w.Flush()
	}

	fmt.Fprintf(out, "\nTotal: %d markets from %d records in %d pages (stop: %s)\n",
		len(markets), report.RawItems, report.Pages, report.StopReason)

	reasons := make([]string, 0, len(report.Skipped))
	for reason := range report.Skipped {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		fmt.Fprintf(out, "  skipped %s: %d\n", reason, report.Skipped[gateway.SkipReason(reason)])
	}

	if report.Err != nil {
		fmt.Fprintf(out, "Fetch error: %v\n", report.Err)
	}
}
