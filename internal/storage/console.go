package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mselser95/polyarb-agent/internal/arbitrage"
	"github.com/mselser95/polyarb-agent/pkg/types"
	"go.uber.org/zap"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// ConsoleStorage implements Storage by pretty-printing to the terminal.
type ConsoleStorage struct {
	out    io.Writer
	logger *zap.Logger
}

// NewConsoleStorage creates a new console storage writing to stdout.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	return NewConsoleStorageWriter(os.Stdout, logger)
}

// NewConsoleStorageWriter creates a console storage writing to out.
func NewConsoleStorageWriter(out io.Writer, logger *zap.Logger) *ConsoleStorage {
	logger.Info("console-storage-initialized")
	return &ConsoleStorage{
		out:    out,
		logger: logger,
	}
}

// StoreOpportunity prints a one-line summary of an opportunity.
func (c *ConsoleStorage) StoreOpportunity(_ context.Context, opp *arbitrage.Opportunity) error {
	_, err := fmt.Fprintf(c.out, "🔍 %-5s %6.2f%%  sum=%.4f  %s\n",
		strings.ToUpper(string(opp.Type)), opp.Profit*100, opp.PriceSum, truncate(opp.Question, 60))
	return err
}

// StoreTrade pretty-prints a completed trade.
func (c *ConsoleStorage) StoreTrade(_ context.Context, trade *types.TradeLog) error {
	var b strings.Builder

	b.WriteString("\n" + rule + "\n")
	b.WriteString("✅ ARBITRAGE TRADE EXECUTED\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Market:   %s\n", trade.Market)
	fmt.Fprintf(&b, "Question: %s\n", trade.Question)
	fmt.Fprintf(&b, "Type:     %s\n", strings.ToUpper(string(trade.Type)))
	fmt.Fprintf(&b, "Time:     %s\n", trade.Timestamp.Format("2006-01-02 15:04:05"))
	b.WriteString(rule + "\n")
	b.WriteString("💰 RESULT\n")
	fmt.Fprintf(&b, "  Invested:  $%.2f\n", trade.Invested)
	fmt.Fprintf(&b, "  Profit:    $%.4f\n", trade.Profit)
	fmt.Fprintf(&b, "  Balance:   $%.2f\n", trade.Balance)
	fmt.Fprintf(&b, "  Took:      %s\n", trade.OperationTime)
	b.WriteString(rule + "\n")

	_, err := io.WriteString(c.out, b.String())
	return err
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
