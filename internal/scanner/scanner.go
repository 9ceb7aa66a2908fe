// Package scanner runs the scan, execute and cooldown loop.
package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mselser95/polyarb-agent/internal/arbitrage"
	"github.com/mselser95/polyarb-agent/internal/circuitbreaker"
	"github.com/mselser95/polyarb-agent/internal/ledger"
	"github.com/mselser95/polyarb-agent/pkg/types"
	"go.uber.org/zap"
)

// Detector ranks opportunities across the market universe.
type Detector interface {
	ScanMarkets(ctx context.Context, limit int) ([]*arbitrage.Opportunity, arbitrage.ScanStats)
}

// Executor runs a single opportunity.
type Executor interface {
	Execute(ctx context.Context, opp *arbitrage.Opportunity, amount float64) *types.ExecutionResult
	Mode() string
}

// Journal records completed trades.
type Journal interface {
	StoreTrade(ctx context.Context, trade *types.TradeLog) error
}

// Scanner is the scan cycle orchestrator. The ledger and trade log are
// mutated only by the goroutine running Run.
type Scanner struct {
	detector Detector
	executor Executor
	ledger   *ledger.Ledger
	breaker  *circuitbreaker.BalanceCircuitBreaker
	journal  Journal
	onCycle  func(CycleStats)
	logger   *zap.Logger

	scanLimit             int
	scanInterval          time.Duration
	executionDelay        time.Duration
	noOpportunityCooldown time.Duration
	postCycleDelay        time.Duration
	minPositionSize       float64

	stopCh   chan struct{}
	stopOnce sync.Once

	mu     sync.RWMutex
	state  State
	status Status
	trades []types.TradeLog
}

// Config holds scanner configuration.
type Config struct {
	Detector Detector
	Executor Executor
	Ledger   *ledger.Ledger
	Breaker  *circuitbreaker.BalanceCircuitBreaker // optional
	Journal  Journal                               // optional
	OnCycle  func(CycleStats)                      // optional, called after every cycle

	MarketScanLimit       int
	ScanInterval          time.Duration
	ExecutionDelay        time.Duration
	NoOpportunityCooldown time.Duration
	PostCycleDelay        time.Duration
	MinPositionSize       float64

	Logger *zap.Logger
}

// New creates a new scanner in the IDLE state.
func New(cfg *Config) *Scanner {
	s := &Scanner{
		detector:              cfg.Detector,
		executor:              cfg.Executor,
		ledger:                cfg.Ledger,
		breaker:               cfg.Breaker,
		journal:               cfg.Journal,
		onCycle:               cfg.OnCycle,
		logger:                cfg.Logger,
		scanLimit:             cfg.MarketScanLimit,
		scanInterval:          cfg.ScanInterval,
		executionDelay:        cfg.ExecutionDelay,
		noOpportunityCooldown: cfg.NoOpportunityCooldown,
		postCycleDelay:        cfg.PostCycleDelay,
		minPositionSize:       cfg.MinPositionSize,
		stopCh:                make(chan struct{}),
		trades:                make([]types.TradeLog, 0),
	}

	s.status = Status{
		State:           StateIdle,
		Mode:            cfg.Executor.Mode(),
		StartingCapital: cfg.Ledger.StartingCapital(),
		Balance:         cfg.Ledger.Balance(),
	}
	s.setState(StateIdle)

	return s
}

// Run loops until ctx is cancelled or Stop is called. It always returns nil;
// a failing cycle is logged and the loop continues. Stop cancels the
// context handed to the detector; leg pairs run on a detached context.
func (s *Scanner) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	s.mu.Lock()
	s.status.StartedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("scanner-starting",
		zap.String("mode", s.executor.Mode()),
		zap.Float64("balance", s.ledger.Balance()),
		zap.Int("scan-limit", s.scanLimit),
		zap.Duration("scan-interval", s.scanInterval))

	defer func() {
		s.setState(StateStopped)
		s.logger.Info("scanner-stopped",
			zap.Float64("balance", s.ledger.Balance()),
			zap.Float64("realized-pnl", s.ledger.RealizedPnL()),
			zap.Int("trades", s.ledger.Trades()))
	}()

	for {
		if s.stopRequested(ctx) {
			return nil
		}

		start := time.Now()
		s.runCycle(ctx)
		elapsed := time.Since(start)

		if s.stopRequested(ctx) {
			return nil
		}

		s.setState(StateCooldown)
		wait := max(0, s.scanInterval-elapsed) + s.postCycleDelay
		if !s.sleep(ctx, wait) {
			return nil
		}
	}
}

// Stop requests the loop to end and aborts an in-flight market scan.
// In-flight executions complete first.
// Safe to call more than once and from any goroutine.
func (s *Scanner) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("scanner-stop-requested")
		close(s.stopCh)
	})
}

// State returns the current state.
func (s *Scanner) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Snapshot returns a copy of the current status.
func (s *Scanner) Snapshot() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := s.status
	status.State = s.state
	if s.status.LastCycle != nil {
		last := *s.status.LastCycle
		status.LastCycle = &last
	}
	if s.breaker != nil {
		b := s.breaker.GetStatus()
		status.Breaker = &b
	}
	return status
}

// TradeLogs returns a copy of all completed trades.
func (s *Scanner) TradeLogs() []types.TradeLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.TradeLog, len(s.trades))
	copy(out, s.trades)
	return out
}

// runCycle executes one scan cycle. Panics are recovered so a single bad
// cycle never ends the loop.
func (s *Scanner) runCycle(ctx context.Context) {
	s.mu.Lock()
	s.status.Cycles++
	number := s.status.Cycles
	s.mu.Unlock()

	stats := CycleStats{
		Number:    number,
		StartedAt: time.Now(),
	}

	defer func() {
		if r := recover(); r != nil {
			stats.Skipped = SkipPanic
			CyclePanicsTotal.Inc()
			s.logger.Error("cycle-panic",
				zap.Int("cycle", number),
				zap.String("panic", fmt.Sprint(r)))
		}
		s.finishCycle(&stats)
	}()

	s.logger.Info("cycle-starting",
		zap.Int("cycle", number),
		zap.Float64("balance", s.ledger.Balance()))

	if s.breaker != nil && !s.breaker.Observe(s.ledger.Balance()) {
		stats.Skipped = SkipBreakerOpen
		s.logger.Warn("cycle-skipped-circuit-breaker",
			zap.Float64("balance", s.ledger.Balance()))
		return
	}

	amount := s.ledger.PositionAmount()
	if amount <= 0 || amount < s.minPositionSize {
		stats.Skipped = SkipBalanceTooLow
		s.logger.Info("balance-too-low",
			zap.Float64("balance", s.ledger.Balance()),
			zap.Float64("position-amount", amount),
			zap.Float64("min-position-size", s.minPositionSize))
		return
	}

	s.setState(StateScanning)
	scanStart := time.Now()
	opportunities, scanStats := s.detector.ScanMarkets(ctx, s.scanLimit)
	stats.ScanDuration = time.Since(scanStart)
	stats.Markets = scanStats.Markets
	stats.Opportunities = len(opportunities)

	s.logger.Info("scan-finished",
		zap.Int("cycle", number),
		zap.Int("markets", scanStats.Markets),
		zap.Int("opportunities", len(opportunities)),
		zap.Int("analysis-errors", scanStats.Errors),
		zap.Duration("scan-time", stats.ScanDuration))

	if s.stopRequested(ctx) {
		stats.Skipped = SkipStopRequested
		return
	}

	if len(opportunities) == 0 {
		stats.Skipped = SkipNoOpportunity
		s.setState(StateCooldown)
		s.logger.Info("no-opportunities",
			zap.Duration("cooldown", s.noOpportunityCooldown))
		s.sleep(ctx, s.noOpportunityCooldown)
		return
	}

	s.setState(StateExecuting)
	s.executeAll(ctx, opportunities, &stats)
}

func (s *Scanner) executeAll(ctx context.Context, opportunities []*arbitrage.Opportunity, stats *CycleStats) {
	for i, opp := range opportunities {
		if s.stopRequested(ctx) {
			stats.Skipped = SkipStopRequested
			return
		}

		amount := s.ledger.PositionAmount()
		if amount <= 0 {
			return
		}

		if i > 0 && !s.sleep(ctx, s.executionDelay) {
			stats.Skipped = SkipStopRequested
			return
		}

		s.logger.Info("executing-opportunity",
			zap.Int("rank", i+1),
			zap.Int("of", len(opportunities)),
			zap.String("market-id", opp.MarketID),
			zap.String("question", opp.Question),
			zap.String("type", string(opp.Type)),
			zap.Float64("profit-pct", opp.Profit*100),
			zap.Float64("amount", amount))

		// A stop must not abort a leg pair midway.
		opStart := time.Now()
		result := s.executor.Execute(context.WithoutCancel(ctx), opp, amount)
		opTime := time.Since(opStart)

		if !result.Success {
			stats.Failed++
			TradesTotal.WithLabelValues(string(opp.Type), "failure").Inc()
			s.logger.Error("execution-failed",
				zap.String("market-id", opp.MarketID),
				zap.String("type", string(opp.Type)),
				zap.String("error", result.Error),
				zap.Duration("operation-time", opTime))
			continue
		}

		s.ledger.UpdateBalance(result.Profit)
		if s.breaker != nil {
			s.breaker.RecordTrade(amount)
		}

		stats.Executed++
		stats.Profit += result.Profit
		TradesTotal.WithLabelValues(string(opp.Type), "success").Inc()

		trade := types.TradeLog{
			Timestamp:     time.Now(),
			Market:        result.Market,
			Question:      opp.Question,
			Type:          result.Type,
			Invested:      amount,
			Profit:        result.Profit,
			Balance:       s.ledger.Balance(),
			OperationTime: opTime,
		}
		s.recordTrade(trade)

		s.logger.Info("execution-completed",
			zap.String("market-id", opp.MarketID),
			zap.Float64("profit", result.Profit),
			zap.Duration("operation-time", opTime),
			zap.Float64("balance", s.ledger.Balance()))

		if s.journal != nil {
			err := s.journal.StoreTrade(context.WithoutCancel(ctx), &trade)
			if err != nil {
				s.logger.Error("failed-to-store-trade",
					zap.String("market-id", trade.Market),
					zap.Error(err))
			}
		}
	}
}

func (s *Scanner) recordTrade(trade types.TradeLog) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trades = append(s.trades, trade)
	s.status.TradesExecuted = len(s.trades)
	s.status.Balance = s.ledger.Balance()
	s.status.RealizedPnL = s.ledger.RealizedPnL()
}

func (s *Scanner) finishCycle(stats *CycleStats) {
	stats.Duration = time.Since(stats.StartedAt)
	stats.Balance = s.ledger.Balance()

	outcome := stats.Skipped
	if outcome == SkipNone {
		outcome = "completed"
	}
	CyclesTotal.WithLabelValues(outcome).Inc()
	CycleDurationSeconds.Observe(stats.Duration.Seconds())

	s.mu.Lock()
	last := *stats
	s.status.LastCycle = &last
	s.status.Balance = s.ledger.Balance()
	s.status.RealizedPnL = s.ledger.RealizedPnL()
	s.mu.Unlock()

	s.logger.Info("cycle-summary",
		zap.Int("cycle", stats.Number),
		zap.Duration("total-time", stats.Duration),
		zap.Duration("scan-time", stats.ScanDuration),
		zap.Int("opportunities", stats.Opportunities),
		zap.Int("executed", stats.Executed),
		zap.Int("failed", stats.Failed),
		zap.Float64("total-profit", stats.Profit),
		zap.Float64("balance", stats.Balance),
		zap.String("skipped", stats.Skipped))

	if s.onCycle != nil {
		s.onCycle(*stats)
	}
}

// sleep waits for d, returning false if ctx ends or Stop is called first.
func (s *Scanner) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return !s.stopRequested(ctx)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	case <-s.stopCh:
		return false
	}
}

func (s *Scanner) stopRequested(ctx context.Context) bool {
	select {
	case <-s.stopCh:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func (s *Scanner) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	for _, st := range allStates {
		v := 0.0
		if st == state {
			v = 1
		}
		StateGauge.WithLabelValues(string(st)).Set(v)
	}
}
