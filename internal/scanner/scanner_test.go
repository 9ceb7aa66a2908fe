package scanner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mselser95/polyarb-agent/internal/arbitrage"
	"github.com/mselser95/polyarb-agent/internal/circuitbreaker"
	"github.com/mselser95/polyarb-agent/internal/ledger"
	"github.com/mselser95/polyarb-agent/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeDetector struct {
	mu     sync.Mutex
	calls  int
	scans  []func() []*arbitrage.Opportunity
	called chan struct{}
}

func (d *fakeDetector) ScanMarkets(_ context.Context, _ int) ([]*arbitrage.Opportunity, arbitrage.ScanStats) {
	d.mu.Lock()
	idx := d.calls
	d.calls++
	d.mu.Unlock()

	if d.called != nil {
		select {
		case d.called <- struct{}{}:
		default:
		}
	}

	if idx >= len(d.scans) {
		return nil, arbitrage.ScanStats{Markets: 10}
	}
	opps := d.scans[idx]()
	return opps, arbitrage.ScanStats{Markets: 10, Opportunities: len(opps)}
}

func (d *fakeDetector) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type fakeExecutor struct {
	mu      sync.Mutex
	fail    map[string]string
	profit  float64
	amounts []float64
}

func (e *fakeExecutor) Mode() string { return "paper" }

func (e *fakeExecutor) Execute(_ context.Context, opp *arbitrage.Opportunity, amount float64) *types.ExecutionResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.amounts = append(e.amounts, amount)

	result := &types.ExecutionResult{
		OpportunityID: opp.ID,
		Market:        opp.MarketID,
		Type:          opp.Type,
		Invested:      amount,
	}
	if msg, ok := e.fail[opp.MarketID]; ok {
		result.Error = msg
		return result
	}
	result.Success = true
	result.Profit = e.profit
	return result
}

type fakeJournal struct {
	mu     sync.Mutex
	trades []types.TradeLog
	err    error
}

func (j *fakeJournal) StoreTrade(_ context.Context, trade *types.TradeLog) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.trades = append(j.trades, *trade)
	return j.err
}

func opportunities(ids ...string) func() []*arbitrage.Opportunity {
	return func() []*arbitrage.Opportunity {
		out := make([]*arbitrage.Opportunity, 0, len(ids))
		for _, id := range ids {
			out = append(out, arbitrage.CreateTestOpportunity(id, "Question "+id))
		}
		return out
	}
}

// stopAfter returns an OnCycle hook that stops the scanner after n cycles and
// records every cycle it sees.
func stopAfter(n int, s **Scanner, seen *[]CycleStats) func(CycleStats) {
	return func(stats CycleStats) {
		*seen = append(*seen, stats)
		if stats.Number >= n {
			(*s).Stop()
		}
	}
}

func newTestScanner(det Detector, exec Executor, l *ledger.Ledger, mutate func(*Config)) *Scanner {
	cfg := &Config{
		Detector:              det,
		Executor:              exec,
		Ledger:                l,
		MarketScanLimit:       100,
		ScanInterval:          time.Millisecond,
		ExecutionDelay:        0,
		NoOpportunityCooldown: 0,
		Logger:                zap.NewNop(),
	}
	if mutate != nil {
		mutate(cfg)
	}
	return New(cfg)
}

func runWithTimeout(t *testing.T, s *Scanner, ctx context.Context) {
	t.Helper()

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scanner did not stop")
	}
}

func TestNew_InitialState(t *testing.T) {
	s := newTestScanner(&fakeDetector{}, &fakeExecutor{}, ledger.New(100, 10), nil)

	assert.Equal(t, StateIdle, s.State())

	status := s.Snapshot()
	assert.Equal(t, StateIdle, status.State)
	assert.Equal(t, "paper", status.Mode)
	assert.InDelta(t, 100.0, status.StartingCapital, 1e-9)
	assert.InDelta(t, 100.0, status.Balance, 1e-9)
	assert.Nil(t, status.LastCycle)
	assert.Nil(t, status.Breaker)
	assert.Empty(t, s.TradeLogs())
}

func TestRun_ExecutesAndUpdatesLedger(t *testing.T) {
	det := &fakeDetector{scans: []func() []*arbitrage.Opportunity{opportunities("m1", "m2")}}
	exec := &fakeExecutor{profit: 0.3}
	journal := &fakeJournal{}
	l := ledger.New(100, 10)

	var s *Scanner
	var seen []CycleStats
	s = newTestScanner(det, exec, l, func(cfg *Config) {
		cfg.Journal = journal
		cfg.OnCycle = stopAfter(1, &s, &seen)
	})

	runWithTimeout(t, s, context.Background())

	assert.Equal(t, StateStopped, s.State())
	assert.InDelta(t, 100.6, l.Balance(), 1e-9)
	assert.Equal(t, 2, l.Trades())
	assert.Equal(t, []float64{10, 10}, exec.amounts)

	trades := s.TradeLogs()
	require.Len(t, trades, 2)
	assert.Equal(t, "m1", trades[0].Market)
	assert.Equal(t, "Question m1", trades[0].Question)
	assert.Equal(t, types.ArbitrageLong, trades[0].Type)
	assert.InDelta(t, 10.0, trades[0].Invested, 1e-9)
	assert.InDelta(t, 100.3, trades[0].Balance, 1e-9)
	assert.InDelta(t, 100.6, trades[1].Balance, 1e-9)
	assert.Len(t, journal.trades, 2)

	require.Len(t, seen, 1)
	assert.Equal(t, 2, seen[0].Opportunities)
	assert.Equal(t, 10, seen[0].Markets)
	assert.Equal(t, 2, seen[0].Executed)
	assert.Zero(t, seen[0].Failed)
	assert.InDelta(t, 0.6, seen[0].Profit, 1e-9)
	assert.Empty(t, seen[0].Skipped)

	status := s.Snapshot()
	assert.Equal(t, 1, status.Cycles)
	assert.Equal(t, 2, status.TradesExecuted)
	assert.InDelta(t, 0.6, status.RealizedPnL, 1e-9)
	require.NotNil(t, status.LastCycle)
	assert.Equal(t, 2, status.LastCycle.Executed)
}

func TestRun_FractionalPositionSizeCompounds(t *testing.T) {
	det := &fakeDetector{scans: []func() []*arbitrage.Opportunity{opportunities("m1", "m2")}}
	exec := &fakeExecutor{profit: 10}
	l := ledger.New(100, 0.5)

	var s *Scanner
	var seen []CycleStats
	s = newTestScanner(det, exec, l, func(cfg *Config) {
		cfg.OnCycle = stopAfter(1, &s, &seen)
	})

	runWithTimeout(t, s, context.Background())

	require.Len(t, exec.amounts, 2)
	assert.InDelta(t, 50.0, exec.amounts[0], 1e-9)
	assert.InDelta(t, 55.0, exec.amounts[1], 1e-9)
}

func TestRun_FailureDoesNotStopCycle(t *testing.T) {
	det := &fakeDetector{scans: []func() []*arbitrage.Opportunity{opportunities("bad", "good")}}
	exec := &fakeExecutor{profit: 0.5, fail: map[string]string{"bad": "leg rejected"}}
	l := ledger.New(100, 10)

	var s *Scanner
	var seen []CycleStats
	s = newTestScanner(det, exec, l, func(cfg *Config) {
		cfg.OnCycle = stopAfter(1, &s, &seen)
	})

	runWithTimeout(t, s, context.Background())

	require.Len(t, seen, 1)
	assert.Equal(t, 1, seen[0].Executed)
	assert.Equal(t, 1, seen[0].Failed)
	assert.InDelta(t, 100.5, l.Balance(), 1e-9)

	trades := s.TradeLogs()
	require.Len(t, trades, 1)
	assert.Equal(t, "good", trades[0].Market)
}

func TestRun_JournalErrorIsNotFatal(t *testing.T) {
	det := &fakeDetector{scans: []func() []*arbitrage.Opportunity{opportunities("m1")}}
	journal := &fakeJournal{err: errors.New("database down")}

	var s *Scanner
	var seen []CycleStats
	s = newTestScanner(det, &fakeExecutor{profit: 0.1}, ledger.New(100, 10), func(cfg *Config) {
		cfg.Journal = journal
		cfg.OnCycle = stopAfter(1, &s, &seen)
	})

	runWithTimeout(t, s, context.Background())

	assert.Len(t, s.TradeLogs(), 1)
	assert.Len(t, journal.trades, 1)
}

func TestRun_BalanceTooLowSkipsScan(t *testing.T) {
	det := &fakeDetector{scans: []func() []*arbitrage.Opportunity{opportunities("m1")}}

	var s *Scanner
	var seen []CycleStats
	s = newTestScanner(det, &fakeExecutor{}, ledger.New(5, 10), func(cfg *Config) {
		cfg.MinPositionSize = 10
		cfg.OnCycle = stopAfter(2, &s, &seen)
	})

	runWithTimeout(t, s, context.Background())

	assert.Zero(t, det.Calls())
	require.Len(t, seen, 2)
	assert.Equal(t, SkipBalanceTooLow, seen[0].Skipped)
	assert.Equal(t, SkipBalanceTooLow, seen[1].Skipped)
}

func TestRun_ZeroBalanceSkipsScan(t *testing.T) {
	det := &fakeDetector{}
	l := ledger.New(10, 10)
	l.UpdateBalance(-10)

	var s *Scanner
	var seen []CycleStats
	s = newTestScanner(det, &fakeExecutor{}, l, func(cfg *Config) {
		cfg.OnCycle = stopAfter(1, &s, &seen)
	})

	runWithTimeout(t, s, context.Background())

	assert.Zero(t, det.Calls())
	require.Len(t, seen, 1)
	assert.Equal(t, SkipBalanceTooLow, seen[0].Skipped)
}

func TestRun_NoOpportunitiesCooldownInterruptedByStop(t *testing.T) {
	det := &fakeDetector{called: make(chan struct{}, 1)}

	s := newTestScanner(det, &fakeExecutor{}, ledger.New(100, 10), func(cfg *Config) {
		cfg.NoOpportunityCooldown = time.Hour
	})

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	select {
	case <-det.called:
	case <-time.After(5 * time.Second):
		t.Fatal("detector was never called")
	}
	require.Eventually(t, func() bool { return s.State() == StateCooldown }, 5*time.Second, time.Millisecond)

	s.Stop()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("stop did not interrupt the cooldown")
	}

	assert.Equal(t, 1, det.Calls())
	status := s.Snapshot()
	require.NotNil(t, status.LastCycle)
	assert.Equal(t, SkipNoOpportunity, status.LastCycle.Skipped)
	assert.Equal(t, StateStopped, status.State)
}

func TestRun_IntervalSleepInterruptedByContext(t *testing.T) {
	det := &fakeDetector{called: make(chan struct{}, 1)}

	s := newTestScanner(det, &fakeExecutor{}, ledger.New(100, 10), func(cfg *Config) {
		cfg.ScanInterval = time.Hour
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case <-det.called:
	case <-time.After(5 * time.Second):
		t.Fatal("detector was never called")
	}

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("context cancellation did not stop the scanner")
	}
	assert.Equal(t, StateStopped, s.State())
}

func TestRun_PanicIsRecovered(t *testing.T) {
	det := &fakeDetector{scans: []func() []*arbitrage.Opportunity{
		func() []*arbitrage.Opportunity { panic("boom") },
		opportunities("m1"),
	}}

	var s *Scanner
	var seen []CycleStats
	s = newTestScanner(det, &fakeExecutor{profit: 0.2}, ledger.New(100, 10), func(cfg *Config) {
		cfg.OnCycle = stopAfter(2, &s, &seen)
	})

	runWithTimeout(t, s, context.Background())

	require.Len(t, seen, 2)
	assert.Equal(t, SkipPanic, seen[0].Skipped)
	assert.Empty(t, seen[1].Skipped)
	assert.Equal(t, 1, seen[1].Executed)
	assert.Len(t, s.TradeLogs(), 1)
}

func TestRun_BreakerOpenSkipsCycle(t *testing.T) {
	breaker, err := circuitbreaker.New(&circuitbreaker.Config{
		TradeMultiplier: 1.0,
		MinAbsolute:     50,
		HysteresisRatio: 1.2,
		Logger:          zap.NewNop(),
	})
	require.NoError(t, err)

	det := &fakeDetector{scans: []func() []*arbitrage.Opportunity{opportunities("m1")}}

	var s *Scanner
	var seen []CycleStats
	s = newTestScanner(det, &fakeExecutor{}, ledger.New(20, 10), func(cfg *Config) {
		cfg.Breaker = breaker
		cfg.OnCycle = stopAfter(1, &s, &seen)
	})

	runWithTimeout(t, s, context.Background())

	assert.Zero(t, det.Calls())
	require.Len(t, seen, 1)
	assert.Equal(t, SkipBreakerOpen, seen[0].Skipped)

	status := s.Snapshot()
	require.NotNil(t, status.Breaker)
	assert.False(t, status.Breaker.Enabled)
}

func TestRun_BreakerRecordsTrades(t *testing.T) {
	breaker, err := circuitbreaker.New(&circuitbreaker.Config{
		TradeMultiplier: 2.0,
		MinAbsolute:     1,
		HysteresisRatio: 1.2,
		Logger:          zap.NewNop(),
	})
	require.NoError(t, err)

	det := &fakeDetector{scans: []func() []*arbitrage.Opportunity{opportunities("m1")}}

	var s *Scanner
	var seen []CycleStats
	s = newTestScanner(det, &fakeExecutor{profit: 0.1}, ledger.New(100, 10), func(cfg *Config) {
		cfg.Breaker = breaker
		cfg.OnCycle = stopAfter(1, &s, &seen)
	})

	runWithTimeout(t, s, context.Background())

	status := breaker.GetStatus()
	assert.Equal(t, 1, status.RecentTradeCount)
	assert.InDelta(t, 20.0, status.DisableThreshold, 1e-9)
}

func TestStop_Idempotent(t *testing.T) {
	s := newTestScanner(&fakeDetector{}, &fakeExecutor{}, ledger.New(100, 10), nil)

	assert.NotPanics(t, func() {
		s.Stop()
		s.Stop()
	})
}

func TestStop_BeforeRun(t *testing.T) {
	det := &fakeDetector{}
	s := newTestScanner(det, &fakeExecutor{}, ledger.New(100, 10), nil)

	s.Stop()
	runWithTimeout(t, s, context.Background())

	assert.Zero(t, det.Calls())
	assert.Equal(t, StateStopped, s.State())
}

func TestStop_EndsExecutionBetweenOpportunities(t *testing.T) {
	det := &fakeDetector{scans: []func() []*arbitrage.Opportunity{opportunities("m1", "m2", "m3")}}

	var s *Scanner
	exec := &stoppingExecutor{fakeExecutor: fakeExecutor{profit: 0.1}, stop: func() { s.Stop() }}
	var seen []CycleStats
	s = newTestScanner(det, exec, ledger.New(100, 10), func(cfg *Config) {
		cfg.OnCycle = func(stats CycleStats) { seen = append(seen, stats) }
	})

	runWithTimeout(t, s, context.Background())

	// The in-flight execution completes, the rest are skipped.
	assert.Len(t, exec.amounts, 1)
	assert.NoError(t, exec.ctxErr)
	require.Len(t, seen, 1)
	assert.Equal(t, 1, seen[0].Executed)
	assert.Equal(t, SkipStopRequested, seen[0].Skipped)
}

type stoppingExecutor struct {
	fakeExecutor
	stop   func()
	ctxErr error
}

func (e *stoppingExecutor) Execute(ctx context.Context, opp *arbitrage.Opportunity, amount float64) *types.ExecutionResult {
	e.stop()
	// Give the stop watcher a chance to cancel the loop context.
	time.Sleep(10 * time.Millisecond)
	e.ctxErr = ctx.Err()
	return e.fakeExecutor.Execute(ctx, opp, amount)
}

// blockingDetector waits in ScanMarkets until its context ends, like a
// paginated fetch stuck behind the rate limiter.
type blockingDetector struct {
	entered chan struct{}
	ctxErr  chan error
}

func (d *blockingDetector) ScanMarkets(ctx context.Context, _ int) ([]*arbitrage.Opportunity, arbitrage.ScanStats) {
	close(d.entered)
	<-ctx.Done()
	d.ctxErr <- ctx.Err()
	return nil, arbitrage.ScanStats{}
}

func TestStop_CancelsInFlightScan(t *testing.T) {
	det := &blockingDetector{entered: make(chan struct{}), ctxErr: make(chan error, 1)}
	s := newTestScanner(det, &fakeExecutor{}, ledger.New(100, 10), nil)

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	select {
	case <-det.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("detector was never called")
	}

	s.Stop()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("stop did not abort the scan")
	}
	assert.ErrorIs(t, <-det.ctxErr, context.Canceled)
	status := s.Snapshot()
	require.NotNil(t, status.LastCycle)
	assert.Equal(t, SkipStopRequested, status.LastCycle.Skipped)
	assert.Equal(t, StateStopped, status.State)
}

func TestSnapshot_ReturnsCopies(t *testing.T) {
	det := &fakeDetector{scans: []func() []*arbitrage.Opportunity{opportunities("m1")}}

	var s *Scanner
	var seen []CycleStats
	s = newTestScanner(det, &fakeExecutor{profit: 0.1}, ledger.New(100, 10), func(cfg *Config) {
		cfg.OnCycle = stopAfter(1, &s, &seen)
	})

	runWithTimeout(t, s, context.Background())

	status := s.Snapshot()
	require.NotNil(t, status.LastCycle)
	status.LastCycle.Executed = 99

	trades := s.TradeLogs()
	trades[0].Profit = 99

	assert.Equal(t, 1, s.Snapshot().LastCycle.Executed)
	assert.InDelta(t, 0.1, s.TradeLogs()[0].Profit, 1e-9)
}
