// Package legacy implements the 15-minute BTC UP/DOWN directional strategy.
package legacy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mselser95/polyarb-agent/internal/pricefeed"
	"go.uber.org/zap"
)

// Close reasons recorded on trades.
const (
	ReasonForcedClose = "FORCED_CLOSE"
	ReasonShutdown    = "SHUTDOWN"
)

const (
	positionLogInterval = 5 * time.Second
	shutdownTimeout     = 10 * time.Second
)

// Runner drives the strategy on a fixed poll interval.
type Runner struct {
	timer     *TradeTimer
	feed      pricefeed.Feed
	quotes    QuoteSource
	signals   *SignalEngine
	risk      *RiskManager
	positions *PositionManager
	logger    *zap.Logger
	onTick    func()
	now       func() time.Time

	positionSize float64
	pollInterval time.Duration
	changeWindow time.Duration

	forcedCloseLogged bool
	lastPositionLog   time.Time

	stopCh   chan struct{}
	stopOnce sync.Once

	mu     sync.RWMutex
	status RunnerStatus
}

// RunnerStatus is a point-in-time view of the runner for the HTTP API.
type RunnerStatus struct {
	Market        Market       `json:"market"`
	Phase         MarketStatus `json:"phase"`
	TimeRemaining string       `json:"time_remaining"`
	BTCPrice      float64      `json:"btc_price"`
	PctChange     float64      `json:"pct_change"`
	Quotes        Quotes       `json:"quotes"`
	Capital       float64      `json:"capital"`
	OpenPositions []*Position  `json:"open_positions"`
	Summary       Summary      `json:"summary"`
	Ticks         int          `json:"ticks"`
	Stopped       bool         `json:"stopped"`
}

// RunnerConfig holds runner configuration.
type RunnerConfig struct {
	Feed   pricefeed.Feed
	Quotes QuoteSource
	Now    func() time.Time // optional
	OnTick func()           // optional, called after every tick

	Capital            float64
	PositionSize       float64
	TakeProfit         float64
	StopLoss           float64
	SpreadThreshold    float64
	PriceMoveThreshold float64
	TradingUntilMinute int
	PollInterval       time.Duration
	PriceChangeWindow  time.Duration

	Logger *zap.Logger
}

// NewRunner creates a new runner.
func NewRunner(cfg *RunnerConfig) (*Runner, error) {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	timer, err := NewTradeTimer(cfg.TradingUntilMinute, now)
	if err != nil {
		return nil, fmt.Errorf("create trade timer: %w", err)
	}

	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be > 0, got %s", cfg.PollInterval)
	}

	return &Runner{
		timer:        timer,
		feed:         cfg.Feed,
		quotes:       cfg.Quotes,
		signals:      NewSignalEngine(cfg.SpreadThreshold, cfg.PriceMoveThreshold),
		risk:         NewRiskManager(cfg.StopLoss, cfg.TakeProfit),
		positions:    NewPositionManager(cfg.Capital, now),
		logger:       cfg.Logger,
		onTick:       cfg.OnTick,
		now:          now,
		positionSize: cfg.PositionSize,
		pollInterval: cfg.PollInterval,
		changeWindow: cfg.PriceChangeWindow,
		stopCh:       make(chan struct{}),
		status:       RunnerStatus{Capital: cfg.Capital},
	}, nil
}

// Run ticks until ctx is cancelled or Stop is called, then liquidates open
// positions and logs the summary.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("legacy-runner-starting",
		zap.String("feed", r.feed.Source()),
		zap.Float64("capital", r.positions.Capital()),
		zap.Duration("poll-interval", r.pollInterval))

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		r.Tick(ctx)

		select {
		case <-ctx.Done():
			r.shutdown(context.WithoutCancel(ctx))
			return nil
		case <-r.stopCh:
			r.shutdown(ctx)
			return nil
		case <-ticker.C:
		}
	}
}

// Stop requests the loop to end. Safe to call more than once.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
	})
}

// Tick runs one poll iteration. Panics are recovered and logged.
func (r *Runner) Tick(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("legacy-tick-panic", zap.String("panic", fmt.Sprint(rec)))
		}
		if r.onTick != nil {
			r.onTick()
		}
	}()

	if r.timer.MaybeRollover() {
		r.forcedCloseLogged = false
		start, end := r.timer.Window()
		r.logger.Info("market-window-rollover",
			zap.Time("start", start),
			zap.Time("end", end))
	}

	phase := r.timer.Status()
	remaining := r.timer.TimeRemaining()
	market := r.quotes.CurrentMarket(ctx)

	price, err := r.feed.Price(ctx)
	if err != nil {
		r.logger.Error("btc-price-unavailable", zap.Error(err))
		return
	}

	pct := r.feed.Change(r.changeWindow)
	r.quotes.UpdateSignal(pct)
	quotes := r.quotes.Quotes(ctx, market.ID)

	r.logger.Info("price-update",
		zap.Float64("btc-price", price),
		zap.Float64("pct-change", pct))
	r.logger.Info("market-update",
		zap.String("market-id", market.ID),
		zap.String("phase", string(phase)),
		zap.Duration("time-remaining", remaining),
		zap.Float64("up-bid", quotes.Up.Bid),
		zap.Float64("up-ask", quotes.Up.Ask),
		zap.Float64("down-bid", quotes.Down.Bid),
		zap.Float64("down-ask", quotes.Down.Ask))
	r.logger.Info("capital-update",
		zap.Float64("capital", r.positions.Capital()),
		zap.Int("open-positions", len(r.positions.OpenPositions())))

	switch phase {
	case StatusTrading:
		r.maybeEnter(market, quotes, pct)
		r.manageOpen(quotes, remaining)
	case StatusForceClose:
		if !r.forcedCloseLogged {
			r.logger.Warn("force-close-window", zap.String("market-id", market.ID))
			r.forcedCloseLogged = true
		}
		r.closeAll(quotes, ReasonForcedClose)
	}

	r.publish(func(s *RunnerStatus) {
		s.Market = market
		s.Phase = phase
		s.TimeRemaining = remaining.String()
		s.BTCPrice = price
		s.PctChange = pct
		s.Quotes = quotes
		s.Ticks++
	})
}

func (r *Runner) maybeEnter(market Market, quotes Quotes, pct float64) {
	sig, ok := r.signals.Detect(quotes, pct)
	if !ok {
		return
	}

	SignalsTotal.WithLabelValues(string(sig.Side)).Inc()
	r.logger.Info("opportunity-detected",
		zap.String("side", string(sig.Side)),
		zap.Float64("spread", sig.Spread),
		zap.Float64("expected-prob", sig.ExpectedProb),
		zap.Float64("entry-price", sig.EntryPrice))

	if _, open := r.positions.OpenPositionForMarket(market.ID); open {
		return
	}

	capital := r.positions.Capital()
	if !r.signals.ShouldEnter(sig, capital) {
		return
	}

	sl, tp, err := r.risk.Levels(sig.EntryPrice)
	if err != nil {
		r.logger.Error("risk-levels-failed", zap.Error(err))
		return
	}

	size := PositionSize(capital, r.positionSize)
	pos, err := r.positions.Open(market.ID, sig.Side, sig.EntryPrice, size, sl, tp)
	if err != nil {
		r.logger.Error("open-position-failed",
			zap.String("market-id", market.ID),
			zap.Float64("size-usd", size),
			zap.Error(err))
		return
	}

	r.logger.Info("trade-opened",
		zap.Int("position-id", pos.ID),
		zap.String("side", string(pos.Side)),
		zap.Float64("entry-price", pos.EntryPrice),
		zap.Float64("size-usd", pos.SizeUSD),
		zap.Float64("stop-loss", pos.StopLoss),
		zap.Float64("take-profit", pos.TakeProfit))
}

func (r *Runner) manageOpen(quotes Quotes, remaining time.Duration) {
	for _, pos := range r.positions.OpenPositions() {
		quote, _ := quotes.Side(pos.Side)
		current := quote.Bid
		if current <= 0 {
			continue
		}

		action := r.risk.Check(pos, current, remaining)
		if action == ActionHold {
			now := r.now()
			if now.Sub(r.lastPositionLog) >= positionLogInterval {
				r.lastPositionLog = now
				r.logger.Info("position-update",
					zap.Int("position-id", pos.ID),
					zap.String("side", string(pos.Side)),
					zap.Float64("current-price", current),
					zap.Float64("unrealized-pnl", pos.UnrealizedPnL(current)))
			}
			continue
		}

		trade, err := r.positions.Close(pos, current, string(action))
		if err != nil {
			r.logger.Error("close-position-failed",
				zap.Int("position-id", pos.ID),
				zap.Error(err))
			continue
		}
		r.logTradeClosed(trade)
	}
}

func (r *Runner) closeAll(quotes Quotes, reason string) {
	if len(r.positions.OpenPositions()) == 0 {
		return
	}

	trades, err := r.positions.ForceCloseAll(quotes.ExitPrices(), reason)
	for _, trade := range trades {
		r.logTradeClosed(trade)
	}
	if err != nil {
		r.logger.Error("force-close-failed",
			zap.String("reason", reason),
			zap.Error(err))
	}
}

func (r *Runner) logTradeClosed(trade Trade) {
	r.logger.Info("trade-closed",
		zap.Int("position-id", trade.PositionID),
		zap.String("reason", trade.Reason),
		zap.Float64("pnl", trade.PnL),
		zap.Float64("capital", r.positions.Capital()))
}

func (r *Runner) shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	r.logger.Info("legacy-runner-shutting-down")

	if len(r.positions.OpenPositions()) > 0 {
		market := r.quotes.CurrentMarket(ctx)
		r.closeAll(r.quotes.Quotes(ctx, market.ID), ReasonShutdown)
	}

	summary := r.positions.Summary()
	r.logger.Info("legacy-summary",
		zap.Int("trades", summary.Trades),
		zap.Int("wins", summary.Wins),
		zap.Int("losses", summary.Losses),
		zap.Float64("total-pnl", summary.PnL),
		zap.Float64("capital", summary.Capital))

	r.publish(func(s *RunnerStatus) {
		s.Stopped = true
	})
}

func (r *Runner) publish(update func(*RunnerStatus)) {
	open := r.positions.OpenPositions()
	summary := r.positions.Summary()

	r.mu.Lock()
	defer r.mu.Unlock()

	update(&r.status)
	r.status.Capital = r.positions.Capital()
	r.status.OpenPositions = open
	r.status.Summary = summary
}

// Snapshot returns a copy of the runner status.
func (r *Runner) Snapshot() RunnerStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := r.status
	s.OpenPositions = append([]*Position(nil), r.status.OpenPositions...)
	return s
}

// Trades returns all closed trades.
func (r *Runner) Trades() []Trade {
	return r.positions.Trades()
}

// Positions exposes the position manager.
func (r *Runner) Positions() *PositionManager {
	return r.positions
}
