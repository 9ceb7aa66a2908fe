package legacy

import (
	"fmt"
	"time"
)

// WindowLength is the length of one BTC UP/DOWN market.
const WindowLength = 15 * time.Minute

// MarketStatus is the phase of the current 15-minute window.
type MarketStatus string

const (
	StatusTrading    MarketStatus = "TRADING"
	StatusForceClose MarketStatus = "FORCE_CLOSE"
	StatusWaiting    MarketStatus = "WAITING"
)

// TradeTimer tracks the current 15-minute UTC window. Trading is allowed
// until tradingUntil minutes into the window; the rest of the window is the
// force-close phase.
type TradeTimer struct {
	tradingUntil time.Duration
	now          func() time.Time
	marketStart  time.Time
}

// NewTradeTimer creates a timer anchored to the current window.
// A nil clock uses time.Now.
func NewTradeTimer(tradingUntilMinute int, now func() time.Time) (*TradeTimer, error) {
	if tradingUntilMinute < 0 || tradingUntilMinute > 14 {
		return nil, fmt.Errorf("trading until minute must be between 0 and 14, got %d", tradingUntilMinute)
	}
	if now == nil {
		now = time.Now
	}

	return &TradeTimer{
		tradingUntil: time.Duration(tradingUntilMinute) * time.Minute,
		now:          now,
		marketStart:  WindowStart(now()),
	}, nil
}

// WindowStart floors t to its 15-minute UTC boundary.
func WindowStart(t time.Time) time.Time {
	return t.UTC().Truncate(WindowLength)
}

// MaybeRollover moves to the current window once the previous one has
// ended. Returns true when it rolled over.
func (t *TradeTimer) MaybeRollover() bool {
	now := t.now()
	if now.Before(t.marketStart.Add(WindowLength)) {
		return false
	}
	t.marketStart = WindowStart(now)
	return true
}

// Elapsed returns whole seconds since the window opened, never negative.
func (t *TradeTimer) Elapsed() time.Duration {
	elapsed := t.now().Sub(t.marketStart).Truncate(time.Second)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// Status returns the phase of the window.
func (t *TradeTimer) Status() MarketStatus {
	elapsed := t.Elapsed()
	switch {
	case elapsed < t.tradingUntil:
		return StatusTrading
	case elapsed < WindowLength:
		return StatusForceClose
	default:
		return StatusWaiting
	}
}

// TimeRemaining returns the time left until the trading cutoff.
func (t *TradeTimer) TimeRemaining() time.Duration {
	return max(0, t.tradingUntil-t.Elapsed())
}

// IsTradingAllowed reports whether new positions may be opened.
func (t *TradeTimer) IsTradingAllowed() bool {
	return t.Status() == StatusTrading
}

// Window returns the start and end of the current window.
func (t *TradeTimer) Window() (time.Time, time.Time) {
	return t.marketStart, t.marketStart.Add(WindowLength)
}
