package legacy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Set(t time.Time) { c.now = t }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func at(hour, minute, second int) time.Time {
	return time.Date(2024, 5, 1, hour, minute, second, 0, time.UTC)
}

func TestWindowStart(t *testing.T) {
	tests := []struct {
		name     string
		in       time.Time
		expected time.Time
	}{
		{name: "on-boundary", in: at(12, 15, 0), expected: at(12, 15, 0)},
		{name: "mid-window", in: at(12, 29, 59), expected: at(12, 15, 0)},
		{name: "last-window", in: at(12, 59, 1), expected: at(12, 45, 0)},
		{
			name:     "non-utc-input",
			in:       time.Date(2024, 5, 1, 14, 7, 0, 0, time.FixedZone("CEST", 2*3600)),
			expected: at(12, 0, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.expected.Equal(WindowStart(tt.in)), "got %s", WindowStart(tt.in))
		})
	}
}

func TestNewTradeTimer_InvalidMinute(t *testing.T) {
	_, err := NewTradeTimer(-1, nil)
	require.Error(t, err)

	_, err = NewTradeTimer(15, nil)
	require.Error(t, err)

	_, err = NewTradeTimer(14, nil)
	require.NoError(t, err)
}

func TestTradeTimer_Status(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		status    MarketStatus
		remaining time.Duration
	}{
		{name: "window-open", now: at(12, 0, 0), status: StatusTrading, remaining: 13 * time.Minute},
		{name: "mid-trading", now: at(12, 5, 30), status: StatusTrading, remaining: 7*time.Minute + 30*time.Second},
		{name: "last-trading-second", now: at(12, 12, 59), status: StatusTrading, remaining: time.Second},
		{name: "cutoff", now: at(12, 13, 0), status: StatusForceClose, remaining: 0},
		{name: "force-close-end", now: at(12, 14, 59), status: StatusForceClose, remaining: 0},
		{name: "stale-window", now: at(12, 15, 0), status: StatusWaiting, remaining: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{now: at(12, 0, 0)}
			timer, err := NewTradeTimer(13, clock.Now)
			require.NoError(t, err)

			clock.Set(tt.now)
			assert.Equal(t, tt.status, timer.Status())
			assert.Equal(t, tt.remaining, timer.TimeRemaining())
			assert.Equal(t, tt.status == StatusTrading, timer.IsTradingAllowed())
		})
	}
}

func TestTradeTimer_Rollover(t *testing.T) {
	clock := &fakeClock{now: at(12, 3, 0)}
	timer, err := NewTradeTimer(13, clock.Now)
	require.NoError(t, err)

	start, end := timer.Window()
	assert.Equal(t, at(12, 0, 0), start)
	assert.Equal(t, at(12, 15, 0), end)

	clock.Set(at(12, 14, 59))
	assert.False(t, timer.MaybeRollover())

	clock.Set(at(12, 31, 10))
	assert.True(t, timer.MaybeRollover())

	start, _ = timer.Window()
	assert.Equal(t, at(12, 30, 0), start)
	assert.Equal(t, StatusTrading, timer.Status())
	assert.Equal(t, 70*time.Second, timer.Elapsed())
}

func TestTradeTimer_ClockBehindStart(t *testing.T) {
	clock := &fakeClock{now: at(12, 5, 0)}
	timer, err := NewTradeTimer(13, clock.Now)
	require.NoError(t, err)

	clock.Set(at(11, 59, 0))
	assert.Zero(t, timer.Elapsed())
	assert.Equal(t, 13*time.Minute, timer.TimeRemaining())
}
