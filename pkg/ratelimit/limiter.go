// Package ratelimit provides a sliding-window limiter for outbound API calls.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter admits at most maxCalls acquisitions within any trailing period.
// A maxCalls of zero or less disables limiting.
type Limiter struct {
	mu       sync.Mutex
	maxCalls int
	period   time.Duration
	calls    []time.Time // oldest first
	now      func() time.Time
	name     string
}

// New creates a limiter allowing maxCalls per period.
func New(name string, maxCalls int, period time.Duration) *Limiter {
	return &Limiter{
		maxCalls: maxCalls,
		period:   period,
		now:      time.Now,
		name:     name,
	}
}

// SetLimit changes the number of calls admitted per period.
func (l *Limiter) SetLimit(maxCalls int) {
	l.mu.Lock()
	l.maxCalls = maxCalls
	l.mu.Unlock()
}

// Acquire blocks until a slot is free or ctx is done.
// After every wait the window is re-evaluated, since concurrent waiters may
// have taken the slot that opened up.
func (l *Limiter) Acquire(ctx context.Context) error {
	start := l.now()
	waited := false

	for {
		wait, ok := l.tryAcquire()
		if ok {
			AcquisitionsTotal.WithLabelValues(l.name).Inc()
			if waited {
				WaitSeconds.WithLabelValues(l.name).Observe(time.Since(start).Seconds())
			}
			return nil
		}

		waited = true
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// tryAcquire records a call if the window has room, otherwise returns how long
// until the oldest call leaves the window.
func (l *Limiter) tryAcquire() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.maxCalls <= 0 {
		return 0, true
	}

	now := l.now()
	l.evict(now)

	if len(l.calls) < l.maxCalls {
		l.calls = append(l.calls, now)
		return 0, true
	}

	wait := l.period - now.Sub(l.calls[0])
	if wait <= 0 {
		wait = time.Millisecond
	}
	return wait, false
}

func (l *Limiter) evict(now time.Time) {
	i := 0
	for i < len(l.calls) && now.Sub(l.calls[i]) >= l.period {
		i++
	}
	if i > 0 {
		l.calls = append(l.calls[:0], l.calls[i:]...)
	}
}

// InFlight returns the number of calls currently inside the window.
func (l *Limiter) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.evict(l.now())
	return len(l.calls)
}
