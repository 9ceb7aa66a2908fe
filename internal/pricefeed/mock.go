package pricefeed

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

const (
	mockStartPrice = 45_000.0
	mockMaxStep    = 0.0008
)

// MockFeed is a seeded random walk. Each Price call moves the price by a
// uniform factor in [-0.08%, +0.08%].
type MockFeed struct {
	mu      sync.Mutex
	rng     *rand.Rand
	price   float64
	now     func() time.Time
	history *History
}

// NewMockFeed creates a random walk starting at 45000.
// A nil clock uses time.Now.
func NewMockFeed(seed int64, now func() time.Time) *MockFeed {
	if now == nil {
		now = time.Now
	}
	return &MockFeed{
		//nolint:gosec // simulation, not security
		rng:     rand.New(rand.NewSource(seed)),
		price:   mockStartPrice,
		now:     now,
		history: NewHistory(DefaultHistorySize),
	}
}

// Price advances the walk and returns the new price.
func (f *MockFeed) Price(_ context.Context) (float64, error) {
	f.mu.Lock()
	step := -mockMaxStep + f.rng.Float64()*2*mockMaxStep
	f.price *= 1.0 + step
	price := f.price
	f.mu.Unlock()

	f.history.Add(f.now(), price)
	PriceUSD.WithLabelValues(f.Source()).Set(price)
	return price, nil
}

// Change returns the percent change over window.
func (f *MockFeed) Change(window time.Duration) float64 {
	return f.history.Change(window)
}

// Source returns "mock".
func (f *MockFeed) Source() string {
	return "mock"
}
