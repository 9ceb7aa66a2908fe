package pricefeed

import (
	"sync"
	"time"
)

// DefaultHistorySize bounds the number of samples kept.
const DefaultHistorySize = 2000

// Sample is one observed price.
type Sample struct {
	At    time.Time
	Price float64
}

// History is a bounded, time-ordered list of price samples.
type History struct {
	mu      sync.RWMutex
	samples []Sample
	size    int
}

// NewHistory creates a history holding at most size samples.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{
		samples: make([]Sample, 0, size),
		size:    size,
	}
}

// Add appends a sample, evicting the oldest when full.
func (h *History) Add(at time.Time, price float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.samples) == h.size {
		copy(h.samples, h.samples[1:])
		h.samples = h.samples[:h.size-1]
	}
	h.samples = append(h.samples, Sample{At: at, Price: price})
}

// Latest returns the most recent sample.
func (h *History) Latest() (Sample, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.samples) == 0 {
		return Sample{}, false
	}
	return h.samples[len(h.samples)-1], true
}

// Len returns the number of samples held.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.samples)
}

// Change returns the percent change between the latest sample and the most
// recent sample taken at or before latest - window. It returns 0 when no such
// sample exists or its price is zero.
func (h *History) Change(window time.Duration) float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.samples) == 0 {
		return 0
	}

	latest := h.samples[len(h.samples)-1]
	target := latest.At.Add(-window)

	for i := len(h.samples) - 1; i >= 0; i-- {
		s := h.samples[i]
		if s.At.After(target) {
			continue
		}
		if s.Price == 0 {
			return 0
		}
		return (latest.Price - s.Price) / s.Price * 100.0
	}

	return 0
}
