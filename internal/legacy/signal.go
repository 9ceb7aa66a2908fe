package legacy

import (
	"math"
)

// Side is the outcome a legacy position is held on.
type Side string

const (
	SideUp   Side = "UP"
	SideDown Side = "DOWN"
)

// defaultMaxProbDelta is how far a full-threshold move shifts the expected
// probability away from 0.5.
const defaultMaxProbDelta = 0.30

// Signal is an edge between the move-implied probability and the ask.
type Signal struct {
	Side         Side
	Spread       float64
	ExpectedProb float64
	EntryPrice   float64
}

// SignalEngine maps BTC moves onto UP/DOWN entry signals.
type SignalEngine struct {
	spreadThreshold    float64
	priceMoveThreshold float64
	maxProbDelta       float64
}

// NewSignalEngine creates a signal engine. priceMoveThreshold is a percent.
func NewSignalEngine(spreadThreshold float64, priceMoveThreshold float64) *SignalEngine {
	return &SignalEngine{
		spreadThreshold:    spreadThreshold,
		priceMoveThreshold: priceMoveThreshold,
		maxProbDelta:       defaultMaxProbDelta,
	}
}

// ExpectedProbability returns the favoured side and its implied probability.
func (e *SignalEngine) ExpectedProbability(pctChange float64) (Side, float64) {
	side := SideUp
	if pctChange < 0 {
		side = SideDown
	}

	normalized := math.Min(1.0, math.Abs(pctChange)/math.Max(e.priceMoveThreshold, 1e-9))
	prob := 0.5 + normalized*e.maxProbDelta
	return side, math.Min(0.99, math.Max(0.01, prob))
}

// Detect returns a signal when the move reaches the threshold and the
// implied probability exceeds the ask of the favoured side.
func (e *SignalEngine) Detect(quotes Quotes, pctChange float64) (*Signal, bool) {
	if math.Abs(pctChange) < e.priceMoveThreshold {
		return nil, false
	}

	side, prob := e.ExpectedProbability(pctChange)
	quote, ok := quotes.Side(side)
	if !ok {
		return nil, false
	}

	spread := prob - quote.Ask
	if spread <= 0 {
		return nil, false
	}

	return &Signal{
		Side:         side,
		Spread:       spread,
		ExpectedProb: prob,
		EntryPrice:   quote.Ask,
	}, true
}

// ShouldEnter reports whether a signal is wide enough to act on.
func (e *SignalEngine) ShouldEnter(sig *Signal, capital float64) bool {
	return sig != nil && sig.Spread >= e.spreadThreshold && capital > 0
}
