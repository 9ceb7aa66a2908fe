package legacy

import (
	"errors"
	"math"
	"time"
)

// Action is the outcome of a position risk check.
type Action string

const (
	ActionHold       Action = "HOLD"
	ActionTakeProfit Action = "TAKE_PROFIT"
	ActionStopLoss   Action = "STOP_LOSS"
	ActionForceClose Action = "FORCE_CLOSE"
)

const (
	minPrice = 0.0001
	maxPrice = 0.9999
)

// RiskManager derives stop-loss and take-profit levels from the entry price.
type RiskManager struct {
	stopLoss   float64
	takeProfit float64
}

// NewRiskManager creates a risk manager. Both arguments are fractions of
// the entry price.
func NewRiskManager(stopLoss float64, takeProfit float64) *RiskManager {
	return &RiskManager{
		stopLoss:   stopLoss,
		takeProfit: takeProfit,
	}
}

// Levels returns the stop-loss and take-profit prices, clamped to the
// tradable range.
func (r *RiskManager) Levels(entryPrice float64) (sl float64, tp float64, err error) {
	if !(entryPrice > 0) {
		return 0, 0, errors.New("entry price must be > 0")
	}

	sl = clampPrice(entryPrice * (1.0 - r.stopLoss))
	tp = clampPrice(entryPrice * (1.0 + r.takeProfit))
	return sl, tp, nil
}

// Check decides what to do with a position at the current price.
func (r *RiskManager) Check(pos *Position, currentPrice float64, remaining time.Duration) Action {
	switch {
	case remaining <= 0:
		return ActionForceClose
	case currentPrice >= pos.TakeProfit:
		return ActionTakeProfit
	case currentPrice <= pos.StopLoss:
		return ActionStopLoss
	default:
		return ActionHold
	}
}

func clampPrice(p float64) float64 {
	return math.Max(minPrice, math.Min(maxPrice, p))
}
