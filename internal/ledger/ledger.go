// Package ledger tracks the realized trading balance.
package ledger

import (
	"math"
)

// Ledger holds the trading balance. UpdateBalance is its only mutator.
// It is not safe for concurrent use and is owned by the scan loop.
type Ledger struct {
	starting     float64
	balance      float64
	positionSize float64
	trades       int
}

// New creates a ledger funded with startingCapital. positionSize in (0, 1]
// is a fraction of the balance; larger values are absolute dollars.
func New(startingCapital float64, positionSize float64) *Ledger {
	l := &Ledger{
		starting:     startingCapital,
		balance:      startingCapital,
		positionSize: positionSize,
	}
	BalanceUSD.Set(l.balance)
	return l
}

// PositionAmount returns the dollar amount to commit to the next trade.
func (l *Ledger) PositionAmount() float64 {
	if !(l.balance > 0) {
		return 0
	}

	amount := l.positionSize
	if l.positionSize > 0 && l.positionSize <= 1 {
		amount = l.positionSize * l.balance
	}
	if !(amount > 0) {
		return 0
	}

	return math.Min(amount, l.balance)
}

// UpdateBalance applies a realized profit (negative for a loss).
func (l *Ledger) UpdateBalance(profit float64) {
	l.balance += profit
	l.trades++

	BalanceUSD.Set(l.balance)
	RealizedPnLUSD.Set(l.balance - l.starting)
}

// Balance returns the current balance.
func (l *Ledger) Balance() float64 {
	return l.balance
}

// StartingCapital returns the initial balance.
func (l *Ledger) StartingCapital() float64 {
	return l.starting
}

// RealizedPnL returns balance minus starting capital.
func (l *Ledger) RealizedPnL() float64 {
	return l.balance - l.starting
}

// Trades returns how many balance updates have been applied.
func (l *Ledger) Trades() int {
	return l.trades
}
