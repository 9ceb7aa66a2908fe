package types

import "time"

// Outcome identifies a leg of a binary market.
type Outcome string

// Side is the direction of an order.
type Side string

const (
	OutcomeYes Outcome = "YES"
	OutcomeNo  Outcome = "NO"

	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderRequest describes one leg to submit.
type OrderRequest struct {
	MarketID      string
	ConditionID   string
	Outcome       Outcome
	Side          Side
	Shares        float64
	ExpectedPrice float64
}

// Order is a filled leg. Immutable once created.
type Order struct {
	ID        string    `json:"id"`
	MarketID  string    `json:"market_id"`
	Outcome   Outcome   `json:"outcome"`
	Side      Side      `json:"side"`
	Price     float64   `json:"price"`
	Shares    float64   `json:"shares"`
	FilledAt  time.Time `json:"filled_at"`
	PaperFill bool      `json:"paper_fill"`
}

// Notional is shares × price.
func (o *Order) Notional() float64 {
	return o.Shares * o.Price
}
