package types

import "math"

// BinaryMarket is a normalized YES/NO quote snapshot for one market.
// Producers only emit markets whose four prices are strictly positive.
type BinaryMarket struct {
	ID          string  `json:"id"`
	ConditionID string  `json:"condition_id"`
	Question    string  `json:"question"`
	Volume      float64 `json:"volume"`
	YesBid      float64 `json:"yes_bid"`
	YesAsk      float64 `json:"yes_ask"`
	NoBid       float64 `json:"no_bid"`
	NoAsk       float64 `json:"no_ask"`
	Active      bool    `json:"active"`
}

// Label returns the question, falling back to the market ID.
func (m *BinaryMarket) Label() string {
	if m.Question != "" {
		return m.Question
	}
	return m.ID
}

// HasPositivePrices reports whether all four quotes are finite and > 0.
func (m *BinaryMarket) HasPositivePrices() bool {
	for _, p := range [...]float64{m.YesBid, m.YesAsk, m.NoBid, m.NoAsk} {
		if !(p > 0) || math.IsInf(p, 0) {
			return false
		}
	}
	return true
}

// LongSum is the cost of buying one complete YES+NO set.
func (m *BinaryMarket) LongSum() float64 {
	return m.YesAsk + m.NoAsk
}

// ShortSum is the proceeds of selling one complete YES+NO set.
func (m *BinaryMarket) ShortSum() float64 {
	return m.YesBid + m.NoBid
}
