package arbitrage

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mselser95/polyarb-agent/pkg/types"
)

// Opportunity is a detected complete-set mispricing on one binary market.
// For long opportunities the prices are the asks, for short ones the bids.
type Opportunity struct {
	ID          string
	Type        types.ArbitrageType
	MarketID    string
	ConditionID string
	Question    string
	Volume      float64
	YesPrice    float64
	NoPrice     float64
	PriceSum    float64
	Profit      float64 // per $1 set
	Threshold   float64 // sum threshold it crossed
	DetectedAt  time.Time
}

// NewLongOpportunity builds a buy-both opportunity from the market asks.
func NewLongOpportunity(m *types.BinaryMarket, threshold float64) *Opportunity {
	sum := m.LongSum()
	return newOpportunity(m, types.ArbitrageLong, m.YesAsk, m.NoAsk, sum, 1.0-sum, threshold)
}

// NewShortOpportunity builds a sell-both opportunity from the market bids.
func NewShortOpportunity(m *types.BinaryMarket, threshold float64) *Opportunity {
	sum := m.ShortSum()
	return newOpportunity(m, types.ArbitrageShort, m.YesBid, m.NoBid, sum, sum-1.0, threshold)
}

func newOpportunity(
	m *types.BinaryMarket,
	kind types.ArbitrageType,
	yesPrice float64,
	noPrice float64,
	sum float64,
	profit float64,
	threshold float64,
) *Opportunity {
	return &Opportunity{
		ID:          uuid.New().String(),
		Type:        kind,
		MarketID:    m.ID,
		ConditionID: m.ConditionID,
		Question:    m.Label(),
		Volume:      m.Volume,
		YesPrice:    yesPrice,
		NoPrice:     noPrice,
		PriceSum:    sum,
		Profit:      profit,
		Threshold:   threshold,
		DetectedAt:  time.Now(),
	}
}

// ProfitBPS returns the per-set profit in basis points.
func (o *Opportunity) ProfitBPS() int {
	return int(o.Profit * 10000)
}

// String returns a one-line description for logs.
func (o *Opportunity) String() string {
	return fmt.Sprintf("%s arb on %s: yes=%.4f no=%.4f sum=%.4f profit=%.2f%%",
		o.Type, o.MarketID, o.YesPrice, o.NoPrice, o.PriceSum, o.Profit*100)
}
