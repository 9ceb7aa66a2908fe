package arbitrage

import (
	"time"

	"github.com/mselser95/polyarb-agent/pkg/types"
)

// CreateTestOpportunity creates a long opportunity priced 0.48 + 0.49.
// Kept outside _test files so other packages' tests can use it.
func CreateTestOpportunity(marketID string, question string) *Opportunity {
	return &Opportunity{
		ID:          "test-opp-" + marketID,
		Type:        types.ArbitrageLong,
		MarketID:    marketID,
		ConditionID: "cond-" + marketID,
		Question:    question,
		Volume:      50000,
		YesPrice:    0.48,
		NoPrice:     0.49,
		PriceSum:    0.97,
		Profit:      0.03,
		Threshold:   0.99,
		DetectedAt:  time.Now(),
	}
}

// CreateTestShortOpportunity creates a short opportunity priced 0.52 + 0.50.
func CreateTestShortOpportunity(marketID string, question string) *Opportunity {
	return &Opportunity{
		ID:          "test-opp-" + marketID,
		Type:        types.ArbitrageShort,
		MarketID:    marketID,
		ConditionID: "cond-" + marketID,
		Question:    question,
		Volume:      50000,
		YesPrice:    0.52,
		NoPrice:     0.50,
		PriceSum:    1.02,
		Profit:      0.02,
		Threshold:   1.01,
		DetectedAt:  time.Now(),
	}
}
