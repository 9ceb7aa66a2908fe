package testutil

import (
	"github.com/mselser95/polyarb-agent/pkg/types"
)

// CreateTestMarket creates a normalized binary market with volume 50000.
func CreateTestMarket(id string, yesBid, yesAsk, noBid, noAsk float64) types.BinaryMarket {
	return types.BinaryMarket{
		ID:          id,
		ConditionID: "cond-" + id,
		Question:    "Test market " + id + "?",
		Volume:      50000,
		YesBid:      yesBid,
		YesAsk:      yesAsk,
		NoBid:       noBid,
		NoAsk:       noAsk,
		Active:      true,
	}
}

// CreateRawGammaMarket creates a Gamma listing record in the camel-case
// format with Yes/No outcome sub-records.
func CreateRawGammaMarket(id string, yesBid, yesAsk, noBid, noAsk float64) map[string]any {
	return map[string]any{
		"id":          id,
		"conditionId": "cond-" + id,
		"question":    "Test market " + id + "?",
		"volume":      50000.0,
		"active":      true,
		"outcomes": []any{
			map[string]any{"outcome": "Yes", "bestBid": yesBid, "bestAsk": yesAsk},
			map[string]any{"outcome": "No", "bestBid": noBid, "bestAsk": noAsk},
		},
	}
}

// CreateRawUpDownMarket creates a Gamma record for a 15-minute BTC
// UP/DOWN market.
func CreateRawUpDownMarket(id string, upBid, upAsk, downBid, downAsk float64) map[string]any {
	return map[string]any{
		"id":          id,
		"conditionId": "cond-" + id,
		"question":    "Bitcoin Up or Down - 15 minute window",
		"volume":      "25000",
		"active":      true,
		"outcomes": []any{
			map[string]any{"outcome": "Up", "bestBid": upBid, "bestAsk": upAsk},
			map[string]any{"outcome": "Down", "bestBid": downBid, "bestAsk": downAsk},
		},
	}
}
