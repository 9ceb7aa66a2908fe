package types

import "time"

// ArbitrageType is the direction of a detected opportunity.
type ArbitrageType string

const (
	// ArbitrageLong buys both outcomes when yes_ask + no_ask < 1.
	ArbitrageLong ArbitrageType = "long"
	// ArbitrageShort sells both outcomes when yes_bid + no_bid > 1.
	ArbitrageShort ArbitrageType = "short"
)

// ExecutionResult contains the result of executing an arbitrage opportunity.
// It is always produced; failures carry Success=false, Profit=0 and Error.
type ExecutionResult struct {
	OpportunityID string        `json:"opportunity_id"`
	Market        string        `json:"market"`
	ConditionID   string        `json:"condition_id"`
	Type          ArbitrageType `json:"type"`
	Invested      float64       `json:"invested"`
	Received      float64       `json:"received"`
	Profit        float64       `json:"profit"`
	Success       bool          `json:"success"`
	Error         string        `json:"error,omitempty"`
	YesOrder      *Order        `json:"yes_order,omitempty"`
	NoOrder       *Order        `json:"no_order,omitempty"`
	ExecutedAt    time.Time     `json:"executed_at"`
	Elapsed       time.Duration `json:"elapsed"`
}

// TradeLog is one completed execution as recorded by the scan loop.
type TradeLog struct {
	Timestamp     time.Time     `json:"timestamp"`
	Market        string        `json:"market"`
	Question      string        `json:"question"`
	Type          ArbitrageType `json:"type"`
	Invested      float64       `json:"invested"`
	Profit        float64       `json:"profit"`
	Balance       float64       `json:"balance"`
	OperationTime time.Duration `json:"operation_time"`
}
