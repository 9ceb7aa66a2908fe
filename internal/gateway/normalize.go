package gateway

import (
	"strings"

	"github.com/mselser95/polyarb-agent/pkg/types"
)

// SkipReason explains why a raw listing item was not turned into a market.
// The zero value means the item was accepted.
type SkipReason string

const (
	SkipNone             SkipReason = ""
	SkipMalformed        SkipReason = "malformed-item"
	SkipInactive         SkipReason = "inactive"
	SkipMissingCondition SkipReason = "missing-condition-id"
	SkipMissingOutcomes  SkipReason = "missing-outcomes"
	SkipMissingYes       SkipReason = "missing-yes"
	SkipMissingNo        SkipReason = "missing-no"
	SkipMissingQuote     SkipReason = "missing-quote"
	SkipBadNumber        SkipReason = "bad-number"
	SkipNonPositive      SkipReason = "non-positive-price"
)

// Normalizer converts loosely typed Gamma records into BinaryMarkets.
type Normalizer struct {
	fields FieldTable
}

// NewNormalizer creates a normalizer over the given field table.
func NewNormalizer(fields FieldTable) *Normalizer {
	return &Normalizer{fields: fields}
}

// Normalize converts one raw listing item. A non-empty SkipReason means the
// item must be dropped.
func (n *Normalizer) Normalize(raw any) (types.BinaryMarket, SkipReason) {
	item, ok := raw.(map[string]any)
	if !ok {
		return types.BinaryMarket{}, SkipMalformed
	}

	f := n.fields

	if !f.Active.Bool(item, true) {
		return types.BinaryMarket{}, SkipInactive
	}

	conditionID := f.ConditionID.String(item)
	if conditionID == "" {
		return types.BinaryMarket{}, SkipMissingCondition
	}
	marketID := f.MarketID.String(item)
	if marketID == "" {
		marketID = conditionID
	}

	// Unparseable volume counts as zero and is left to the volume filter.
	volume, _, err := f.Volume.Float(item)
	if err != nil {
		volume = 0
	}

	outcomes, ok := f.Outcomes.List(item)
	if !ok {
		return types.BinaryMarket{}, SkipMissingOutcomes
	}

	yes, no := n.splitOutcomes(outcomes)
	if yes == nil {
		return types.BinaryMarket{}, SkipMissingYes
	}
	if no == nil {
		return types.BinaryMarket{}, SkipMissingNo
	}

	yesBid, yesAsk, reason := n.quote(yes)
	if reason != SkipNone {
		return types.BinaryMarket{}, reason
	}
	noBid, noAsk, reason := n.quote(no)
	if reason != SkipNone {
		return types.BinaryMarket{}, reason
	}

	market := types.BinaryMarket{
		ID:          marketID,
		ConditionID: conditionID,
		Question:    f.Question.String(item),
		Volume:      volume,
		YesBid:      yesBid,
		YesAsk:      yesAsk,
		NoBid:       noBid,
		NoAsk:       noAsk,
		Active:      true,
	}

	if !market.HasPositivePrices() {
		return types.BinaryMarket{}, SkipNonPositive
	}

	return market, SkipNone
}

// splitOutcomes finds the YES and NO sub-records by label.
func (n *Normalizer) splitOutcomes(outcomes []any) (yes, no map[string]any) {
	for _, raw := range outcomes {
		o, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		switch ClassifyLabel(n.fields.OutcomeName.String(o)) {
		case types.OutcomeYes:
			yes = o
		case types.OutcomeNo:
			no = o
		}
	}
	return yes, no
}

func (n *Normalizer) quote(o map[string]any) (bid, ask float64, reason SkipReason) {
	bid, bidOK, bidErr := n.fields.Bid.Float(o)
	ask, askOK, askErr := n.fields.Ask.Float(o)

	if !bidOK || !askOK {
		return 0, 0, SkipMissingQuote
	}
	if bidErr != nil || askErr != nil {
		return 0, 0, SkipBadNumber
	}
	return bid, ask, SkipNone
}

// ClassifyLabel maps an outcome label onto YES or NO. YES takes precedence
// when a label matches both; unknown labels return "".
func ClassifyLabel(label string) types.Outcome {
	label = strings.ToUpper(strings.TrimSpace(label))
	switch label {
	case "YES", "Y", "TRUE":
		return types.OutcomeYes
	case "NO", "N", "FALSE":
		return types.OutcomeNo
	}

	if strings.Contains(label, "YES") {
		return types.OutcomeYes
	}
	if strings.Contains(label, "NO") {
		return types.OutcomeNo
	}
	return ""
}
