package gateway

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Field is an ordered list of candidate keys for one logical attribute.
// The first key holding a non-null, non-empty value wins.
type Field []string

// FieldTable maps every attribute read from a Gamma market record to its
// accepted key spellings. New upstream formats only need a new entry here.
type FieldTable struct {
	Question    Field
	ConditionID Field
	MarketID    Field
	Volume      Field
	Active      Field
	Outcomes    Field
	OutcomeName Field
	Bid         Field
	Ask         Field
	StartTime   Field
	EndTime     Field
}

// DefaultFields is the lookup table for the Gamma markets listing.
//
//nolint:gochecknoglobals // lookup table
var DefaultFields = FieldTable{
	Question:    Field{"question", "title"},
	ConditionID: Field{"conditionId", "condition_id", "id"},
	MarketID:    Field{"id", "conditionId", "condition_id"},
	Volume:      Field{"volume", "volumeUsd", "volume_usd", "volumeUSD"},
	Active:      Field{"active"},
	Outcomes:    Field{"outcomes", "tokens", "clobTokens"},
	OutcomeName: Field{"outcome", "label", "name"},
	Bid:         Field{"bestBid", "best_bid", "bid"},
	Ask:         Field{"bestAsk", "best_ask", "ask"},
	StartTime:   Field{"startTime", "start_time", "createdAt", "created_at"},
	EndTime:     Field{"endTime", "end_time", "resolveTime", "resolve_time"},
}

// Lookup returns the first usable value among the candidate keys.
func (f Field) Lookup(item map[string]any) (any, bool) {
	for _, key := range f {
		v, ok := item[key]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

// String returns the first usable value rendered as a string.
func (f Field) String(item map[string]any) string {
	v, ok := f.Lookup(item)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// Float returns the first usable value coerced to float64.
// present is false when no candidate key holds a value.
func (f Field) Float(item map[string]any) (value float64, present bool, err error) {
	v, ok := f.Lookup(item)
	if !ok {
		return 0, false, nil
	}
	value, err = toFloat(v)
	return value, true, err
}

// Bool returns the first usable value coerced to bool, or def when absent.
func (f Field) Bool(item map[string]any, def bool) bool {
	v, ok := f.Lookup(item)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return def
		}
		return b
	case float64:
		return t != 0
	}
	return def
}

// List returns the first usable value as a list of records.
// Gamma sometimes encodes nested lists as JSON strings; those are decoded.
func (f Field) List(item map[string]any) ([]any, bool) {
	v, ok := f.Lookup(item)
	if !ok {
		return nil, false
	}
	switch t := v.(type) {
	case []any:
		return t, true
	case string:
		var decoded []any
		if err := json.Unmarshal([]byte(t), &decoded); err != nil {
			return nil, false
		}
		return decoded, true
	}
	return nil, false
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case json.Number:
		return decimalFloat(string(t))
	case string:
		return decimalFloat(t)
	}
	return 0, fmt.Errorf("unsupported numeric type %T", v)
}

func decimalFloat(s string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parse number %q: %w", s, err)
	}
	f, _ := d.Float64()
	return f, nil
}
