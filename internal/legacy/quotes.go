package legacy

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/mselser95/polyarb-agent/internal/gateway"
	"go.uber.org/zap"
)

// Quote is the best bid and ask of one outcome.
type Quote struct {
	Bid float64 `json:"bid"`
	Ask float64 `json:"ask"`
}

// Quotes holds both sides of a BTC UP/DOWN market. A zero quote means the
// side is unavailable.
type Quotes struct {
	Up   Quote `json:"up"`
	Down Quote `json:"down"`
}

// Side returns the quote for side and whether it carries any price.
func (q Quotes) Side(side Side) (Quote, bool) {
	var quote Quote
	switch side {
	case SideUp:
		quote = q.Up
	case SideDown:
		quote = q.Down
	default:
		return Quote{}, false
	}
	return quote, quote.Bid != 0 || quote.Ask != 0
}

// ExitPrices picks a liquidation price per side: the bid when positive,
// else the ask, else the minimum price.
func (q Quotes) ExitPrices() map[Side]float64 {
	pick := func(quote Quote) float64 {
		if quote.Bid > 0 {
			return quote.Bid
		}
		if quote.Ask > 0 {
			return quote.Ask
		}
		return minPrice
	}
	return map[Side]float64{
		SideUp:   pick(q.Up),
		SideDown: pick(q.Down),
	}
}

// Market identifies the BTC UP/DOWN market being traded.
type Market struct {
	ID     string    `json:"id"`
	Symbol string    `json:"symbol"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Status string    `json:"status"`
}

const marketSymbol = "BTC-15M"

// QuoteSource provides the current market and its UP/DOWN quotes.
type QuoteSource interface {
	CurrentMarket(ctx context.Context) Market
	Quotes(ctx context.Context, marketID string) Quotes
	// UpdateSignal feeds the latest BTC percent change to sources that
	// simulate prices from it.
	UpdateSignal(pctChange float64)
}

func windowMarket(prefix string, now time.Time, status string) Market {
	start := WindowStart(now)
	return Market{
		ID:     fmt.Sprintf("%s-btc-15m-%s", prefix, start.Format("20060102-1504")),
		Symbol: marketSymbol,
		Start:  start,
		End:    start.Add(WindowLength),
		Status: status,
	}
}

// MockQuotes simulates UP/DOWN quotes biased by the BTC move: the UP mid is
// 0.5 + clamp(pct/10, ±0.2) and both sides trade at mid ± 0.01.
type MockQuotes struct {
	mu     sync.RWMutex
	signal float64
	now    func() time.Time
}

// NewMockQuotes creates a mock quote source. A nil clock uses time.Now.
func NewMockQuotes(now func() time.Time) *MockQuotes {
	if now == nil {
		now = time.Now
	}
	return &MockQuotes{now: now}
}

// CurrentMarket returns the paper market for the current window.
func (q *MockQuotes) CurrentMarket(_ context.Context) Market {
	return windowMarket("paper", q.now(), "ACTIVE")
}

// UpdateSignal sets the BTC move driving the bias.
func (q *MockQuotes) UpdateSignal(pctChange float64) {
	q.mu.Lock()
	q.signal = pctChange
	q.mu.Unlock()
}

// Quotes returns the simulated quotes.
func (q *MockQuotes) Quotes(_ context.Context, _ string) Quotes {
	q.mu.RLock()
	signal := q.signal
	q.mu.RUnlock()

	const halfSpread = 0.01

	bias := math.Max(-0.20, math.Min(0.20, signal/10.0))
	upMid := clampPrice(0.5 + bias)
	downMid := clampPrice(1.0 - upMid)

	return Quotes{
		Up:   Quote{Bid: clampPrice(upMid - halfSpread), Ask: clampPrice(upMid + halfSpread)},
		Down: Quote{Bid: clampPrice(downMid - halfSpread), Ask: clampPrice(downMid + halfSpread)},
	}
}

// GammaQuotes reads BTC 15-minute markets from the Gamma API.
type GammaQuotes struct {
	client *gateway.Client
	fields gateway.FieldTable
	now    func() time.Time
	logger *zap.Logger

	mu    sync.Mutex
	cache map[string]map[string]any
}

// GammaQuotesConfig holds Gamma quote source configuration.
type GammaQuotesConfig struct {
	Client *gateway.Client
	Now    func() time.Time
	Logger *zap.Logger
}

// gammaListLimit is how many active markets are searched for BTC windows.
const gammaListLimit = 50

// NewGammaQuotes creates a Gamma-backed quote source.
func NewGammaQuotes(cfg *GammaQuotesConfig) *GammaQuotes {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &GammaQuotes{
		client: cfg.Client,
		fields: gateway.DefaultFields,
		now:    now,
		logger: cfg.Logger,
		cache:  make(map[string]map[string]any),
	}
}

// UpdateSignal is a no-op; live quotes come from the venue.
func (q *GammaQuotes) UpdateSignal(float64) {}

// CurrentMarket returns the first active BTC 15-minute market, or a
// placeholder for the current window when none is listed.
func (q *GammaQuotes) CurrentMarket(ctx context.Context) Market {
	items, err := q.client.FetchPage(ctx, gammaListLimit, 0)
	if err != nil {
		q.logger.Warn("btc-market-list-failed", zap.Error(err))
		return windowMarket("unknown", q.now(), "UNKNOWN")
	}

	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		question := q.fields.Question.String(item)
		lower := strings.ToLower(question)
		if !strings.Contains(lower, "btc") && !strings.Contains(lower, "bitcoin") {
			continue
		}
		if !strings.Contains(question, "15") {
			continue
		}

		id := q.fields.MarketID.String(item)
		if id == "" {
			continue
		}

		q.mu.Lock()
		q.cache[id] = item
		q.mu.Unlock()

		status := "ACTIVE"
		if s, ok := item["status"].(string); ok && s != "" {
			status = s
		}

		return Market{
			ID:     id,
			Symbol: marketSymbol,
			Start:  parseTime(q.fields.StartTime, item),
			End:    parseTime(q.fields.EndTime, item),
			Status: status,
		}
	}

	return windowMarket("unknown", q.now(), "UNKNOWN")
}

// Quotes returns the UP/DOWN quotes of marketID. Failures yield zero quotes.
func (q *GammaQuotes) Quotes(ctx context.Context, marketID string) Quotes {
	q.mu.Lock()
	item, ok := q.cache[marketID]
	q.mu.Unlock()

	if !ok {
		fetched, err := q.client.FetchMarket(ctx, marketID)
		if err != nil {
			q.logger.Warn("btc-market-fetch-failed",
				zap.String("market-id", marketID),
				zap.Error(err))
			return Quotes{}
		}
		item = fetched
	}

	quotes, ok := q.extract(item)
	if !ok {
		q.logger.Debug("btc-market-quotes-unavailable", zap.String("market-id", marketID))
		return Quotes{}
	}
	return quotes
}

func (q *GammaQuotes) extract(item map[string]any) (Quotes, bool) {
	outcomes, ok := q.fields.Outcomes.List(item)
	if !ok {
		return Quotes{}, false
	}

	var quotes Quotes
	var haveUp, haveDown bool

	for _, raw := range outcomes {
		o, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		side, ok := ClassifySide(q.fields.OutcomeName.String(o))
		if !ok {
			continue
		}

		bid, bidOK, bidErr := q.fields.Bid.Float(o)
		ask, askOK, askErr := q.fields.Ask.Float(o)
		if !bidOK || !askOK || bidErr != nil || askErr != nil {
			continue
		}

		switch side {
		case SideUp:
			quotes.Up = Quote{Bid: bid, Ask: ask}
			haveUp = true
		case SideDown:
			quotes.Down = Quote{Bid: bid, Ask: ask}
			haveDown = true
		}
	}

	return quotes, haveUp && haveDown
}

// ClassifySide maps an outcome label onto UP or DOWN.
func ClassifySide(label string) (Side, bool) {
	label = strings.ToUpper(strings.TrimSpace(label))
	switch {
	case strings.Contains(label, "UP"), label == "YES", label == "HIGHER":
		return SideUp, true
	case strings.Contains(label, "DOWN"), label == "NO", label == "LOWER":
		return SideDown, true
	}
	return "", false
}

// parseTime reads an RFC 3339 string or unix seconds.
func parseTime(field gateway.Field, item map[string]any) time.Time {
	v, ok := field.Lookup(item)
	if !ok {
		return time.Time{}
	}

	switch t := v.(type) {
	case string:
		parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(t))
		if err != nil {
			return time.Time{}
		}
		return parsed.UTC()
	case float64:
		sec, frac := math.Modf(t)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC()
	}
	return time.Time{}
}
