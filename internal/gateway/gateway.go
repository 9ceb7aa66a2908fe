package gateway

import (
	"context"
	"time"

	"github.com/mselser95/polyarb-agent/pkg/cache"
	"github.com/mselser95/polyarb-agent/pkg/types"
	"go.uber.org/zap"
)

// MaxPageSize is the largest page requested from the listing endpoint.
const MaxPageSize = 500

// MaxMockMarkets caps how many mock markets a single call generates.
const MaxMockMarkets = 100_000

// Stop reasons reported in FetchReport.
const (
	StopLimitReached = "limit-reached"
	StopShortPage    = "short-page"
	StopEmptyPage    = "empty-page"
	StopFetchError   = "fetch-error"
	StopMock         = "mock"
)

// PageFetcher fetches one raw listing page.
type PageFetcher interface {
	FetchPage(ctx context.Context, limit int, offset int) ([]any, error)
}

// FetchReport summarizes one GetTopMarkets call.
type FetchReport struct {
	Pages      int
	RawItems   int
	Markets    int
	Skipped    map[SkipReason]int
	StopReason string
	Err        error // last fetch error, if pagination stopped on one
	Duration   time.Duration
}

// SkippedTotal returns the number of raw items that were dropped.
func (r *FetchReport) SkippedTotal() int {
	total := 0
	for _, n := range r.Skipped {
		total += n
	}
	return total
}

// Gateway produces the normalized binary-market universe.
type Gateway struct {
	fetcher    PageFetcher
	normalizer *Normalizer
	cache      cache.Cache
	cacheTTL   time.Duration
	pageSize   int
	mock       bool
	mockSeed   int64
	mockSize   int
	logger     *zap.Logger
}

// Config holds gateway configuration.
type Config struct {
	Fetcher          PageFetcher // required unless Mock
	Fields           *FieldTable // defaults to DefaultFields
	Cache            cache.Cache // optional
	CacheTTL         time.Duration
	PageSize         int
	Mock             bool
	MockSeed         int64
	MockUniverseSize int
	Logger           *zap.Logger
}

// New creates a new gateway.
func New(cfg *Config) *Gateway {
	fields := DefaultFields
	if cfg.Fields != nil {
		fields = *cfg.Fields
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	return &Gateway{
		fetcher:    cfg.Fetcher,
		normalizer: NewNormalizer(fields),
		cache:      cfg.Cache,
		cacheTTL:   cfg.CacheTTL,
		pageSize:   pageSize,
		mock:       cfg.Mock,
		mockSeed:   cfg.MockSeed,
		mockSize:   cfg.MockUniverseSize,
		logger:     cfg.Logger,
	}
}

// GetTopMarkets returns up to limit normalized markets. Upstream failures
// never surface as errors: pagination stops and whatever was gathered so far
// is returned, with the cause recorded in the report.
func (g *Gateway) GetTopMarkets(ctx context.Context, limit int) ([]types.BinaryMarket, FetchReport) {
	start := time.Now()
	report := FetchReport{Skipped: make(map[SkipReason]int)}

	if limit <= 0 {
		report.StopReason = StopLimitReached
		return nil, report
	}

	var markets []types.BinaryMarket
	if g.mock {
		markets = g.mockMarkets(limit)
		report.StopReason = StopMock
		report.RawItems = len(markets)
	} else {
		markets = g.paginate(ctx, limit, &report)
	}

	report.Markets = len(markets)
	report.Duration = time.Since(start)

	g.remember(markets)

	MarketsNormalizedTotal.Add(float64(len(markets)))
	FetchStoppedTotal.WithLabelValues(report.StopReason).Inc()

	g.logger.Debug("markets-fetched",
		zap.Int("markets", report.Markets),
		zap.Int("pages", report.Pages),
		zap.Int("raw-items", report.RawItems),
		zap.Int("skipped", report.SkippedTotal()),
		zap.String("stop-reason", report.StopReason),
		zap.Duration("duration", report.Duration))

	return markets, report
}

func (g *Gateway) paginate(ctx context.Context, limit int, report *FetchReport) []types.BinaryMarket {
	pageSize := min(g.pageSize, limit)
	markets := make([]types.BinaryMarket, 0, pageSize)
	offset := 0

	for len(markets) < limit {
		items, err := g.fetcher.FetchPage(ctx, pageSize, offset)
		if err != nil {
			report.StopReason = StopFetchError
			report.Err = err
			g.logger.Warn("market-page-fetch-failed",
				zap.Int("offset", offset),
				zap.Int("gathered", len(markets)),
				zap.Error(err))
			return markets
		}

		report.Pages++
		PagesFetchedTotal.Inc()

		if len(items) == 0 {
			report.StopReason = StopEmptyPage
			return markets
		}

		report.RawItems += len(items)

		for _, raw := range items {
			market, reason := g.normalizer.Normalize(raw)
			if reason != SkipNone {
				report.Skipped[reason]++
				ItemsSkippedTotal.WithLabelValues(string(reason)).Inc()
				continue
			}

			markets = append(markets, market)
			if len(markets) >= limit {
				report.StopReason = StopLimitReached
				return markets
			}
		}

		offset += len(items)

		if len(items) < pageSize {
			report.StopReason = StopShortPage
			return markets
		}
	}

	report.StopReason = StopLimitReached
	return markets
}

func (g *Gateway) mockMarkets(limit int) []types.BinaryMarket {
	n := min(limit, MaxMockMarkets)
	return MockUniverse(g.mockSeed, max(n, g.mockSize))[:n]
}

func (g *Gateway) remember(markets []types.BinaryMarket) {
	if g.cache == nil {
		return
	}
	for i := range markets {
		g.cache.Set(markets[i].ID, markets[i], g.cacheTTL)
	}
}

// Lookup returns the most recently fetched snapshot of a market.
func (g *Gateway) Lookup(marketID string) (types.BinaryMarket, bool) {
	if g.cache == nil {
		return types.BinaryMarket{}, false
	}

	v, ok := g.cache.Get(marketID)
	if !ok {
		return types.BinaryMarket{}, false
	}

	market, ok := v.(types.BinaryMarket)
	return market, ok
}
