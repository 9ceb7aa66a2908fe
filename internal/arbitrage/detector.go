package arbitrage

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/mselser95/polyarb-agent/internal/gateway"
	"github.com/mselser95/polyarb-agent/pkg/types"
	"go.uber.org/zap"
)

// MarketSource provides the normalized market universe.
type MarketSource interface {
	GetTopMarkets(ctx context.Context, limit int) ([]types.BinaryMarket, gateway.FetchReport)
}

// Storage is the interface for journaling detected opportunities.
type Storage interface {
	StoreOpportunity(ctx context.Context, opp *Opportunity) error
	Close() error
}

// RejectReason explains why a market produced no opportunity.
type RejectReason string

const (
	RejectNone          RejectReason = ""
	RejectInactive      RejectReason = "inactive"
	RejectLowVolume     RejectReason = "low-volume"
	RejectInvalidPrice  RejectReason = "invalid-price"
	RejectCrossedBook   RejectReason = "crossed-book"
	RejectNoArbitrage   RejectReason = "no-arbitrage"
	RejectBelowMinimum  RejectReason = "below-min-profit"
	RejectAnalysisPanic RejectReason = "analysis-error"
)

// Detector finds long and short complete-set arbitrage.
type Detector struct {
	source  MarketSource
	storage Storage
	config  Config
	logger  *zap.Logger
	analyze func(m *types.BinaryMarket) (*Opportunity, RejectReason)
}

// Config holds detector configuration.
type Config struct {
	MinProfitThreshold float64
	MinMarketVolume    float64
	LongSumThreshold   float64 // default 0.99
	ShortSumThreshold  float64 // default 1.01
	Logger             *zap.Logger
}

// ScanStats summarizes one ScanMarkets call.
type ScanStats struct {
	Markets       int
	Opportunities int
	Rejected      map[RejectReason]int
	Errors        int
	Fetch         gateway.FetchReport
	Duration      time.Duration
}

// New creates a new arbitrage detector. storage may be nil.
func New(cfg Config, source MarketSource, storage Storage) *Detector {
	if cfg.LongSumThreshold == 0 {
		cfg.LongSumThreshold = 0.99
	}
	if cfg.ShortSumThreshold == 0 {
		cfg.ShortSumThreshold = 1.01
	}

	d := &Detector{
		source:  source,
		storage: storage,
		config:  cfg,
		logger:  cfg.Logger,
	}
	d.analyze = d.AnalyzeMarket
	return d
}

// AnalyzeMarket checks a single market. It returns at most one opportunity;
// when both directions qualify the more profitable one wins, long on a tie.
// The min-profit filter is not applied here.
func (d *Detector) AnalyzeMarket(m *types.BinaryMarket) (*Opportunity, RejectReason) {
	if !m.Active {
		return nil, RejectInactive
	}

	if m.Volume < d.config.MinMarketVolume {
		return nil, RejectLowVolume
	}

	if !m.HasPositivePrices() {
		return nil, RejectInvalidPrice
	}

	if m.YesAsk < m.YesBid || m.NoAsk < m.NoBid {
		return nil, RejectCrossedBook
	}

	var long, short *Opportunity
	if m.LongSum() < d.config.LongSumThreshold {
		long = NewLongOpportunity(m, d.config.LongSumThreshold)
	}
	if m.ShortSum() > d.config.ShortSumThreshold {
		short = NewShortOpportunity(m, d.config.ShortSumThreshold)
	}

	switch {
	case long != nil && short != nil:
		if short.Profit > long.Profit {
			return short, RejectNone
		}
		return long, RejectNone
	case long != nil:
		return long, RejectNone
	case short != nil:
		return short, RejectNone
	}

	return nil, RejectNoArbitrage
}

// ScanMarkets fetches up to limit markets and returns qualifying opportunities
// ranked by descending profit. Equal profits keep the source order.
func (d *Detector) ScanMarkets(ctx context.Context, limit int) ([]*Opportunity, ScanStats) {
	start := time.Now()

	markets, report := d.source.GetTopMarkets(ctx, limit)

	stats := ScanStats{
		Markets:  len(markets),
		Rejected: make(map[RejectReason]int),
		Fetch:    report,
	}

	opportunities := make([]*Opportunity, 0)

	for i := range markets {
		opp, reason, err := d.safeAnalyze(&markets[i])
		if err != nil {
			stats.Errors++
			stats.Rejected[RejectAnalysisPanic]++
			OpportunitiesRejectedTotal.WithLabelValues(string(RejectAnalysisPanic)).Inc()
			d.logger.Warn("market-analysis-failed",
				zap.String("market-id", markets[i].ID),
				zap.Error(err))
			continue
		}

		if opp == nil {
			stats.Rejected[reason]++
			OpportunitiesRejectedTotal.WithLabelValues(string(reason)).Inc()
			continue
		}

		if opp.Profit < d.config.MinProfitThreshold {
			stats.Rejected[RejectBelowMinimum]++
			OpportunitiesRejectedTotal.WithLabelValues(string(RejectBelowMinimum)).Inc()
			continue
		}

		opportunities = append(opportunities, opp)
		OpportunitiesDetectedTotal.WithLabelValues(string(opp.Type)).Inc()
		OpportunityProfitBPS.Observe(float64(opp.ProfitBPS()))
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].Profit > opportunities[j].Profit
	})

	d.store(ctx, opportunities)

	stats.Opportunities = len(opportunities)
	stats.Duration = time.Since(start)
	ScanDurationSeconds.Observe(stats.Duration.Seconds())

	d.logger.Info("scan-complete",
		zap.Int("markets", stats.Markets),
		zap.Int("opportunities", stats.Opportunities),
		zap.Int("errors", stats.Errors),
		zap.String("fetch-stop-reason", report.StopReason),
		zap.Duration("duration", stats.Duration))

	return opportunities, stats
}

// safeAnalyze turns a panic inside AnalyzeMarket into an error so one bad
// record cannot abort the scan.
func (d *Detector) safeAnalyze(m *types.BinaryMarket) (opp *Opportunity, reason RejectReason, err error) {
	defer func() {
		if r := recover(); r != nil {
			opp = nil
			err = fmt.Errorf("analyze market %s: %v", m.ID, r)
		}
	}()

	opp, reason = d.analyze(m)
	if opp != nil && (math.IsNaN(opp.Profit) || math.IsInf(opp.Profit, 0)) {
		return nil, RejectInvalidPrice, nil
	}
	return opp, reason, nil
}

func (d *Detector) store(ctx context.Context, opportunities []*Opportunity) {
	if d.storage == nil {
		return
	}

	for _, opp := range opportunities {
		err := d.storage.StoreOpportunity(ctx, opp)
		if err != nil {
			d.logger.Error("failed-to-store-opportunity",
				zap.String("opportunity-id", opp.ID),
				zap.Error(err))
		}
	}
}
