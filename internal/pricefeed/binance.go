package pricefeed

import (
	"context"
	"fmt"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultSymbol is the Binance pair quoted by BinanceFeed.
const DefaultSymbol = "BTCUSDT"

// BinanceFeed reads the spot price from the Binance ticker endpoint.
// When a request fails it serves the last good price instead.
type BinanceFeed struct {
	client  *binance.Client
	symbol  string
	now     func() time.Time
	history *History
	logger  *zap.Logger
}

// BinanceConfig holds Binance feed configuration.
type BinanceConfig struct {
	APIKey    string
	APISecret string
	Symbol    string // defaults to BTCUSDT
	BaseURL   string // overrides the Binance endpoint when set
	Now       func() time.Time
	Logger    *zap.Logger
}

// NewBinanceFeed creates a new Binance price feed. Public ticker data does
// not need credentials; empty keys are accepted.
func NewBinanceFeed(cfg *BinanceConfig) *BinanceFeed {
	client := binance.NewClient(cfg.APIKey, cfg.APISecret)
	if cfg.BaseURL != "" {
		client.BaseURL = cfg.BaseURL
	}

	symbol := cfg.Symbol
	if symbol == "" {
		symbol = DefaultSymbol
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &BinanceFeed{
		client:  client,
		symbol:  symbol,
		now:     now,
		history: NewHistory(DefaultHistorySize),
		logger:  cfg.Logger,
	}
}

// Price fetches the current price. On failure it returns the last observed
// price, or ErrNoPrice when nothing was ever observed.
func (f *BinanceFeed) Price(ctx context.Context) (float64, error) {
	price, err := f.fetch(ctx)
	if err == nil {
		f.history.Add(f.now(), price)
		PriceUSD.WithLabelValues(f.Source()).Set(price)
		return price, nil
	}

	FetchErrorsTotal.WithLabelValues(f.Source()).Inc()

	last, ok := f.history.Latest()
	if !ok {
		return 0, fmt.Errorf("fetch %s price: %w: %w", f.symbol, ErrNoPrice, err)
	}

	f.logger.Warn("price-fetch-failed-using-last",
		zap.String("symbol", f.symbol),
		zap.Float64("last-price", last.Price),
		zap.Time("last-at", last.At),
		zap.Error(err))

	return last.Price, nil
}

func (f *BinanceFeed) fetch(ctx context.Context) (float64, error) {
	prices, err := f.client.NewListPricesService().Symbol(f.symbol).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("list prices: %w", err)
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("binance returned no price for %s", f.symbol)
	}

	price, err := decimal.NewFromString(prices[0].Price)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", prices[0].Price, err)
	}
	if !price.IsPositive() {
		return 0, fmt.Errorf("non-positive price %s for %s", price, f.symbol)
	}

	return price.InexactFloat64(), nil
}

// Change returns the percent change over window.
func (f *BinanceFeed) Change(window time.Duration) float64 {
	return f.history.Change(window)
}

// Source returns "binance".
func (f *BinanceFeed) Source() string {
	return "binance"
}
