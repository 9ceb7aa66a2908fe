package config

import (
	"fmt"
	"math"
	"time"

	"github.com/joho/godotenv"
)

// LegacyConfig holds configuration for the 15-minute BTC UP/DOWN strategy.
type LegacyConfig struct {
	LogLevel    string
	HTTPPort    string
	HTTPEnabled bool

	BinanceAPIKey       string
	BinanceAPISecret    string
	PolymarketAPIKey    string
	PolymarketAPISecret string
	PolymarketHost      string
	GammaHost           string
	HTTPTimeout         time.Duration

	Capital            float64
	PositionSize       float64 // fraction of capital in (0, 1]
	TakeProfit         float64
	StopLoss           float64
	SpreadThreshold    float64
	PriceMoveThreshold float64
	TradingUntilMinute int
	PollInterval       time.Duration
	PriceChangeWindow  time.Duration

	PaperTrading bool
	MockMode     bool
	MockSeed     int64
}

// LoadLegacyFromEnv loads the legacy strategy configuration.
func LoadLegacyFromEnv() (*LegacyConfig, error) {
	_ = godotenv.Load()

	env := &envReader{}

	cfg := &LegacyConfig{
		LogLevel:    env.str("LOG_LEVEL", "info"),
		HTTPPort:    env.str("HTTP_PORT", "8080"),
		HTTPEnabled: env.boolean("HTTP_ENABLED", true),

		BinanceAPIKey:       env.str("BINANCE_API_KEY", ""),
		BinanceAPISecret:    env.str("BINANCE_API_SECRET", ""),
		PolymarketAPIKey:    env.str("POLYMARKET_API_KEY", ""),
		PolymarketAPISecret: env.str("POLYMARKET_API_SECRET", ""),
		PolymarketHost:      env.str("POLYMARKET_HOST", "https://clob.polymarket.com"),
		GammaHost:           env.str("GAMMA_HOST", "https://gamma-api.polymarket.com"),
		HTTPTimeout:         env.duration("HTTP_TIMEOUT", 10*time.Second),

		Capital:            env.float("CAPITAL", 100.0),
		PositionSize:       env.float("POSITION_SIZE", 0.10),
		TakeProfit:         env.float("TAKE_PROFIT", 0.30),
		StopLoss:           env.float("STOP_LOSS", 0.15),
		SpreadThreshold:    env.float("SPREAD_THRESHOLD", 0.05),
		PriceMoveThreshold: env.float("PRICE_MOVE_THRESHOLD", 2.0),
		TradingUntilMinute: env.integer("TRADING_UNTIL_MINUTE", 13),
		PollInterval:       env.duration("POLL_INTERVAL", 1*time.Second),
		PriceChangeWindow:  env.duration("PRICE_CHANGE_WINDOW", 5*time.Minute),

		PaperTrading: env.boolean("PAPER_TRADING", true),
		MockMode:     env.boolean("MOCK_MODE", true),
		MockSeed:     int64(env.integer("MOCK_SEED", 1337)),
	}

	if err := env.err(); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate legacy config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *LegacyConfig) Validate() error {
	if c.HTTPEnabled && c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if !(c.PositionSize > 0 && c.PositionSize <= 1) {
		return fmt.Errorf("POSITION_SIZE must be in (0, 1], got %f", c.PositionSize)
	}

	if !(c.Capital > 0) || math.IsInf(c.Capital, 1) {
		return fmt.Errorf("CAPITAL must be > 0, got %f", c.Capital)
	}

	if c.TradingUntilMinute < 0 || c.TradingUntilMinute > 14 {
		return fmt.Errorf("TRADING_UNTIL_MINUTE must be between 0 and 14, got %d", c.TradingUntilMinute)
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be > 0, got %s", c.PollInterval)
	}

	if c.PriceChangeWindow <= 0 {
		return fmt.Errorf("PRICE_CHANGE_WINDOW must be > 0, got %s", c.PriceChangeWindow)
	}

	if !(c.TakeProfit > 0 && c.StopLoss > 0 && c.StopLoss < 1) || math.IsInf(c.TakeProfit, 1) {
		return fmt.Errorf("TAKE_PROFIT must be > 0 and STOP_LOSS in (0, 1), got %f / %f", c.TakeProfit, c.StopLoss)
	}

	if !(c.PriceMoveThreshold > 0) || math.IsInf(c.PriceMoveThreshold, 1) {
		return fmt.Errorf("PRICE_MOVE_THRESHOLD must be > 0, got %f", c.PriceMoveThreshold)
	}

	if !(c.SpreadThreshold >= 0) || math.IsInf(c.SpreadThreshold, 1) {
		return fmt.Errorf("SPREAD_THRESHOLD must be >= 0, got %f", c.SpreadThreshold)
	}

	if c.GammaHost == "" {
		return fmt.Errorf("GAMMA_HOST cannot be empty")
	}

	return nil
}
