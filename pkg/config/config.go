package config

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/joho/godotenv"
)

// Bot modes selectable through BOT_MODE.
const (
	ModeArbitrage = "ARBITRAGE_PURE"
	ModeLegacy    = "LEGACY"
)

// MaxMarketScanLimit caps MARKET_SCAN_LIMIT.
const MaxMarketScanLimit = 100_000

// Config holds the arbitrage agent configuration.
type Config struct {
	// Application
	LogLevel    string
	HTTPPort    string
	HTTPEnabled bool
	BotMode     string

	// Polymarket API
	PolymarketAPIKey     string
	PolymarketAPISecret  string
	PolymarketPrivateKey string
	PolymarketHost       string
	GammaHost            string
	HTTPTimeout          time.Duration

	// Capital
	StartingCapital float64
	PositionSize    float64
	MinPositionSize float64

	// Detection
	MinProfitThreshold float64
	MinMarketVolume    float64
	LongSumThreshold   float64
	ShortSumThreshold  float64
	MarketScanLimit    int

	// Scan cadence
	ScanInterval          time.Duration
	ExecutionDelay        time.Duration
	NoOpportunityCooldown time.Duration
	PostCycleDelay        time.Duration

	// Gamma rate limiting
	GammaRPS        int
	GammaRatePeriod time.Duration
	GammaPageSize   int

	// Modes
	PaperTrading     bool
	MockMode         bool
	MockSeed         int64
	MockUniverseSize int
	MarketCacheTTL   time.Duration

	// Storage
	StorageMode  string // "postgres" or "console"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string

	// Circuit breaker
	CircuitBreakerEnabled         bool
	CircuitBreakerTradeMultiplier float64
	CircuitBreakerMinAbsolute     float64
	CircuitBreakerHysteresisRatio float64
}

// LoadFromEnv loads configuration from environment variables with defaults.
// A .env file in the working directory is applied first when present.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	env := &envReader{}

	cfg := &Config{
		LogLevel:    env.str("LOG_LEVEL", "info"),
		HTTPPort:    env.str("HTTP_PORT", "8080"),
		HTTPEnabled: env.boolean("HTTP_ENABLED", true),
		BotMode:     NormalizeMode(env.str("BOT_MODE", ModeArbitrage)),

		PolymarketAPIKey:     env.str("POLYMARKET_API_KEY", ""),
		PolymarketAPISecret:  env.str("POLYMARKET_API_SECRET", ""),
		PolymarketPrivateKey: env.str("POLYMARKET_PRIVATE_KEY", ""),
		PolymarketHost:       env.str("POLYMARKET_HOST", "https://clob.polymarket.com"),
		GammaHost:            env.str("GAMMA_HOST", "https://gamma-api.polymarket.com"),
		HTTPTimeout:          env.duration("HTTP_TIMEOUT", 15*time.Second),

		StartingCapital: env.float("STARTING_CAPITAL", env.float("CAPITAL", 100.0)),
		PositionSize:    env.float("POSITION_SIZE", 10.0),
		MinPositionSize: env.float("MIN_POSITION_SIZE", 0),

		MinProfitThreshold: env.float("MIN_PROFIT_THRESHOLD", 0.005),
		MinMarketVolume:    env.float("MIN_MARKET_VOLUME", 10_000.0),
		LongSumThreshold:   env.float("LONG_SUM_THRESHOLD", 0.99),
		ShortSumThreshold:  env.float("SHORT_SUM_THRESHOLD", 1.01),
		MarketScanLimit:    env.integer("MARKET_SCAN_LIMIT", 1000),

		ScanInterval:          env.duration("SCAN_INTERVAL", 30*time.Second),
		ExecutionDelay:        env.duration("EXECUTION_DELAY", 1*time.Second),
		NoOpportunityCooldown: env.duration("NO_OPPORTUNITY_COOLDOWN", 30*time.Second),
		PostCycleDelay:        env.duration("POST_CYCLE_DELAY", 0),

		GammaRPS:        env.integer("GAMMA_RPS", 5),
		GammaRatePeriod: env.duration("GAMMA_RATE_PERIOD", 1*time.Second),
		GammaPageSize:   env.integer("GAMMA_PAGE_SIZE", 500),

		PaperTrading:     env.boolean("PAPER_TRADING", true),
		MockMode:         env.boolean("MOCK_MODE", true),
		MockSeed:         int64(env.integer("MOCK_SEED", 1337)),
		MockUniverseSize: env.integer("MOCK_UNIVERSE_SIZE", 1200),
		MarketCacheTTL:   env.duration("MARKET_CACHE_TTL", 5*time.Minute),

		StorageMode:  env.str("STORAGE_MODE", "console"),
		PostgresHost: env.str("POSTGRES_HOST", "localhost"),
		PostgresPort: env.str("POSTGRES_PORT", "5432"),
		PostgresUser: env.str("POSTGRES_USER", "polymarket"),
		PostgresPass: env.str("POSTGRES_PASSWORD", "polymarket123"),
		PostgresDB:   env.str("POSTGRES_DB", "polyarb"),
		PostgresSSL:  env.str("POSTGRES_SSLMODE", "disable"),

		CircuitBreakerEnabled:         env.boolean("CIRCUIT_BREAKER_ENABLED", false),
		CircuitBreakerTradeMultiplier: env.float("CIRCUIT_BREAKER_TRADE_MULTIPLIER", 1.0),
		CircuitBreakerMinAbsolute:     env.float("CIRCUIT_BREAKER_MIN_ABSOLUTE", 1.0),
		CircuitBreakerHysteresisRatio: env.float("CIRCUIT_BREAKER_HYSTERESIS_RATIO", 1.2),
	}

	if err := env.err(); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPEnabled && c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.BotMode != ModeArbitrage && c.BotMode != ModeLegacy {
		return fmt.Errorf("BOT_MODE must be %s or %s, got %q", ModeArbitrage, ModeLegacy, c.BotMode)
	}

	if c.PolymarketHost == "" {
		return fmt.Errorf("POLYMARKET_HOST cannot be empty")
	}

	if c.GammaHost == "" {
		return fmt.Errorf("GAMMA_HOST cannot be empty")
	}

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be > 0, got %s", c.HTTPTimeout)
	}

	if !(c.StartingCapital > 0) {
		return fmt.Errorf("STARTING_CAPITAL must be > 0, got %f", c.StartingCapital)
	}

	if !(c.PositionSize > 0) {
		return fmt.Errorf("POSITION_SIZE must be > 0, got %f", c.PositionSize)
	}

	if !(c.MinPositionSize >= 0) {
		return fmt.Errorf("MIN_POSITION_SIZE must be >= 0, got %f", c.MinPositionSize)
	}

	if !(c.MinProfitThreshold > 0) {
		return fmt.Errorf("MIN_PROFIT_THRESHOLD must be > 0, got %f", c.MinProfitThreshold)
	}

	if !(c.MinMarketVolume >= 0) {
		return fmt.Errorf("MIN_MARKET_VOLUME must be >= 0, got %f", c.MinMarketVolume)
	}

	if !(c.LongSumThreshold > 0 && c.LongSumThreshold <= 1.0) {
		return fmt.Errorf("LONG_SUM_THRESHOLD must be in (0, 1], got %f", c.LongSumThreshold)
	}

	if !(c.ShortSumThreshold >= 1.0) {
		return fmt.Errorf("SHORT_SUM_THRESHOLD must be >= 1, got %f", c.ShortSumThreshold)
	}

	if c.MarketScanLimit <= 0 || c.MarketScanLimit > MaxMarketScanLimit {
		return fmt.Errorf("MARKET_SCAN_LIMIT must be between 1 and %d, got %d", MaxMarketScanLimit, c.MarketScanLimit)
	}

	if c.ScanInterval <= 0 {
		return fmt.Errorf("SCAN_INTERVAL must be > 0, got %s", c.ScanInterval)
	}

	if c.ExecutionDelay < 0 {
		return fmt.Errorf("EXECUTION_DELAY must be >= 0, got %s", c.ExecutionDelay)
	}

	if c.NoOpportunityCooldown < 0 {
		return fmt.Errorf("NO_OPPORTUNITY_COOLDOWN must be >= 0, got %s", c.NoOpportunityCooldown)
	}

	if c.PostCycleDelay < 0 {
		return fmt.Errorf("POST_CYCLE_DELAY must be >= 0, got %s", c.PostCycleDelay)
	}

	if c.GammaRatePeriod <= 0 {
		return fmt.Errorf("GAMMA_RATE_PERIOD must be > 0, got %s", c.GammaRatePeriod)
	}

	if c.GammaPageSize <= 0 || c.GammaPageSize > 500 {
		return fmt.Errorf("GAMMA_PAGE_SIZE must be between 1 and 500, got %d", c.GammaPageSize)
	}

	if c.MockUniverseSize <= 0 {
		return fmt.Errorf("MOCK_UNIVERSE_SIZE must be > 0, got %d", c.MockUniverseSize)
	}

	if c.MarketCacheTTL < 0 {
		return fmt.Errorf("MARKET_CACHE_TTL must be >= 0, got %s", c.MarketCacheTTL)
	}

	if !finite(c.StartingCapital, c.PositionSize, c.MinPositionSize, c.MinProfitThreshold, c.MinMarketVolume,
		c.LongSumThreshold, c.ShortSumThreshold,
		c.CircuitBreakerTradeMultiplier, c.CircuitBreakerMinAbsolute, c.CircuitBreakerHysteresisRatio) {
		return errors.New("capital, sizing, threshold and breaker values must be finite")
	}

	if c.StorageMode != "console" && c.StorageMode != "postgres" {
		return fmt.Errorf("STORAGE_MODE must be 'console' or 'postgres', got %q", c.StorageMode)
	}

	if c.LiveTrading() && (c.PolymarketAPIKey == "" || c.PolymarketAPISecret == "") {
		return errors.New("POLYMARKET_API_KEY and POLYMARKET_API_SECRET are required when PAPER_TRADING and MOCK_MODE are false")
	}

	if c.CircuitBreakerEnabled {
		if !(c.CircuitBreakerTradeMultiplier > 0) {
			return fmt.Errorf("CIRCUIT_BREAKER_TRADE_MULTIPLIER must be > 0, got %f", c.CircuitBreakerTradeMultiplier)
		}
		if !(c.CircuitBreakerMinAbsolute > 0) {
			return fmt.Errorf("CIRCUIT_BREAKER_MIN_ABSOLUTE must be > 0, got %f", c.CircuitBreakerMinAbsolute)
		}
		if !(c.CircuitBreakerHysteresisRatio >= 1.0) {
			return fmt.Errorf("CIRCUIT_BREAKER_HYSTERESIS_RATIO must be >= 1, got %f", c.CircuitBreakerHysteresisRatio)
		}
	}

	return nil
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// LiveTrading reports whether orders would be routed to the venue.
func (c *Config) LiveTrading() bool {
	return !c.PaperTrading && !c.MockMode
}
