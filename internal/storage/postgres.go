package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/mselser95/polyarb-agent/internal/arbitrage"
	"github.com/mselser95/polyarb-agent/pkg/types"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS arbitrage_opportunities (
	id            TEXT PRIMARY KEY,
	arb_type      TEXT NOT NULL,
	market_id     TEXT NOT NULL,
	condition_id  TEXT NOT NULL,
	question      TEXT,
	volume        DOUBLE PRECISION,
	yes_price     DOUBLE PRECISION NOT NULL,
	no_price      DOUBLE PRECISION NOT NULL,
	price_sum     DOUBLE PRECISION NOT NULL,
	profit        DOUBLE PRECISION NOT NULL,
	profit_bps    INTEGER NOT NULL,
	threshold     DOUBLE PRECISION,
	detected_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS arbitrage_trades (
	id                BIGSERIAL PRIMARY KEY,
	executed_at       TIMESTAMPTZ NOT NULL,
	market_id         TEXT NOT NULL,
	question          TEXT,
	arb_type          TEXT NOT NULL,
	invested          DOUBLE PRECISION NOT NULL,
	profit            DOUBLE PRECISION NOT NULL,
	balance           DOUBLE PRECISION NOT NULL,
	operation_time_ms BIGINT NOT NULL
);
`

// PostgresStorage implements Storage using PostgreSQL.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage connects to PostgreSQL and creates the journal tables.
func NewPostgresStorage(cfg *PostgresConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	p := &PostgresStorage{
		db:     db,
		logger: cfg.Logger,
	}

	err = p.EnsureSchema(context.Background())
	if err != nil {
		db.Close()
		return nil, err
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return p, nil
}

// EnsureSchema creates the journal tables when missing.
func (p *PostgresStorage) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// StoreOpportunity stores a detected opportunity.
func (p *PostgresStorage) StoreOpportunity(ctx context.Context, opp *arbitrage.Opportunity) error {
	query := `
		INSERT INTO arbitrage_opportunities (
			id, arb_type, market_id, condition_id, question, volume,
			yes_price, no_price, price_sum, profit, profit_bps, threshold,
			detected_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
	`

	_, err := p.db.ExecContext(ctx, query,
		opp.ID,
		string(opp.Type),
		opp.MarketID,
		opp.ConditionID,
		opp.Question,
		opp.Volume,
		opp.YesPrice,
		opp.NoPrice,
		opp.PriceSum,
		opp.Profit,
		opp.ProfitBPS(),
		opp.Threshold,
		opp.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("insert opportunity: %w", err)
	}

	p.logger.Debug("opportunity-stored",
		zap.String("opportunity-id", opp.ID),
		zap.String("market-id", opp.MarketID))

	return nil
}

// StoreTrade stores a completed trade.
func (p *PostgresStorage) StoreTrade(ctx context.Context, trade *types.TradeLog) error {
	query := `
		INSERT INTO arbitrage_trades (
			executed_at, market_id, question, arb_type,
			invested, profit, balance, operation_time_ms
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	_, err := p.db.ExecContext(ctx, query,
		trade.Timestamp,
		trade.Market,
		trade.Question,
		string(trade.Type),
		trade.Invested,
		trade.Profit,
		trade.Balance,
		trade.OperationTime.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}

	p.logger.Debug("trade-stored",
		zap.String("market-id", trade.Market),
		zap.Float64("profit", trade.Profit))

	return nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}
