package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"sevenms-trading-bot/internal/logging"
)

// DB wraps the PostgreSQL connection pool
type DB struct {
	Pool *pgxpool.Pool
}

// Config holds database configuration
type Config struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"ssl_mode"`
	Enabled  bool   `json:"enabled"`
}

// NewDB creates a new database connection
func NewDB(cfg Config) (*DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	logging.WithComponent("database").Info("Connected to PostgreSQL", "database", cfg.Database)

	return &DB{Pool: pool}, nil
}

// Close closes the database connection
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		logging.WithComponent("database").Info("Database connection closed")
	}
}

// RunMigrations creates the journal tables
func (db *DB) RunMigrations(ctx context.Context) error {
	logging.WithComponent("database").Info("Running database migrations")

	migrations := []string{
		`CREATE TABLE IF NOT EXISTS analysis_runs (
			run_id UUID PRIMARY KEY,
			thread_id VARCHAR(64) NOT NULL,
			symbol VARCHAR(20) NOT NULL,
			status VARCHAR(32) NOT NULL,
			bias VARCHAR(10),
			current_price DECIMAL(20, 8),
			sweep JSONB,
			shift JSONB,
			pois JSONB,
			parameters JSONB,
			request_id UUID,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_runs_symbol ON analysis_runs(symbol)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_runs_status ON analysis_runs(status)`,

		`CREATE TABLE IF NOT EXISTS approval_decisions (
			id SERIAL PRIMARY KEY,
			request_id UUID NOT NULL,
			thread_id VARCHAR(64) NOT NULL,
			symbol VARCHAR(20) NOT NULL,
			state VARCHAR(16) NOT NULL,
			decision_type VARCHAR(16) NOT NULL,
			reject_reason TEXT,
			entry_price DECIMAL(20, 8),
			stop_loss DECIMAL(20, 8),
			take_profit DECIMAL(20, 8),
			volume DECIMAL(12, 4),
			resolved_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_approval_decisions_request ON approval_decisions(request_id)`,

		`CREATE TABLE IF NOT EXISTS executions (
			id SERIAL PRIMARY KEY,
			request_id UUID NOT NULL,
			retcode INTEGER,
			description TEXT,
			deal BIGINT,
			order_ticket BIGINT,
			price DECIMAL(20, 8),
			volume DECIMAL(12, 4),
			success BOOLEAN NOT NULL,
			error TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_executions_request ON executions(request_id)`,
	}

	for _, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}
