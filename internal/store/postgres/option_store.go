package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/marketfeed/internal/domain"
)

// OptionStore implements domain.OptionStore using PostgreSQL. Chain snapshots
// land in one fixed table per underlying, keyed by (run_ts, symbol).
type OptionStore struct {
	pool *pgxpool.Pool
}

// NewOptionStore creates a new OptionStore backed by the given connection pool.
func NewOptionStore(pool *pgxpool.Pool) *OptionStore {
	return &OptionStore{pool: pool}
}

// EnsureTable creates the schema and snapshot table if they do not already
// exist.
func (s *OptionStore) EnsureTable(ctx context.Context, schema, table string) error {
	schemaIdent := pgx.Identifier{schema}.Sanitize()
	tableIdent := pgx.Identifier{schema, table}.Sanitize()

	if _, err := s.pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+schemaIdent); err != nil {
		return fmt.Errorf("postgres: create schema %s: %w", schema, err)
	}

	createTable := `
		CREATE TABLE IF NOT EXISTS ` + tableIdent + ` (
			run_ts        TIMESTAMPTZ NOT NULL,
			spot_price    DOUBLE PRECISION,
			symbol        TEXT NOT NULL,
			type          TEXT,
			strike        DOUBLE PRECISION,
			expiry        TIMESTAMPTZ,
			bid_coin      DOUBLE PRECISION,
			ask_coin      DOUBLE PRECISION,
			bid_usd       DOUBLE PRECISION,
			ask_usd       DOUBLE PRECISION,
			iv            DOUBLE PRECISION,
			underlying    TEXT,
			volume_coin   DOUBLE PRECISION,
			volume_usd    DOUBLE PRECISION,
			open_interest DOUBLE PRECISION,
			PRIMARY KEY (run_ts, symbol)
		)`
	if _, err := s.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("postgres: create table %s.%s: %w", schema, table, err)
	}
	return nil
}

// InsertQuotes batch-inserts one run's chain rows, skipping duplicates so a
// re-run of the same snapshot is harmless.
func (s *OptionStore) InsertQuotes(ctx context.Context, schema, table string, quotes []domain.OptionQuote) error {
	if len(quotes) == 0 {
		return nil
	}

	query := `
		INSERT INTO ` + pgx.Identifier{schema, table}.Sanitize() + ` (
			run_ts, spot_price, symbol, type, strike, expiry,
			bid_coin, ask_coin, bid_usd, ask_usd,
			iv, underlying, volume_coin, volume_usd, open_interest
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (run_ts, symbol) DO NOTHING`

	batch := &pgx.Batch{}
	for _, q := range quotes {
		batch.Queue(query,
			q.RunTS, q.SpotPrice, q.Symbol, string(q.Type), q.Strike, q.Expiry,
			q.BidCoin, q.AskCoin, q.BidUSD, q.AskUSD,
			q.IV, q.Underlying, q.VolumeCoin, q.VolumeUSD, q.OpenInterest,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range quotes {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: insert option batch item %d into %s.%s: %w", i, schema, table, err)
		}
	}
	return nil
}
