package postgres

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/marketfeed/internal/domain"
)

// maxIdentLen is the PostgreSQL identifier length limit.
const maxIdentLen = 63

var identCleanRe = regexp.MustCompile(`[^a-z0-9_]`)

// TableName derives a per-event table name from an event slug: lowercased,
// every character outside [a-z0-9_] replaced with an underscore, prefixed
// with "pm_" and truncated to the identifier limit.
func TableName(slug string) string {
	clean := identCleanRe.ReplaceAllString(strings.ToLower(slug), "_")
	if !strings.HasPrefix(clean, "pm_") {
		clean = "pm_" + clean
	}
	if len(clean) > maxIdentLen {
		clean = clean[:maxIdentLen]
	}
	return clean
}

// QuoteStore implements domain.QuoteStore using PostgreSQL. Each tracked
// event gets its own table inside a per-collector schema.
type QuoteStore struct {
	pool *pgxpool.Pool
}

// NewQuoteStore creates a new QuoteStore backed by the given connection pool.
func NewQuoteStore(pool *pgxpool.Pool) *QuoteStore {
	return &QuoteStore{pool: pool}
}

// EnsureTable creates the schema and the per-event table if they do not
// already exist.
func (s *QuoteStore) EnsureTable(ctx context.Context, schema, table string) error {
	schemaIdent := pgx.Identifier{schema}.Sanitize()
	tableIdent := pgx.Identifier{schema, table}.Sanitize()

	if _, err := s.pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+schemaIdent); err != nil {
		return fmt.Errorf("postgres: create schema %s: %w", schema, err)
	}

	createTable := `
		CREATE TABLE IF NOT EXISTS ` + tableIdent + ` (
			ts_utc     TIMESTAMPTZ NOT NULL,
			event_slug TEXT NOT NULL,
			market_id  TEXT NOT NULL,
			label      TEXT,
			low_bound  DOUBLE PRECISION,
			high_bound DOUBLE PRECISION,
			expiry     TIMESTAMPTZ,
			yes_bid    DOUBLE PRECISION,
			yes_ask    DOUBLE PRECISION,
			no_bid     DOUBLE PRECISION,
			no_ask     DOUBLE PRECISION,
			PRIMARY KEY (ts_utc, market_id)
		)`
	if _, err := s.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("postgres: create table %s.%s: %w", schema, table, err)
	}
	return nil
}

// InsertRows batch-inserts quote rows, skipping duplicate (ts_utc, market_id)
// pairs so re-polls inside one sampling slot are harmless.
func (s *QuoteStore) InsertRows(ctx context.Context, schema, table string, rows []domain.QuoteRow) error {
	if len(rows) == 0 {
		return nil
	}

	query := `
		INSERT INTO ` + pgx.Identifier{schema, table}.Sanitize() + ` (
			ts_utc, event_slug, market_id, label,
			low_bound, high_bound, expiry,
			yes_bid, yes_ask, no_bid, no_ask
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (ts_utc, market_id) DO NOTHING`

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(query,
			r.TS, r.EventSlug, r.MarketID, r.Label,
			r.LowBound, r.HighBound, r.Expiry,
			r.YesBid, r.YesAsk, r.NoBid, r.NoAsk,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range rows {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: insert quote batch item %d into %s.%s: %w", i, schema, table, err)
		}
	}
	return nil
}

// ListRows returns every row of a per-event table in timestamp order.
func (s *QuoteStore) ListRows(ctx context.Context, schema, table string) ([]domain.QuoteRow, error) {
	query := `
		SELECT ts_utc, event_slug, market_id, label,
		       low_bound, high_bound, expiry,
		       yes_bid, yes_ask, no_bid, no_ask
		FROM ` + pgx.Identifier{schema, table}.Sanitize() + `
		ORDER BY ts_utc, market_id`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list rows of %s.%s: %w", schema, table, err)
	}
	defer rows.Close()

	var out []domain.QuoteRow
	for rows.Next() {
		var r domain.QuoteRow
		if err := rows.Scan(
			&r.TS, &r.EventSlug, &r.MarketID, &r.Label,
			&r.LowBound, &r.HighBound, &r.Expiry,
			&r.YesBid, &r.YesAsk, &r.NoBid, &r.NoAsk,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan quote row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list rows of %s.%s: %w", schema, table, err)
	}
	return out, nil
}
