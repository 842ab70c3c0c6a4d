package domain

import (
	"context"
	"io"
	"time"
)

// QuoteStore persists sampled quote rows into dynamically named per-event
// tables. Implementations must be safe for concurrent use by multiple
// trackers.
type QuoteStore interface {
	// EnsureTable creates the schema and per-event table if they do not
	// already exist.
	EnsureTable(ctx context.Context, schema, table string) error
	// InsertRows batch-inserts rows, silently skipping duplicate
	// (ts, market_id) pairs.
	InsertRows(ctx context.Context, schema, table string, rows []QuoteRow) error
	// ListRows returns all rows of a table in timestamp order, used by the
	// archiver after a tracker stops.
	ListRows(ctx context.Context, schema, table string) ([]QuoteRow, error)
}

// OptionStore persists daily option-chain snapshots.
type OptionStore interface {
	EnsureTable(ctx context.Context, schema, table string) error
	InsertQuotes(ctx context.Context, schema, table string, quotes []OptionQuote) error
}

// TrackedSet records which event slugs currently have a live tracker so that
// discovery cycles and process restarts do not launch duplicates.
type TrackedSet interface {
	// Add marks a slug as tracked until roughly its expiry. It returns true
	// when the slug was newly added, false when it was already tracked.
	Add(ctx context.Context, slug string, expiry time.Time) (bool, error)
	Remove(ctx context.Context, slug string) error
}

// QuoteCache holds the most recent yes bid/ask per market for consumers that
// want sub-sample-interval freshness (fed by the websocket feed).
type QuoteCache interface {
	SetQuote(ctx context.Context, assetID string, bid, ask float64, ts time.Time) error
	GetQuote(ctx context.Context, assetID string) (bid, ask float64, ts time.Time, err error)
}

// BlobWriter uploads an object to blob storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// Archiver exports a finished event's rows to long-term storage.
type Archiver interface {
	ArchiveTable(ctx context.Context, schema, table string) (string, error)
}
