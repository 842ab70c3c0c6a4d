package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/marketfeed/internal/domain"
)

// TableReader provides read access to a finished per-event table for
// archival. The Postgres QuoteStore satisfies it.
type TableReader interface {
	ListRows(ctx context.Context, schema, table string) ([]domain.QuoteRow, error)
}

// Archiver implements domain.Archiver by exporting a finished event's table
// to JSONL in blob storage. Rows are not deleted from the primary store;
// pruning is a separate, explicit step run after the archive is verified.
type Archiver struct {
	writer domain.BlobWriter
	reader TableReader
}

// NewArchiver creates a new Archiver.
func NewArchiver(writer domain.BlobWriter, reader TableReader) *Archiver {
	return &Archiver{writer: writer, reader: reader}
}

// ArchiveTable reads every row of schema.table, serializes them to JSONL and
// uploads the file. It returns the object key, or an empty key when the
// table has no rows to archive.
func (a *Archiver) ArchiveTable(ctx context.Context, schema, table string) (string, error) {
	rows, err := a.reader.ListRows(ctx, schema, table)
	if err != nil {
		return "", fmt.Errorf("s3blob: archive %s.%s query: %w", schema, table, err)
	}
	if len(rows) == 0 {
		return "", nil
	}

	buf, err := marshalJSONL(rows)
	if err != nil {
		return "", fmt.Errorf("s3blob: archive %s.%s marshal: %w", schema, table, err)
	}

	path := archivePath(schema, table, time.Now().UTC())
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return "", fmt.Errorf("s3blob: archive %s.%s upload: %w", schema, table, err)
	}
	return path, nil
}

// archivePath builds the object key for an archive file. A random run id
// keeps repeated archives of the same table from clobbering each other.
//
//	archives/hourly_crypto/pm_bitcoin_up_or_down_july_25_3pm_et/2025-07-25-<uuid>.jsonl
func archivePath(schema, table string, now time.Time) string {
	return fmt.Sprintf("archives/%s/%s/%s-%s.jsonl",
		schema, table, now.Format("2006-01-02"), uuid.NewString())
}

// marshalJSONL serializes rows as newline-delimited JSON.
func marshalJSONL(rows []domain.QuoteRow) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range rows {
		if err := enc.Encode(&rows[i]); err != nil {
			return nil, fmt.Errorf("encode row %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*Archiver)(nil)
