package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/marketfeed/internal/domain"
)

type fakeReader struct {
	rows []domain.QuoteRow
}

func (f *fakeReader) ListRows(ctx context.Context, schema, table string) ([]domain.QuoteRow, error) {
	return f.rows, nil
}

type fakeWriter struct {
	path        string
	contentType string
	data        []byte
}

func (f *fakeWriter) Put(ctx context.Context, path string, data io.Reader, contentType string) error {
	f.path = path
	f.contentType = contentType
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.data = b
	return nil
}

func TestArchiverArchiveTable(t *testing.T) {
	ts := time.Date(2025, 7, 25, 19, 0, 0, 0, time.UTC)
	bid := 0.4
	reader := &fakeReader{rows: []domain.QuoteRow{
		{TS: ts, EventSlug: "ev", MarketID: "1", Label: "above $114k", YesBid: &bid},
		{TS: ts, EventSlug: "ev", MarketID: "2", Label: "below $100k"},
	}}
	writer := &fakeWriter{}

	path, err := NewArchiver(writer, reader).ArchiveTable(context.Background(), "hourly_crypto", "pm_ev")
	require.NoError(t, err)

	assert.Equal(t, path, writer.path)
	assert.True(t, strings.HasPrefix(path, "archives/hourly_crypto/pm_ev/"), "path %q", path)
	assert.True(t, strings.HasSuffix(path, ".jsonl"), "path %q", path)
	assert.Equal(t, "application/x-ndjson", writer.contentType)

	lines := bytes.Split(bytes.TrimSpace(writer.data), []byte("\n"))
	require.Len(t, lines, 2)

	var row domain.QuoteRow
	require.NoError(t, json.Unmarshal(lines[0], &row))
	assert.Equal(t, "1", row.MarketID)
	require.NotNil(t, row.YesBid)
	assert.Equal(t, 0.4, *row.YesBid)
}

func TestArchiverSkipsEmptyTable(t *testing.T) {
	writer := &fakeWriter{}
	path, err := NewArchiver(writer, &fakeReader{}).ArchiveTable(context.Background(), "s", "t")
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Empty(t, writer.path)
}
