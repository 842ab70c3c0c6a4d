package tracker

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/marketfeed/internal/domain"
	"github.com/alanyoungcy/marketfeed/internal/interval"
	"github.com/alanyoungcy/marketfeed/internal/platform/polymarket"
)

type memStore struct {
	mu      sync.Mutex
	ensured []string
	rows    []domain.QuoteRow
}

func (s *memStore) EnsureTable(ctx context.Context, schema, table string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensured = append(s.ensured, schema+"."+table)
	return nil
}

func (s *memStore) InsertRows(ctx context.Context, schema, table string, rows []domain.QuoteRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, rows...)
	return nil
}

func (s *memStore) ListRows(ctx context.Context, schema, table string) ([]domain.QuoteRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.QuoteRow(nil), s.rows...), nil
}

type memArchiver struct {
	mu     sync.Mutex
	tables []string
}

func (a *memArchiver) ArchiveTable(ctx context.Context, schema, table string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tables = append(a.tables, schema+"."+table)
	return "archives/" + schema + "/" + table + "/test.jsonl", nil
}

func gammaStub(t *testing.T, eventJSON string) *polymarket.GammaClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[" + eventJSON + "]"))
	}))
	t.Cleanup(srv.Close)
	return polymarket.NewGammaClient(srv.URL)
}

func TestEventTrackerSamplesUntilExpiry(t *testing.T) {
	gamma := gammaStub(t, `{
		"id": "1",
		"title": "Bitcoin price on July 25?",
		"slug": "bitcoin-price-on-july-25",
		"markets": [
			{"id": "10", "question": "Bitcoin above $120k on July 25", "bestBid": 0.3, "bestAsk": 0.32},
			{"id": "11", "question": "Up"}
		]
	}`)

	store := &memStore{}
	archiver := &memArchiver{}

	tr := NewEventTracker(gamma, store, interval.New(interval.Options{}), archiver, nil, slog.Default(), TrackerParams{
		Slug:            "bitcoin-price-on-july-25",
		Schema:          "polymarket_interval",
		Expiry:          time.Now().UTC().Add(150 * time.Millisecond),
		SampleInterval:  50 * time.Millisecond,
		RequireInterval: true,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, tr.Run(ctx))

	assert.Equal(t, []string{"polymarket_interval.pm_bitcoin_price_on_july_25"}, store.ensured)
	assert.Equal(t, []string{"polymarket_interval.pm_bitcoin_price_on_july_25"}, archiver.tables)

	// Only the parseable market produces rows; the binary "Up" market is
	// dropped in interval mode.
	require.NotEmpty(t, store.rows)
	for _, row := range store.rows {
		assert.Equal(t, "10", row.MarketID)
		require.NotNil(t, row.LowBound)
		assert.Equal(t, 120000.0, *row.LowBound)
		assert.Nil(t, row.HighBound)
		require.NotNil(t, row.YesBid)
		assert.Equal(t, 0.3, *row.YesBid)
		require.NotNil(t, row.NoBid)
		assert.InDelta(t, 0.68, *row.NoBid, 1e-9)
	}
}

func TestEventTrackerKeepsAllMarketsInHourlyMode(t *testing.T) {
	gamma := gammaStub(t, `{
		"id": "1",
		"title": "Bitcoin up or down?",
		"slug": "bitcoin-up-or-down-july-25-3pm-et",
		"markets": [
			{"id": "10", "question": "Up", "bestBid": 0.5, "bestAsk": 0.52},
			{"id": "11", "question": "Down", "bestBid": 0.48, "bestAsk": 0.5}
		]
	}`)

	store := &memStore{}
	tr := NewEventTracker(gamma, store, interval.New(interval.Options{}), nil, nil, slog.Default(), TrackerParams{
		Slug:           "bitcoin-up-or-down-july-25-3pm-et",
		Schema:         "hourly_crypto",
		Expiry:         time.Now().UTC().Add(80 * time.Millisecond),
		SampleInterval: 50 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, tr.Run(ctx))

	require.NotEmpty(t, store.rows)
	ids := map[string]bool{}
	for _, row := range store.rows {
		ids[row.MarketID] = true
		assert.Nil(t, row.LowBound)
		assert.Nil(t, row.HighBound)
	}
	assert.True(t, ids["10"] && ids["11"])
}

func TestEventTrackerAbortsWhenExpiryPassesBeforeLive(t *testing.T) {
	gamma := gammaStub(t, `{
		"id": "1",
		"slug": "bitcoin-price-on-july-25",
		"markets": []
	}`)

	store := &memStore{}
	tr := NewEventTracker(gamma, store, interval.New(interval.Options{}), nil, nil, slog.Default(), TrackerParams{
		Slug:           "bitcoin-price-on-july-25",
		Schema:         "polymarket_interval",
		Expiry:         time.Now().UTC().Add(-time.Second),
		SampleInterval: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, tr.Run(ctx))
	assert.Empty(t, store.rows)
}

func TestNextDailyRun(t *testing.T) {
	now := time.Date(2025, 7, 25, 10, 0, 0, 0, time.UTC)

	next, err := nextDailyRun("00:10", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 7, 26, 0, 10, 0, 0, time.UTC), next)

	next, err = nextDailyRun("23:30", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 7, 25, 23, 30, 0, 0, time.UTC), next)

	_, err = nextDailyRun("not-a-time", now)
	assert.Error(t, err)
}
