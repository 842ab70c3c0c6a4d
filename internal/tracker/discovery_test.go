package tracker

import (
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/marketfeed/internal/interval"
	"github.com/alanyoungcy/marketfeed/internal/platform/polymarket"
)

func testDiscovery(t *testing.T) *Discovery {
	t.Helper()
	return NewDiscovery(nil, interval.New(interval.Options{}),
		[]string{"btc", "bitcoin", "eth", "ethereum"}, 3, 200, slog.Default())
}

func eventFromJSON(t *testing.T, raw string) polymarket.APIEvent {
	t.Helper()
	var ev polymarket.APIEvent
	require.NoError(t, json.Unmarshal([]byte(raw), &ev))
	return ev
}

func TestDiscoveryFilterAcceptsScalarEvent(t *testing.T) {
	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	ev := eventFromJSON(t, `{
		"id": "1",
		"title": "What price will Bitcoin hit in July?",
		"slug": "what-price-will-bitcoin-hit-in-july",
		"endTime": "2025-07-31T12:00:00Z",
		"markets": [
			{"id": "10", "question": "Bitcoin above $120k in July"},
			{"id": "11", "question": "Bitcoin between $110k and $120k in July"},
			{"id": "12", "question": "Bitcoin below $110k in July"}
		]
	}`)

	got := testDiscovery(t).Filter([]polymarket.APIEvent{ev}, now)
	require.Len(t, got, 1)
	assert.Equal(t, "what-price-will-bitcoin-hit-in-july", got[0].Slug)
	assert.Equal(t, time.Date(2025, 7, 31, 12, 0, 0, 0, time.UTC), got[0].Expiry)
}

func TestDiscoveryFilterRejectsNonKeywordTitle(t *testing.T) {
	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	ev := eventFromJSON(t, `{
		"id": "1",
		"title": "What price will gold hit in July?",
		"slug": "gold-price-in-july",
		"endTime": "2025-07-31T12:00:00Z",
		"markets": [
			{"id": "10", "question": "Gold above $2500 in July"},
			{"id": "11", "question": "Gold between $2400 and $2500 in July"},
			{"id": "12", "question": "Gold below $2400 in July"}
		]
	}`)

	assert.Empty(t, testDiscovery(t).Filter([]polymarket.APIEvent{ev}, now))
}

func TestDiscoveryFilterRequiresDistinctIntervals(t *testing.T) {
	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	// Two distinct intervals only: the binary yes/no pair parses to nothing
	// and the duplicated threshold collapses into one.
	ev := eventFromJSON(t, `{
		"id": "1",
		"title": "Bitcoin up or down?",
		"slug": "bitcoin-up-or-down-july-25-3pm-et",
		"endTime": "2025-07-25T20:00:00Z",
		"markets": [
			{"id": "10", "question": "Up"},
			{"id": "11", "question": "Down"},
			{"id": "12", "question": "Bitcoin above $120k"},
			{"id": "13", "question": "BTC above $120k again"}
		]
	}`)

	assert.Empty(t, testDiscovery(t).Filter([]polymarket.APIEvent{ev}, now))
}

func TestDiscoveryFilterSlugDateFallback(t *testing.T) {
	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	ev := eventFromJSON(t, `{
		"id": "1",
		"title": "Ethereum price on July 25?",
		"slug": "ethereum-price-on-july-25",
		"markets": [
			{"id": "10", "question": "ETH above $4000"},
			{"id": "11", "question": "ETH between $3500 and $4000"},
			{"id": "12", "question": "ETH below $3500"}
		]
	}`)

	got := testDiscovery(t).Filter([]polymarket.APIEvent{ev}, now)
	require.Len(t, got, 1)
	assert.Equal(t, time.Date(2025, 7, 25, 23, 59, 59, 0, time.UTC), got[0].Expiry)
}

func TestDiscoveryFilterRejectsExpiredEvent(t *testing.T) {
	now := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	ev := eventFromJSON(t, `{
		"id": "1",
		"title": "Bitcoin price on July 25?",
		"slug": "bitcoin-price-on-july-25",
		"endTime": "2025-07-25T12:00:00Z",
		"markets": [
			{"id": "10", "question": "BTC above $120k"},
			{"id": "11", "question": "BTC between $110k and $120k"},
			{"id": "12", "question": "BTC below $110k"}
		]
	}`)

	assert.Empty(t, testDiscovery(t).Filter([]polymarket.APIEvent{ev}, now))
}
