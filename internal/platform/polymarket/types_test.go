package polymarket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/marketfeed/internal/domain"
)

func TestAPIMarketDecodeFlexibleFields(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantBid *float64
		wantAsk *float64
	}{
		{
			name:    "numeric quotes",
			raw:     `{"id":"42","question":"Q","bestBid":0.45,"bestAsk":0.47}`,
			wantBid: ptr(0.45),
			wantAsk: ptr(0.47),
		},
		{
			name:    "string quotes",
			raw:     `{"id":"42","question":"Q","bestBid":"0.45","bestAsk":"0.47"}`,
			wantBid: ptr(0.45),
			wantAsk: ptr(0.47),
		},
		{
			name:    "null and missing quotes",
			raw:     `{"id":"42","question":"Q","bestBid":null}`,
			wantBid: nil,
			wantAsk: nil,
		},
		{
			name:    "empty string quote",
			raw:     `{"id":"42","question":"Q","bestBid":""}`,
			wantBid: nil,
			wantAsk: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m APIMarket
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &m))
			assert.Equal(t, tt.wantBid, m.BestBid.Value)
			assert.Equal(t, tt.wantAsk, m.BestAsk.Value)
		})
	}
}

func TestAPIEventDecodeFlexibleActive(t *testing.T) {
	var ev APIEvent
	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","active":"true"}`), &ev))
	assert.True(t, bool(ev.Active))

	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","active":false}`), &ev))
	assert.False(t, bool(ev.Active))
}

func TestAPIEventExpiry(t *testing.T) {
	ev := APIEvent{EndTime: "2026-07-25T15:00:00Z"}
	assert.Equal(t, time.Date(2026, 7, 25, 15, 0, 0, 0, time.UTC), ev.Expiry())

	// closeTime is the fallback when endTime is absent.
	ev = APIEvent{CloseTime: "2026-07-25T15:00:00+02:00"}
	assert.Equal(t, time.Date(2026, 7, 25, 13, 0, 0, 0, time.UTC), ev.Expiry())

	ev = APIEvent{EndTime: "not a timestamp"}
	assert.True(t, ev.Expiry().IsZero())

	ev = APIEvent{}
	assert.True(t, ev.Expiry().IsZero())
}

func TestAPIEventToDomainEvent(t *testing.T) {
	raw := `{
		"id": "100",
		"title": "Bitcoin price on July 25?",
		"slug": "bitcoin-price-on-july-25",
		"endTime": "2026-07-25T00:00:00Z",
		"markets": [
			{"id": "1", "question": "Bitcoin above $114k on July 25", "bestBid": "0.4", "bestAsk": "0.42"},
			{"id": "", "question": "skipped"},
			{"id": "2", "question": "Bitcoin below $100k on July 25"}
		]
	}`
	var apiEv APIEvent
	require.NoError(t, json.Unmarshal([]byte(raw), &apiEv))

	ev := apiEv.ToDomainEvent()
	assert.Equal(t, "bitcoin-price-on-july-25", ev.Slug)
	assert.Equal(t, domain.EventStatusLive, ev.Status)
	require.Len(t, ev.Markets, 2)
	assert.Equal(t, "1", ev.Markets[0].ID)
	require.NotNil(t, ev.Markets[0].YesBid)
	assert.Equal(t, 0.4, *ev.Markets[0].YesBid)
	assert.Nil(t, ev.Markets[1].YesBid)
}

func TestMarketNoSideDerivation(t *testing.T) {
	m := domain.Market{YesBid: ptr(0.4), YesAsk: ptr(0.42)}
	require.NotNil(t, m.NoBid())
	require.NotNil(t, m.NoAsk())
	assert.InDelta(t, 0.58, *m.NoBid(), 1e-9)
	assert.InDelta(t, 0.6, *m.NoAsk(), 1e-9)

	empty := domain.Market{}
	assert.Nil(t, empty.NoBid())
	assert.Nil(t, empty.NoAsk())
}

func TestBookMessageTop(t *testing.T) {
	book := BookMessage{
		AssetID:   "asset-1",
		Bids:      []WSPriceLevel{{Price: "0.40", Size: "10"}, {Price: "0.45", Size: "5"}, {Price: "bad", Size: "1"}},
		Asks:      []WSPriceLevel{{Price: "0.55", Size: "3"}, {Price: "0.48", Size: "7"}},
		Timestamp: "1719489600000",
	}

	top := book.Top()
	assert.Equal(t, "asset-1", top.AssetID)
	assert.Equal(t, 0.45, top.BestBid)
	assert.Equal(t, 0.48, top.BestAsk)
	assert.Equal(t, time.UnixMilli(1719489600000).UTC(), top.TS)
}

func ptr(v float64) *float64 { return &v }
