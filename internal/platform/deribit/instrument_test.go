package deribit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/marketfeed/internal/domain"
)

func TestParseInstrument(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Instrument
	}{
		{
			name: "call with letter month",
			in:   "BTC-27JUN25-100000-C",
			want: Instrument{
				Underlying: "BTC",
				Expiry:     time.Date(2025, 6, 27, 8, 0, 0, 0, time.UTC),
				Strike:     100000,
				Type:       domain.OptionCall,
			},
		},
		{
			name: "put with single-digit day",
			in:   "ETH-4JUL25-3500-P",
			want: Instrument{
				Underlying: "ETH",
				Expiry:     time.Date(2025, 7, 4, 8, 0, 0, 0, time.UTC),
				Strike:     3500,
				Type:       domain.OptionPut,
			},
		},
		{
			name: "unified symbol with colon prefix",
			in:   "BTC/USD:BTC-27JUN25-100000-C",
			want: Instrument{
				Underlying: "BTC",
				Expiry:     time.Date(2025, 6, 27, 8, 0, 0, 0, time.UTC),
				Strike:     100000,
				Type:       domain.OptionCall,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInstrument(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseInstrumentRejectsNonOptions(t *testing.T) {
	for _, in := range []string{
		"BTC-PERPETUAL",
		"BTC-27JUN25",
		"BTC-27JUN25-100000-X",
		"BTC-NOTADATE-100000-C",
		"BTC-27JUN25-abc-C",
	} {
		_, err := ParseInstrument(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestParseExpiryToken(t *testing.T) {
	tests := []struct {
		token string
		want  time.Time
	}{
		{"27JUN25", time.Date(2025, 6, 27, 8, 0, 0, 0, time.UTC)},
		{"4JUL25", time.Date(2025, 7, 4, 8, 0, 0, 0, time.UTC)},
		{"250627", time.Date(2025, 6, 27, 8, 0, 0, 0, time.UTC)},
		// Five digits means the leading zero of the year was dropped.
		{"50627", time.Date(2005, 6, 27, 8, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseExpiryToken(tt.token)
		require.NoError(t, err, "token %q", tt.token)
		assert.Equal(t, tt.want, got, "token %q", tt.token)
	}

	for _, bad := range []string{"", "27XXX25", "991399", "1234567", "abc"} {
		_, err := ParseExpiryToken(bad)
		assert.Error(t, err, "token %q", bad)
	}
}

func TestBookSummaryToOptionQuote(t *testing.T) {
	bid, ask, iv := 0.0215, 0.0235, 47.3
	underPx := 96500.0

	b := BookSummary{
		InstrumentName:  "BTC-27JUN25-100000-C",
		BidPrice:        &bid,
		AskPrice:        &ask,
		MarkIV:          &iv,
		UnderlyingIndex: "BTC-27JUN25",
		UnderlyingPrice: &underPx,
	}

	runTS := time.Date(2025, 6, 1, 0, 10, 0, 0, time.UTC)
	q, err := b.ToOptionQuote(runTS, 96000)
	require.NoError(t, err)

	assert.Equal(t, runTS, q.RunTS)
	assert.Equal(t, 96000.0, q.SpotPrice)
	assert.Equal(t, "BTC-27JUN25-100000-C", q.Symbol)
	assert.Equal(t, domain.OptionCall, q.Type)
	assert.Equal(t, 100000.0, q.Strike)
	assert.InDelta(t, bid*underPx, q.BidUSD, 1e-9)
	assert.InDelta(t, ask*underPx, q.AskUSD, 1e-9)
	assert.Equal(t, iv, q.IV)

	// Without a per-instrument underlying price the index price is used.
	b.UnderlyingPrice = nil
	q, err = b.ToOptionQuote(runTS, 96000)
	require.NoError(t, err)
	assert.InDelta(t, bid*96000, q.BidUSD, 1e-9)

	b.InstrumentName = "BTC-PERPETUAL"
	_, err = b.ToOptionQuote(runTS, 96000)
	assert.Error(t, err)
}
