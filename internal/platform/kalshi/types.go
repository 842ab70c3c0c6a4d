package kalshi

import (
	"time"

	"github.com/alanyoungcy/marketfeed/internal/domain"
)

// Market represents a market as returned by the Kalshi REST API. Quote
// fields are integer cents (1-99).
type Market struct {
	Ticker         string  `json:"ticker"`
	EventTicker    string  `json:"event_ticker"`
	Title          string  `json:"title"`
	Subtitle       string  `json:"subtitle"`
	Status         string  `json:"status"` // "open", "closed", "settled"
	YesBid         int64   `json:"yes_bid"`
	YesAsk         int64   `json:"yes_ask"`
	NoBid          int64   `json:"no_bid"`
	NoAsk          int64   `json:"no_ask"`
	LastPrice      int64   `json:"last_price"`
	Volume         int64   `json:"volume"`
	OpenInterest   int64   `json:"open_interest"`
	StrikeType     string  `json:"strike_type"`
	FloorStrike    float64 `json:"floor_strike"`
	CapStrike      float64 `json:"cap_strike"`
	Result         string  `json:"result"` // "yes", "no", "" (unsettled)
	ExpirationTime string  `json:"expiration_time"`
	CloseTime      string  `json:"close_time"`
}

// Expiry parses the market close/expiration time, preferring close_time.
// The zero time means neither field was parseable.
func (m *Market) Expiry() time.Time {
	for _, s := range []string{m.CloseTime, m.ExpirationTime} {
		if s == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// ToQuoteRow converts the market to a flat quote row at the given sample
// time. Cent quotes are scaled to probabilities in [0,1] to match the
// Polymarket row shape. When the market carries explicit strike fields those
// take priority over anything parsed from the title; a floor or cap of zero
// with strike_type set is still meaningful, so only unset strike types fall
// back to nil bounds.
func (m *Market) ToQuoteRow(ts time.Time) domain.QuoteRow {
	row := domain.QuoteRow{
		TS:        ts,
		EventSlug: m.EventTicker,
		MarketID:  m.Ticker,
		Label:     m.Title,
		Expiry:    m.Expiry(),
		YesBid:    centsToProb(m.YesBid),
		YesAsk:    centsToProb(m.YesAsk),
		NoBid:     centsToProb(m.NoBid),
		NoAsk:     centsToProb(m.NoAsk),
	}

	switch m.StrikeType {
	case "greater":
		v := m.FloorStrike
		row.LowBound = &v
	case "less":
		v := m.CapStrike
		row.HighBound = &v
	case "between":
		lo, hi := m.FloorStrike, m.CapStrike
		if lo > hi {
			lo, hi = hi, lo
		}
		row.LowBound = &lo
		row.HighBound = &hi
	}

	return row
}

func centsToProb(cents int64) *float64 {
	if cents <= 0 {
		return nil
	}
	v := float64(cents) / 100.0
	return &v
}
