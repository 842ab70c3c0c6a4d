package domain

import "time"

// QuoteRow is one sampled observation of one market: the flat row shape
// written to the per-event table. LowBound/HighBound carry the numeric
// interval parsed from the market label; for binary up-or-down markets both
// are nil and only the quotes are meaningful.
type QuoteRow struct {
	TS        time.Time `json:"ts_utc"`
	EventSlug string    `json:"event_slug"`
	MarketID  string    `json:"market_id"`
	Label     string    `json:"label"`
	LowBound  *float64  `json:"low_bound"`
	HighBound *float64  `json:"high_bound"`
	Expiry    time.Time `json:"expiry"`
	YesBid    *float64  `json:"yes_bid"`
	YesAsk    *float64  `json:"yes_ask"`
	NoBid     *float64  `json:"no_bid"`
	NoAsk     *float64  `json:"no_ask"`
}
