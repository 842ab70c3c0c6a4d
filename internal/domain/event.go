package domain

import "time"

// EventStatus represents the lifecycle state of a tracked event.
type EventStatus string

const (
	EventStatusPending EventStatus = "pending" // markets not yet live
	EventStatusLive    EventStatus = "live"
	EventStatusExpired EventStatus = "expired"
)

// Event is a prediction-market event grouping one or more markets that share
// a resolution time. The slug doubles as the API lookup key and, sanitized,
// as the destination table name.
type Event struct {
	ID      string
	Slug    string
	Title   string
	Expiry  time.Time
	Status  EventStatus
	Markets []Market
}

// Market is a single tradable market inside an event. Label is the
// human-readable question/title that the interval parser consumes. The ID is
// kept as the API's string form; Gamma ids happen to be numeric, Kalshi
// tickers are not.
type Market struct {
	ID     string
	Label  string
	YesBid *float64
	YesAsk *float64
}

// NoBid derives the best bid for the No side from the Yes ask.
func (m Market) NoBid() *float64 {
	if m.YesAsk == nil {
		return nil
	}
	v := 1.0 - *m.YesAsk
	return &v
}

// NoAsk derives the best ask for the No side from the Yes bid.
func (m Market) NoAsk() *float64 {
	if m.YesBid == nil {
		return nil
	}
	v := 1.0 - *m.YesBid
	return &v
}
