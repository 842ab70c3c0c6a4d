package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/marketfeed/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// flexFloat unmarshals from a JSON number, a numeric string, or null. The
// Gamma API sends bestBid/bestAsk as strings on some endpoints and numbers on
// others; absent quotes stay nil.
type flexFloat struct {
	Value *float64
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		f.Value = nil
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		f.Value = &n
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		f.Value = nil
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	f.Value = &n
	return nil
}

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// APIEvent represents an event as returned by the Polymarket Gamma API.
// An event groups one or more related markets that resolve together.
type APIEvent struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Slug      string      `json:"slug"`
	Active    flexBool    `json:"active"`
	Closed    bool        `json:"closed"`
	Markets   []APIMarket `json:"markets"`
	EndTime   string      `json:"endTime"`
	CloseTime string      `json:"closeTime"`
	EndDate   string      `json:"endDate"`
	EndDateL  string      `json:"end_date"`
}

// Expiry resolves the event end time from whichever of the timestamp fields
// the API populated. The zero time means no parseable end time was present.
func (e *APIEvent) Expiry() time.Time {
	for _, s := range []string{e.EndTime, e.CloseTime, e.EndDateL, e.EndDate} {
		if s == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// ToDomainEvent converts an APIEvent and its embedded markets to the domain
// representation. Markets without an id are skipped.
func (e *APIEvent) ToDomainEvent() domain.Event {
	ev := domain.Event{
		ID:     e.ID,
		Slug:   e.Slug,
		Title:  e.Title,
		Expiry: e.Expiry(),
	}
	switch {
	case e.Closed:
		ev.Status = domain.EventStatusExpired
	case len(e.Markets) > 0:
		ev.Status = domain.EventStatusLive
	default:
		ev.Status = domain.EventStatusPending
	}
	for i := range e.Markets {
		if e.Markets[i].ID == "" {
			continue
		}
		ev.Markets = append(ev.Markets, e.Markets[i].ToDomainMarket())
	}
	return ev
}

// APIMarket represents a market as embedded in Gamma event responses.
type APIMarket struct {
	ID           string    `json:"id"`
	Question     string    `json:"question"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	BestBid      flexFloat `json:"bestBid"`
	BestAsk      flexFloat `json:"bestAsk"`
	Closed       bool      `json:"closed"`
	Active       flexBool  `json:"active"`
	ClobTokenIDs string    `json:"clobTokenIds"` // JSON-encoded: e.g. "[\"123\",\"456\"]"
}

// Label returns the market's human-readable question, preferring the title
// field when both are present.
func (m *APIMarket) Label() string {
	if m.Title != "" {
		return m.Title
	}
	return m.Question
}

// TokenIDs decodes the JSON-encoded clobTokenIds list ([yes, no]).
func (m *APIMarket) TokenIDs() []string {
	if m.ClobTokenIDs == "" {
		return nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(m.ClobTokenIDs), &ids); err != nil {
		return nil
	}
	return ids
}

// ToDomainMarket converts an APIMarket to the domain representation.
func (m *APIMarket) ToDomainMarket() domain.Market {
	return domain.Market{
		ID:     m.ID,
		Label:  m.Label(),
		YesBid: m.BestBid.Value,
		YesAsk: m.BestAsk.Value,
	}
}

// --------------------------------------------------------------------------
// WebSocket DTOs
// --------------------------------------------------------------------------

// WSCommand is the JSON payload sent to the WebSocket to subscribe or
// unsubscribe.
type WSCommand struct {
	Type    string   `json:"type"`
	Channel string   `json:"channel"`
	Assets  []string `json:"assets_ids"`
}

// WSPriceLevel is a single price level inside a book message.
type WSPriceLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// BookMessage is a full orderbook snapshot from the "book" channel.
type BookMessage struct {
	EventType string         `json:"event_type"`
	AssetID   string         `json:"asset_id"`
	Market    string         `json:"market"`
	Bids      []WSPriceLevel `json:"bids"`
	Asks      []WSPriceLevel `json:"asks"`
	Timestamp string         `json:"timestamp"`
}

// TopOfBook is the best bid/ask extracted from a book snapshot.
type TopOfBook struct {
	AssetID string
	BestBid float64
	BestAsk float64
	TS      time.Time
}

// Top reduces the snapshot to its best bid and ask. Unparseable levels are
// ignored; a missing side leaves the corresponding field at zero.
func (b *BookMessage) Top() TopOfBook {
	top := TopOfBook{AssetID: b.AssetID, TS: time.Now().UTC()}
	if ms, err := strconv.ParseInt(b.Timestamp, 10, 64); err == nil {
		top.TS = time.UnixMilli(ms).UTC()
	}
	for _, lvl := range b.Bids {
		p, err := strconv.ParseFloat(lvl.Price, 64)
		if err != nil {
			continue
		}
		if p > top.BestBid {
			top.BestBid = p
		}
	}
	for _, lvl := range b.Asks {
		p, err := strconv.ParseFloat(lvl.Price, 64)
		if err != nil {
			continue
		}
		if top.BestAsk == 0 || p < top.BestAsk {
			top.BestAsk = p
		}
	}
	return top
}
