package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alanyoungcy/marketfeed/internal/interval"
	"github.com/alanyoungcy/marketfeed/internal/platform/polymarket"
)

// discoveryTagSlug narrows the Gamma listing to crypto events; the keyword
// filter below does the rest.
const discoveryTagSlug = "crypto"

// Candidate is a discovered scalar event worth tracking.
type Candidate struct {
	Slug   string
	Title  string
	Expiry time.Time
	// AssetIDs are the clob token ids of the event's markets, for the
	// real-time quote feed.
	AssetIDs []string
}

// Discovery finds scalar interval events on Polymarket: crypto-tagged events
// whose titles mention a tracked asset and whose markets parse into enough
// distinct price intervals.
type Discovery struct {
	gamma        *polymarket.GammaClient
	parser       *interval.Parser
	keywords     []string
	minIntervals int
	pageSize     int
	logger       *slog.Logger
}

// NewDiscovery creates a Discovery.
func NewDiscovery(gamma *polymarket.GammaClient, parser *interval.Parser, keywords []string, minIntervals, pageSize int, logger *slog.Logger) *Discovery {
	return &Discovery{
		gamma:        gamma,
		parser:       parser,
		keywords:     keywords,
		minIntervals: minIntervals,
		pageSize:     pageSize,
		logger:       logger.With(slog.String("component", "discovery")),
	}
}

// Discover lists every active crypto event and returns the candidates that
// pass the scalar-event filter.
func (d *Discovery) Discover(ctx context.Context) ([]Candidate, error) {
	events, err := d.fetchAll(ctx)
	if err != nil {
		return nil, err
	}

	candidates := d.Filter(events, time.Now().UTC())
	d.logger.Info("discovery cycle complete",
		slog.Int("events", len(events)),
		slog.Int("candidates", len(candidates)),
	)
	return candidates, nil
}

// fetchAll pages through the Gamma event listing until an empty page.
func (d *Discovery) fetchAll(ctx context.Context) ([]polymarket.APIEvent, error) {
	var all []polymarket.APIEvent
	for offset := 0; ; offset += d.pageSize {
		page, err := d.gamma.ListEvents(ctx, polymarket.EventQuery{
			TagSlug: discoveryTagSlug,
			Active:  true,
			Limit:   d.pageSize,
			Offset:  offset,
		})
		if err != nil {
			return nil, fmt.Errorf("tracker: discovery page at offset %d: %w", offset, err)
		}
		if len(page) == 0 {
			return all, nil
		}
		all = append(all, page...)
	}
}

// Filter keeps the events that look like tracked scalar markets:
// a keyword in the title, at least minIntervals distinct parsed intervals,
// and a usable future expiry (API end time, else a slug-embedded date).
func (d *Discovery) Filter(events []polymarket.APIEvent, now time.Time) []Candidate {
	var out []Candidate
	for i := range events {
		ev := &events[i]
		title := strings.ToLower(ev.Title)
		if !containsAnyKeyword(title, d.keywords) {
			continue
		}

		distinct := make(map[string]struct{})
		var assetIDs []string
		for j := range ev.Markets {
			m := &ev.Markets[j]
			iv := d.parser.Parse(m.Label())
			if iv.IsEmpty() {
				continue
			}
			distinct[intervalKey(iv)] = struct{}{}
			assetIDs = append(assetIDs, m.TokenIDs()...)
		}
		if len(distinct) < d.minIntervals {
			continue
		}

		expiry := ev.Expiry()
		if expiry.IsZero() || !expiry.After(now) {
			fallback, ok := ExpiryFromSlugDate(ev.Slug, now)
			if !ok {
				continue
			}
			expiry = fallback
		}

		out = append(out, Candidate{
			Slug:     ev.Slug,
			Title:    ev.Title,
			Expiry:   expiry,
			AssetIDs: assetIDs,
		})
	}
	return out
}

func intervalKey(iv interval.Interval) string {
	f := func(p *float64) string {
		if p == nil {
			return "-"
		}
		return fmt.Sprintf("%g", *p)
	}
	return f(iv.Low) + "/" + f(iv.High)
}

func containsAnyKeyword(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
