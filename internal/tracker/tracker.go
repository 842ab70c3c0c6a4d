package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/marketfeed/internal/domain"
	"github.com/alanyoungcy/marketfeed/internal/interval"
	"github.com/alanyoungcy/marketfeed/internal/notify"
	"github.com/alanyoungcy/marketfeed/internal/platform/polymarket"
	"github.com/alanyoungcy/marketfeed/internal/store/postgres"
)

// liveProbeInterval is how often a tracker re-checks an event whose markets
// have not appeared yet.
const liveProbeInterval = 5 * time.Second

// EventTracker samples one Polymarket event into its own table until the
// event expires. In interval mode each sample keeps only the markets whose
// labels parse into a price interval; in hourly mode every market is kept
// and the bound columns stay null.
type EventTracker struct {
	gamma    *polymarket.GammaClient
	store    domain.QuoteStore
	parser   *interval.Parser
	archiver domain.Archiver // optional
	notifier *notify.Notifier
	logger   *slog.Logger

	slug           string
	schema         string
	expiry         time.Time
	sampleInterval time.Duration

	// requireInterval drops markets whose label parses to an empty interval.
	requireInterval bool
}

// TrackerParams bundles the per-event arguments of NewEventTracker.
type TrackerParams struct {
	Slug            string
	Schema          string
	Expiry          time.Time
	SampleInterval  time.Duration
	RequireInterval bool
}

// NewEventTracker creates an EventTracker. archiver may be nil when row
// archival is disabled.
func NewEventTracker(
	gamma *polymarket.GammaClient,
	store domain.QuoteStore,
	parser *interval.Parser,
	archiver domain.Archiver,
	notifier *notify.Notifier,
	logger *slog.Logger,
	p TrackerParams,
) *EventTracker {
	return &EventTracker{
		gamma:           gamma,
		store:           store,
		parser:          parser,
		archiver:        archiver,
		notifier:        notifier,
		logger:          logger.With(slog.String("component", "event_tracker"), slog.String("slug", p.Slug)),
		slug:            p.Slug,
		schema:          p.Schema,
		expiry:          p.Expiry,
		sampleInterval:  p.SampleInterval,
		requireInterval: p.RequireInterval,
	}
}

// Run tracks the event until expiry or context cancellation. It creates the
// event's table, waits for markets to go live, then samples on interval
// boundaries. A final sample is taken at expiry before the tracker stops and
// optionally archives the table.
func (t *EventTracker) Run(ctx context.Context) error {
	table := postgres.TableName(t.slug)

	if err := t.store.EnsureTable(ctx, t.schema, table); err != nil {
		return fmt.Errorf("tracker: ensure table for %s: %w", t.slug, err)
	}

	t.logger.Info("tracker started",
		slog.String("table", t.schema+"."+table),
		slog.Time("expiry", t.expiry),
	)
	t.notify(ctx, notify.EventTrackerStarted, "Tracker started",
		fmt.Sprintf("%s until %s", t.slug, t.expiry.Format(time.RFC3339)))
	defer func() {
		t.logger.Info("tracker stopped")
		t.notify(context.WithoutCancel(ctx), notify.EventTrackerStopped, "Tracker stopped", t.slug)
	}()

	if ok, err := t.waitLive(ctx); err != nil || !ok {
		return err
	}

	for {
		now := time.Now().UTC()
		t.sampleOnce(ctx, table, now)

		if !now.Before(t.expiry) {
			t.logger.Info("expiry reached")
			break
		}

		if err := sleepAligned(ctx, t.sampleInterval); err != nil {
			return err
		}
	}

	if t.archiver != nil {
		path, err := t.archiver.ArchiveTable(ctx, t.schema, table)
		if err != nil {
			t.logger.Error("archive failed", slog.String("error", err.Error()))
			t.notify(ctx, notify.EventError, "Archive failed", t.slug+": "+err.Error())
		} else if path != "" {
			t.logger.Info("table archived", slog.String("path", path))
		}
	}
	return nil
}

// waitLive probes the event until its markets appear. It returns false when
// expiry arrives first.
func (t *EventTracker) waitLive(ctx context.Context) (bool, error) {
	for {
		if !time.Now().UTC().Before(t.expiry) {
			t.logger.Warn("expiry before markets went live")
			return false, nil
		}

		ev, err := t.gamma.GetEventBySlug(ctx, t.slug)
		if err == nil && len(ev.Markets) > 0 {
			t.logger.Info("markets live, sampling starts")
			return true, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(liveProbeInterval):
		}
	}
}

// sampleOnce fetches the event and inserts one row per kept market. Fetch
// and insert failures are logged, not fatal: the next cycle retries.
func (t *EventTracker) sampleOnce(ctx context.Context, table string, now time.Time) {
	ev, err := t.gamma.GetEventBySlug(ctx, t.slug)
	if err != nil {
		t.logger.Warn("fetch failed, skipping cycle", slog.String("error", err.Error()))
		return
	}

	rows := t.buildRows(&ev, now)
	if len(rows) == 0 {
		return
	}

	if err := t.store.InsertRows(ctx, t.schema, table, rows); err != nil {
		t.logger.Error("insert failed", slog.String("error", err.Error()))
		t.notify(ctx, notify.EventInsertError, "Insert failed", t.slug+": "+err.Error())
		return
	}
	t.logger.Debug("rows inserted", slog.Int("count", len(rows)))
}

// buildRows converts the event's current markets into quote rows.
func (t *EventTracker) buildRows(ev *polymarket.APIEvent, now time.Time) []domain.QuoteRow {
	var rows []domain.QuoteRow
	for i := range ev.Markets {
		am := &ev.Markets[i]
		if am.ID == "" {
			continue
		}

		label := am.Label()
		iv := t.parser.Parse(label)
		if t.requireInterval && iv.IsEmpty() {
			continue
		}

		m := am.ToDomainMarket()
		row := domain.QuoteRow{
			TS:        now,
			EventSlug: t.slug,
			MarketID:  m.ID,
			Label:     label,
			Expiry:    t.expiry,
			YesBid:    m.YesBid,
			YesAsk:    m.YesAsk,
			NoBid:     m.NoBid(),
			NoAsk:     m.NoAsk(),
		}
		if t.requireInterval {
			row.LowBound = iv.Low
			row.HighBound = iv.High
		}
		rows = append(rows, row)
	}
	return rows
}

func (t *EventTracker) notify(ctx context.Context, event, title, message string) {
	if t.notifier == nil {
		return
	}
	if err := t.notifier.Notify(ctx, event, title, message); err != nil {
		t.logger.Debug("notification failed", slog.String("error", err.Error()))
	}
}

// sleepAligned sleeps until the next wall-clock multiple of d, so samples
// across trackers land on the same timestamps.
func sleepAligned(ctx context.Context, d time.Duration) error {
	now := time.Now()
	wait := d - time.Duration(now.UnixNano())%d

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}
