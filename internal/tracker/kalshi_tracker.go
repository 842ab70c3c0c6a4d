package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/marketfeed/internal/domain"
	"github.com/alanyoungcy/marketfeed/internal/notify"
	"github.com/alanyoungcy/marketfeed/internal/platform/kalshi"
	"github.com/alanyoungcy/marketfeed/internal/store/postgres"
)

// KalshiTracker samples every market of one Kalshi event ticker into its own
// table. Kalshi reports strike bounds as structured fields, so no label
// parsing is involved; cent quotes are scaled to probabilities by the market
// conversion.
type KalshiTracker struct {
	client   *kalshi.Client
	store    domain.QuoteStore
	notifier *notify.Notifier
	logger   *slog.Logger

	eventTicker    string
	schema         string
	sampleInterval time.Duration
}

// NewKalshiTracker creates a KalshiTracker.
func NewKalshiTracker(
	client *kalshi.Client,
	store domain.QuoteStore,
	notifier *notify.Notifier,
	logger *slog.Logger,
	eventTicker, schema string,
	sampleInterval time.Duration,
) *KalshiTracker {
	return &KalshiTracker{
		client:         client,
		store:          store,
		notifier:       notifier,
		logger:         logger.With(slog.String("component", "kalshi_tracker"), slog.String("event", eventTicker)),
		eventTicker:    eventTicker,
		schema:         schema,
		sampleInterval: sampleInterval,
	}
}

// Run samples the event's markets on interval boundaries until every market
// has left the open state or the context is cancelled.
func (t *KalshiTracker) Run(ctx context.Context) error {
	table := postgres.TableName(t.eventTicker)

	if err := t.store.EnsureTable(ctx, t.schema, table); err != nil {
		return fmt.Errorf("tracker: ensure table for %s: %w", t.eventTicker, err)
	}

	t.logger.Info("kalshi tracker started", slog.String("table", t.schema+"."+table))
	t.notify(ctx, notify.EventTrackerStarted, "Kalshi tracker started", t.eventTicker)
	defer func() {
		t.logger.Info("kalshi tracker stopped")
		t.notify(context.WithoutCancel(ctx), notify.EventTrackerStopped, "Kalshi tracker stopped", t.eventTicker)
	}()

	for {
		open, err := t.sampleOnce(ctx, table)
		if err != nil {
			t.logger.Warn("sample failed, skipping cycle", slog.String("error", err.Error()))
		} else if !open {
			t.logger.Info("all markets closed")
			return nil
		}

		if err := sleepAligned(ctx, t.sampleInterval); err != nil {
			return err
		}
	}
}

// sampleOnce inserts one row per market and reports whether any market is
// still open.
func (t *KalshiTracker) sampleOnce(ctx context.Context, table string) (bool, error) {
	markets, err := t.client.GetMarketsByEvent(ctx, t.eventTicker)
	if err != nil {
		return true, err
	}
	if len(markets) == 0 {
		return true, fmt.Errorf("tracker: no markets for %s", t.eventTicker)
	}

	now := time.Now().UTC()
	rows := make([]domain.QuoteRow, 0, len(markets))
	anyOpen := false
	for i := range markets {
		if markets[i].Ticker == "" {
			continue
		}
		if markets[i].Status == "open" {
			anyOpen = true
		}
		rows = append(rows, markets[i].ToQuoteRow(now))
	}

	if err := t.store.InsertRows(ctx, t.schema, table, rows); err != nil {
		t.notify(ctx, notify.EventInsertError, "Kalshi insert failed", t.eventTicker+": "+err.Error())
		return anyOpen, err
	}
	t.logger.Debug("rows inserted", slog.Int("count", len(rows)))
	return anyOpen, nil
}

func (t *KalshiTracker) notify(ctx context.Context, event, title, message string) {
	if t.notifier == nil {
		return
	}
	if err := t.notifier.Notify(ctx, event, title, message); err != nil {
		t.logger.Debug("notification failed", slog.String("error", err.Error()))
	}
}
