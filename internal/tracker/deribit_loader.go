package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alanyoungcy/marketfeed/internal/domain"
	"github.com/alanyoungcy/marketfeed/internal/platform/deribit"
)

// optionSchema is the schema holding the per-underlying snapshot tables.
const optionSchema = "deribit_options"

// DeribitLoader snapshots the full option chain of each configured
// underlying once a day. Instruments already expired or beyond the lookahead
// window are skipped.
type DeribitLoader struct {
	client *deribit.Client
	store  domain.OptionStore
	logger *slog.Logger

	currencies []string
	lookahead  time.Duration
	runAt      string // "HH:MM" UTC
}

// NewDeribitLoader creates a DeribitLoader. runAt is the daily snapshot time
// as "HH:MM" in UTC; lookaheadDays bounds how far out expiries are kept.
func NewDeribitLoader(client *deribit.Client, store domain.OptionStore, logger *slog.Logger, currencies []string, lookaheadDays int, runAt string) *DeribitLoader {
	return &DeribitLoader{
		client:     client,
		store:      store,
		logger:     logger.With(slog.String("component", "deribit_loader")),
		currencies: currencies,
		lookahead:  time.Duration(lookaheadDays) * 24 * time.Hour,
		runAt:      runAt,
	}
}

// Run snapshots each underlying once a day at the configured time until the
// context is cancelled.
func (l *DeribitLoader) Run(ctx context.Context) error {
	for {
		next, err := nextDailyRun(l.runAt, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("tracker: deribit run_at: %w", err)
		}
		l.logger.Info("next chain snapshot scheduled", slog.Time("at", next))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(next)):
		}

		for _, currency := range l.currencies {
			if err := l.SnapshotChain(ctx, currency); err != nil {
				l.logger.Error("chain snapshot failed",
					slog.String("currency", currency),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// SnapshotChain fetches the index price and the full option book for one
// underlying and stores the filtered rows.
func (l *DeribitLoader) SnapshotChain(ctx context.Context, currency string) error {
	runTS := time.Now().UTC()

	indexPrice, err := l.client.GetIndexPrice(ctx, strings.ToLower(currency)+"_usd")
	if err != nil {
		return err
	}

	summaries, err := l.client.GetBookSummaries(ctx, currency)
	if err != nil {
		return err
	}

	cutoff := runTS.Add(l.lookahead)
	quotes := make([]domain.OptionQuote, 0, len(summaries))
	skipped := 0
	for i := range summaries {
		q, err := summaries[i].ToOptionQuote(runTS, indexPrice)
		if err != nil {
			skipped++
			continue
		}
		if q.Expiry.Before(runTS) || q.Expiry.After(cutoff) {
			skipped++
			continue
		}
		quotes = append(quotes, q)
	}

	table := strings.ToLower(currency) + "_chain"
	if err := l.store.EnsureTable(ctx, optionSchema, table); err != nil {
		return err
	}
	if err := l.store.InsertQuotes(ctx, optionSchema, table, quotes); err != nil {
		return err
	}

	l.logger.Info("chain snapshot stored",
		slog.String("currency", currency),
		slog.Int("rows", len(quotes)),
		slog.Int("skipped", skipped),
		slog.Float64("index_price", indexPrice),
	)
	return nil
}

// nextDailyRun returns the next occurrence of the "HH:MM" UTC wall-clock
// time strictly after now.
func nextDailyRun(runAt string, now time.Time) (time.Time, error) {
	at, err := time.Parse("15:04", runAt)
	if err != nil {
		return time.Time{}, err
	}

	next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next, nil
}
