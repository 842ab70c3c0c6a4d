package tracker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/marketfeed/internal/domain"
	"github.com/alanyoungcy/marketfeed/internal/feed"
	"github.com/alanyoungcy/marketfeed/internal/interval"
	"github.com/alanyoungcy/marketfeed/internal/notify"
	"github.com/alanyoungcy/marketfeed/internal/platform/kalshi"
	"github.com/alanyoungcy/marketfeed/internal/platform/polymarket"
)

// Schemas, one per collector family.
const (
	hourlySchema   = "hourly_crypto"
	intervalSchema = "polymarket_interval"
	kalshiSchema   = "kalshi"
)

// launchMargin pads the sleep to the next top of hour so the wakeup lands
// just after the boundary, never just before it.
const launchMargin = 5 * time.Second

// SchedulerConfig holds the orchestration knobs.
type SchedulerConfig struct {
	SampleInterval   time.Duration
	DiscoverInterval time.Duration
	// LaunchGrace is how far past the top of the hour the hourly launcher
	// still starts trackers; later wakeups wait for the next hour.
	LaunchGrace time.Duration
	// KalshiEventTickers lists the event series the kalshi loop samples.
	KalshiEventTickers []string
}

// Scheduler launches and supervises trackers: hourly up-or-down events on
// the hour, discovered interval events per discovery cycle, Kalshi event
// tickers at startup. The tracked set deduplicates launches across cycles
// and across processes.
type Scheduler struct {
	gamma     *polymarket.GammaClient
	kalshi    *kalshi.Client
	store     domain.QuoteStore
	parser    *interval.Parser
	discovery *Discovery
	tracked   domain.TrackedSet
	archiver  domain.Archiver  // optional
	quoteFeed *feed.QuoteFeed  // optional
	notifier  *notify.Notifier // optional
	logger    *slog.Logger
	cfg       SchedulerConfig
}

// NewScheduler creates a Scheduler. archiver, quoteFeed and notifier may be
// nil to disable archival, the real-time feed and notifications.
func NewScheduler(
	gamma *polymarket.GammaClient,
	kalshiClient *kalshi.Client,
	store domain.QuoteStore,
	parser *interval.Parser,
	discovery *Discovery,
	tracked domain.TrackedSet,
	archiver domain.Archiver,
	quoteFeed *feed.QuoteFeed,
	notifier *notify.Notifier,
	logger *slog.Logger,
	cfg SchedulerConfig,
) *Scheduler {
	return &Scheduler{
		gamma:     gamma,
		kalshi:    kalshiClient,
		store:     store,
		parser:    parser,
		discovery: discovery,
		tracked:   tracked,
		archiver:  archiver,
		quoteFeed: quoteFeed,
		notifier:  notifier,
		logger:    logger.With(slog.String("component", "scheduler")),
		cfg:       cfg,
	}
}

// RunHourly launches trackers for the current hour's up-or-down events at
// every top of hour, blocking until the context is cancelled and all
// trackers have drained.
func (s *Scheduler) RunHourly(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.hourlyLoop(ctx, g) })
	return g.Wait()
}

func (s *Scheduler) hourlyLoop(ctx context.Context, g *errgroup.Group) error {
	for {
		now := time.Now().UTC()
		sinceTop := now.Sub(now.Truncate(time.Hour))

		if sinceTop <= s.cfg.LaunchGrace {
			for _, slug := range HourlySlugs(now) {
				s.launchHourly(ctx, g, slug, now)
			}
		} else {
			s.logger.Info("woke up past launch grace, waiting for the next hour",
				slog.Duration("since_top", sinceTop))
		}

		next := now.Truncate(time.Hour).Add(time.Hour + launchMargin)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(next)):
		}
	}
}

// launchHourly resolves the event's expiry (from the API, else from the slug
// itself, so a launch never waits on a sluggish listing) and starts a
// tracker unless the slug is already claimed.
func (s *Scheduler) launchHourly(ctx context.Context, g *errgroup.Group, slug string, now time.Time) {
	expiry := ExpiryFromHourlySlug(slug, now)
	if ev, err := s.gamma.GetEventBySlug(ctx, slug); err == nil {
		if e := ev.Expiry(); !e.IsZero() {
			expiry = e
		}
	}

	s.launch(ctx, g, TrackerParams{
		Slug:           slug,
		Schema:         hourlySchema,
		Expiry:         expiry,
		SampleInterval: s.cfg.SampleInterval,
	}, nil)
}

// RunDiscovery runs a discovery cycle immediately and then on every
// DiscoverInterval tick, launching a tracker for each new candidate.
func (s *Scheduler) RunDiscovery(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.discoveryLoop(ctx, g) })
	return g.Wait()
}

func (s *Scheduler) discoveryLoop(ctx context.Context, g *errgroup.Group) error {
	for {
		candidates, err := s.discovery.Discover(ctx)
		if err != nil {
			s.logger.Error("discovery failed", slog.String("error", err.Error()))
		}
		for _, c := range candidates {
			s.launch(ctx, g, TrackerParams{
				Slug:            c.Slug,
				Schema:          intervalSchema,
				Expiry:          c.Expiry,
				SampleInterval:  s.cfg.SampleInterval,
				RequireInterval: true,
			}, c.AssetIDs)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.DiscoverInterval):
		}
	}
}

// RunKalshi starts one tracker per configured Kalshi event ticker and waits
// for them to finish.
func (s *Scheduler) RunKalshi(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, ticker := range s.cfg.KalshiEventTickers {
		t := NewKalshiTracker(s.kalshi, s.store, s.notifier, s.logger, ticker, kalshiSchema, s.cfg.SampleInterval)
		g.Go(func() error {
			if err := t.Run(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("kalshi tracker failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}
	return g.Wait()
}

// launch claims the slug in the tracked set and starts an EventTracker
// goroutine. Tracker failures are reported, not propagated: one broken event
// must not cancel its siblings.
func (s *Scheduler) launch(ctx context.Context, g *errgroup.Group, p TrackerParams, assetIDs []string) {
	added, err := s.tracked.Add(ctx, p.Slug, p.Expiry)
	if err != nil {
		s.logger.Error("tracked set add failed",
			slog.String("slug", p.Slug), slog.String("error", err.Error()))
		return
	}
	if !added {
		s.logger.Debug("already tracked", slog.String("slug", p.Slug))
		return
	}

	if s.quoteFeed != nil && len(assetIDs) > 0 {
		if err := s.quoteFeed.Track(ctx, assetIDs); err != nil {
			s.logger.Warn("feed subscribe failed",
				slog.String("slug", p.Slug), slog.String("error", err.Error()))
		}
	}

	runID := uuid.NewString()
	logger := s.logger.With(slog.String("run_id", runID))
	logger.Info("launching tracker",
		slog.String("slug", p.Slug),
		slog.String("schema", p.Schema),
		slog.Time("expiry", p.Expiry),
	)

	t := NewEventTracker(s.gamma, s.store, s.parser, s.archiver, s.notifier, logger, p)
	g.Go(func() error {
		defer func() {
			if err := s.tracked.Remove(context.WithoutCancel(ctx), p.Slug); err != nil {
				logger.Warn("tracked set remove failed", slog.String("error", err.Error()))
			}
		}()

		if err := t.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("tracker failed", slog.String("error", err.Error()))
			if s.notifier != nil {
				_ = s.notifier.Notify(ctx, notify.EventError, "Tracker failed", p.Slug+": "+err.Error())
			}
		}
		return nil
	})
}
