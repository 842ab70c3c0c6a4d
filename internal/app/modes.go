package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/marketfeed/internal/feed"
	"github.com/alanyoungcy/marketfeed/internal/interval"
	"github.com/alanyoungcy/marketfeed/internal/platform/polymarket"
	"github.com/alanyoungcy/marketfeed/internal/tracker"
)

// HourlyMode launches trackers for the Bitcoin and Ethereum hourly
// up-or-down events at every top of hour.
func (a *App) HourlyMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting hourly mode")

	sched := a.buildScheduler(deps, nil)
	return sched.RunHourly(ctx)
}

// IntervalMode discovers scalar interval events on the Gamma API and runs a
// tracker per event until its expiry. When a websocket host is configured,
// a shared quote feed mirrors top-of-book updates into Redis.
func (a *App) IntervalMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting interval mode")

	g, ctx := errgroup.WithContext(ctx)

	quoteFeed := a.buildQuoteFeed(deps)
	if quoteFeed != nil {
		g.Go(func() error {
			return quoteFeed.Run(ctx)
		})
	}

	sched := a.buildScheduler(deps, quoteFeed)
	g.Go(func() error {
		return sched.RunDiscovery(ctx)
	})

	return g.Wait()
}

// KalshiMode samples the configured Kalshi event tickers until their markets
// close.
func (a *App) KalshiMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting kalshi mode")

	if deps.Kalshi == nil {
		return fmt.Errorf("app: kalshi mode requires a kalshi client")
	}
	sched := a.buildScheduler(deps, nil)
	return sched.RunKalshi(ctx)
}

// DeribitMode snapshots the Deribit option chain once per day.
func (a *App) DeribitMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting deribit mode")

	if deps.Deribit == nil {
		return fmt.Errorf("app: deribit mode requires a deribit client")
	}
	loader := tracker.NewDeribitLoader(
		deps.Deribit,
		deps.OptionStore,
		a.logger,
		a.cfg.Deribit.Currencies,
		a.cfg.Deribit.LookaheadDays,
		a.cfg.Deribit.RunAt,
	)
	return loader.Run(ctx)
}

// FullMode runs every collector: hourly launches, interval discovery, the
// Kalshi samplers, and the daily Deribit snapshot.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	quoteFeed := a.buildQuoteFeed(deps)
	if quoteFeed != nil {
		g.Go(func() error {
			return quoteFeed.Run(ctx)
		})
	}

	sched := a.buildScheduler(deps, quoteFeed)
	g.Go(func() error {
		return sched.RunHourly(ctx)
	})
	g.Go(func() error {
		return sched.RunDiscovery(ctx)
	})
	if deps.Kalshi != nil {
		g.Go(func() error {
			return sched.RunKalshi(ctx)
		})
	}
	if deps.Deribit != nil {
		loader := tracker.NewDeribitLoader(
			deps.Deribit,
			deps.OptionStore,
			a.logger,
			a.cfg.Deribit.Currencies,
			a.cfg.Deribit.LookaheadDays,
			a.cfg.Deribit.RunAt,
		)
		g.Go(func() error {
			return loader.Run(ctx)
		})
	}

	return g.Wait()
}

// buildParser constructs the interval label parser with the configured
// optional keywords.
func (a *App) buildParser() *interval.Parser {
	return interval.New(interval.Options{
		IncludeDipKeyword:  a.cfg.Parser.IncludeDipKeyword,
		IncludeUpToKeyword: a.cfg.Parser.IncludeUpToKeyword,
	})
}

// buildQuoteFeed constructs the shared websocket quote feed, or returns nil
// when no websocket host is configured or no cache is available to hold the
// quotes.
func (a *App) buildQuoteFeed(deps *Dependencies) *feed.QuoteFeed {
	if a.cfg.Polymarket.WsHost == "" || deps.QuoteCache == nil {
		return nil
	}
	ws := polymarket.NewWSClient(a.cfg.Polymarket.WsHost)
	return feed.NewQuoteFeed(ws, deps.QuoteCache, a.logger)
}

// buildScheduler assembles the tracker scheduler from the wired dependencies.
func (a *App) buildScheduler(deps *Dependencies, quoteFeed *feed.QuoteFeed) *tracker.Scheduler {
	parser := a.buildParser()
	discovery := tracker.NewDiscovery(
		deps.Gamma,
		parser,
		a.cfg.Tracker.Keywords,
		a.cfg.Tracker.MinIntervals,
		a.cfg.Tracker.PageSize,
		a.logger,
	)
	return tracker.NewScheduler(
		deps.Gamma,
		deps.Kalshi,
		deps.QuoteStore,
		parser,
		discovery,
		deps.TrackedSet,
		deps.Archiver,
		quoteFeed,
		deps.Notifier,
		a.logger,
		tracker.SchedulerConfig{
			SampleInterval:     a.cfg.Tracker.SampleInterval.Duration,
			DiscoverInterval:   a.cfg.Tracker.DiscoverInterval.Duration,
			LaunchGrace:        a.cfg.Tracker.LaunchGrace.Duration,
			KalshiEventTickers: a.cfg.Kalshi.EventTickers,
		},
	)
}
