// Package feed streams real-time top-of-book quotes from the Polymarket
// websocket into the quote cache.
package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/alanyoungcy/marketfeed/internal/domain"
	"github.com/alanyoungcy/marketfeed/internal/platform/polymarket"
)

// cacheWriteTimeout bounds each cache write so a stalled Redis connection
// cannot back up the websocket read loop.
const cacheWriteTimeout = 2 * time.Second

// QuoteFeed subscribes to book snapshots for tracked assets and mirrors the
// best bid/ask into the quote cache. The database samplers stay on their own
// polling cadence; the cache exists for consumers that want fresher quotes
// between samples.
type QuoteFeed struct {
	ws     *polymarket.WSClient
	cache  domain.QuoteCache
	logger *slog.Logger
}

// NewQuoteFeed creates a QuoteFeed.
func NewQuoteFeed(ws *polymarket.WSClient, cache domain.QuoteCache, logger *slog.Logger) *QuoteFeed {
	return &QuoteFeed{
		ws:     ws,
		cache:  cache,
		logger: logger.With(slog.String("component", "quote_feed")),
	}
}

// Run connects the websocket, registers the cache handler and blocks until
// the context is cancelled.
func (f *QuoteFeed) Run(ctx context.Context) error {
	f.ws.OnTopOfBook(f.handleTop)

	if err := f.ws.Connect(ctx); err != nil {
		return err
	}
	f.logger.Info("quote feed started")
	defer f.logger.Info("quote feed stopped")

	<-ctx.Done()
	_ = f.ws.Close()
	return ctx.Err()
}

// Track subscribes the book channel for additional asset ids, typically the
// clob token ids of a newly launched event.
func (f *QuoteFeed) Track(ctx context.Context, assetIDs []string) error {
	if len(assetIDs) == 0 {
		return nil
	}
	if err := f.ws.Subscribe(ctx, assetIDs); err != nil {
		return err
	}
	f.logger.Info("tracking assets", slog.Int("count", len(assetIDs)))
	return nil
}

func (f *QuoteFeed) handleTop(top polymarket.TopOfBook) {
	if top.AssetID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
	defer cancel()

	if err := f.cache.SetQuote(ctx, top.AssetID, top.BestBid, top.BestAsk, top.TS); err != nil {
		f.logger.Debug("cache quote failed",
			slog.String("asset_id", top.AssetID),
			slog.String("error", err.Error()),
		)
	}
}
