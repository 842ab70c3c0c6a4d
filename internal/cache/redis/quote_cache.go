package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/marketfeed/internal/domain"
)

// quoteTTL bounds staleness: a quote nobody refreshed for this long drops out
// of the cache instead of being served.
const quoteTTL = 10 * time.Minute

// QuoteCache implements domain.QuoteCache using Redis hashes. Each asset's
// top of book is stored at key "quote:{assetID}" with fields "bid", "ask" and
// "ts" (Unix nanosecond timestamp).
type QuoteCache struct {
	rdb *redis.Client
}

// NewQuoteCache creates a QuoteCache backed by the given Client.
func NewQuoteCache(c *Client) *QuoteCache {
	return &QuoteCache{rdb: c.Underlying()}
}

func quoteKey(assetID string) string {
	return "quote:" + assetID
}

// SetQuote stores the latest top of book for an asset.
func (qc *QuoteCache) SetQuote(ctx context.Context, assetID string, bid, ask float64, ts time.Time) error {
	key := quoteKey(assetID)
	fields := map[string]interface{}{
		"bid": strconv.FormatFloat(bid, 'f', -1, 64),
		"ask": strconv.FormatFloat(ask, 'f', -1, 64),
		"ts":  strconv.FormatInt(ts.UnixNano(), 10),
	}

	pipe := qc.rdb.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, quoteTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set quote %s: %w", assetID, err)
	}
	return nil
}

// GetQuote retrieves the latest top of book for an asset. It returns
// domain.ErrNotFound when the key does not exist or has expired.
func (qc *QuoteCache) GetQuote(ctx context.Context, assetID string) (float64, float64, time.Time, error) {
	vals, err := qc.rdb.HGetAll(ctx, quoteKey(assetID)).Result()
	if err != nil {
		return 0, 0, time.Time{}, fmt.Errorf("redis: get quote %s: %w", assetID, err)
	}
	if len(vals) == 0 {
		return 0, 0, time.Time{}, domain.ErrNotFound
	}

	bid, err := strconv.ParseFloat(vals["bid"], 64)
	if err != nil {
		return 0, 0, time.Time{}, fmt.Errorf("redis: parse bid %s: %w", assetID, err)
	}
	ask, err := strconv.ParseFloat(vals["ask"], 64)
	if err != nil {
		return 0, 0, time.Time{}, fmt.Errorf("redis: parse ask %s: %w", assetID, err)
	}
	tsNano, err := strconv.ParseInt(vals["ts"], 10, 64)
	if err != nil {
		return 0, 0, time.Time{}, fmt.Errorf("redis: parse ts %s: %w", assetID, err)
	}

	return bid, ask, time.Unix(0, tsNano), nil
}

// Compile-time interface check.
var _ domain.QuoteCache = (*QuoteCache)(nil)
