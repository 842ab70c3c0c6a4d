package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/marketfeed/internal/domain"
)

// trackedGrace keeps a tracked key alive a little past event expiry so a
// discovery cycle running right at expiry does not relaunch a dying tracker.
const trackedGrace = time.Hour

// fallbackTTL is used when an event has no usable expiry.
const fallbackTTL = 24 * time.Hour

// TrackedSet implements domain.TrackedSet using per-slug Redis keys with an
// expiry-derived TTL. Keys double as a cross-process claim: SETNX makes the
// first discovery cycle win.
type TrackedSet struct {
	rdb *redis.Client
}

// NewTrackedSet creates a TrackedSet backed by the given Client.
func NewTrackedSet(c *Client) *TrackedSet {
	return &TrackedSet{rdb: c.Underlying()}
}

func trackedKey(slug string) string {
	return "tracked:" + slug
}

// Add claims a slug. It returns true when this call newly claimed it, false
// when another tracker already holds it.
func (ts *TrackedSet) Add(ctx context.Context, slug string, expiry time.Time) (bool, error) {
	ttl := fallbackTTL
	if !expiry.IsZero() {
		if until := time.Until(expiry) + trackedGrace; until > 0 {
			ttl = until
		}
	}

	ok, err := ts.rdb.SetNX(ctx, trackedKey(slug), time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis: track %s: %w", slug, err)
	}
	return ok, nil
}

// Remove releases a slug so a later discovery cycle may claim it again.
func (ts *TrackedSet) Remove(ctx context.Context, slug string) error {
	if err := ts.rdb.Del(ctx, trackedKey(slug)).Err(); err != nil {
		return fmt.Errorf("redis: untrack %s: %w", slug, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.TrackedSet = (*TrackedSet)(nil)
