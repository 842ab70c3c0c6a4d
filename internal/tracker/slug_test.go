package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHourlySlugs(t *testing.T) {
	// 19:05 UTC on July 25 2025 is 3:05pm EDT.
	now := time.Date(2025, 7, 25, 19, 5, 0, 0, time.UTC)
	assert.Equal(t, []string{
		"bitcoin-up-or-down-july-25-3pm-et",
		"ethereum-up-or-down-july-25-3pm-et",
	}, HourlySlugs(now))

	// 04:30 UTC on July 26 is 12:30am EDT on the 26th.
	now = time.Date(2025, 7, 26, 4, 30, 0, 0, time.UTC)
	assert.Equal(t, []string{
		"bitcoin-up-or-down-july-26-12am-et",
		"ethereum-up-or-down-july-26-12am-et",
	}, HourlySlugs(now))

	// 16:00 UTC is noon EDT.
	now = time.Date(2025, 7, 25, 16, 0, 0, 0, time.UTC)
	assert.Equal(t, "bitcoin-up-or-down-july-25-12pm-et", HourlySlugs(now)[0])
}

func TestExpiryFromHourlySlug(t *testing.T) {
	now := time.Date(2025, 7, 25, 19, 5, 0, 0, time.UTC)

	// The 3pm ET market expires at 4pm ET, which is 20:00 UTC in July.
	got := ExpiryFromHourlySlug("bitcoin-up-or-down-july-25-3pm-et", now)
	assert.Equal(t, time.Date(2025, 7, 25, 20, 0, 0, 0, time.UTC), got)

	// 12am rolls to 1am ET on the same day.
	got = ExpiryFromHourlySlug("ethereum-up-or-down-july-26-12am-et", now)
	assert.Equal(t, time.Date(2025, 7, 26, 5, 0, 0, 0, time.UTC), got)

	// A slug without the hourly tail falls back to now+1h.
	got = ExpiryFromHourlySlug("some-other-market", now)
	assert.Equal(t, now.Add(time.Hour), got)
}

func TestExpiryFromSlugDate(t *testing.T) {
	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	expiry, ok := ExpiryFromSlugDate("what-price-will-bitcoin-hit-july-25", now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 7, 25, 23, 59, 59, 0, time.UTC), expiry)

	// Abbreviated month names work too.
	expiry, ok = ExpiryFromSlugDate("eth-price-on-aug-3", now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 8, 3, 23, 59, 59, 0, time.UTC), expiry)

	// Past dates are rejected.
	_, ok = ExpiryFromSlugDate("btc-price-on-jun-1", now)
	assert.False(t, ok)

	// No date fragment at all.
	_, ok = ExpiryFromSlugDate("will-btc-flip-gold", now)
	assert.False(t, ok)
}
