package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
}

func TestValidateModes(t *testing.T) {
	cfg := Defaults()

	cfg.Mode = "hourly"
	assert.NoError(t, cfg.Validate())

	cfg.Mode = "deribit"
	assert.NoError(t, cfg.Validate())

	cfg.Mode = "kalshi"
	err := cfg.Validate()
	require.Error(t, err, "kalshi mode without event tickers must fail")
	assert.Contains(t, err.Error(), "event_tickers")

	cfg.Kalshi.EventTickers = []string{"KXBTC"}
	assert.NoError(t, cfg.Validate())

	cfg.Mode = "trade"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "bogus"
	cfg.LogLevel = "loud"
	cfg.Redis.Addr = ""
	cfg.Tracker.MinIntervals = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
	assert.Contains(t, err.Error(), "unknown log_level")
	assert.Contains(t, err.Error(), "redis: addr")
	assert.Contains(t, err.Error(), "min_intervals")
}

func TestValidateDeribitRunAt(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "deribit"
	cfg.Deribit.RunAt = "25:99"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run_at")
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
mode = "hourly"
log_level = "debug"

[tracker]
sample_interval = "30s"
keywords = ["btc"]

[parser]
include_dip_keyword = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "hourly", cfg.Mode)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.Tracker.SampleInterval.Duration)
	assert.Equal(t, []string{"btc"}, cfg.Tracker.Keywords)
	assert.True(t, cfg.Parser.IncludeDipKeyword)
	assert.False(t, cfg.Parser.IncludeUpToKeyword)

	// Untouched sections keep their defaults.
	assert.Equal(t, "https://gamma-api.polymarket.com", cfg.Polymarket.GammaHost)
	assert.Equal(t, 3, cfg.Tracker.MinIntervals)
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("mode = \"interval\"\n"), 0o600))

	t.Setenv("MARKETFEED_DATABASE_PASSWORD", "s3cret")
	t.Setenv("MARKETFEED_TRACKER_SAMPLE_INTERVAL", "15s")
	t.Setenv("MARKETFEED_KALSHI_EVENT_TICKERS", "KXBTC, KXETH")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, 15*time.Second, cfg.Tracker.SampleInterval.Duration)
	assert.Equal(t, []string{"KXBTC", "KXETH"}, cfg.Kalshi.EventTickers)
}
