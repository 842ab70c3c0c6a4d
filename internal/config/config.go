// Package config defines the top-level configuration for the marketfeed
// collectors and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by MARKETFEED_* environment variables.
type Config struct {
	Polymarket PolymarketConfig `toml:"polymarket"`
	Kalshi     KalshiConfig     `toml:"kalshi"`
	Deribit    DeribitConfig    `toml:"deribit"`
	Database   DatabaseConfig   `toml:"database"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
	Tracker    TrackerConfig    `toml:"tracker"`
	Parser     ParserConfig     `toml:"parser"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// PolymarketConfig holds Polymarket API endpoints.
type PolymarketConfig struct {
	GammaHost string `toml:"gamma_host"`
	WsHost    string `toml:"ws_host"`
}

// KalshiConfig holds Kalshi exchange API parameters. EventTickers lists the
// event series whose markets the kalshi mode samples.
type KalshiConfig struct {
	ApiKey            string   `toml:"api_key"`
	RsaPrivateKeyPath string   `toml:"rsa_private_key_path"`
	BaseURL           string   `toml:"base_url"`
	EventTickers      []string `toml:"event_tickers"`
}

// DeribitConfig holds parameters for the daily option-chain snapshot.
type DeribitConfig struct {
	BaseURL       string   `toml:"base_url"`
	Currencies    []string `toml:"currencies"`
	LookaheadDays int      `toml:"lookahead_days"`
	// RunAt is the daily snapshot time as "HH:MM" in UTC.
	RunAt string `toml:"run_at"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	DSN          string `toml:"dsn"`
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	Database     string `toml:"database"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	SSLMode      string `toml:"ssl_mode"`
	PoolMaxConns int    `toml:"pool_max_conns"`
	PoolMinConns int    `toml:"pool_min_conns"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for row archival.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// TrackerConfig holds sampling and discovery parameters.
type TrackerConfig struct {
	SampleInterval   duration `toml:"sample_interval"`
	DiscoverInterval duration `toml:"discover_interval"`
	PageSize         int      `toml:"page_size"`
	// Keywords filter discovered event titles (case-insensitive substring).
	Keywords []string `toml:"keywords"`
	// MinIntervals is the minimum number of distinct parsed intervals an
	// event's markets must produce to be considered a scalar event.
	MinIntervals int `toml:"min_intervals"`
	// LaunchGrace is how far past the top of the hour the hourly launcher
	// still starts trackers; later wakeups skip to the next hour.
	LaunchGrace duration `toml:"launch_grace"`
}

// ParserConfig selects the optional interval-parser keywords.
type ParserConfig struct {
	IncludeDipKeyword  bool `toml:"include_dip_keyword"`
	IncludeUpToKeyword bool `toml:"include_upto_keyword"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			GammaHost: "https://gamma-api.polymarket.com",
			WsHost:    "wss://ws-subscriptions-clob.polymarket.com/ws/market",
		},
		Kalshi: KalshiConfig{
			BaseURL: "https://api.elections.kalshi.com/trade-api/v2",
		},
		Deribit: DeribitConfig{
			BaseURL:       "https://www.deribit.com/api/v2",
			Currencies:    []string{"BTC", "ETH"},
			LookaheadDays: 183,
			RunAt:         "00:10",
		},
		Database: DatabaseConfig{
			Host:         "localhost",
			Port:         5432,
			Database:     "marketfeed",
			User:         "postgres",
			SSLMode:      "disable",
			PoolMaxConns: 10,
			PoolMinConns: 2,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "marketfeed-archive",
			ForcePathStyle: true,
		},
		Tracker: TrackerConfig{
			SampleInterval:   duration{60 * time.Second},
			DiscoverInterval: duration{24 * time.Hour},
			PageSize:         200,
			Keywords:         []string{"btc", "bitcoin", "eth", "ethereum"},
			MinIntervals:     3,
			LaunchGrace:      duration{5 * time.Minute},
		},
		Parser: ParserConfig{},
		Notify: NotifyConfig{
			Events: []string{"tracker_started", "tracker_stopped", "insert_error", "error"},
		},
		Mode:     "interval",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"hourly":   true,
	"interval": true,
	"kalshi":   true,
	"deribit":  true,
	"full":     true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: hourly, interval, kalshi, deribit, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	}

	if c.Mode == "kalshi" || c.Mode == "full" {
		if c.Kalshi.BaseURL == "" {
			errs = append(errs, "kalshi: base_url must not be empty")
		}
		if len(c.Kalshi.EventTickers) == 0 {
			errs = append(errs, "kalshi: event_tickers must not be empty for mode "+c.Mode)
		}
	}

	if c.Mode == "deribit" || c.Mode == "full" {
		if c.Deribit.BaseURL == "" {
			errs = append(errs, "deribit: base_url must not be empty")
		}
		if len(c.Deribit.Currencies) == 0 {
			errs = append(errs, "deribit: currencies must not be empty")
		}
		if c.Deribit.LookaheadDays <= 0 {
			errs = append(errs, "deribit: lookahead_days must be > 0")
		}
		if _, err := time.Parse("15:04", c.Deribit.RunAt); err != nil {
			errs = append(errs, fmt.Sprintf("deribit: run_at %q must be HH:MM", c.Deribit.RunAt))
		}
	}

	if strings.TrimSpace(c.Database.DSN) == "" {
		if c.Database.Host == "" {
			errs = append(errs, "database: host must not be empty (or set database.dsn)")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database: port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.Database == "" {
			errs = append(errs, "database: database must not be empty")
		}
	}
	if c.Database.PoolMaxConns < 1 {
		errs = append(errs, "database: pool_max_conns must be >= 1")
	}
	if c.Database.PoolMinConns < 0 {
		errs = append(errs, "database: pool_min_conns must be >= 0")
	}
	if c.Database.PoolMinConns > c.Database.PoolMaxConns {
		errs = append(errs, "database: pool_min_conns must not exceed pool_max_conns")
	}

	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty when enabled")
		}
	}

	if c.Tracker.SampleInterval.Duration < time.Second {
		errs = append(errs, "tracker: sample_interval must be >= 1s")
	}
	if c.Tracker.DiscoverInterval.Duration < time.Minute {
		errs = append(errs, "tracker: discover_interval must be >= 1m")
	}
	if c.Tracker.PageSize < 1 {
		errs = append(errs, "tracker: page_size must be >= 1")
	}
	if c.Tracker.MinIntervals < 1 {
		errs = append(errs, "tracker: min_intervals must be >= 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
