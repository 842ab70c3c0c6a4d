package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies MARKETFEED_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known MARKETFEED_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Polymarket ──
	setStr(&cfg.Polymarket.GammaHost, "MARKETFEED_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.WsHost, "MARKETFEED_POLYMARKET_WS_HOST")

	// ── Kalshi ──
	setStr(&cfg.Kalshi.ApiKey, "MARKETFEED_KALSHI_API_KEY")
	setStr(&cfg.Kalshi.RsaPrivateKeyPath, "MARKETFEED_KALSHI_RSA_PRIVATE_KEY_PATH")
	setStr(&cfg.Kalshi.BaseURL, "MARKETFEED_KALSHI_BASE_URL")
	setStringSlice(&cfg.Kalshi.EventTickers, "MARKETFEED_KALSHI_EVENT_TICKERS")

	// ── Deribit ──
	setStr(&cfg.Deribit.BaseURL, "MARKETFEED_DERIBIT_BASE_URL")
	setStringSlice(&cfg.Deribit.Currencies, "MARKETFEED_DERIBIT_CURRENCIES")
	setInt(&cfg.Deribit.LookaheadDays, "MARKETFEED_DERIBIT_LOOKAHEAD_DAYS")
	setStr(&cfg.Deribit.RunAt, "MARKETFEED_DERIBIT_RUN_AT")

	// ── Database ──
	setStr(&cfg.Database.DSN, "MARKETFEED_DATABASE_DSN")
	setStr(&cfg.Database.Host, "MARKETFEED_DATABASE_HOST")
	setInt(&cfg.Database.Port, "MARKETFEED_DATABASE_PORT")
	setStr(&cfg.Database.Database, "MARKETFEED_DATABASE_NAME")
	setStr(&cfg.Database.User, "MARKETFEED_DATABASE_USER")
	setStr(&cfg.Database.Password, "MARKETFEED_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "MARKETFEED_DATABASE_SSLMODE")
	setInt(&cfg.Database.PoolMaxConns, "MARKETFEED_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "MARKETFEED_DATABASE_POOL_MIN_CONNS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "MARKETFEED_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "MARKETFEED_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "MARKETFEED_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "MARKETFEED_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "MARKETFEED_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "MARKETFEED_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "MARKETFEED_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "MARKETFEED_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "MARKETFEED_S3_REGION")
	setStr(&cfg.S3.Bucket, "MARKETFEED_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "MARKETFEED_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "MARKETFEED_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "MARKETFEED_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "MARKETFEED_S3_FORCE_PATH_STYLE")

	// ── Tracker ──
	setDuration(&cfg.Tracker.SampleInterval, "MARKETFEED_TRACKER_SAMPLE_INTERVAL")
	setDuration(&cfg.Tracker.DiscoverInterval, "MARKETFEED_TRACKER_DISCOVER_INTERVAL")
	setInt(&cfg.Tracker.PageSize, "MARKETFEED_TRACKER_PAGE_SIZE")
	setStringSlice(&cfg.Tracker.Keywords, "MARKETFEED_TRACKER_KEYWORDS")
	setInt(&cfg.Tracker.MinIntervals, "MARKETFEED_TRACKER_MIN_INTERVALS")
	setDuration(&cfg.Tracker.LaunchGrace, "MARKETFEED_TRACKER_LAUNCH_GRACE")

	// ── Parser ──
	setBool(&cfg.Parser.IncludeDipKeyword, "MARKETFEED_PARSER_INCLUDE_DIP_KEYWORD")
	setBool(&cfg.Parser.IncludeUpToKeyword, "MARKETFEED_PARSER_INCLUDE_UPTO_KEYWORD")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "MARKETFEED_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "MARKETFEED_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "MARKETFEED_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "MARKETFEED_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "MARKETFEED_MODE")
	setStr(&cfg.LogLevel, "MARKETFEED_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
