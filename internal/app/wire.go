package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	s3blob "github.com/alanyoungcy/marketfeed/internal/blob/s3"
	"github.com/alanyoungcy/marketfeed/internal/cache/redis"
	"github.com/alanyoungcy/marketfeed/internal/config"
	"github.com/alanyoungcy/marketfeed/internal/domain"
	"github.com/alanyoungcy/marketfeed/internal/notify"
	"github.com/alanyoungcy/marketfeed/internal/platform/deribit"
	"github.com/alanyoungcy/marketfeed/internal/platform/kalshi"
	"github.com/alanyoungcy/marketfeed/internal/platform/polymarket"
	"github.com/alanyoungcy/marketfeed/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application modes
// need to operate. It is constructed by Wire and torn down by the returned
// cleanup function.
type Dependencies struct {
	// Stores
	QuoteStore  domain.QuoteStore
	OptionStore domain.OptionStore

	// Caches
	TrackedSet domain.TrackedSet
	QuoteCache domain.QuoteCache

	// Blob storage
	BlobWriter domain.BlobWriter
	Archiver   domain.Archiver

	// Platform clients
	Gamma   *polymarket.GammaClient
	Kalshi  *kalshi.Client
	Deribit *deribit.Client

	// Notifications
	Notifier *notify.Notifier
}

// needsRedis returns true for modes that launch Polymarket trackers and
// therefore need the tracked set and quote cache.
func needsRedis(mode string) bool {
	switch mode {
	case "hourly", "interval", "full":
		return true
	default:
		return false
	}
}

// needsKalshi returns true for modes that sample Kalshi markets.
func needsKalshi(mode string) bool {
	return mode == "kalshi" || mode == "full"
}

// needsDeribit returns true for modes that snapshot the Deribit option chain.
func needsDeribit(mode string) bool {
	return mode == "deribit" || mode == "full"
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL (every mode persists rows) ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Database.DSN,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Database,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		SSLMode:  cfg.Database.SSLMode,
		MaxConns: cfg.Database.PoolMaxConns,
		MinConns: cfg.Database.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	pool := pgClient.Pool()
	quoteStore := postgres.NewQuoteStore(pool)
	deps.QuoteStore = quoteStore
	deps.OptionStore = postgres.NewOptionStore(pool)

	// --- Redis (only for modes that run Polymarket trackers) ---
	if needsRedis(cfg.Mode) {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.TrackedSet = redis.NewTrackedSet(redisClient)
		deps.QuoteCache = redis.NewQuoteCache(redisClient)
	}

	// --- S3 blob storage (archival is opt-in) ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		writer := s3blob.NewWriter(s3Client)
		deps.BlobWriter = writer
		deps.Archiver = s3blob.NewArchiver(writer, quoteStore)
	}

	// --- Platform clients ---
	deps.Gamma = polymarket.NewGammaClient(cfg.Polymarket.GammaHost)

	if needsKalshi(cfg.Mode) {
		kalshiClient := kalshi.NewClient(cfg.Kalshi.BaseURL, cfg.Kalshi.ApiKey)
		if cfg.Kalshi.RsaPrivateKeyPath != "" {
			pemBytes, err := os.ReadFile(cfg.Kalshi.RsaPrivateKeyPath)
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: kalshi key: %w", err)
			}
			if err := kalshiClient.SetRSAPrivateKey(pemBytes); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: kalshi key: %w", err)
			}
		}
		deps.Kalshi = kalshiClient
	}

	if needsDeribit(cfg.Mode) {
		deps.Deribit = deribit.NewClient(cfg.Deribit.BaseURL)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
