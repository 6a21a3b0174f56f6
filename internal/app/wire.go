package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	s3blob "github.com/dfelipebr/oddsmirror/internal/blob/s3"
	"github.com/dfelipebr/oddsmirror/internal/cache/redis"
	"github.com/dfelipebr/oddsmirror/internal/config"
	"github.com/dfelipebr/oddsmirror/internal/domain"
	"github.com/dfelipebr/oddsmirror/internal/engine"
	"github.com/dfelipebr/oddsmirror/internal/mirror"
	"github.com/dfelipebr/oddsmirror/internal/platform/polymarket"
	"github.com/dfelipebr/oddsmirror/internal/store/memory"
	"github.com/dfelipebr/oddsmirror/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	// Stores
	MarketStore   domain.MarketStore
	ReserveStore  domain.ReserveStore
	SnapshotStore domain.SnapshotStore
	TradeStore    domain.TradeStore

	// Caches
	PriceCache  domain.PriceCache
	LockManager domain.LockManager
	SignalBus   domain.SignalBus
	RateLimiter domain.RateLimiter

	// Blob storage; nil when no S3 bucket is configured.
	BlobWriter domain.BlobWriter
	Archiver   domain.SnapshotArchiver

	// Upstream feed and shared engine state.
	Feed    domain.OddsFeed
	Tracker *mirror.Tracker
	Engine  *engine.Engine
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources. Dev mode swaps
// Postgres and Redis for in-process implementations.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	if strings.ToLower(cfg.Mode) == "dev" {
		logger.Info("wire: dev mode, using in-process stores and caches")
		deps.MarketStore = memory.NewMarketStore()
		deps.ReserveStore = memory.NewReserveStore()
		deps.SnapshotStore = memory.NewSnapshotStore()
		deps.TradeStore = memory.NewTradeStore()
		deps.PriceCache = memory.NewPriceCache()
		deps.LockManager = memory.NewLockManager()
		deps.SignalBus = memory.NewSignalBus()
		deps.RateLimiter = memory.NewRateLimiter()
	} else {
		// --- PostgreSQL ---
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.MarketStore = postgres.NewMarketStore(pool)
		deps.ReserveStore = postgres.NewReserveStore(pool)
		deps.SnapshotStore = postgres.NewSnapshotStore(pool)
		deps.TradeStore = postgres.NewTradeStore(pool)

		// --- Redis ---
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

		deps.PriceCache = redis.NewPriceCache(redisClient, 0)
		deps.LockManager = redis.NewLockManager(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
	}

	// --- S3 blob storage (optional) ---
	if cfg.S3.Bucket != "" {
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

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		deps.Archiver = s3blob.NewSnapshotArchive(deps.BlobWriter, deps.SnapshotStore)
	}

	// --- Feed, tracker, engine ---
	deps.Feed = polymarket.NewFeedClient(cfg.Feed.GammaHost)
	deps.Tracker = mirror.NewTracker(mirror.Config{
		SpikeThreshold: cfg.Mirror.SpikeThreshold,
		StabilizeNeed:  cfg.Mirror.StabilizeNeed,
		Failsafe:       cfg.Mirror.Failsafe.Duration,
	})
	deps.Engine = engine.New(engine.Config{
		StepSize: cfg.Engine.StepSize,
		Epsilon:  cfg.Engine.Epsilon,
	})

	return deps, cleanup, nil
}
