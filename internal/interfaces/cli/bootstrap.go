package cli

import (
	"context"

	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/application/claims"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/config"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/domain/carrier"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/infrastructure/database/memory"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/infrastructure/database/postgres"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/infrastructure/database/redis"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/infrastructure/monitoring/logging"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/intelligence/underpay"
	"github.com/holidaynate/MaxClaim-Replit-sub000/pkg/errors"
)

// BuildService assembles the claim-analysis service from configuration: the
// pattern store (seeded in-memory catalog or postgres with migrations
// applied), the optional Redis read cache, and engine tunables.  The
// returned cleanup closes whatever connections were opened; it is always
// non-nil.
func BuildService(ctx context.Context, cfg *config.Config, log logging.Logger) (claims.Service, func(), error) {
	cleanup := func() {}

	var repo carrier.PatternRepository
	switch cfg.Storage.Backend {
	case config.StorageMemory:
		seeded, err := memory.NewSeededRepository()
		if err != nil {
			return nil, cleanup, err
		}
		repo = seeded

	case config.StoragePostgres:
		conn, err := postgres.NewConnection(cfg.Storage.Postgres, log)
		if err != nil {
			return nil, cleanup, err
		}
		if err := conn.RunMigrations(cfg.Storage.Postgres.MigrationsDir); err != nil {
			conn.Close()
			return nil, cleanup, err
		}
		repo = postgres.NewPatternRepository(conn, log)
		cleanup = func() {
			if err := conn.Close(); err != nil {
				log.Warn("postgres close failed", logging.Err(err))
			}
		}

	default:
		return nil, cleanup, errors.Newf(errors.ErrCodeValidation, "unknown storage backend %q", cfg.Storage.Backend)
	}

	opts := []claims.Option{
		claims.WithAnalyzerOptions(
			underpay.WithMatchThreshold(cfg.Engine.MatchThreshold),
			underpay.WithMaxConcurrency(cfg.Engine.MaxConcurrency),
		),
	}

	if cfg.Cache.Enabled {
		client, err := redis.NewClient(cfg.Cache.Redis, log)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		cache := redis.NewCache(client, log, redis.WithPrefix(cfg.Cache.KeyPrefix), redis.WithDefaultTTL(cfg.Cache.TTL))
		opts = append(opts, claims.WithCache(cache, cfg.Cache.TTL))

		prevCleanup := cleanup
		cleanup = func() {
			if err := client.Close(); err != nil {
				log.Warn("redis close failed", logging.Err(err))
			}
			prevCleanup()
		}
	}

	svc, err := claims.NewService(repo, log, opts...)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return svc, cleanup, nil
}
