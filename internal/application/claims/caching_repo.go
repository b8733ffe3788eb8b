package claims

import (
	"context"
	"time"

	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/domain/carrier"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/infrastructure/database/redis"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/infrastructure/monitoring/logging"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/infrastructure/monitoring/prometheus"
)

const patternKeyPrefix = "patterns:"

// cachingRepository is a cache-aside decorator over a PatternRepository.
// Only GetByCarrier is cached: it is the hot read feeding every analysis,
// and caching whole per-carrier sets keeps invalidation to a single key per
// write.  Point lookups and listings go straight through.  Cache failures
// degrade to repository reads, never to request failures.
type cachingRepository struct {
	inner   carrier.PatternRepository
	cache   redis.Cache
	ttl     time.Duration
	log     logging.Logger
	metrics *prometheus.Metrics
}

func newCachingRepository(inner carrier.PatternRepository, cache redis.Cache, ttl time.Duration, log logging.Logger, metrics *prometheus.Metrics) carrier.PatternRepository {
	return &cachingRepository{
		inner:   inner,
		cache:   cache,
		ttl:     ttl,
		log:     log,
		metrics: metrics,
	}
}

func carrierCacheKey(carrierName string) string {
	return patternKeyPrefix + carrier.CanonicalName(carrierName)
}

func (r *cachingRepository) GetByCarrier(ctx context.Context, carrierName string) ([]*carrier.CarrierPattern, error) {
	key := carrierCacheKey(carrierName)

	var cached []*carrier.CarrierPattern
	err := r.cache.Get(ctx, key, &cached)
	if err == nil {
		r.countCache(true)
		return cached, nil
	}
	if err != redis.ErrCacheMiss {
		r.log.Warn("pattern cache read failed", logging.String("key", key), logging.Err(err))
	}
	r.countCache(false)

	patterns, err := r.inner.GetByCarrier(ctx, carrierName)
	if err != nil {
		return nil, err
	}
	if setErr := r.cache.Set(ctx, key, patterns, r.ttl); setErr != nil {
		r.log.Warn("pattern cache write failed", logging.String("key", key), logging.Err(setErr))
	}
	return patterns, nil
}

func (r *cachingRepository) GetByCarrierAndItem(ctx context.Context, carrierName, lineItemDescription string) (*carrier.CarrierPattern, error) {
	return r.inner.GetByCarrierAndItem(ctx, carrierName, lineItemDescription)
}

func (r *cachingRepository) Upsert(ctx context.Context, pattern *carrier.CarrierPattern) error {
	if err := r.inner.Upsert(ctx, pattern); err != nil {
		return err
	}
	r.invalidate(ctx, pattern.CarrierName)
	return nil
}

func (r *cachingRepository) RecordObservation(ctx context.Context, carrierName, lineItemDescription string, variance float64) (*carrier.CarrierPattern, error) {
	updated, err := r.inner.RecordObservation(ctx, carrierName, lineItemDescription, variance)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, carrierName)
	return updated, nil
}

func (r *cachingRepository) ListCarriers(ctx context.Context) ([]string, error) {
	return r.inner.ListCarriers(ctx)
}

func (r *cachingRepository) invalidate(ctx context.Context, carrierName string) {
	key := carrierCacheKey(carrierName)
	if err := r.cache.Delete(ctx, key); err != nil {
		r.log.Warn("pattern cache invalidation failed", logging.String("key", key), logging.Err(err))
	}
}

func (r *cachingRepository) countCache(hit bool) {
	if r.metrics == nil {
		return
	}
	if hit {
		r.metrics.CacheHitsTotal.Inc()
		return
	}
	r.metrics.CacheMissesTotal.Inc()
}
