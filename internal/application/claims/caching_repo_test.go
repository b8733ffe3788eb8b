package claims

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/domain/carrier"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/infrastructure/database/memory"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/infrastructure/database/redis"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/infrastructure/monitoring/logging"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/testutil"
)

// fakeCache is a map-backed redis.Cache for exercising the decorator
// without a Redis server.
type fakeCache struct {
	entries map[string][]byte
	gets    int
	sets    int
	deletes int
	failing bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}}
}

func (f *fakeCache) Get(_ context.Context, key string, dest interface{}) error {
	f.gets++
	if f.failing {
		return assert.AnError
	}
	data, ok := f.entries[key]
	if !ok {
		return redis.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (f *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	f.sets++
	if f.failing {
		return assert.AnError
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.entries[key] = data
	return nil
}

func (f *fakeCache) Delete(_ context.Context, keys ...string) error {
	f.deletes++
	if f.failing {
		return assert.AnError
	}
	for _, k := range keys {
		delete(f.entries, k)
	}
	return nil
}

func (f *fakeCache) DeleteByPrefix(context.Context, string) (int64, error) { return 0, nil }

func (f *fakeCache) GetOrSet(context.Context, string, interface{}, time.Duration, func(context.Context) (interface{}, error)) error {
	return nil
}

func (f *fakeCache) Ping(context.Context) error { return nil }

func newCachedRepo(t *testing.T) (carrier.PatternRepository, *fakeCache) {
	t.Helper()
	inner, err := memory.NewSeededRepository()
	require.NoError(t, err)
	cache := newFakeCache()
	repo := newCachingRepository(inner, cache, time.Minute, logging.NewNopLogger(), nil)
	return repo, cache
}

func TestCachingRepositoryMissThenHit(t *testing.T) {
	repo, cache := newCachedRepo(t)
	ctx := context.Background()

	first, err := repo.GetByCarrier(ctx, "State Farm")
	require.NoError(t, err)
	require.Len(t, first, 5)
	assert.Equal(t, 1, cache.sets)

	second, err := repo.GetByCarrier(ctx, "State Farm")
	require.NoError(t, err)
	require.Len(t, second, 5)
	assert.Equal(t, 1, cache.sets, "second read should be served from cache")
	assert.Equal(t, 2, cache.gets)

	// Ordering survives the serialization round trip.
	for i := range first {
		assert.Equal(t, first[i].Key(), second[i].Key())
	}
}

func TestCachingRepositoryKeysAreCanonical(t *testing.T) {
	repo, cache := newCachedRepo(t)
	ctx := context.Background()

	_, err := repo.GetByCarrier(ctx, "  STATE farm ")
	require.NoError(t, err)
	assert.Contains(t, cache.entries, "patterns:state farm")
}

func TestCachingRepositoryInvalidatesOnObservation(t *testing.T) {
	repo, cache := newCachedRepo(t)
	ctx := context.Background()

	_, err := repo.GetByCarrier(ctx, "State Farm")
	require.NoError(t, err)
	require.Contains(t, cache.entries, "patterns:state farm")

	_, err = repo.RecordObservation(ctx, "State Farm", "Chimney cricket", -40)
	require.NoError(t, err)
	assert.NotContains(t, cache.entries, "patterns:state farm")

	refreshed, err := repo.GetByCarrier(ctx, "State Farm")
	require.NoError(t, err)
	assert.Len(t, refreshed, 6)
}

func TestCachingRepositoryInvalidatesOnUpsert(t *testing.T) {
	repo, cache := newCachedRepo(t)
	ctx := context.Background()

	_, err := repo.GetByCarrier(ctx, "USAA")
	require.NoError(t, err)
	require.Contains(t, cache.entries, "patterns:usaa")

	patterns, err := repo.GetByCarrier(ctx, "USAA")
	require.NoError(t, err)
	require.NotEmpty(t, patterns)
	require.NoError(t, repo.Upsert(ctx, patterns[0]))
	assert.NotContains(t, cache.entries, "patterns:usaa")
}

func TestCachingRepositoryDegradesOnCacheFailure(t *testing.T) {
	inner, err := memory.NewSeededRepository()
	require.NoError(t, err)
	cache := newFakeCache()
	cache.failing = true
	log := testutil.NewRecordingLogger()
	repo := newCachingRepository(inner, cache, time.Minute, log, nil)
	ctx := context.Background()

	patterns, err := repo.GetByCarrier(ctx, "State Farm")
	require.NoError(t, err)
	assert.Len(t, patterns, 5)
	assert.True(t, log.Contains("warn", "cache read failed"))
	assert.True(t, log.Contains("warn", "cache write failed"))

	// Writes still succeed when invalidation fails.
	_, err = repo.RecordObservation(ctx, "State Farm", "Drip edge", -10)
	require.NoError(t, err)
	assert.True(t, log.Contains("warn", "cache invalidation failed"))
}

func TestCachingRepositoryPassThroughs(t *testing.T) {
	repo, cache := newCachedRepo(t)
	ctx := context.Background()

	p, err := repo.GetByCarrierAndItem(ctx, "State Farm", "Drip edge")
	require.NoError(t, err)
	require.NotNil(t, p)

	names, err := repo.ListCarriers(ctx)
	require.NoError(t, err)
	assert.Len(t, names, 4)

	assert.Zero(t, cache.gets, "point lookups and listings bypass the cache")
}
