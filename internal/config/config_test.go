package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultEnv, cfg.Env)
	assert.Equal(t, StorageMemory, cfg.Storage.Backend)
	assert.Equal(t, DefaultDBHost, cfg.Storage.Postgres.Host)
	assert.Equal(t, DefaultDBPort, cfg.Storage.Postgres.Port)
	assert.Equal(t, "disable", cfg.Storage.Postgres.SSLMode)
	assert.Equal(t, DefaultCacheTTL, cfg.Cache.TTL)
	assert.Equal(t, DefaultCacheKeyPrefix, cfg.Cache.KeyPrefix)
	assert.Equal(t, DefaultMetricsAddr, cfg.Metrics.Addr)
	assert.Equal(t, DefaultMetricsNamespace, cfg.Metrics.Namespace)
	assert.InDelta(t, 0.35, cfg.Engine.MatchThreshold, 1e-9)
	assert.Equal(t, DefaultMaxConcurrency, cfg.Engine.MaxConcurrency)
	assert.Equal(t, DefaultLogLevel, cfg.Logging.Level)
	assert.Equal(t, DefaultLogFormat, cfg.Logging.Format)
	assert.Equal(t, []string{"stdout"}, cfg.Logging.OutputPaths)

	// Brokers stay empty unless messaging is actually enabled.
	assert.Empty(t, cfg.Messaging.Consumer.Brokers)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Env = "production"
	cfg.Storage.Backend = StoragePostgres
	cfg.Cache.TTL = time.Minute
	cfg.Engine.MatchThreshold = 0.6
	ApplyDefaults(cfg)

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, StoragePostgres, cfg.Storage.Backend)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 0.6, cfg.Engine.MatchThreshold)
}

func TestApplyDefaultsEnabledMessagingGetsBroker(t *testing.T) {
	cfg := &Config{}
	cfg.Messaging.Enabled = true
	ApplyDefaults(cfg)

	assert.Equal(t, []string{DefaultKafkaBroker}, cfg.Messaging.Consumer.Brokers)
	assert.Equal(t, DefaultKafkaGroupID, cfg.Messaging.Consumer.GroupID)
}

func TestValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		require.NoError(t, validConfig().Validate())
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := validConfig()
		cfg.Storage.Backend = "dynamo"
		assert.ErrorContains(t, cfg.Validate(), "unknown storage backend")
	})

	t.Run("postgres requires database", func(t *testing.T) {
		cfg := validConfig()
		cfg.Storage.Backend = StoragePostgres
		cfg.Storage.Postgres.Database = ""
		assert.ErrorContains(t, cfg.Validate(), "storage.postgres.database")
	})

	t.Run("threshold out of range", func(t *testing.T) {
		cfg := validConfig()
		cfg.Engine.MatchThreshold = 1.5
		assert.ErrorContains(t, cfg.Validate(), "match_threshold")
	})

	t.Run("non-positive concurrency", func(t *testing.T) {
		cfg := validConfig()
		cfg.Engine.MaxConcurrency = 0
		assert.ErrorContains(t, cfg.Validate(), "max_concurrency")
	})

	t.Run("messaging needs brokers", func(t *testing.T) {
		cfg := validConfig()
		cfg.Messaging.Enabled = true
		cfg.Messaging.Consumer.Brokers = nil
		assert.ErrorContains(t, cfg.Validate(), "brokers")
	})

	t.Run("cache needs addr", func(t *testing.T) {
		cfg := validConfig()
		cfg.Cache.Enabled = true
		cfg.Cache.Redis.Addr = ""
		assert.ErrorContains(t, cfg.Validate(), "cache.redis.addr")
	})
}
