// Package config defines all configuration structures for the MaxClaim
// carrier-intelligence engine.  No I/O or parsing logic lives here, only
// plain data types and validation.
package config

import (
	"fmt"
	"time"

	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/infrastructure/database/postgres"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/infrastructure/database/redis"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/infrastructure/messaging/kafka"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/infrastructure/monitoring/logging"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// StorageConfig selects and configures the pattern store.
type StorageConfig struct {
	// Backend is "memory" (built-in catalog) or "postgres".
	Backend  string          `mapstructure:"backend"`
	Postgres postgres.Config `mapstructure:"postgres"`
}

// CacheConfig configures the optional Redis read cache.
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Redis     redis.Config  `mapstructure:"redis"`
	TTL       time.Duration `mapstructure:"ttl"`
	KeyPrefix string        `mapstructure:"key_prefix"`
}

// MessagingConfig configures the audit-outcome consumer.
type MessagingConfig struct {
	Enabled  bool                 `mapstructure:"enabled"`
	Consumer kafka.ConsumerConfig `mapstructure:"consumer"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Addr      string `mapstructure:"addr"`
	Namespace string `mapstructure:"namespace"`
}

// EngineConfig holds analysis tunables.
type EngineConfig struct {
	MatchThreshold float64 `mapstructure:"match_threshold"`
	MaxConcurrency int     `mapstructure:"max_concurrency"`
}

// Config is the root configuration.
type Config struct {
	Env       string          `mapstructure:"env"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Messaging MessagingConfig `mapstructure:"messaging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Logging   logging.Config  `mapstructure:"logging"`
}

// Validate checks cross-field consistency after defaults are applied.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StorageMemory:
	case StoragePostgres:
		if c.Storage.Postgres.Host == "" {
			return fmt.Errorf("storage.postgres.host is required for the postgres backend")
		}
		if c.Storage.Postgres.Database == "" {
			return fmt.Errorf("storage.postgres.database is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if c.Engine.MatchThreshold <= 0 || c.Engine.MatchThreshold > 1 {
		return fmt.Errorf("engine.match_threshold %.3f outside (0,1]", c.Engine.MatchThreshold)
	}
	if c.Engine.MaxConcurrency <= 0 {
		return fmt.Errorf("engine.max_concurrency must be positive")
	}

	if c.Messaging.Enabled && len(c.Messaging.Consumer.Brokers) == 0 {
		return fmt.Errorf("messaging.consumer.brokers is required when messaging is enabled")
	}
	if c.Cache.Enabled && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr is required when the cache is enabled")
	}
	return nil
}
