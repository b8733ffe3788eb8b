package config

import (
	"time"

	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/infrastructure/messaging/kafka"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/intelligence/underpay"
)

const (
	DefaultEnv = "development"

	DefaultDBHost        = "localhost"
	DefaultDBPort        = 5432
	DefaultDBName        = "maxclaim"
	DefaultMigrationsDir = "migrations"

	DefaultRedisAddr      = "localhost:6379"
	DefaultCacheTTL       = 15 * time.Minute
	DefaultCacheKeyPrefix = "maxclaim:"

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaGroupID = "maxclaim-trend-updater"

	DefaultMetricsAddr      = ":9090"
	DefaultMetricsNamespace = "maxclaim"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMaxConcurrency = 8
)

// ApplyDefaults fills zero-value fields in cfg with well-known defaults.
// Fields already set by the caller are left unchanged, so explicit
// configuration always wins.  Call after unmarshalling and before Validate.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Env == "" {
		cfg.Env = DefaultEnv
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = StorageMemory
	}
	if cfg.Storage.Postgres.Host == "" {
		cfg.Storage.Postgres.Host = DefaultDBHost
	}
	if cfg.Storage.Postgres.Port == 0 {
		cfg.Storage.Postgres.Port = DefaultDBPort
	}
	if cfg.Storage.Postgres.Database == "" {
		cfg.Storage.Postgres.Database = DefaultDBName
	}
	if cfg.Storage.Postgres.SSLMode == "" {
		cfg.Storage.Postgres.SSLMode = "disable"
	}
	if cfg.Storage.Postgres.MigrationsDir == "" {
		cfg.Storage.Postgres.MigrationsDir = DefaultMigrationsDir
	}

	if cfg.Cache.Redis.Addr == "" {
		cfg.Cache.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = DefaultCacheTTL
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = DefaultCacheKeyPrefix
	}

	if len(cfg.Messaging.Consumer.Brokers) == 0 && cfg.Messaging.Enabled {
		cfg.Messaging.Consumer.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Messaging.Consumer.GroupID == "" {
		cfg.Messaging.Consumer.GroupID = DefaultKafkaGroupID
	}
	if cfg.Messaging.Consumer.Topic == "" {
		cfg.Messaging.Consumer.Topic = kafka.TopicAuditOutcomes
	}

	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = DefaultMetricsAddr
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}

	if cfg.Engine.MatchThreshold == 0 {
		cfg.Engine.MatchThreshold = underpay.DefaultMatchThreshold
	}
	if cfg.Engine.MaxConcurrency == 0 {
		cfg.Engine.MaxConcurrency = DefaultMaxConcurrency
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
	if len(cfg.Logging.OutputPaths) == 0 {
		cfg.Logging.OutputPaths = []string{"stdout"}
	}
}
