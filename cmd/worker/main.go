// Background worker entry point: consumes completed audit outcomes from
// Kafka and folds them into the carrier pattern store.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/application/claims"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/config"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/domain/carrier"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/infrastructure/database/memory"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/infrastructure/database/postgres"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/infrastructure/database/redis"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/infrastructure/messaging/kafka"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/infrastructure/monitoring/logging"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/infrastructure/monitoring/prometheus"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/intelligence/underpay"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: env only)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return err
	}
	if !cfg.Messaging.Enabled {
		return fmt.Errorf("messaging is disabled; the worker has nothing to consume")
	}

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}

	metrics := prometheus.NewMetrics(cfg.Metrics.Namespace)

	repo, closeRepo, err := buildRepository(cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	opts := []claims.Option{claims.WithMetrics(metrics)}
	if cfg.Cache.Enabled {
		client, err := redis.NewClient(cfg.Cache.Redis, logger)
		if err != nil {
			return err
		}
		defer client.Close()
		cache := redis.NewCache(client, logger, redis.WithPrefix(cfg.Cache.KeyPrefix), redis.WithDefaultTTL(cfg.Cache.TTL))
		opts = append(opts, claims.WithCache(cache, cfg.Cache.TTL))
	}

	svc, err := claims.NewService(repo, logger, opts...)
	if err != nil {
		return err
	}

	handler := func(ctx context.Context, outcome *underpay.AuditOutcome) error {
		_, err := svc.RecordAuditOutcome(ctx, outcome)
		return err
	}
	consumer, err := kafka.NewConsumer(cfg.Messaging.Consumer, handler, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var healthSrv *http.Server
	if cfg.Metrics.Enabled {
		healthSrv = newHealthServer(cfg.Metrics.Addr, metrics)
		go func() {
			logger.Info("metrics endpoint listening", logging.String("addr", cfg.Metrics.Addr))
			if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", logging.Err(err))
			}
		}()
	}

	if err := consumer.Start(ctx); err != nil {
		return err
	}
	logger.Info("audit outcome consumer started",
		logging.String("topic", cfg.Messaging.Consumer.Topic),
		logging.String("group", cfg.Messaging.Consumer.GroupID))

	<-ctx.Done()
	logger.Info("shutdown signal received")

	if err := consumer.Stop(); err != nil {
		logger.Warn("consumer stop failed", logging.Err(err))
	}
	if healthSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := healthSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown failed", logging.Err(err))
		}
	}
	return nil
}

func buildRepository(cfg *config.Config, logger logging.Logger) (carrier.PatternRepository, func(), error) {
	switch cfg.Storage.Backend {
	case config.StoragePostgres:
		conn, err := postgres.NewConnection(cfg.Storage.Postgres, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := conn.RunMigrations(cfg.Storage.Postgres.MigrationsDir); err != nil {
			conn.Close()
			return nil, nil, err
		}
		return postgres.NewPatternRepository(conn, logger), func() { conn.Close() }, nil
	default:
		repo, err := memory.NewSeededRepository()
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {}, nil
	}
}

func newHealthServer(addr string, metrics *prometheus.Metrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
