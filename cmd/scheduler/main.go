package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roomshare_backend/internal/events"
	"roomshare_backend/internal/geocode"
	"roomshare_backend/internal/metrics"
	"roomshare_backend/internal/querylog"
	"roomshare_backend/internal/scheduler"
	"roomshare_backend/internal/suggest"
	"roomshare_backend/platform/config"
	"roomshare_backend/platform/db"
	"roomshare_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	// The worker warms through the same service path the API uses, so a
	// warmed entry is indistinguishable from a user-fetched one.
	provider := newProvider(cfg, log)
	cache, closeCache := newCache(cfg, log)
	if closeCache != nil {
		defer closeCache()
	}
	suggestSvc := suggest.NewService(provider, cache, cfg.GetGeocoderLimit(), eventBus, log)

	queryRepo := querylog.NewRepository(pool)
	metricsRepo := metrics.NewRepository(pool)

	worker, err := scheduler.NewWorker(cfg, suggestSvc, queryRepo, metricsRepo, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = client.Close() }()

	dispatcher := scheduler.NewDispatcher(client, cfg.GetSuggestCacheTTL(), cfg.GetWarmTopQueries(), log)
	go dispatcher.Run(ctx)

	workerErr := make(chan error, 1)
	go func() {
		workerErr <- worker.Run()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, stopping worker")
		worker.Shutdown()
	case err := <-workerErr:
		if err != nil {
			log.Error("worker error", "error", err)
			panic("worker error: " + err.Error())
		}
	}
}

func newProvider(cfg *config.Config, log *logger.Logger) geocode.Provider {
	switch cfg.GetGeocoderProvider() {
	case "mapbox":
		return geocode.NewMapbox(cfg.GetMapboxBaseURL(), cfg.GetMapboxAccessToken(), cfg.GetGeocoderTimeout(), cfg.GetGeocoderRPS(), log)
	default:
		return geocode.NewPhoton(cfg.GetPhotonBaseURL(), cfg.GetGeocoderTimeout(), cfg.GetGeocoderRPS(), log)
	}
}

func newCache(cfg *config.Config, log *logger.Logger) (suggest.Cache, func()) {
	if cfg.GetRedisURL() == "" {
		return suggest.NewLRUCache(cfg.GetSuggestCacheSize(), cfg.GetSuggestCacheTTL()), nil
	}

	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Warn("invalid REDIS_URL, falling back to in-process LRU cache", "error", err.Error())
		return suggest.NewLRUCache(cfg.GetSuggestCacheSize(), cfg.GetSuggestCacheTTL()), nil
	}

	rdb := redis.NewClient(opt)
	return suggest.NewRedisCache(rdb, cfg.GetSuggestCacheTTL(), log), func() {
		_ = rdb.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt < attempts {
			delay := baseDelay * time.Duration(attempt)
			log.Warn("startup step failed, retrying", "step", name, "attempt", attempt, "delay", delay.String(), "error", lastErr.Error())
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return fmt.Errorf("%s: %w", name, lastErr)
}
