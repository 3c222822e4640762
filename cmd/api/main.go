package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roomshare_backend/internal/events"
	"roomshare_backend/internal/geocode"
	apphttp "roomshare_backend/internal/http"
	"roomshare_backend/internal/http/router"
	"roomshare_backend/internal/metrics"
	"roomshare_backend/internal/querylog"
	"roomshare_backend/internal/suggest"
	"roomshare_backend/migrations"
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

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS, ".")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	provider := newProvider(cfg, log)
	cache, closeCache := newCache(cfg, log)
	if closeCache != nil {
		defer closeCache()
	}

	suggestSvc := suggest.NewService(provider, cache, cfg.GetGeocoderLimit(), eventBus, log)
	suggestModule := suggest.NewModule(suggestSvc)
	metricsModule := metrics.NewModule(pool, log)

	// Query popularity counters feed the cache warmer.
	querylog.NewSubscriber(querylog.NewRepository(pool)).Register(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			suggestModule,
			metricsModule,
		},
	}

	engine := router.New(app)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: engine,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// newProvider selects the geocoding provider from config.
func newProvider(cfg *config.Config, log *logger.Logger) geocode.Provider {
	switch cfg.GetGeocoderProvider() {
	case "mapbox":
		return geocode.NewMapbox(cfg.GetMapboxBaseURL(), cfg.GetMapboxAccessToken(), cfg.GetGeocoderTimeout(), cfg.GetGeocoderRPS(), log)
	default:
		return geocode.NewPhoton(cfg.GetPhotonBaseURL(), cfg.GetGeocoderTimeout(), cfg.GetGeocoderRPS(), log)
	}
}

// newCache prefers the shared Redis cache when Redis is configured and
// falls back to the in-process LRU otherwise.
func newCache(cfg *config.Config, log *logger.Logger) (suggest.Cache, func()) {
	if cfg.GetRedisURL() == "" {
		log.Info("suggestion cache: in-process LRU", "size", cfg.GetSuggestCacheSize(), "ttl", cfg.GetSuggestCacheTTL().String())
		return suggest.NewLRUCache(cfg.GetSuggestCacheSize(), cfg.GetSuggestCacheTTL()), nil
	}

	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Warn("invalid REDIS_URL, falling back to in-process LRU cache", "error", err.Error())
		return suggest.NewLRUCache(cfg.GetSuggestCacheSize(), cfg.GetSuggestCacheTTL()), nil
	}

	rdb := redis.NewClient(opt)
	log.Info("suggestion cache: redis", "ttl", cfg.GetSuggestCacheTTL().String())
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
