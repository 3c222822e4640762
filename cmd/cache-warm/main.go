// Command cache-warm is a one-shot suggestion cache warmer. It reads a
// YAML warm list plus the top popular queries from Postgres and resolves
// each through the suggest service, which populates the configured cache.
// Pacing toward the geocoding provider is handled by the provider's own
// rate limiter.
package main

import (
	"context"
	"os"

	"roomshare_backend/internal/geocode"
	"roomshare_backend/internal/querylog"
	"roomshare_backend/internal/suggest"
	"roomshare_backend/platform/apperr"
	"roomshare_backend/platform/config"
	"roomshare_backend/platform/db"
	"roomshare_backend/platform/logger"
	"roomshare_backend/platform/sanitize"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

type warmList struct {
	Queries []string `yaml:"queries"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting suggestion cache warm")

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	queries, err := collectQueries(ctx, cfg, pool)
	if err != nil {
		log.Error("failed to collect warm queries", "error", err)
		panic("failed to collect warm queries: " + err.Error())
	}
	if len(queries) == 0 {
		log.Info("nothing to warm")
		return
	}

	provider := newProvider(cfg, log)
	cache, closeCache := newCache(cfg, log)
	if closeCache != nil {
		defer closeCache()
	}
	svc := suggest.NewService(provider, cache, cfg.GetGeocoderLimit(), nil, log)

	warmed := 0
	for _, query := range queries {
		results, err := svc.Suggest(ctx, query)
		if err != nil {
			if apperr.Is(err, apperr.KindTooShort) {
				log.Info("skipping short query", "query", query)
				continue
			}
			log.Error("warm query failed", "query", query, "error", err)
			continue
		}
		log.Info("query warmed", "query", query, "results", len(results))
		warmed++
	}

	log.Info("cache warm complete", "requested", len(queries), "warmed", warmed)
}

// collectQueries merges the YAML warm list with the popularity table,
// deduplicating on the normalized cache key.
func collectQueries(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) ([]string, error) {
	seen := make(map[string]struct{})
	queries := make([]string, 0, cfg.GetWarmTopQueries())

	add := func(query string) {
		key := sanitize.NormalizeKey(query)
		if key == "" {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		queries = append(queries, query)
	}

	if path := cfg.GetWarmListPath(); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var list warmList
		if err := yaml.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
		for _, query := range list.Queries {
			add(query)
		}
	}

	repo := querylog.NewRepository(pool)
	top, err := repo.TopQueries(ctx, cfg.GetWarmTopQueries())
	if err != nil {
		return nil, err
	}
	for _, query := range top {
		add(query)
	}

	return queries, nil
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
