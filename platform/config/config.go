// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// RedisConfig provides settings for the shared Redis instance.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// GeocoderConfig provides settings for the geocoding providers.
type GeocoderConfig interface {
	GetGeocoderProvider() string
	GetMapboxBaseURL() string
	GetMapboxAccessToken() string
	GetPhotonBaseURL() string
	GetGeocoderTimeout() time.Duration
	GetGeocoderRPS() float64
	GetGeocoderLimit() int
}

// SuggestConfig provides settings for the suggestion cache.
type SuggestConfig interface {
	GetSuggestCacheSize() int
	GetSuggestCacheTTL() time.Duration
}

// SchedulerConfig provides settings for the asynq scheduler.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// WarmerConfig provides settings for the cache warmer.
type WarmerConfig interface {
	GetWarmListPath() string
	GetWarmTopQueries() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env               string
	HTTPAddr          string
	DatabaseURL       string
	RedisURL          string
	RedisTLSInsecure  bool
	JWTAccessSecret   string
	CORSAllowAll      bool
	CORSOrigins       []string
	CORSAllowCreds    bool
	GeocoderProvider  string
	MapboxBaseURL     string
	MapboxAccessToken string
	PhotonBaseURL     string
	GeocoderTimeout   time.Duration
	GeocoderRPS       float64
	GeocoderLimit     int
	SuggestCacheSize  int
	SuggestCacheTTL   time.Duration
	AsynqQueueName    string
	AsynqConcurrency  int
	WarmListPath      string
	WarmTopQueries    int
}

// Load reads configuration from the environment, with .env support for
// local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:               getEnv("APP_ENV", "development"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RedisURL:          getEnv("REDIS_URL", ""),
		RedisTLSInsecure:  strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		JWTAccessSecret:   getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:      corsAllowAll,
		CORSOrigins:       corsOrigins,
		CORSAllowCreds:    strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		GeocoderProvider:  strings.ToLower(getEnv("GEOCODER_PROVIDER", "photon")),
		MapboxBaseURL:     getEnv("MAPBOX_BASE_URL", "https://api.mapbox.com"),
		MapboxAccessToken: getEnv("MAPBOX_ACCESS_TOKEN", ""),
		PhotonBaseURL:     getEnv("PHOTON_BASE_URL", "https://photon.komoot.io"),
		GeocoderTimeout:   mustDuration(getEnv("GEOCODER_TIMEOUT", "10s")),
		GeocoderRPS:       mustFloat(getEnv("GEOCODER_RPS", "1")),
		GeocoderLimit:     mustInt(getEnv("GEOCODER_LIMIT", "5")),
		SuggestCacheSize:  mustInt(getEnv("SUGGEST_CACHE_SIZE", "512")),
		SuggestCacheTTL:   mustDuration(getEnv("SUGGEST_CACHE_TTL", "15m")),
		AsynqQueueName:    getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:  mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		WarmListPath:      getEnv("WARM_LIST_PATH", ""),
		WarmTopQueries:    mustInt(getEnv("WARM_TOP_QUERIES", "50")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.GeocoderProvider != "photon" && cfg.GeocoderProvider != "mapbox" {
		return nil, fmt.Errorf("GEOCODER_PROVIDER must be 'photon' or 'mapbox', got %q", cfg.GeocoderProvider)
	}
	if cfg.GeocoderProvider == "mapbox" && cfg.MapboxAccessToken == "" {
		return nil, fmt.Errorf("MAPBOX_ACCESS_TOKEN is required when GEOCODER_PROVIDER is 'mapbox'")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

// =============================================================================
// Interface Implementations
// =============================================================================

func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }

func (c *Config) GetGeocoderProvider() string        { return c.GeocoderProvider }
func (c *Config) GetMapboxBaseURL() string           { return c.MapboxBaseURL }
func (c *Config) GetMapboxAccessToken() string       { return c.MapboxAccessToken }
func (c *Config) GetPhotonBaseURL() string           { return c.PhotonBaseURL }
func (c *Config) GetGeocoderTimeout() time.Duration  { return c.GeocoderTimeout }
func (c *Config) GetGeocoderRPS() float64            { return c.GeocoderRPS }
func (c *Config) GetGeocoderLimit() int              { return c.GeocoderLimit }

func (c *Config) GetSuggestCacheSize() int           { return c.SuggestCacheSize }
func (c *Config) GetSuggestCacheTTL() time.Duration  { return c.SuggestCacheTTL }

func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

func (c *Config) GetWarmListPath() string { return c.WarmListPath }
func (c *Config) GetWarmTopQueries() int  { return c.WarmTopQueries }

// =============================================================================
// Helpers
// =============================================================================

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func containsWildcard(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}

func mustFloat(value string) float64 {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return f
}
