package config

import (
	"os"
	"strconv"
	"time"
)

const defaultCacheTTLSeconds = 3600

// Config holds the application configuration.
// The engine itself is stateless; the database and cache are optional and
// the service degrades to compute-only when they are not configured.
type Config struct {
	// Environment
	Environment string
	Port        string

	// Observability
	SentryDSN string // Sentry DSN for error tracking

	// Persistence (optional)
	DatabaseURL string        // Postgres DSN for arrangement runs
	RedisURL    string        // Redis address for the result cache
	CacheTTL    time.Duration // Lifetime of cached arrangements

	// Engine
	EngineWorkers     int    // Bounded parallelism for scoring and section generation
	EnginePresetsFile string // YAML overriding the embedded presets

	// Auth mode
	// - "none": No auth (self-hosted, local dev)
	// - "gateway": Trust X-User-* headers from magda-cloud
	// - "jwt": Validate HMAC bearer tokens signed with JWTSecret
	AuthMode  string
	JWTSecret string
}

func Load() *Config {
	return &Config{
		Environment:       getEnv("ENVIRONMENT", "development"),
		Port:              getEnv("PORT", "8080"),
		SentryDSN:         getEnv("SENTRY_DSN", ""),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RedisURL:          getEnv("REDIS_URL", ""),
		CacheTTL:          time.Duration(getEnvInt("CACHE_TTL_SECONDS", defaultCacheTTLSeconds)) * time.Second,
		EngineWorkers:     getEnvInt("ENGINE_WORKERS", 0),
		EnginePresetsFile: getEnv("ENGINE_PRESETS_FILE", ""),
		AuthMode:          getEnv("AUTH_MODE", "none"), // Default to no auth for self-hosted
		JWTSecret:         getEnv("JWT_SECRET", ""),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// IsGatewayMode returns true if running behind the Express gateway
func (c *Config) IsGatewayMode() bool {
	return c.AuthMode == "gateway"
}

// IsJWTMode returns true when bearer tokens are required
func (c *Config) IsJWTMode() bool {
	return c.AuthMode == "jwt"
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
