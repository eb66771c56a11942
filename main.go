package main

import (
	"context"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/Conceptual-Machines/magda-harmony/internal/api"
	"github.com/Conceptual-Machines/magda-harmony/internal/config"
	"github.com/Conceptual-Machines/magda-harmony/internal/database"
	"github.com/Conceptual-Machines/magda-harmony/internal/metrics"
	"github.com/Conceptual-Machines/magda-harmony/internal/services"
)

const (
	sentryFlushTimeout = 2 * time.Second
	startupTimeout     = 10 * time.Second
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

// GetVersion returns the current release version
func GetVersion() string {
	return releaseVersion
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()
	if cfg.IsJWTMode() && cfg.JWTSecret == "" {
		log.Fatal("AUTH_MODE=jwt requires JWT_SECRET")
	}

	// Initialize Sentry
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          "magda-harmony@" + releaseVersion,
			EnableTracing:    true,
			TracesSampleRate: 1.0,
			EnableLogs:       true,
			Debug:            !cfg.IsProduction(),
			BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
				// Filter out sensitive data
				if event.Request != nil {
					event.Request.Headers = filterSensitiveHeaders(event.Request.Headers)
				}
				return event
			},
		}); err != nil {
			log.Printf("Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s, release: %s)", cfg.Environment, releaseVersion)
			// Flush on shutdown
			defer sentry.Flush(sentryFlushTimeout)
		}
	} else {
		log.Println("⚠️  Sentry not configured (SENTRY_DSN not set)")
	}

	// Engine tuning and presets
	engine, err := config.LoadEngine(cfg)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to load engine configuration:", err)
	}
	log.Printf("🎼 Engine ready (%d voices, %d workers, styles: %v)",
		engine.Voicing.Voices(), engine.Voicing.Workers, engine.Styles.Names())

	// Initialize database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to connect to database:", err)
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to run migrations:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	// Arrangement cache
	cache, err := services.NewCache(ctx, cfg.RedisURL, cfg.CacheTTL)
	if err != nil {
		log.Printf("⚠️  Redis unavailable, arrangement cache disabled: %v", err)
		cache = nil
	}
	defer cache.Close()

	// CloudWatch metrics (production only)
	cloudwatch, err := metrics.NewClient(ctx, cfg.Environment)
	if err != nil {
		log.Printf("⚠️  CloudWatch metrics disabled: %v", err)
	}

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	router, err := api.SetupRouter(cfg, api.Dependencies{
		DB:         db,
		Cache:      cache,
		CloudWatch: cloudwatch,
		Engine:     engine,
	}, GetVersion())
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to build router:", err)
	}

	log.Printf("🚀 Starting server on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to start server:", err)
	}
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string)
	sensitiveKeys := map[string]bool{
		"authorization": true,
		"cookie":        true,
		"x-api-key":     true,
		"x-user-id":     true,
	}

	for k, v := range headers {
		if sensitiveKeys[k] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}
