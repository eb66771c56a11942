package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Conceptual-Machines/magda-harmony/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/magda-harmony/internal/api/middleware"
	"github.com/Conceptual-Machines/magda-harmony/internal/config"
	"github.com/Conceptual-Machines/magda-harmony/internal/metrics"
	"github.com/Conceptual-Machines/magda-harmony/internal/services"
)

// Dependencies are the optional backends behind the router. Nil DB, Cache
// and CloudWatch disable persistence, caching and metric publishing.
type Dependencies struct {
	DB         *gorm.DB
	Cache      *services.Cache
	CloudWatch *metrics.Client
	Engine     config.Engine
}

func SetupRouter(cfg *config.Config, deps Dependencies, version string) (*gin.Engine, error) {
	composer, err := services.NewComposer(deps.Engine, metrics.NewSentryMetrics(), deps.CloudWatch)
	if err != nil {
		return nil, err
	}
	arrangements := services.NewArrangementService(composer, services.NewReportService(deps.DB), deps.Cache)

	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(deps.CloudWatch))

	// CORS middleware
	router.Use(apimiddleware.CORS())

	// Health check
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Cache)
	router.GET("/health", healthHandler.HealthCheck)

	// Metrics endpoint
	metricsHandler := handlers.NewMetricsHandler(version, deps.Engine, deps.Cache)
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	v1 := router.Group("/api/v1")
	v1.Use(apimiddleware.Auth(cfg))
	{
		harmonyHandler := handlers.NewHarmonyHandler(composer)
		v1.POST("/voicings", harmonyHandler.Voicings)
		v1.POST("/validate", harmonyHandler.Validate)
		v1.POST("/tension/measure", harmonyHandler.MeasureTension)
		v1.POST("/tension/target", harmonyHandler.TargetTension)
		v1.POST("/entropy", harmonyHandler.Entropy)
		v1.POST("/fugue/exposition", harmonyHandler.Exposition)
		v1.GET("/presets", harmonyHandler.Presets)

		arrangementHandler := handlers.NewArrangementHandler(arrangements)
		v1.POST("/arrangements", arrangementHandler.Create)
		v1.GET("/arrangements", arrangementHandler.List)
		v1.GET("/arrangements/:id", arrangementHandler.Get)
	}

	return router, nil
}
