package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Conceptual-Machines/magda-harmony/internal/database"
	"github.com/Conceptual-Machines/magda-harmony/internal/services"
)

const healthCheckTimeout = 2 * time.Second

type HealthHandler struct {
	db    *gorm.DB
	cache *services.Cache
}

func NewHealthHandler(db *gorm.DB, cache *services.Cache) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

// HealthCheck reports the engine and its optional dependencies. A configured
// dependency that does not answer degrades the service.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := http.StatusOK
	overall := "healthy"

	dbStatus := "disabled"
	if h.db != nil {
		dbStatus = "connected"
		if err := database.Ping(h.db); err != nil {
			dbStatus = "unreachable"
			status = http.StatusServiceUnavailable
			overall = "degraded"
		}
	}

	cacheStatus := "disabled"
	if h.cache.Enabled() {
		cacheStatus = "connected"
		if err := h.cache.Ping(ctx); err != nil {
			cacheStatus = "unreachable"
			status = http.StatusServiceUnavailable
			overall = "degraded"
		}
	}

	c.JSON(status, gin.H{
		"status":   overall,
		"database": gin.H{"status": dbStatus},
		"cache":    gin.H{"status": cacheStatus},
	})
}
