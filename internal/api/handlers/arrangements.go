package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Conceptual-Machines/magda-harmony/internal/api/middleware"
	"github.com/Conceptual-Machines/magda-harmony/internal/logger"
	"github.com/Conceptual-Machines/magda-harmony/internal/models"
	"github.com/Conceptual-Machines/magda-harmony/internal/services"
)

type ArrangementHandler struct {
	service *services.ArrangementService
}

func NewArrangementHandler(service *services.ArrangementService) *ArrangementHandler {
	return &ArrangementHandler{service: service}
}

// Create arranges a section list. New arrangements answer 201, cache hits 200.
func (h *ArrangementHandler) Create(c *gin.Context) {
	var req models.ArrangementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	userID, _ := middleware.GetUserID(c)
	logger.Info("Arrangement requested", logger.WithContext(c).With(logger.Fields{
		"user_id": userID,
		"style":   req.Style,
		"form":    req.Form,
		"seed":    req.Seed,
	}))

	ctx, cancel := context.WithTimeout(c.Request.Context(), arrangementTimeout)
	defer cancel()

	stored, err := h.service.Create(ctx, req)
	if err != nil {
		respondError(c, "arrange", err)
		return
	}

	status := http.StatusCreated
	if stored.Cached {
		status = http.StatusOK
	}
	c.JSON(status, stored)
}

// Get returns a stored arrangement
func (h *ArrangementHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid arrangement id"})
		return
	}

	stored, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, "arrangement.get", err)
		return
	}
	c.JSON(http.StatusOK, stored)
}

// List returns the newest stored runs without their documents
func (h *ArrangementHandler) List(c *gin.Context) {
	limit := defaultRecentRuns
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), analysisTimeout)
	defer cancel()

	runs, err := h.service.Recent(ctx, limit)
	if err != nil {
		respondError(c, "arrangement.list", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"arrangements": runs, "count": len(runs)})
}
