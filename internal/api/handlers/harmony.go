package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/magda-harmony/internal/models"
	"github.com/Conceptual-Machines/magda-harmony/internal/services"
)

// HarmonyHandler serves the stateless engine operations
type HarmonyHandler struct {
	composer *services.Composer
}

func NewHarmonyHandler(composer *services.Composer) *HarmonyHandler {
	return &HarmonyHandler{composer: composer}
}

// Voicings voices a chord progression and validates the result
func (h *HarmonyHandler) Voicings(c *gin.Context) {
	var req models.VoicingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), analysisTimeout)
	defer cancel()

	result, err := h.composer.Voice(ctx, req)
	if err != nil {
		respondError(c, "voice", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Validate runs counterpoint, tension and entropy analysis over a passage
func (h *HarmonyHandler) Validate(c *gin.Context) {
	var req models.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), analysisTimeout)
	defer cancel()

	report, err := h.composer.Validate(ctx, req)
	if err != nil {
		respondError(c, "validate", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"report":     report,
		"has_errors": report.Counterpoint.HasErrors(),
		"by_kind":    report.Counterpoint.ByKind(),
	})
}

// Exposition builds a fugue exposition on a subject and grades it
func (h *HarmonyHandler) Exposition(c *gin.Context) {
	var req models.ExpositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), analysisTimeout)
	defer cancel()

	result, err := h.composer.Exposition(ctx, req)
	if err != nil {
		respondError(c, "exposition", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *HarmonyHandler) MeasureTension(c *gin.Context) {
	var req models.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), analysisTimeout)
	defer cancel()

	result, err := h.composer.Measure(ctx, req)
	if err != nil {
		respondError(c, "tension.measure", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *HarmonyHandler) TargetTension(c *gin.Context) {
	var req models.FormSpec
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.composer.Target(c.Request.Context(), req)
	if err != nil {
		respondError(c, "tension.target", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *HarmonyHandler) Entropy(c *gin.Context) {
	var req models.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), analysisTimeout)
	defer cancel()

	result, err := h.composer.Entropy(ctx, req)
	if err != nil {
		respondError(c, "entropy", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Presets lists styles, forms, scale templates and the voice palette
func (h *HarmonyHandler) Presets(c *gin.Context) {
	c.JSON(http.StatusOK, h.composer.Presets())
}
