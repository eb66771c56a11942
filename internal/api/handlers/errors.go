package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/magda-harmony/internal/logger"
	"github.com/Conceptual-Machines/magda-harmony/internal/melody"
	"github.com/Conceptual-Machines/magda-harmony/internal/orchestrator"
	"github.com/Conceptual-Machines/magda-harmony/internal/services"
	"github.com/Conceptual-Machines/magda-harmony/internal/style"
	"github.com/Conceptual-Machines/magda-harmony/internal/tension"
	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
	"github.com/Conceptual-Machines/magda-harmony/internal/voicing"
)

// inputErrors are caller mistakes, answered with 400
var inputErrors = []error{
	theory.ErrInvalidChord,
	theory.ErrInvalidTemplate,
	tension.ErrInvalidSection,
	tension.ErrEmptySections,
	style.ErrInvalidTarget,
	orchestrator.ErrInvalidRequest,
	voicing.ErrVoiceCount,
	services.ErrUnknownStyle,
	melody.ErrInvalidSubject,
	melody.ErrInvalidPattern,
}

func isInputError(err error) bool {
	for _, target := range inputErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// respondError maps engine and service errors to HTTP responses
func respondError(c *gin.Context, operation string, err error) {
	var inf *voicing.InfeasibleError
	switch {
	case errors.As(err, &inf):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      err.Error(),
			"constraint": inf.Constraint,
			"chord":      inf.Chord.String(),
			"step":       inf.Step,
		})
	case isInputError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrPersistenceDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "operation timed out"})
	default:
		logger.Error("Engine operation failed", err, logger.WithContext(c).With(logger.Fields{"operation": operation}))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "Internal server error",
			"request_id": c.GetString("request_id"),
		})
	}
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
