package handlers

import (
	"net/http"

	"example.com/campus/services/events/internal/repository"
	"example.com/campus/services/events/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// respondError maps service errors onto HTTP status codes
func respondError(c *gin.Context, err error) {
	if ve, ok := service.IsValidationError(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": ve.Fields})
		return
	}
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if errors.Is(err, service.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": "operation not permitted"})
		return
	}
	if errors.Is(err, repository.ErrDuplicateKey) {
		c.JSON(http.StatusConflict, gin.H{"error": "conflicting write, retry"})
		return
	}

	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
