package handlers

import (
	"net/http"

	"example.com/campus/services/events/internal/repository"

	"github.com/gin-gonic/gin"
)

// AdminHandler handles admin-only HTTP requests
type AdminHandler struct {
	statsRepo repository.StatsRepository
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(statsRepo repository.StatsRepository) *AdminHandler {
	return &AdminHandler{statsRepo: statsRepo}
}

// HandleStats returns row count aggregates across the schema
func (h *AdminHandler) HandleStats(c *gin.Context) {
	stats, err := h.statsRepo.Collect(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
