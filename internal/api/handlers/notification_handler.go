package handlers

import (
	"net/http"

	"example.com/campus/services/events/internal/api/middleware"
	"example.com/campus/services/events/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// NotificationHandler handles reminder preference HTTP requests
type NotificationHandler struct {
	notificationService service.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// PreferenceRequest carries the caller's reminder settings for one event
type PreferenceRequest struct {
	EmailEnabled *bool   `json:"email_enabled" binding:"required"`
	LeadHours    float64 `json:"lead_hours" binding:"required"`
}

// HandleUpsert stores the caller's reminder settings for an event
func (h *NotificationHandler) HandleUpsert(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	var req PreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pref, err := h.notificationService.UpsertPreference(
		c.Request.Context(), middleware.UserID(c), eventID, *req.EmailEnabled, req.LeadHours)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pref)
}

// HandleGet returns the caller's reminder settings for an event
func (h *NotificationHandler) HandleGet(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	pref, err := h.notificationService.GetPreference(c.Request.Context(), middleware.UserID(c), eventID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pref)
}
