package handlers

import (
	"net/http"

	"example.com/campus/services/events/internal/api/middleware"
	"example.com/campus/services/events/internal/service"
	"example.com/campus/services/events/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RSVPHandler handles RSVP-related HTTP requests
type RSVPHandler struct {
	rsvpService service.RSVPService
	tracer      tracing.Tracer
}

// NewRSVPHandler creates a new RSVP handler
func NewRSVPHandler(rsvpService service.RSVPService, tracer tracing.Tracer) *RSVPHandler {
	return &RSVPHandler{
		rsvpService: rsvpService,
		tracer:      tracer,
	}
}

// HandleToggle flips the caller's RSVP for an event
func (h *RSVPHandler) HandleToggle(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-toggle-rsvp")
	defer h.tracer.EndTransaction(txn)

	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	userID := middleware.UserID(c)
	h.tracer.AddAttribute(txn, "user_id", userID.String())
	h.tracer.AddAttribute(txn, "event_id", eventID.String())

	result, err := h.rsvpService.Toggle(c.Request.Context(), userID, eventID, middleware.CalendarToken(c))
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// HandleResync recomputes an event's attendee count from its RSVP rows
func (h *RSVPHandler) HandleResync(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	count, err := h.rsvpService.Resync(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"attendee_count": count})
}

// HandleMyEvents returns the caller's attending events
func (h *RSVPHandler) HandleMyEvents(c *gin.Context) {
	events, err := h.rsvpService.AttendingEvents(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}
