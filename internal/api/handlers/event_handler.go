package handlers

import (
	"net/http"
	"strings"

	"example.com/campus/services/events/internal/api/middleware"
	"example.com/campus/services/events/internal/repository"
	"example.com/campus/services/events/internal/service"
	"example.com/campus/services/events/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EventHandler handles event-related HTTP requests
type EventHandler struct {
	eventService service.EventService
	tracer       tracing.Tracer
}

// NewEventHandler creates a new event handler
func NewEventHandler(eventService service.EventService, tracer tracing.Tracer) *EventHandler {
	return &EventHandler{
		eventService: eventService,
		tracer:       tracer,
	}
}

// HandleList returns events matching the browse filter
func (h *EventHandler) HandleList(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-list-events")
	defer h.tracer.EndTransaction(txn)

	filter := repository.EventFilter{
		Query:    c.Query("q"),
		DateFrom: c.Query("date_from"),
		DateTo:   c.Query("date_to"),
	}
	if tags := c.Query("tags"); tags != "" {
		filter.TagNames = strings.Split(tags, ",")
	}
	if locations := c.Query("locations"); locations != "" {
		filter.Locations = strings.Split(locations, ",")
	}
	if c.Query("has_capacity") == "true" {
		filter.HasCapacity = true
	}
	if createdBy := c.Query("created_by"); createdBy != "" {
		id, err := uuid.Parse(createdBy)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid created_by"})
			return
		}
		filter.CreatedBy = &id
	}

	events, err := h.eventService.List(c.Request.Context(), filter)
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

// HandleGet returns a single event
func (h *EventHandler) HandleGet(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	event, err := h.eventService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// HandleCreate creates an event owned by the caller
func (h *EventHandler) HandleCreate(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-create-event")
	defer h.tracer.EndTransaction(txn)

	var req service.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.UserID(c)
	h.tracer.AddAttribute(txn, "user_id", userID.String())

	event, err := h.eventService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

// HandleUpdate overwrites an event
func (h *EventHandler) HandleUpdate(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-update-event")
	defer h.tracer.EndTransaction(txn)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	var req service.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.eventService.Update(c.Request.Context(), middleware.UserID(c), id, &req)
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// HandleDelete removes an event and its dependent rows
func (h *EventHandler) HandleDelete(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-delete-event")
	defer h.tracer.EndTransaction(txn)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	if err := h.eventService.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// HandleAttendees returns the attending roster for the event creator
func (h *EventHandler) HandleAttendees(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	attendees, err := h.eventService.Attendees(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"attendees": attendees})
}
