package handlers

import (
	"net/http"

	"example.com/campus/services/events/internal/api/middleware"
	"example.com/campus/services/events/internal/service"

	"github.com/gin-gonic/gin"
)

// CalendarHandler handles calendar sync and feed HTTP requests
type CalendarHandler struct {
	calendarService service.CalendarService
}

// NewCalendarHandler creates a new calendar handler
func NewCalendarHandler(calendarService service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarService: calendarService}
}

// HandleSync pushes the caller's attending events to their external calendar
func (h *CalendarHandler) HandleSync(c *gin.Context) {
	result, err := h.calendarService.SyncAll(
		c.Request.Context(), middleware.UserID(c), middleware.CalendarToken(c))
	if err != nil {
		// A partial push still reports what landed
		if result != nil {
			c.JSON(http.StatusBadGateway, gin.H{
				"error":  "calendar sync incomplete",
				"total":  result.Total,
				"pushed": result.Pushed,
			})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// HandleFeed serves the caller's attending events as an iCalendar document
func (h *CalendarHandler) HandleFeed(c *gin.Context) {
	feed, err := h.calendarService.ICSFeed(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="events.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(feed))
}
