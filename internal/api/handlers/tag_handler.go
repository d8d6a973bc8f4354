package handlers

import (
	"net/http"

	"example.com/campus/services/events/internal/api/middleware"
	"example.com/campus/services/events/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TagHandler handles tag-related HTTP requests
type TagHandler struct {
	tagService service.TagService
}

// NewTagHandler creates a new tag handler
func NewTagHandler(tagService service.TagService) *TagHandler {
	return &TagHandler{tagService: tagService}
}

// HandleList returns all tags with the caller's follow state
func (h *TagHandler) HandleList(c *gin.Context) {
	tags, err := h.tagService.ListWithFollowState(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

// HandleToggleFollow flips the caller's follow state for a tag
func (h *TagHandler) HandleToggleFollow(c *gin.Context) {
	tagID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tag id"})
		return
	}

	followed, err := h.tagService.ToggleFollow(c.Request.Context(), middleware.UserID(c), tagID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"followed": followed})
}
