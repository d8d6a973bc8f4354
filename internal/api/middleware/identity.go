package middleware

import (
	"net/http"

	"example.com/campus/services/events/internal/models"
	"example.com/campus/services/events/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Keys set on the gin context by the identity middleware
const (
	ContextUserID        = "user_id"
	ContextCalendarToken = "calendar_token"
)

// Headers forwarded by the upstream OAuth proxy
const (
	headerUserID        = "X-User-Id"
	headerUserEmail     = "X-User-Email"
	headerUserName      = "X-User-Name"
	headerCalendarToken = "X-Calendar-Token"
)

// Identity resolves the caller from the headers the OAuth proxy forwards.
// Requests without a valid user id are rejected. The profile row is
// refreshed opportunistically so rosters and reminders have a name and
// email to work with.
func Identity(profileRepo repository.ProfileRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(headerUserID)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
			return
		}

		userID, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid identity"})
			return
		}

		if email := c.GetHeader(headerUserEmail); email != "" {
			profile := &models.Profile{
				ID:       userID,
				Email:    email,
				FullName: c.GetHeader(headerUserName),
			}
			if err := profileRepo.Upsert(c.Request.Context(), profile); err != nil {
				log.Warn().Err(err).Str("user_id", raw).Msg("failed to refresh profile")
			}
		}

		c.Set(ContextUserID, userID)
		if token := c.GetHeader(headerCalendarToken); token != "" {
			c.Set(ContextCalendarToken, token)
		}

		c.Next()
	}
}

// UserID reads the authenticated user id from the gin context
func UserID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(ContextUserID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// CalendarToken reads the optional calendar access token from the gin context
func CalendarToken(c *gin.Context) string {
	if v, ok := c.Get(ContextCalendarToken); ok {
		if token, ok := v.(string); ok {
			return token
		}
	}
	return ""
}

// RequireAdmin blocks the request unless the caller's profile carries the
// admin flag. Must run after Identity.
func RequireAdmin(profileRepo repository.ProfileRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := UserID(c)
		if userID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
			return
		}

		isAdmin, err := profileRepo.IsAdmin(c.Request.Context(), userID)
		if err != nil {
			log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to check admin flag")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if !isAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}

		c.Next()
	}
}
