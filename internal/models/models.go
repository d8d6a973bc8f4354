package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// RSVPStatus is the recorded intent of a user for an event. The absence of a
// UserEvent row means the user never RSVPd.
type RSVPStatus string

const (
	// RSVPAttending marks a user as going to the event
	RSVPAttending RSVPStatus = "attending"
	// RSVPNotAttending marks a user as having opted out after RSVPing
	RSVPNotAttending RSVPStatus = "not_attending"
)

// Event represents a campus event
type Event struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	Title         string         `gorm:"not null" json:"title"`
	Description   string         `gorm:"not null;type:text" json:"description"`
	Location      string         `gorm:"not null" json:"location"`
	Room          string         `json:"room,omitempty"`
	// Date holds an ISO calendar date ("2025-12-01"); lexicographic order is
	// chronological order, which the list ordering and range filters rely on.
	Date          string         `gorm:"not null;index" json:"date"`
	StartTime     string         `gorm:"not null" json:"start_time"`
	EndTime       string         `gorm:"not null" json:"end_time"`
	MaxCapacity   int            `gorm:"not null" json:"max_capacity"`
	AttendeeCount int            `gorm:"not null;default:0" json:"attendee_count"`
	CreatedBy     uuid.UUID      `gorm:"type:uuid;not null;index" json:"created_by"`
	Lat           *float64       `json:"lat,omitempty"`
	Lng           *float64       `json:"lng,omitempty"`
	Tags          []Tag          `gorm:"many2many:event_tags" json:"tags"`
}

// Tag represents a label categorizing events, many-to-many with events.
// Rows are created lazily on first use and are immutable afterwards.
type Tag struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	Name      string    `gorm:"not null;uniqueIndex" json:"name"`
}

// EventTag joins events and tags, no payload
type EventTag struct {
	EventID uuid.UUID `gorm:"type:uuid;primaryKey" json:"event_id"`
	TagID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"tag_id"`
}

// UserEvent records a user's RSVP for an event. At most one row exists per
// (user, event) pair; the row is updated on subsequent toggles, never deleted.
type UserEvent struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uk_user_events_user_event" json:"user_id"`
	EventID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uk_user_events_user_event;index" json:"event_id"`
	Status    RSVPStatus `gorm:"not null" json:"status"`
}

// FollowedTag joins users and tags. Row presence means "followed"; there is
// no status column.
type FollowedTag struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	TagID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"tag_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// EventNotificationPreference holds a user's reminder settings for one event
type EventNotificationPreference struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	UserID           uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uk_event_notifications_user_event" json:"user_id"`
	EventID          uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uk_event_notifications_user_event" json:"event_id"`
	EmailEnabled     bool       `gorm:"not null;default:true" json:"email_enabled"`
	LeadHours        float64    `gorm:"not null;default:24" json:"lead_hours"`
	LastDispatchedAt *time.Time `json:"last_dispatched_at,omitempty"`
}

// TableName keeps the store's original table name
func (EventNotificationPreference) TableName() string {
	return "event_notifications"
}

// Profile mirrors the identity provider's user record. The ID is the opaque
// user identifier issued by the provider.
type Profile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	Email     string    `gorm:"uniqueIndex" json:"email"`
	FullName  string    `json:"full_name"`
	IsAdmin   bool      `gorm:"not null;default:false" json:"is_admin"`
}

// NextRSVPStatus returns the status an existing RSVP row moves to when the
// user toggles it, and the attendee count delta that transition implies.
func NextRSVPStatus(current RSVPStatus) (RSVPStatus, int) {
	if current == RSVPAttending {
		return RSVPNotAttending, -1
	}
	return RSVPAttending, 1
}

// DefaultLeadHours is the reminder lead time applied when a preference row is
// auto-created on first attending RSVP.
const DefaultLeadHours = 24

// AllowedLeadHours is the fixed set of reminder lead times, in hours before
// the event.
var AllowedLeadHours = []float64{0.25, 0.5, 1, 24, 168}

// ValidLeadHours reports whether h is one of the allowed lead times
func ValidLeadHours(h float64) bool {
	for _, allowed := range AllowedLeadHours {
		if h == allowed {
			return true
		}
	}
	return false
}

// SetupModels configures GORM models and runs migrations
func SetupModels(db *gorm.DB) error {
	err := db.AutoMigrate(
		&Profile{},
		&Event{},
		&Tag{},
		&EventTag{},
		&UserEvent{},
		&FollowedTag{},
		&EventNotificationPreference{},
	)
	if err != nil {
		return errors.Wrap(err, "failed to run auto migrations")
	}

	return nil
}
