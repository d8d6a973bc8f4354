package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"example.com/campus/services/events/internal/database"
	"example.com/campus/services/events/internal/models"
)

// EventFilter narrows a listing. All set members are combined conjunctively.
type EventFilter struct {
	// Query is matched against title and description. When the search index
	// is available the service resolves it to IDs first; otherwise the
	// repository falls back to ILIKE matching.
	Query string
	// IDs restricts the result to the given event ids (used by search-backed
	// text queries). A non-nil empty slice yields an empty result.
	IDs []uuid.UUID
	// TagNames requires membership in every named tag
	TagNames []string
	// DateFrom/DateTo bound the event date, inclusive, as ISO dates
	DateFrom string
	DateTo   string
	// Locations restricts to the given location set
	Locations []string
	// HasCapacity keeps only events with attendee_count < max_capacity
	HasCapacity bool
	// CreatedBy restricts to one creator (profile page listing)
	CreatedBy *uuid.UUID
}

// Attendee is one attending RSVP joined with its profile, for the
// event-management view.
type Attendee struct {
	UserID       uuid.UUID `json:"user_id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registered_at"`
}

// EventRepository provides access to event data
type EventRepository interface {
	Create(ctx context.Context, event *models.Event, tagNames []string) error
	Update(ctx context.Context, event *models.Event, tagNames []string) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	List(ctx context.Context, filter EventFilter) ([]*models.Event, error)
	Attendees(ctx context.Context, eventID uuid.UUID) ([]Attendee, error)
	RefreshAttendeeCount(ctx context.Context, eventID uuid.UUID) (int, error)
}

// eventRepository implements EventRepository
type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

// Create inserts the event, its tags, and the join rows in one transaction.
// Missing tags are created lazily; a tag name that already exists is reused.
func (r *eventRepository) Create(ctx context.Context, event *models.Event, tagNames []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags").Create(event).Error; err != nil {
			return errors.Wrap(err, "failed to create event")
		}
		tags, err := attachTags(tx, event.ID, tagNames)
		if err != nil {
			return err
		}
		event.Tags = tags
		return nil
	})
}

// Update overwrites the mutable fields and replaces the full tag set in one
// transaction. The attendee count and creator are left untouched.
func (r *eventRepository) Update(ctx context.Context, event *models.Event, tagNames []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Event{}).
			Where("id = ?", event.ID).
			Updates(map[string]interface{}{
				"title":        event.Title,
				"description":  event.Description,
				"location":     event.Location,
				"room":         event.Room,
				"date":         event.Date,
				"start_time":   event.StartTime,
				"end_time":     event.EndTime,
				"max_capacity": event.MaxCapacity,
				"lat":          event.Lat,
				"lng":          event.Lng,
			})
		if result.Error != nil {
			return errors.Wrap(result.Error, "failed to update event")
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		// Replace the tag set: clear the join rows, then re-attach
		if err := tx.Where("event_id = ?", event.ID).Delete(&models.EventTag{}).Error; err != nil {
			return errors.Wrap(err, "failed to clear event tags")
		}
		tags, err := attachTags(tx, event.ID, tagNames)
		if err != nil {
			return err
		}
		event.Tags = tags
		return nil
	})
}

// attachTags resolves each name via get-or-create and writes the join rows
func attachTags(tx *gorm.DB, eventID uuid.UUID, tagNames []string) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(tagNames))
	for _, name := range tagNames {
		tag, err := getOrCreateTag(tx, name)
		if err != nil {
			return nil, err
		}
		join := &models.EventTag{EventID: eventID, TagID: tag.ID}
		if err := tx.Create(join).Error; err != nil {
			return nil, errors.Wrap(err, "failed to create event tag")
		}
		tags = append(tags, *tag)
	}
	return tags, nil
}

// Delete removes the event and every row referencing it (join rows, RSVPs,
// notification preferences) in a single transaction, so no orphans survive
// the delete.
func (r *eventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&models.EventTag{}).Error; err != nil {
			return errors.Wrap(err, "failed to delete event tags")
		}
		if err := tx.Where("event_id = ?", id).Delete(&models.UserEvent{}).Error; err != nil {
			return errors.Wrap(err, "failed to delete event RSVPs")
		}
		if err := tx.Where("event_id = ?", id).Delete(&models.EventNotificationPreference{}).Error; err != nil {
			return errors.Wrap(err, "failed to delete event notification preferences")
		}
		result := tx.Delete(&models.Event{}, "id = ?", id)
		if result.Error != nil {
			return errors.Wrap(result.Error, "failed to delete event")
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// FindByID finds an event by ID with its tags preloaded
func (r *eventRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).Preload("Tags").First(&event, "id = ?", id).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to find event by id")
	}
	return &event, nil
}

// List returns events matching the filter, ascending by date then start time
func (r *eventRepository) List(ctx context.Context, filter EventFilter) ([]*models.Event, error) {
	query := r.db.WithContext(ctx).Model(&models.Event{}).Preload("Tags")

	if filter.IDs != nil {
		if len(filter.IDs) == 0 {
			return []*models.Event{}, nil
		}
		query = query.Where("events.id IN ?", filter.IDs)
	} else if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		query = query.Where("events.title ILIKE ? OR events.description ILIKE ?", pattern, pattern)
	}

	for _, name := range filter.TagNames {
		query = query.Where(
			"EXISTS (SELECT 1 FROM event_tags et JOIN tags t ON t.id = et.tag_id WHERE et.event_id = events.id AND t.name = ?)",
			name,
		)
	}

	if filter.DateFrom != "" {
		query = query.Where("events.date >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		query = query.Where("events.date <= ?", filter.DateTo)
	}
	if len(filter.Locations) > 0 {
		query = query.Where("events.location IN ?", filter.Locations)
	}
	if filter.HasCapacity {
		query = query.Where("events.attendee_count < events.max_capacity")
	}
	if filter.CreatedBy != nil {
		query = query.Where("events.created_by = ?", *filter.CreatedBy)
	}

	var events []*models.Event
	if err := query.Order("events.date ASC, events.start_time ASC").Find(&events).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list events")
	}
	return events, nil
}

// Attendees returns attending RSVPs joined with profiles
func (r *eventRepository) Attendees(ctx context.Context, eventID uuid.UUID) ([]Attendee, error) {
	var attendees []Attendee
	err := r.db.WithContext(ctx).
		Model(&models.UserEvent{}).
		Select("user_events.user_id, profiles.full_name, profiles.email, user_events.created_at AS registered_at").
		Joins("JOIN profiles ON profiles.id = user_events.user_id").
		Where("user_events.event_id = ? AND user_events.status = ?", eventID, models.RSVPAttending).
		Order("user_events.created_at ASC").
		Scan(&attendees).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list attendees")
	}
	return attendees, nil
}

// RefreshAttendeeCount recomputes the denormalized attendee count from the
// RSVP rows and stores it. This is the authoritative resync step.
func (r *eventRepository) RefreshAttendeeCount(ctx context.Context, eventID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UserEvent{}).
		Where("event_id = ? AND status = ?", eventID, models.RSVPAttending).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count attending RSVPs")
	}

	result := r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ?", eventID).
		Update("attendee_count", count)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to store attendee count")
	}
	if result.RowsAffected == 0 {
		return 0, ErrNotFound
	}
	return int(count), nil
}
