package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"example.com/campus/services/events/internal/database"
	"example.com/campus/services/events/internal/models"
)

// RSVPRepository provides access to RSVP (user_events) data
type RSVPRepository interface {
	Find(ctx context.Context, userID, eventID uuid.UUID) (*models.UserEvent, error)
	Toggle(ctx context.Context, userID, eventID uuid.UUID) (*models.UserEvent, int, error)
	CountAttending(ctx context.Context, eventID uuid.UUID) (int64, error)
	ListAttendingEvents(ctx context.Context, userID uuid.UUID) ([]*models.Event, error)
	ListEventIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// rsvpRepository implements RSVPRepository
type rsvpRepository struct {
	db *gorm.DB
}

// NewRSVPRepository creates a new RSVP repository
func NewRSVPRepository(db *gorm.DB) RSVPRepository {
	return &rsvpRepository{db: db}
}

// Find finds the RSVP row for (user, event)
func (r *rsvpRepository) Find(ctx context.Context, userID, eventID uuid.UUID) (*models.UserEvent, error) {
	var rsvp models.UserEvent
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		First(&rsvp).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to find RSVP")
	}
	return &rsvp, nil
}

// Toggle applies one RSVP transition for (user, event) and mirrors the change
// into the event's denormalized attendee count. Row write and count
// adjustment share a transaction: a failed write rolls back the count with
// it, so no half-applied state survives. The returned int is the event's
// attendee count after the adjustment.
//
// Transitions: no row -> attending; attending -> not_attending;
// not_attending -> attending.
func (r *rsvpRepository) Toggle(ctx context.Context, userID, eventID uuid.UUID) (*models.UserEvent, int, error) {
	var (
		rsvp  models.UserEvent
		count int
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the event row so concurrent toggles serialize on the count
		var event models.Event
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&event, "id = ?", eventID).Error
		if err != nil {
			if database.IsRecordNotFoundError(err) {
				return ErrNotFound
			}
			return errors.Wrap(err, "failed to lock event")
		}

		var delta int
		err = tx.Where("user_id = ? AND event_id = ?", userID, eventID).First(&rsvp).Error
		switch {
		case database.IsRecordNotFoundError(err):
			rsvp = models.UserEvent{
				ID:      uuid.New(),
				UserID:  userID,
				EventID: eventID,
				Status:  models.RSVPAttending,
			}
			// The unique (user_id, event_id) constraint backstops a race
			// between two first RSVPs from the same user.
			if err := tx.Create(&rsvp).Error; err != nil {
				if database.IsDuplicateKeyError(err) {
					return ErrDuplicateKey
				}
				return errors.Wrap(err, "failed to create RSVP")
			}
			delta = 1
		case err != nil:
			return errors.Wrap(err, "failed to find RSVP")
		default:
			next, d := models.NextRSVPStatus(rsvp.Status)
			result := tx.Model(&models.UserEvent{}).
				Where("id = ?", rsvp.ID).
				Update("status", next)
			if result.Error != nil {
				return errors.Wrap(result.Error, "failed to update RSVP status")
			}
			rsvp.Status = next
			delta = d
		}

		err = tx.Model(&models.Event{}).
			Where("id = ?", eventID).
			Update("attendee_count", gorm.Expr("attendee_count + ?", delta)).Error
		if err != nil {
			return errors.Wrap(err, "failed to adjust attendee count")
		}
		count = event.AttendeeCount + delta
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return &rsvp, count, nil
}

// CountAttending counts attending RSVP rows for an event
func (r *rsvpRepository) CountAttending(ctx context.Context, eventID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UserEvent{}).
		Where("event_id = ? AND status = ?", eventID, models.RSVPAttending).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count attending RSVPs")
	}
	return count, nil
}

// ListAttendingEvents returns the events a user is attending, ascending by
// date, with tags preloaded. Used by calendar sync and the ICS feed.
func (r *rsvpRepository) ListAttendingEvents(ctx context.Context, userID uuid.UUID) ([]*models.Event, error) {
	var events []*models.Event
	err := r.db.WithContext(ctx).
		Model(&models.Event{}).
		Preload("Tags").
		Joins("JOIN user_events ON user_events.event_id = events.id").
		Where("user_events.user_id = ? AND user_events.status = ?", userID, models.RSVPAttending).
		Order("events.date ASC, events.start_time ASC").
		Find(&events).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list attending events")
	}
	return events, nil
}

// ListEventIDsByUser returns every event id the user has an RSVP row for,
// regardless of status.
func (r *rsvpRepository) ListEventIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.UserEvent{}).
		Where("user_id = ?", userID).
		Pluck("event_id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list RSVP event ids")
	}
	return ids, nil
}
