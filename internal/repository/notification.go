package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"example.com/campus/services/events/internal/database"
	"example.com/campus/services/events/internal/models"
)

// DueReminder pairs a notification preference with the event and recipient it
// fires for. Produced by the dispatch query, consumed by the worker.
type DueReminder struct {
	PreferenceID uuid.UUID `json:"preference_id"`
	UserID       uuid.UUID `json:"user_id"`
	Email        string    `json:"email"`
	EventID      uuid.UUID `json:"event_id"`
	Title        string    `json:"title"`
	Location     string    `json:"location"`
	Date         string    `json:"date"`
	StartTime    string    `json:"start_time"`
	LeadHours    float64   `json:"lead_hours"`
}

// NotificationRepository provides access to per-event reminder preferences
type NotificationRepository interface {
	Find(ctx context.Context, userID, eventID uuid.UUID) (*models.EventNotificationPreference, error)
	Upsert(ctx context.Context, pref *models.EventNotificationPreference) error
	EnsureDefault(ctx context.Context, userID, eventID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.EventNotificationPreference, error)
	DueReminders(ctx context.Context, now time.Time) ([]*DueReminder, error)
	MarkDispatched(ctx context.Context, preferenceIDs []uuid.UUID, at time.Time) error
}

// notificationRepository implements NotificationRepository
type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// Find finds the preference row for (user, event)
func (r *notificationRepository) Find(ctx context.Context, userID, eventID uuid.UUID) (*models.EventNotificationPreference, error) {
	var pref models.EventNotificationPreference
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		First(&pref).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to find notification preference")
	}
	return &pref, nil
}

// Upsert creates or overwrites the preference for (user, event). The settings
// columns win on conflict; last_dispatched_at is reset so a changed lead time
// can fire again for the same event.
func (r *notificationRepository) Upsert(ctx context.Context, pref *models.EventNotificationPreference) error {
	if pref.ID == uuid.Nil {
		pref.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "event_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"email_enabled":      pref.EmailEnabled,
				"lead_hours":         pref.LeadHours,
				"last_dispatched_at": nil,
				"updated_at":         time.Now(),
			}),
		}).
		Create(pref).Error
	if err != nil {
		return errors.Wrap(err, "failed to upsert notification preference")
	}
	return nil
}

// EnsureDefault creates a default preference row for (user, event) if none
// exists yet. An existing row is left untouched.
func (r *notificationRepository) EnsureDefault(ctx context.Context, userID, eventID uuid.UUID) error {
	pref := models.EventNotificationPreference{
		ID:           uuid.New(),
		UserID:       userID,
		EventID:      eventID,
		EmailEnabled: true,
		LeadHours:    models.DefaultLeadHours,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "event_id"}},
			DoNothing: true,
		}).
		Create(&pref).Error
	if err != nil {
		return errors.Wrap(err, "failed to ensure default notification preference")
	}
	return nil
}

// ListByUser returns all preference rows for a user
func (r *notificationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.EventNotificationPreference, error) {
	var prefs []*models.EventNotificationPreference
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&prefs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notification preferences")
	}
	return prefs, nil
}

// DueReminders returns reminders whose fire time (event start minus lead
// hours) has passed and which have not been dispatched yet. Events already
// started are skipped rather than reminded late.
func (r *notificationRepository) DueReminders(ctx context.Context, now time.Time) ([]*DueReminder, error) {
	var due []*DueReminder
	err := r.db.WithContext(ctx).
		Table("event_notifications AS n").
		Select(`n.id AS preference_id, n.user_id, p.email,
			e.id AS event_id, e.title, e.location, e.date, e.start_time,
			n.lead_hours`).
		Joins("JOIN events e ON e.id = n.event_id AND e.deleted_at IS NULL").
		Joins("JOIN profiles p ON p.id = n.user_id").
		Joins("JOIN user_events ue ON ue.user_id = n.user_id AND ue.event_id = n.event_id AND ue.status = ?", models.RSVPAttending).
		Where("n.email_enabled = ?", true).
		Where("n.last_dispatched_at IS NULL").
		Where("(e.date || ' ' || e.start_time)::timestamp - make_interval(mins => (n.lead_hours * 60)::int) <= ?", now).
		Where("(e.date || ' ' || e.start_time)::timestamp > ?", now).
		Scan(&due).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to query due reminders")
	}
	return due, nil
}

// MarkDispatched stamps the given preference rows as dispatched
func (r *notificationRepository) MarkDispatched(ctx context.Context, preferenceIDs []uuid.UUID, at time.Time) error {
	if len(preferenceIDs) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Model(&models.EventNotificationPreference{}).
		Where("id IN ?", preferenceIDs).
		Update("last_dispatched_at", at).Error
	if err != nil {
		return errors.Wrap(err, "failed to mark reminders dispatched")
	}
	return nil
}
