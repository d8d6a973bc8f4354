package service

import (
	"context"
	"fmt"
	"time"

	"example.com/campus/services/events/internal/messaging"
	"example.com/campus/services/events/internal/models"
	"example.com/campus/services/events/internal/repository"
	"example.com/campus/services/events/internal/tracing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// NotificationService handles per-event reminder preferences and dispatch
type NotificationService interface {
	UpsertPreference(ctx context.Context, userID, eventID uuid.UUID, emailEnabled bool, leadHours float64) (*models.EventNotificationPreference, error)
	GetPreference(ctx context.Context, userID, eventID uuid.UUID) (*models.EventNotificationPreference, error)
	DispatchDueReminders(ctx context.Context, now time.Time) (int, error)
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
	eventRepo        repository.EventRepository
	busClient        messaging.ServiceBusClient
	tracer           tracing.Tracer
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	eventRepo repository.EventRepository,
	busClient messaging.ServiceBusClient,
	tracer tracing.Tracer,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		eventRepo:        eventRepo,
		busClient:        busClient,
		tracer:           tracer,
	}
}

// UpsertPreference stores the caller's reminder settings for an event
func (s *notificationService) UpsertPreference(ctx context.Context, userID, eventID uuid.UUID, emailEnabled bool, leadHours float64) (*models.EventNotificationPreference, error) {
	if !models.ValidLeadHours(leadHours) {
		return nil, NewValidationError("lead_hours",
			fmt.Sprintf("must be one of %v", models.AllowedLeadHours))
	}

	if _, err := s.eventRepo.FindByID(ctx, eventID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	pref := &models.EventNotificationPreference{
		UserID:       userID,
		EventID:      eventID,
		EmailEnabled: emailEnabled,
		LeadHours:    leadHours,
	}
	if err := s.notificationRepo.Upsert(ctx, pref); err != nil {
		return nil, errors.Wrap(err, "failed to save notification preference")
	}
	return pref, nil
}

// GetPreference returns the caller's settings for an event
func (s *notificationService) GetPreference(ctx context.Context, userID, eventID uuid.UUID) (*models.EventNotificationPreference, error) {
	pref, err := s.notificationRepo.Find(ctx, userID, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return pref, nil
}

// DispatchDueReminders enqueues a reminder message for every preference
// whose fire time has arrived, then stamps the dispatched rows. Returns the
// number of messages enqueued. Run by the worker on a fixed interval.
func (s *notificationService) DispatchDueReminders(ctx context.Context, now time.Time) (int, error) {
	txn := s.tracer.StartTransaction("dispatch-reminders")
	defer s.tracer.EndTransaction(txn)

	due, err := s.notificationRepo.DueReminders(ctx, now)
	if err != nil {
		s.tracer.RecordError(txn, err)
		return 0, errors.Wrap(err, "failed to query due reminders")
	}

	if len(due) == 0 {
		return 0, nil
	}

	log.Info().Int("count", len(due)).Msg("dispatching due reminders")

	dispatched := make([]uuid.UUID, 0, len(due))
	for _, reminder := range due {
		msg := messaging.ReminderMessage{
			UserID:    reminder.UserID,
			Email:     reminder.Email,
			EventID:   reminder.EventID,
			Title:     reminder.Title,
			Location:  reminder.Location,
			StartsAt:  fmt.Sprintf("%sT%s:00", reminder.Date, reminder.StartTime),
			LeadHours: reminder.LeadHours,
		}

		span := s.tracer.StartSpan("enqueue-reminder", txn)
		err := s.busClient.SendReminder(ctx, msg)
		span.End()
		if err != nil {
			// Rows not marked dispatched are retried next tick
			log.Error().Err(err).
				Str("event_id", reminder.EventID.String()).
				Str("user_id", reminder.UserID.String()).
				Msg("failed to enqueue reminder")
			s.tracer.RecordError(txn, err)
			continue
		}
		dispatched = append(dispatched, reminder.PreferenceID)
	}

	if err := s.notificationRepo.MarkDispatched(ctx, dispatched, now); err != nil {
		s.tracer.RecordError(txn, err)
		return len(dispatched), errors.Wrap(err, "failed to mark reminders dispatched")
	}

	return len(dispatched), nil
}
