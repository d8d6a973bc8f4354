package service

import (
	"context"
	"time"

	"example.com/campus/services/events/internal/cache"
	"example.com/campus/services/events/internal/calendar"
	"example.com/campus/services/events/internal/models"
	"example.com/campus/services/events/internal/repository"
	"example.com/campus/services/events/internal/tracing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// RSVPResult is what a toggle returns to the handler
type RSVPResult struct {
	Status         models.RSVPStatus `json:"status"`
	AttendeeCount  int               `json:"attendee_count"`
	CalendarPushed bool              `json:"calendar_pushed"`
}

// RSVPService handles RSVP business logic
type RSVPService interface {
	Toggle(ctx context.Context, userID, eventID uuid.UUID, calendarToken string) (*RSVPResult, error)
	Resync(ctx context.Context, eventID uuid.UUID) (int, error)
	ReconcileCounts(ctx context.Context) error
	AttendingEvents(ctx context.Context, userID uuid.UUID) ([]*models.Event, error)
}

type rsvpService struct {
	rsvpRepo         repository.RSVPRepository
	eventRepo        repository.EventRepository
	notificationRepo repository.NotificationRepository
	cache            *cache.RedisCache
	calendarClient   calendar.Client
	tracer           tracing.Tracer
}

// NewRSVPService creates a new RSVP service
func NewRSVPService(
	rsvpRepo repository.RSVPRepository,
	eventRepo repository.EventRepository,
	notificationRepo repository.NotificationRepository,
	cache *cache.RedisCache,
	calendarClient calendar.Client,
	tracer tracing.Tracer,
) RSVPService {
	return &rsvpService{
		rsvpRepo:         rsvpRepo,
		eventRepo:        eventRepo,
		notificationRepo: notificationRepo,
		cache:            cache,
		calendarClient:   calendarClient,
		tracer:           tracer,
	}
}

// Toggle flips the caller's RSVP for an event. The status write and count
// adjustment commit atomically in the repository; everything after the
// commit (default notification preferences, cache, calendar push) is
// best-effort and never fails the toggle.
func (s *rsvpService) Toggle(ctx context.Context, userID, eventID uuid.UUID, calendarToken string) (*RSVPResult, error) {
	txn := s.tracer.StartTransaction("toggle-rsvp")
	defer s.tracer.EndTransaction(txn)

	span := s.tracer.StartSpan("toggle-rsvp-db", txn)
	rsvp, count, err := s.rsvpRepo.Toggle(ctx, userID, eventID)
	span.End()
	if err != nil {
		s.tracer.RecordError(txn, err)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to toggle RSVP")
	}

	// Authoritative recount keeps the denormalized column honest even if a
	// past crash left it skewed. On failure the committed toggle's count
	// still stands.
	if refreshed, err := s.eventRepo.RefreshAttendeeCount(ctx, eventID); err != nil {
		log.Warn().Err(err).Str("event_id", eventID.String()).Msg("failed to refresh attendee count after toggle")
		s.tracer.RecordError(txn, err)
	} else {
		count = refreshed
	}

	result := &RSVPResult{
		Status:        rsvp.Status,
		AttendeeCount: count,
	}

	log.Info().
		Str("user_id", userID.String()).
		Str("event_id", eventID.String()).
		Str("status", string(rsvp.Status)).
		Msg("RSVP toggled")

	s.invalidate(ctx, eventID)

	if rsvp.Status == models.RSVPAttending {
		if err := s.notificationRepo.EnsureDefault(ctx, userID, eventID); err != nil {
			log.Warn().Err(err).
				Str("user_id", userID.String()).
				Str("event_id", eventID.String()).
				Msg("failed to create default notification preferences")
			s.tracer.RecordError(txn, err)
		}

		if calendarToken != "" {
			event, err := s.eventRepo.FindByID(ctx, eventID)
			if err == nil {
				pushSpan := s.tracer.StartSpan("calendar-push", txn)
				err = s.calendarClient.PushEvent(ctx, calendarToken, event)
				pushSpan.End()
			}
			if err != nil {
				log.Warn().Err(err).
					Str("event_id", eventID.String()).
					Msg("calendar push failed after RSVP")
				s.tracer.RecordError(txn, err)
			} else {
				result.CalendarPushed = true
			}
		}
	}

	return result, nil
}

// Resync recomputes the attendee count from the RSVP rows. Exposed as an
// operation and run periodically by the worker as a fallback.
func (s *rsvpService) Resync(ctx context.Context, eventID uuid.UUID) (int, error) {
	count, err := s.eventRepo.RefreshAttendeeCount(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrNotFound
		}
		return 0, errors.Wrap(err, "failed to resync attendee count")
	}
	s.invalidate(ctx, eventID)
	return count, nil
}

// ReconcileCounts resyncs the attendee count of every upcoming event. Run
// by the worker as a fallback against counts skewed by crashes or direct
// database edits.
func (s *rsvpService) ReconcileCounts(ctx context.Context) error {
	txn := s.tracer.StartTransaction("reconcile-attendee-counts")
	defer s.tracer.EndTransaction(txn)

	today := time.Now().Format("2006-01-02")
	events, err := s.eventRepo.List(ctx, repository.EventFilter{DateFrom: today})
	if err != nil {
		s.tracer.RecordError(txn, err)
		return errors.Wrap(err, "failed to list events for reconciliation")
	}

	var fixed int
	for _, event := range events {
		count, err := s.eventRepo.RefreshAttendeeCount(ctx, event.ID)
		if err != nil {
			log.Error().Err(err).Str("event_id", event.ID.String()).Msg("failed to reconcile attendee count")
			s.tracer.RecordError(txn, err)
			continue
		}
		if count != event.AttendeeCount {
			log.Warn().
				Str("event_id", event.ID.String()).
				Int("stored", event.AttendeeCount).
				Int("actual", count).
				Msg("corrected skewed attendee count")
			s.invalidate(ctx, event.ID)
			fixed++
		}
	}

	log.Info().Int("events", len(events)).Int("corrected", fixed).Msg("attendee count reconciliation completed")
	return nil
}

// AttendingEvents lists the events the user is attending
func (s *rsvpService) AttendingEvents(ctx context.Context, userID uuid.UUID) ([]*models.Event, error) {
	return s.rsvpRepo.ListAttendingEvents(ctx, userID)
}

func (s *rsvpService) invalidate(ctx context.Context, eventID uuid.UUID) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Delete(ctx, cache.GetEventCacheKey(eventID)); err != nil {
		log.Warn().Err(err).Str("event_id", eventID.String()).Msg("failed to invalidate event cache")
	}
	if err := s.cache.Delete(ctx, cache.GetAttendeesCacheKey(eventID)); err != nil {
		log.Warn().Err(err).Str("event_id", eventID.String()).Msg("failed to invalidate attendees cache")
	}
}
