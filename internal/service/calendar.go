package service

import (
	"context"

	"example.com/campus/services/events/internal/calendar"
	"example.com/campus/services/events/internal/repository"
	"example.com/campus/services/events/internal/tracing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// SyncResult reports how a calendar sync went
type SyncResult struct {
	Total  int `json:"total"`
	Pushed int `json:"pushed"`
}

// CalendarService handles external calendar sync and feed export
type CalendarService interface {
	SyncAll(ctx context.Context, userID uuid.UUID, token string) (*SyncResult, error)
	ICSFeed(ctx context.Context, userID uuid.UUID) (string, error)
}

type calendarService struct {
	rsvpRepo       repository.RSVPRepository
	calendarClient calendar.Client
	timeZone       string
	tracer         tracing.Tracer
}

// NewCalendarService creates a new calendar service
func NewCalendarService(
	rsvpRepo repository.RSVPRepository,
	calendarClient calendar.Client,
	timeZone string,
	tracer tracing.Tracer,
) CalendarService {
	return &calendarService{
		rsvpRepo:       rsvpRepo,
		calendarClient: calendarClient,
		timeZone:       timeZone,
		tracer:         tracer,
	}
}

// SyncAll pushes every attending event of the user to their external
// calendar. The first push failure aborts the remainder and surfaces as a
// single error alongside the partial count.
func (s *calendarService) SyncAll(ctx context.Context, userID uuid.UUID, token string) (*SyncResult, error) {
	if token == "" {
		return nil, NewValidationError("calendar_token", "calendar access token is required")
	}

	txn := s.tracer.StartTransaction("calendar-sync")
	defer s.tracer.EndTransaction(txn)

	events, err := s.rsvpRepo.ListAttendingEvents(ctx, userID)
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, errors.Wrap(err, "failed to load attending events")
	}

	span := s.tracer.StartSpan("calendar-push-batch", txn)
	pushed, pushErr := s.calendarClient.PushEvents(ctx, token, events)
	span.End()

	result := &SyncResult{Total: len(events), Pushed: pushed}
	if pushErr != nil {
		s.tracer.RecordError(txn, pushErr)
		return result, errors.Wrap(pushErr, "calendar sync incomplete")
	}

	log.Info().
		Str("user_id", userID.String()).
		Int("pushed", pushed).
		Msg("calendar sync completed")
	return result, nil
}

// ICSFeed renders the user's attending events as an iCalendar document
func (s *calendarService) ICSFeed(ctx context.Context, userID uuid.UUID) (string, error) {
	events, err := s.rsvpRepo.ListAttendingEvents(ctx, userID)
	if err != nil {
		return "", errors.Wrap(err, "failed to load attending events")
	}
	return calendar.BuildICSFeed(events, s.timeZone)
}
