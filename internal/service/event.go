package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"example.com/campus/services/events/internal/cache"
	"example.com/campus/services/events/internal/models"
	"example.com/campus/services/events/internal/repository"
	"example.com/campus/services/events/internal/search"
	"example.com/campus/services/events/internal/tracing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// EventRequest carries the mutable fields of an event as submitted by the
// client. Tags is the raw comma-separated string from the form.
type EventRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Room        string   `json:"room"`
	Date        string   `json:"date"`
	StartTime   string   `json:"start_time"`
	EndTime     string   `json:"end_time"`
	MaxCapacity int      `json:"max_capacity"`
	Tags        string   `json:"tags"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
}

// EventService handles event business logic
type EventService interface {
	Create(ctx context.Context, userID uuid.UUID, req *EventRequest) (*models.Event, error)
	Update(ctx context.Context, userID uuid.UUID, id uuid.UUID, req *EventRequest) (*models.Event, error)
	Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.Event, error)
	List(ctx context.Context, filter repository.EventFilter) ([]*models.Event, error)
	Attendees(ctx context.Context, userID uuid.UUID, id uuid.UUID) ([]repository.Attendee, error)
}

type eventService struct {
	eventRepo     repository.EventRepository
	profileRepo   repository.ProfileRepository
	cache         *cache.RedisCache
	elasticClient *search.ElasticClient
	tracer        tracing.Tracer
}

// NewEventService creates a new event service
func NewEventService(
	eventRepo repository.EventRepository,
	profileRepo repository.ProfileRepository,
	cache *cache.RedisCache,
	elasticClient *search.ElasticClient,
	tracer tracing.Tracer,
) EventService {
	return &eventService{
		eventRepo:     eventRepo,
		profileRepo:   profileRepo,
		cache:         cache,
		elasticClient: elasticClient,
		tracer:        tracer,
	}
}

var (
	dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRe = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// validate rejects a request before any write happens. Field problems are
// collected so the client can show them all at once.
func validate(req *EventRequest) error {
	fields := make(map[string]string)

	if strings.TrimSpace(req.Title) == "" {
		fields["title"] = "title is required"
	}
	if strings.TrimSpace(req.Description) == "" {
		fields["description"] = "description is required"
	}
	if strings.TrimSpace(req.Location) == "" {
		fields["location"] = "location is required"
	}
	if !dateRe.MatchString(req.Date) {
		fields["date"] = "date must be YYYY-MM-DD"
	} else if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		fields["date"] = "not a valid calendar date"
	}
	if !timeRe.MatchString(req.StartTime) {
		fields["start_time"] = "start time must be HH:MM"
	}
	if !timeRe.MatchString(req.EndTime) {
		fields["end_time"] = "end time must be HH:MM"
	}
	// HH:MM strings compare correctly as strings
	if fields["start_time"] == "" && fields["end_time"] == "" && req.StartTime >= req.EndTime {
		fields["end_time"] = "end time must be after start time"
	}
	if req.MaxCapacity <= 0 {
		fields["max_capacity"] = "capacity must be positive"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// splitTags splits the submitted comma-separated tag string, trimming
// whitespace at the split boundaries only. Names keep their case; empty
// segments are dropped.
func splitTags(raw string) []string {
	parts := strings.Split(raw, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names
}

// Create validates and persists a new event with its tags
func (s *eventService) Create(ctx context.Context, userID uuid.UUID, req *EventRequest) (*models.Event, error) {
	txn := s.tracer.StartTransaction("create-event")
	defer s.tracer.EndTransaction(txn)

	if err := validate(req); err != nil {
		return nil, err
	}

	event := &models.Event{
		ID:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Room:        req.Room,
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		MaxCapacity: req.MaxCapacity,
		CreatedBy:   userID,
		Lat:         req.Lat,
		Lng:         req.Lng,
	}

	span := s.tracer.StartSpan("create-event-db", txn)
	err := s.eventRepo.Create(ctx, event, splitTags(req.Tags))
	span.End()
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, errors.Wrap(err, "failed to create event")
	}

	log.Info().
		Str("event_id", event.ID.String()).
		Str("created_by", userID.String()).
		Msg("event created")

	s.indexEvent(ctx, event)
	return event, nil
}

// Update validates and overwrites an event. Only the creator or an admin may
// edit; the tag set is replaced wholesale with the submitted one.
func (s *eventService) Update(ctx context.Context, userID uuid.UUID, id uuid.UUID, req *EventRequest) (*models.Event, error) {
	txn := s.tracer.StartTransaction("update-event")
	defer s.tracer.EndTransaction(txn)

	if err := validate(req); err != nil {
		return nil, err
	}

	existing, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := s.requireOwnerOrAdmin(ctx, userID, existing.CreatedBy); err != nil {
		return nil, err
	}

	existing.Title = req.Title
	existing.Description = req.Description
	existing.Location = req.Location
	existing.Room = req.Room
	existing.Date = req.Date
	existing.StartTime = req.StartTime
	existing.EndTime = req.EndTime
	existing.MaxCapacity = req.MaxCapacity
	existing.Lat = req.Lat
	existing.Lng = req.Lng

	span := s.tracer.StartSpan("update-event-db", txn)
	err = s.eventRepo.Update(ctx, existing, splitTags(req.Tags))
	span.End()
	if err != nil {
		s.tracer.RecordError(txn, err)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to update event")
	}

	updated, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to reload updated event")
	}

	s.invalidate(ctx, id)
	s.indexEvent(ctx, updated)
	return updated, nil
}

// Delete removes an event together with its join rows, RSVPs and
// notification preferences.
func (s *eventService) Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) error {
	txn := s.tracer.StartTransaction("delete-event")
	defer s.tracer.EndTransaction(txn)

	existing, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.requireOwnerOrAdmin(ctx, userID, existing.CreatedBy); err != nil {
		return err
	}

	span := s.tracer.StartSpan("delete-event-db", txn)
	err = s.eventRepo.Delete(ctx, id)
	span.End()
	if err != nil {
		s.tracer.RecordError(txn, err)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return errors.Wrap(err, "failed to delete event")
	}

	log.Info().
		Str("event_id", id.String()).
		Str("deleted_by", userID.String()).
		Msg("event deleted")

	s.invalidate(ctx, id)
	if err := s.elasticClient.DeleteEvent(ctx, id); err != nil {
		log.Warn().Err(err).Str("event_id", id.String()).Msg("failed to remove event from search index")
	}
	return nil
}

// Get is a cache-backed read of a single event
func (s *eventService) Get(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	if s.cache.Enabled() {
		var cached models.Event
		if err := s.cache.Get(ctx, cache.GetEventCacheKey(id), &cached); err == nil {
			return &cached, nil
		}
	}

	event, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cache.GetEventCacheKey(id), event, 5*time.Minute); err != nil {
			log.Warn().Err(err).Str("event_id", id.String()).Msg("failed to cache event")
		}
	}
	return event, nil
}

// List applies the conjunctive browse filter. Free-text queries go through
// Elasticsearch when it is available; the repository falls back to ILIKE
// matching otherwise.
func (s *eventService) List(ctx context.Context, filter repository.EventFilter) ([]*models.Event, error) {
	txn := s.tracer.StartTransaction("list-events")
	defer s.tracer.EndTransaction(txn)

	if filter.Query != "" && s.elasticClient.Enabled() {
		span := s.tracer.StartSpan("search-events", txn)
		ids, err := s.elasticClient.SearchEvents(ctx, filter.Query)
		span.End()
		if err != nil {
			// Degrade to database-side matching rather than failing the browse
			log.Warn().Err(err).Str("query", filter.Query).Msg("search unavailable, falling back to SQL matching")
			s.tracer.RecordError(txn, err)
		} else {
			filter.IDs = ids
			filter.Query = ""
			if len(ids) == 0 {
				return []*models.Event{}, nil
			}
		}
	}

	events, err := s.eventRepo.List(ctx, filter)
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, errors.Wrap(err, "failed to list events")
	}
	return events, nil
}

// Attendees returns the attending roster for an event. Restricted to the
// event creator and admins.
func (s *eventService) Attendees(ctx context.Context, userID uuid.UUID, id uuid.UUID) ([]repository.Attendee, error) {
	event, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := s.requireOwnerOrAdmin(ctx, userID, event.CreatedBy); err != nil {
		return nil, err
	}

	return s.eventRepo.Attendees(ctx, id)
}

func (s *eventService) requireOwnerOrAdmin(ctx context.Context, userID, ownerID uuid.UUID) error {
	if userID == ownerID {
		return nil
	}
	isAdmin, err := s.profileRepo.IsAdmin(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "failed to check admin flag")
	}
	if !isAdmin {
		return ErrForbidden
	}
	return nil
}

func (s *eventService) invalidate(ctx context.Context, id uuid.UUID) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Delete(ctx, cache.GetEventCacheKey(id)); err != nil {
		log.Warn().Err(err).Str("event_id", id.String()).Msg("failed to invalidate event cache")
	}
}

func (s *eventService) indexEvent(ctx context.Context, event *models.Event) {
	if err := s.elasticClient.IndexEvent(ctx, event); err != nil {
		log.Warn().Err(err).Str("event_id", event.ID.String()).Msg("failed to index event")
	}
}
