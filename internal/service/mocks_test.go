package service

import (
	"context"
	"time"

	"example.com/campus/services/events/config"
	"example.com/campus/services/events/internal/cache"
	"example.com/campus/services/events/internal/messaging"
	"example.com/campus/services/events/internal/models"
	"example.com/campus/services/events/internal/repository"
	"example.com/campus/services/events/internal/search"
	"example.com/campus/services/events/internal/tracing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock repositories for testing

type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Create(ctx context.Context, event *models.Event, tagNames []string) error {
	args := m.Called(ctx, event, tagNames)
	return args.Error(0)
}

func (m *MockEventRepository) Update(ctx context.Context, event *models.Event, tagNames []string) error {
	args := m.Called(ctx, event, tagNames)
	return args.Error(0)
}

func (m *MockEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventRepository) List(ctx context.Context, filter repository.EventFilter) ([]*models.Event, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Event), args.Error(1)
}

func (m *MockEventRepository) Attendees(ctx context.Context, eventID uuid.UUID) ([]repository.Attendee, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.Attendee), args.Error(1)
}

func (m *MockEventRepository) RefreshAttendeeCount(ctx context.Context, eventID uuid.UUID) (int, error) {
	args := m.Called(ctx, eventID)
	return args.Int(0), args.Error(1)
}

type MockRSVPRepository struct {
	mock.Mock
}

func (m *MockRSVPRepository) Find(ctx context.Context, userID, eventID uuid.UUID) (*models.UserEvent, error) {
	args := m.Called(ctx, userID, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserEvent), args.Error(1)
}

func (m *MockRSVPRepository) Toggle(ctx context.Context, userID, eventID uuid.UUID) (*models.UserEvent, int, error) {
	args := m.Called(ctx, userID, eventID)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(*models.UserEvent), args.Int(1), args.Error(2)
}

func (m *MockRSVPRepository) CountAttending(ctx context.Context, eventID uuid.UUID) (int64, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRSVPRepository) ListAttendingEvents(ctx context.Context, userID uuid.UUID) ([]*models.Event, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Event), args.Error(1)
}

func (m *MockRSVPRepository) ListEventIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type MockTagRepository struct {
	mock.Mock
}

func (m *MockTagRepository) GetOrCreate(ctx context.Context, name string) (*models.Tag, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tag), args.Error(1)
}

func (m *MockTagRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tag), args.Error(1)
}

func (m *MockTagRepository) FindByName(ctx context.Context, name string) (*models.Tag, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tag), args.Error(1)
}

func (m *MockTagRepository) List(ctx context.Context) ([]models.Tag, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Tag), args.Error(1)
}

func (m *MockTagRepository) Follow(ctx context.Context, userID, tagID uuid.UUID) error {
	args := m.Called(ctx, userID, tagID)
	return args.Error(0)
}

func (m *MockTagRepository) Unfollow(ctx context.Context, userID, tagID uuid.UUID) error {
	args := m.Called(ctx, userID, tagID)
	return args.Error(0)
}

func (m *MockTagRepository) IsFollowed(ctx context.Context, userID, tagID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, tagID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTagRepository) ListFollowedIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Find(ctx context.Context, userID, eventID uuid.UUID) (*models.EventNotificationPreference, error) {
	args := m.Called(ctx, userID, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EventNotificationPreference), args.Error(1)
}

func (m *MockNotificationRepository) Upsert(ctx context.Context, pref *models.EventNotificationPreference) error {
	args := m.Called(ctx, pref)
	return args.Error(0)
}

func (m *MockNotificationRepository) EnsureDefault(ctx context.Context, userID, eventID uuid.UUID) error {
	args := m.Called(ctx, userID, eventID)
	return args.Error(0)
}

func (m *MockNotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.EventNotificationPreference, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.EventNotificationPreference), args.Error(1)
}

func (m *MockNotificationRepository) DueReminders(ctx context.Context, now time.Time) ([]*repository.DueReminder, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.DueReminder), args.Error(1)
}

func (m *MockNotificationRepository) MarkDispatched(ctx context.Context, preferenceIDs []uuid.UUID, at time.Time) error {
	args := m.Called(ctx, preferenceIDs, at)
	return args.Error(0)
}

type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockProfileRepository) IsAdmin(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockCalendarClient struct {
	mock.Mock
}

func (m *MockCalendarClient) PushEvent(ctx context.Context, token string, event *models.Event) error {
	args := m.Called(ctx, token, event)
	return args.Error(0)
}

func (m *MockCalendarClient) PushEvents(ctx context.Context, token string, events []*models.Event) (int, error) {
	args := m.Called(ctx, token, events)
	return args.Int(0), args.Error(1)
}

type MockBusClient struct {
	mock.Mock
}

func (m *MockBusClient) SendReminder(ctx context.Context, msg messaging.ReminderMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockBusClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Test fixtures

func newDisabledCache() *cache.RedisCache {
	c, _ := cache.NewRedisCache(config.RedisConfig{Enabled: false})
	return c
}

func newDisabledTracer() tracing.Tracer {
	t, _ := tracing.NewTracer(config.TracingConfig{})
	return t
}

func newDisabledSearch() *search.ElasticClient {
	c, _ := search.NewElasticClient(config.ElasticConfig{Enabled: false})
	return c
}
