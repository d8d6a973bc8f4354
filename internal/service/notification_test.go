package service

import (
	"context"
	"testing"
	"time"

	"example.com/campus/services/events/internal/messaging"
	"example.com/campus/services/events/internal/models"
	"example.com/campus/services/events/internal/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newNotificationService(notificationRepo *MockNotificationRepository, eventRepo *MockEventRepository, busClient *MockBusClient) NotificationService {
	return NewNotificationService(notificationRepo, eventRepo, busClient, newDisabledTracer())
}

func TestUpsertPreference(t *testing.T) {
	notificationRepo := new(MockNotificationRepository)
	eventRepo := new(MockEventRepository)
	busClient := new(MockBusClient)
	svc := newNotificationService(notificationRepo, eventRepo, busClient)

	userID := uuid.New()
	eventID := uuid.New()

	eventRepo.On("FindByID", mock.Anything, eventID).Return(&models.Event{ID: eventID}, nil)
	notificationRepo.On("Upsert", mock.Anything, mock.AnythingOfType("*models.EventNotificationPreference")).Return(nil)

	pref, err := svc.UpsertPreference(context.Background(), userID, eventID, true, 1)
	require.NoError(t, err)
	require.Equal(t, 1.0, pref.LeadHours)
	require.True(t, pref.EmailEnabled)

	notificationRepo.AssertExpectations(t)
}

func TestUpsertPreferenceRejectsUnknownLeadHours(t *testing.T) {
	notificationRepo := new(MockNotificationRepository)
	eventRepo := new(MockEventRepository)
	busClient := new(MockBusClient)
	svc := newNotificationService(notificationRepo, eventRepo, busClient)

	for _, h := range []float64{0, 2, 12, 48, -1} {
		_, err := svc.UpsertPreference(context.Background(), uuid.New(), uuid.New(), true, h)
		require.Error(t, err, "lead hours %v must be rejected", h)

		ve, ok := IsValidationError(err)
		require.True(t, ok)
		require.Contains(t, ve.Fields, "lead_hours")
	}

	notificationRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestUpsertPreferenceUnknownEvent(t *testing.T) {
	notificationRepo := new(MockNotificationRepository)
	eventRepo := new(MockEventRepository)
	busClient := new(MockBusClient)
	svc := newNotificationService(notificationRepo, eventRepo, busClient)

	eventID := uuid.New()
	eventRepo.On("FindByID", mock.Anything, eventID).Return(nil, repository.ErrNotFound)

	_, err := svc.UpsertPreference(context.Background(), uuid.New(), eventID, true, 24)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDispatchDueReminders(t *testing.T) {
	notificationRepo := new(MockNotificationRepository)
	eventRepo := new(MockEventRepository)
	busClient := new(MockBusClient)
	svc := newNotificationService(notificationRepo, eventRepo, busClient)

	now := time.Now()
	first := &repository.DueReminder{
		PreferenceID: uuid.New(),
		UserID:       uuid.New(),
		Email:        "ada@example.edu",
		EventID:      uuid.New(),
		Title:        "Hackathon Kickoff",
		Date:         "2026-11-07",
		StartTime:    "09:00",
		LeadHours:    24,
	}
	second := &repository.DueReminder{
		PreferenceID: uuid.New(),
		UserID:       uuid.New(),
		Email:        "grace@example.edu",
		EventID:      uuid.New(),
		Title:        "Jazz Ensemble",
		Date:         "2026-11-07",
		StartTime:    "19:30",
		LeadHours:    1,
	}

	notificationRepo.On("DueReminders", mock.Anything, now).Return([]*repository.DueReminder{first, second}, nil)
	busClient.On("SendReminder", mock.Anything, mock.AnythingOfType("messaging.ReminderMessage")).Return(nil)
	notificationRepo.On("MarkDispatched", mock.Anything, []uuid.UUID{first.PreferenceID, second.PreferenceID}, now).Return(nil)

	sent, err := svc.DispatchDueReminders(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, 2, sent)

	busClient.AssertNumberOfCalls(t, "SendReminder", 2)
	notificationRepo.AssertExpectations(t)
}

func TestDispatchSkipsFailedSends(t *testing.T) {
	notificationRepo := new(MockNotificationRepository)
	eventRepo := new(MockEventRepository)
	busClient := new(MockBusClient)
	svc := newNotificationService(notificationRepo, eventRepo, busClient)

	now := time.Now()
	failing := &repository.DueReminder{PreferenceID: uuid.New(), EventID: uuid.New(), Email: "x@example.edu"}
	ok := &repository.DueReminder{PreferenceID: uuid.New(), EventID: uuid.New(), Email: "y@example.edu"}

	notificationRepo.On("DueReminders", mock.Anything, now).Return([]*repository.DueReminder{failing, ok}, nil)
	busClient.On("SendReminder", mock.Anything, mock.MatchedBy(func(msg messaging.ReminderMessage) bool {
		return msg.Email == "x@example.edu"
	})).Return(errors.New("queue unavailable"))
	busClient.On("SendReminder", mock.Anything, mock.MatchedBy(func(msg messaging.ReminderMessage) bool {
		return msg.Email == "y@example.edu"
	})).Return(nil)
	// Only the delivered reminder is stamped; the failed one retries next tick
	notificationRepo.On("MarkDispatched", mock.Anything, []uuid.UUID{ok.PreferenceID}, now).Return(nil)

	sent, err := svc.DispatchDueReminders(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, 1, sent)

	notificationRepo.AssertExpectations(t)
}

func TestDispatchNothingDue(t *testing.T) {
	notificationRepo := new(MockNotificationRepository)
	eventRepo := new(MockEventRepository)
	busClient := new(MockBusClient)
	svc := newNotificationService(notificationRepo, eventRepo, busClient)

	now := time.Now()
	notificationRepo.On("DueReminders", mock.Anything, now).Return([]*repository.DueReminder{}, nil)

	sent, err := svc.DispatchDueReminders(context.Background(), now)
	require.NoError(t, err)
	require.Zero(t, sent)

	busClient.AssertNotCalled(t, "SendReminder", mock.Anything, mock.Anything)
	notificationRepo.AssertNotCalled(t, "MarkDispatched", mock.Anything, mock.Anything, mock.Anything)
}
