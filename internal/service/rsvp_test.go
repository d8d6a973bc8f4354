package service

import (
	"context"
	"testing"

	"example.com/campus/services/events/internal/models"
	"example.com/campus/services/events/internal/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newRSVPService(rsvpRepo *MockRSVPRepository, eventRepo *MockEventRepository, notificationRepo *MockNotificationRepository, calendarClient *MockCalendarClient) RSVPService {
	return NewRSVPService(rsvpRepo, eventRepo, notificationRepo, newDisabledCache(), calendarClient, newDisabledTracer())
}

func TestToggleFirstRSVPCreatesDefaultPreferences(t *testing.T) {
	rsvpRepo := new(MockRSVPRepository)
	eventRepo := new(MockEventRepository)
	notificationRepo := new(MockNotificationRepository)
	calendarClient := new(MockCalendarClient)
	svc := newRSVPService(rsvpRepo, eventRepo, notificationRepo, calendarClient)

	userID := uuid.New()
	eventID := uuid.New()

	rsvpRepo.On("Toggle", mock.Anything, userID, eventID).
		Return(&models.UserEvent{UserID: userID, EventID: eventID, Status: models.RSVPAttending}, 5, nil)
	eventRepo.On("RefreshAttendeeCount", mock.Anything, eventID).Return(5, nil)
	notificationRepo.On("EnsureDefault", mock.Anything, userID, eventID).Return(nil)

	result, err := svc.Toggle(context.Background(), userID, eventID, "")
	require.NoError(t, err)
	require.Equal(t, models.RSVPAttending, result.Status)
	require.Equal(t, 5, result.AttendeeCount)
	require.False(t, result.CalendarPushed)

	notificationRepo.AssertExpectations(t)
	// No token attached, so no calendar push
	calendarClient.AssertNotCalled(t, "PushEvent", mock.Anything, mock.Anything, mock.Anything)
}

func TestTogglePushesToCalendarWithToken(t *testing.T) {
	rsvpRepo := new(MockRSVPRepository)
	eventRepo := new(MockEventRepository)
	notificationRepo := new(MockNotificationRepository)
	calendarClient := new(MockCalendarClient)
	svc := newRSVPService(rsvpRepo, eventRepo, notificationRepo, calendarClient)

	userID := uuid.New()
	eventID := uuid.New()
	event := &models.Event{ID: eventID, Title: "Career Fair"}

	rsvpRepo.On("Toggle", mock.Anything, userID, eventID).
		Return(&models.UserEvent{Status: models.RSVPAttending}, 12, nil)
	eventRepo.On("RefreshAttendeeCount", mock.Anything, eventID).Return(12, nil)
	notificationRepo.On("EnsureDefault", mock.Anything, userID, eventID).Return(nil)
	eventRepo.On("FindByID", mock.Anything, eventID).Return(event, nil)
	calendarClient.On("PushEvent", mock.Anything, "tok-123", event).Return(nil)

	result, err := svc.Toggle(context.Background(), userID, eventID, "tok-123")
	require.NoError(t, err)
	require.True(t, result.CalendarPushed)

	calendarClient.AssertExpectations(t)
}

func TestToggleCalendarFailureDoesNotFailToggle(t *testing.T) {
	rsvpRepo := new(MockRSVPRepository)
	eventRepo := new(MockEventRepository)
	notificationRepo := new(MockNotificationRepository)
	calendarClient := new(MockCalendarClient)
	svc := newRSVPService(rsvpRepo, eventRepo, notificationRepo, calendarClient)

	userID := uuid.New()
	eventID := uuid.New()

	rsvpRepo.On("Toggle", mock.Anything, userID, eventID).
		Return(&models.UserEvent{Status: models.RSVPAttending}, 1, nil)
	eventRepo.On("RefreshAttendeeCount", mock.Anything, eventID).Return(1, nil)
	notificationRepo.On("EnsureDefault", mock.Anything, userID, eventID).Return(nil)
	eventRepo.On("FindByID", mock.Anything, eventID).Return(&models.Event{ID: eventID}, nil)
	calendarClient.On("PushEvent", mock.Anything, "tok-123", mock.Anything).Return(errors.New("token revoked"))

	result, err := svc.Toggle(context.Background(), userID, eventID, "tok-123")
	require.NoError(t, err)
	require.False(t, result.CalendarPushed)
}

func TestToggleOffSkipsAttendingSideEffects(t *testing.T) {
	rsvpRepo := new(MockRSVPRepository)
	eventRepo := new(MockEventRepository)
	notificationRepo := new(MockNotificationRepository)
	calendarClient := new(MockCalendarClient)
	svc := newRSVPService(rsvpRepo, eventRepo, notificationRepo, calendarClient)

	userID := uuid.New()
	eventID := uuid.New()

	rsvpRepo.On("Toggle", mock.Anything, userID, eventID).
		Return(&models.UserEvent{Status: models.RSVPNotAttending}, 4, nil)
	eventRepo.On("RefreshAttendeeCount", mock.Anything, eventID).Return(4, nil)

	result, err := svc.Toggle(context.Background(), userID, eventID, "tok-123")
	require.NoError(t, err)
	require.Equal(t, models.RSVPNotAttending, result.Status)

	notificationRepo.AssertNotCalled(t, "EnsureDefault", mock.Anything, mock.Anything, mock.Anything)
	calendarClient.AssertNotCalled(t, "PushEvent", mock.Anything, mock.Anything, mock.Anything)
}

func TestToggleKeepsCountWhenResyncFails(t *testing.T) {
	rsvpRepo := new(MockRSVPRepository)
	eventRepo := new(MockEventRepository)
	notificationRepo := new(MockNotificationRepository)
	calendarClient := new(MockCalendarClient)
	svc := newRSVPService(rsvpRepo, eventRepo, notificationRepo, calendarClient)

	userID := uuid.New()
	eventID := uuid.New()

	rsvpRepo.On("Toggle", mock.Anything, userID, eventID).
		Return(&models.UserEvent{Status: models.RSVPNotAttending}, 7, nil)
	eventRepo.On("RefreshAttendeeCount", mock.Anything, eventID).
		Return(0, errors.New("connection reset"))

	result, err := svc.Toggle(context.Background(), userID, eventID, "")
	require.NoError(t, err)
	require.Equal(t, 7, result.AttendeeCount)
}

func TestToggleUnknownEvent(t *testing.T) {
	rsvpRepo := new(MockRSVPRepository)
	eventRepo := new(MockEventRepository)
	notificationRepo := new(MockNotificationRepository)
	calendarClient := new(MockCalendarClient)
	svc := newRSVPService(rsvpRepo, eventRepo, notificationRepo, calendarClient)

	userID := uuid.New()
	eventID := uuid.New()
	rsvpRepo.On("Toggle", mock.Anything, userID, eventID).Return(nil, 0, repository.ErrNotFound)

	_, err := svc.Toggle(context.Background(), userID, eventID, "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestResync(t *testing.T) {
	rsvpRepo := new(MockRSVPRepository)
	eventRepo := new(MockEventRepository)
	notificationRepo := new(MockNotificationRepository)
	calendarClient := new(MockCalendarClient)
	svc := newRSVPService(rsvpRepo, eventRepo, notificationRepo, calendarClient)

	eventID := uuid.New()
	eventRepo.On("RefreshAttendeeCount", mock.Anything, eventID).Return(17, nil)

	count, err := svc.Resync(context.Background(), eventID)
	require.NoError(t, err)
	require.Equal(t, 17, count)
}

func TestReconcileCountsContinuesPastFailures(t *testing.T) {
	rsvpRepo := new(MockRSVPRepository)
	eventRepo := new(MockEventRepository)
	notificationRepo := new(MockNotificationRepository)
	calendarClient := new(MockCalendarClient)
	svc := newRSVPService(rsvpRepo, eventRepo, notificationRepo, calendarClient)

	bad := &models.Event{ID: uuid.New(), AttendeeCount: 3}
	good := &models.Event{ID: uuid.New(), AttendeeCount: 8}

	eventRepo.On("List", mock.Anything, mock.AnythingOfType("repository.EventFilter")).
		Return([]*models.Event{bad, good}, nil)
	eventRepo.On("RefreshAttendeeCount", mock.Anything, bad.ID).Return(0, errors.New("deadlock"))
	eventRepo.On("RefreshAttendeeCount", mock.Anything, good.ID).Return(9, nil)

	err := svc.ReconcileCounts(context.Background())
	require.NoError(t, err)
	eventRepo.AssertExpectations(t)
}
