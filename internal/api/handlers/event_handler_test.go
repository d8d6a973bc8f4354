package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"example.com/campus/services/events/config"
	"example.com/campus/services/events/internal/api/middleware"
	"example.com/campus/services/events/internal/models"
	"example.com/campus/services/events/internal/repository"
	"example.com/campus/services/events/internal/service"
	"example.com/campus/services/events/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Mock services for handler tests

type MockEventService struct {
	mock.Mock
}

func (m *MockEventService) Create(ctx context.Context, userID uuid.UUID, req *service.EventRequest) (*models.Event, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventService) Update(ctx context.Context, userID uuid.UUID, id uuid.UUID, req *service.EventRequest) (*models.Event, error) {
	args := m.Called(ctx, userID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventService) Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockEventService) Get(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventService) List(ctx context.Context, filter repository.EventFilter) ([]*models.Event, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Event), args.Error(1)
}

func (m *MockEventService) Attendees(ctx context.Context, userID uuid.UUID, id uuid.UUID) ([]repository.Attendee, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.Attendee), args.Error(1)
}

func newTestTracer() tracing.Tracer {
	t, _ := tracing.NewTracer(config.TracingConfig{})
	return t
}

// newEventRouter wires the handler under a fake identity so requests carry a
// known user id without the full middleware chain.
func newEventRouter(svc service.EventService, userID uuid.UUID) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Next()
	})

	h := NewEventHandler(svc, newTestTracer())
	router.GET("/events", h.HandleList)
	router.POST("/events", h.HandleCreate)
	router.GET("/events/:id", h.HandleGet)
	router.DELETE("/events/:id", h.HandleDelete)
	return router
}

func TestHandleCreateEvent(t *testing.T) {
	svc := new(MockEventService)
	userID := uuid.New()
	router := newEventRouter(svc, userID)

	created := &models.Event{ID: uuid.New(), Title: "Trivia Night", CreatedBy: userID}
	svc.On("Create", mock.Anything, userID, mock.AnythingOfType("*service.EventRequest")).Return(created, nil)

	body, _ := json.Marshal(service.EventRequest{
		Title:       "Trivia Night",
		Description: "Teams of four",
		Location:    "Student Union",
		Date:        "2026-09-20",
		StartTime:   "19:00",
		EndTime:     "21:00",
		MaxCapacity: 60,
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(body))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp models.Event
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, created.ID, resp.ID)
}

func TestHandleCreateEventValidationFailure(t *testing.T) {
	svc := new(MockEventService)
	router := newEventRouter(svc, uuid.New())

	svc.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, service.NewValidationError("title", "title is required"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader([]byte(`{}`)))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Contains(t, resp.Fields, "title")
}

func TestHandleGetEventInvalidID(t *testing.T) {
	svc := new(MockEventService)
	router := newEventRouter(svc, uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/events/not-a-uuid", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestHandleGetEventNotFound(t *testing.T) {
	svc := new(MockEventService)
	router := newEventRouter(svc, uuid.New())

	id := uuid.New()
	svc.On("Get", mock.Anything, id).Return(nil, service.ErrNotFound)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/events/"+id.String(), nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleDeleteEventForbidden(t *testing.T) {
	svc := new(MockEventService)
	userID := uuid.New()
	router := newEventRouter(svc, userID)

	id := uuid.New()
	svc.On("Delete", mock.Anything, userID, id).Return(service.ErrForbidden)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/events/"+id.String(), nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandleListParsesFilter(t *testing.T) {
	svc := new(MockEventService)
	router := newEventRouter(svc, uuid.New())

	svc.On("List", mock.Anything, mock.MatchedBy(func(f repository.EventFilter) bool {
		return f.Query == "jazz" &&
			len(f.TagNames) == 2 && f.TagNames[0] == "music" && f.TagNames[1] == "free food" &&
			f.DateFrom == "2026-09-01" &&
			f.HasCapacity
	})).Return([]*models.Event{}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/events?q=jazz&tags=music,free+food&date_from=2026-09-01&has_capacity=true", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}
