package api

import (
	"context"
	"net/http"
	"time"

	"example.com/campus/services/events/config"
	"example.com/campus/services/events/internal/api/handlers"
	"example.com/campus/services/events/internal/api/middleware"
	"example.com/campus/services/events/internal/metrics"
	"example.com/campus/services/events/internal/repository"
	"example.com/campus/services/events/internal/service"
	"example.com/campus/services/events/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Services bundles the business logic dependencies the server routes to
type Services struct {
	Event        service.EventService
	RSVP         service.RSVPService
	Tag          service.TagService
	Notification service.NotificationService
	Calendar     service.CalendarService
}

// Server represents the HTTP server
type Server struct {
	config      config.Config
	router      *gin.Engine
	httpServer  *http.Server
	services    Services
	profileRepo repository.ProfileRepository
	statsRepo   repository.StatsRepository
	metrics     *metrics.Metrics
	tracer      tracing.Tracer
}

// NewServer creates a new HTTP server
func NewServer(
	cfg config.Config,
	services Services,
	profileRepo repository.ProfileRepository,
	statsRepo repository.StatsRepository,
	collector *metrics.Metrics,
	tracer tracing.Tracer,
) *Server {
	server := &Server{
		config:      cfg,
		services:    services,
		profileRepo: profileRepo,
		statsRepo:   statsRepo,
		metrics:     collector,
		tracer:      tracer,
	}

	server.router = server.setupRouter()
	server.httpServer = &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      server.router,
		ReadTimeout:  cfg.ServerTimeout,
		WriteTimeout: cfg.ServerTimeout,
	}

	return server
}

// setupRouter configures the HTTP router
func (s *Server) setupRouter() *gin.Engine {
	if s.config.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics(s.metrics))

	eventHandler := handlers.NewEventHandler(s.services.Event, s.tracer)
	rsvpHandler := handlers.NewRSVPHandler(s.services.RSVP, s.tracer)
	tagHandler := handlers.NewTagHandler(s.services.Tag)
	notificationHandler := handlers.NewNotificationHandler(s.services.Notification)
	calendarHandler := handlers.NewCalendarHandler(s.services.Calendar)
	metricsHandler := handlers.NewMetricsHandler(s.metrics, s.tracer)
	adminHandler := handlers.NewAdminHandler(s.statsRepo)

	router.GET("/health", metricsHandler.HandleGetHealthCheck)
	router.GET("/metrics", metricsHandler.HandleGetMetrics)

	api := router.Group("/api/v1")
	api.Use(middleware.Identity(s.profileRepo))

	events := api.Group("/events")
	{
		events.GET("", eventHandler.HandleList)
		events.POST("", eventHandler.HandleCreate)
		events.GET("/:id", eventHandler.HandleGet)
		events.PUT("/:id", eventHandler.HandleUpdate)
		events.DELETE("/:id", eventHandler.HandleDelete)
		events.GET("/:id/attendees", eventHandler.HandleAttendees)
		events.POST("/:id/rsvp", rsvpHandler.HandleToggle)
		events.POST("/:id/resync", rsvpHandler.HandleResync)
		events.GET("/:id/notifications", notificationHandler.HandleGet)
		events.PUT("/:id/notifications", notificationHandler.HandleUpsert)
	}

	api.GET("/me/events", rsvpHandler.HandleMyEvents)

	tags := api.Group("/tags")
	{
		tags.GET("", tagHandler.HandleList)
		tags.POST("/:id/follow", tagHandler.HandleToggleFollow)
	}

	cal := api.Group("/calendar")
	{
		cal.POST("/sync", calendarHandler.HandleSync)
		cal.GET("/feed.ics", calendarHandler.HandleFeed)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.RequireAdmin(s.profileRepo))
	{
		admin.GET("/stats", adminHandler.HandleStats)
	}

	return router
}

// Router exposes the configured router, used by handler tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Info().Str("address", s.config.ServerAddress).Msg("starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "HTTP server error")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "HTTP server shutdown error")
	}

	log.Info().Msg("HTTP server shut down successfully")
	return nil
}
