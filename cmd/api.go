package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"example.com/campus/services/events/config"
	"example.com/campus/services/events/internal/api"
	"example.com/campus/services/events/internal/cache"
	"example.com/campus/services/events/internal/calendar"
	"example.com/campus/services/events/internal/database"
	"example.com/campus/services/events/internal/messaging"
	"example.com/campus/services/events/internal/metrics"
	"example.com/campus/services/events/internal/repository"
	"example.com/campus/services/events/internal/search"
	"example.com/campus/services/events/internal/service"
	"example.com/campus/services/events/internal/tracing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long:  `Start the HTTP API server for event browsing, RSVPs, tag follows and calendar sync`,
	RunE:  runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return err
	}

	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	db, err := database.Connect(cfg.DB)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize Redis cache, continuing without caching")
		redisCache, _ = cache.NewRedisCache(config.RedisConfig{Enabled: false})
	}
	defer redisCache.Close()

	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize tracer, continuing without tracing")
	}

	elasticClient, err := search.NewElasticClient(cfg.Elastic)
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize Elasticsearch client, continuing without search")
		elasticClient, _ = search.NewElasticClient(config.ElasticConfig{Enabled: false})
	}

	var busClient messaging.ServiceBusClient
	if cfg.ServiceBus.ConnectionString != "" {
		busClient, err = messaging.NewServiceBusClient(cfg.ServiceBus, "api")
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize Service Bus client, reminder dispatch disabled")
		} else {
			defer busClient.Close()
		}
	}

	metricsCollector := metrics.NewMetrics()
	metricsCollector.SetHealth("database", true)
	metricsCollector.SetHealth("cache", redisCache.Enabled() || !cfg.Redis.Enabled)

	calendarClient := calendar.NewClient(cfg.Calendar)

	eventRepo := repository.NewEventRepository(db)
	tagRepo := repository.NewTagRepository(db)
	rsvpRepo := repository.NewRSVPRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	services := api.Services{
		Event:        service.NewEventService(eventRepo, profileRepo, redisCache, elasticClient, tracer),
		RSVP:         service.NewRSVPService(rsvpRepo, eventRepo, notificationRepo, redisCache, calendarClient, tracer),
		Tag:          service.NewTagService(tagRepo, redisCache),
		Notification: service.NewNotificationService(notificationRepo, eventRepo, busClient, tracer),
		Calendar:     service.NewCalendarService(rsvpRepo, calendarClient, cfg.Calendar.TimeZone, tracer),
	}

	server := api.NewServer(cfg, services, profileRepo, statsRepo, metricsCollector, tracer)

	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()

	if err := server.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("API server stopped")
	return nil
}
