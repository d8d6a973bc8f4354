package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.com/campus/services/events/config"
	"example.com/campus/services/events/internal/cache"
	"example.com/campus/services/events/internal/calendar"
	"example.com/campus/services/events/internal/database"
	"example.com/campus/services/events/internal/messaging"
	"example.com/campus/services/events/internal/repository"
	"example.com/campus/services/events/internal/service"
	"example.com/campus/services/events/internal/tracing"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Start the background worker for reminder dispatch and attendee count reconciliation`,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
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

	g, ctx := errgroup.WithContext(ctx)

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

	busClient, err := messaging.NewServiceBusClient(cfg.ServiceBus, "worker")
	if err != nil {
		return err
	}
	defer busClient.Close()

	eventRepo := repository.NewEventRepository(db)
	rsvpRepo := repository.NewRSVPRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	calendarClient := calendar.NewClient(cfg.Calendar)
	rsvpService := service.NewRSVPService(rsvpRepo, eventRepo, notificationRepo, redisCache, calendarClient, tracer)
	notificationService := service.NewNotificationService(notificationRepo, eventRepo, busClient, tracer)

	g.Go(func() error {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}

		log.Info().
			Dur("reminder_interval", cfg.Worker.ReminderInterval).
			Dur("reconcile_interval", cfg.Worker.ReconcileInterval).
			Msg("starting worker schedules")

		_, err = scheduler.NewJob(
			gocron.DurationJob(cfg.Worker.ReminderInterval),
			gocron.NewTask(func() {
				sent, err := notificationService.DispatchDueReminders(ctx, time.Now())
				if err != nil {
					log.Error().Err(err).Msg("reminder dispatch failed")
					return
				}
				if sent > 0 {
					log.Info().Int("sent", sent).Msg("reminders dispatched")
				}
			}),
		)
		if err != nil {
			return err
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(cfg.Worker.ReconcileInterval),
			gocron.NewTask(func() {
				if err := rsvpService.ReconcileCounts(ctx); err != nil {
					log.Error().Err(err).Msg("attendee count reconciliation failed")
				}
			}),
		)
		if err != nil {
			return err
		}

		scheduler.Start()

		<-ctx.Done()

		return scheduler.Shutdown()
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("worker error")
		return err
	}

	log.Info().Msg("worker shutting down gracefully")
	return nil
}
