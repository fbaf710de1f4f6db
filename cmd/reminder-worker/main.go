package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/apexev/apexev-backend/internal/appointments"
	"github.com/apexev/apexev-backend/internal/cron"
	"github.com/apexev/apexev-backend/internal/notifications"
	"github.com/apexev/apexev-backend/pkg/config"
	"github.com/apexev/apexev-backend/pkg/db"
	"github.com/apexev/apexev-backend/pkg/instance"
	"github.com/apexev/apexev-backend/pkg/logger"
	"github.com/apexev/apexev-backend/pkg/mailer"
	"github.com/apexev/apexev-backend/pkg/metrics"
	"github.com/apexev/apexev-backend/pkg/migrate"
	"github.com/apexev/apexev-backend/pkg/redis"
)

const serviceName = "reminder-worker"

func main() {
	once := flag.Bool("once", false, "run a single reminder cycle and exit")
	runOnStart := flag.Bool("run-on-start", false, "run a reminder cycle immediately before waiting for the next boundary")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = serviceName

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Fields:      map[string]any{"env": cfg.App.Env},
	})

	location, err := cfg.Reminder.Location()
	if err != nil {
		logg.Error(context.Background(), "invalid reminder time zone", err)
		os.Exit(1)
	}

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sender, err := mailer.New(context.Background(), cfg.Email, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create email sender", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	templatesService, err := notifications.NewTemplateService(notifications.NewTemplateRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notification templates service", err)
		os.Exit(1)
	}

	reminderJob, err := cron.NewAppointmentReminderJob(cron.AppointmentReminderJobParams{
		Logger:          logg,
		Repository:      appointments.NewRepository(dbClient.DB()),
		Sender:          sender,
		Templates:       templatesService,
		Metrics:         metrics.NewReminderMetrics(registry),
		Lookahead:       cfg.Reminder.Lookahead,
		Location:        location,
		DispatchTimeout: cfg.ReminderDispatchTimeout(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create appointment reminder job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(serviceName, cfg.App.Env), cfg.Reminder.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	// a run may not outlive the lock that guards it
	jobs := cron.NewRegistry()
	if err := jobs.Register(reminderJob, cron.WithTimeout(cfg.Reminder.LockTTL)); err != nil {
		logg.Error(context.Background(), "failed to register appointment reminder job", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   jobs,
		Lock:       lock,
		Metrics:    metrics.NewCronJobMetrics(registry),
		Interval:   cfg.Reminder.Interval,
		RunOnStart: *runOnStart,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})

	if *once {
		logg.Info(ctx, "running single reminder cycle")
		service.RunOnce(ctx)
		return
	}

	metricsServer := &http.Server{
		Addr:              cfg.Metrics.Addr,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics server stopped unexpectedly", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "metrics server shutdown failed", err)
		}
	}()

	jobNames := make([]string, 0, 1)
	for _, job := range jobs.Jobs() {
		jobNames = append(jobNames, job.Name())
	}
	logg.Info(logg.WithFields(ctx, map[string]any{
		"jobs":       jobNames,
		"interval":   cfg.Reminder.Interval.String(),
		"runOnStart": *runOnStart,
	}), "starting reminder worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "reminder worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "reminder worker shutting down gracefully")
}
