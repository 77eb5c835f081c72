package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"hotelbook/cmd/consumers/jobs"
	"hotelbook/internal/api"
	"hotelbook/internal/cache"
	"hotelbook/internal/config"
	"hotelbook/internal/consumers"
	"hotelbook/internal/database"
	"hotelbook/internal/logger"
	"hotelbook/internal/messaging"
	"hotelbook/internal/repository"
	"hotelbook/internal/search"

	"github.com/go-co-op/gocron/v2"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.Get()
	log.Info("Starting consumers service")

	cfg.NATS.ClientID = "hotelbook-consumers"

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()
	repos := repository.NewRepositories(db)

	bus, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		logger.Fatal("Failed to connect to NATS", "error", err)
	}
	defer bus.Close()

	var indexer consumers.Indexer
	if cfg.Elasticsearch.Enabled() {
		es, err := search.NewElasticsearchClient(cfg.Elasticsearch)
		if err != nil {
			log.Warn("Elasticsearch unavailable, catalog will not be reindexed", "error", err)
		} else {
			indexer = es
		}
	}

	var invalidator consumers.CacheInvalidator
	if rc, err := cache.New(cfg.Redis); err != nil {
		log.Warn("Redis unavailable, listings will expire by TTL only", "error", err)
	} else {
		defer rc.Close()
		invalidator = rc
	}

	service := consumers.NewConsumerService(bus, consumers.NewHandlers(repos.Properties, indexer, invalidator))
	if err := service.Start(); err != nil {
		logger.Fatal("Failed to start consumers", "error", err)
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("Failed to create scheduler", "error", err)
	}
	notifier, _ := api.BuildNotifier(ctx, cfg, repos)
	reminder := jobs.NewCheckinReminderJob(repos.Bookings, notifier, time.Local)
	if _, err := reminder.Schedule(ctx, scheduler, cfg.Jobs.CheckinReminderAt); err != nil {
		logger.Fatal("Failed to schedule check-in reminders", "error", err)
	}
	scheduler.Start()
	log.Info("Consumers service started", "checkin_reminder_at", cfg.Jobs.CheckinReminderAt)

	<-ctx.Done()
	log.Info("Shutting down consumers service")

	if err := scheduler.Shutdown(); err != nil {
		log.Error("Error stopping scheduler", "error", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := service.Shutdown(shutdownCtx); err != nil {
		log.Error("Error during shutdown", "error", err)
	}

	log.Info("Consumers service stopped")
}
