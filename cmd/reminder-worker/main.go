package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VinayKumar7512/EventNest/internal/repository"
	"github.com/VinayKumar7512/EventNest/internal/sender"
	"github.com/VinayKumar7512/EventNest/internal/service"
	"github.com/VinayKumar7512/EventNest/internal/worker"
	"github.com/VinayKumar7512/EventNest/pkg/config"
	"github.com/VinayKumar7512/EventNest/pkg/database"
	"github.com/VinayKumar7512/EventNest/pkg/logger"
)

// Standalone reminder sweeper. The API binary runs the same worker in
// process; this entrypoint exists for deployments that want reminders
// on their own schedule and lifecycle.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logCfg := &logger.Config{
		Level:       cfg.App.Environment,
		ServiceName: "reminder-worker",
		Development: cfg.IsDevelopment(),
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting Reminder Worker...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection
	dbCfg := &database.PostgresConfig{
		Host:          cfg.Database.Host,
		Port:          cfg.Database.Port,
		User:          cfg.Database.User,
		Password:      cfg.Database.Password,
		Database:      cfg.Database.DBName,
		SSLMode:       cfg.Database.SSLMode,
		MaxConns:      10,
		MinConns:      2,
		MaxRetries:    3,
		RetryInterval: 2 * time.Second,
	}
	db, err := database.NewPostgres(ctx, dbCfg)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to connect to database: %v", err))
	}
	defer db.Close()
	appLog.Info("Database connected")

	// Initialize repositories
	bookingRepo := repository.NewPostgresBookingRepository(db.Pool())
	eventRepo := repository.NewPostgresEventRepository(db.Pool())
	notificationRepo := repository.NewPostgresNotificationRepository(db.Pool())

	// Initialize mail sender
	var snd sender.Sender
	if cfg.Mail.APIKey != "" {
		snd = sender.NewMailerSendSender(cfg.Mail.APIKey, cfg.Mail.FromName, cfg.Mail.FromEmail)
	} else {
		appLog.Warn("Mail API key not configured, using no-op sender")
		snd = sender.NewNoOpSender()
	}

	// Initialize Kafka event publisher
	var eventPublisher service.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		eventPublisher, err = service.NewKafkaEventPublisher(ctx, &service.EventPublisherConfig{
			Brokers:     cfg.Kafka.Brokers,
			Topic:       cfg.Kafka.Topic,
			ServiceName: "reminder-worker",
			ClientID:    cfg.Kafka.ClientID,
		})
		if err != nil {
			appLog.Warn(fmt.Sprintf("Kafka connection failed, using no-op publisher: %v", err))
			eventPublisher = service.NewNoOpEventPublisher()
		}
	} else {
		eventPublisher = service.NewNoOpEventPublisher()
	}
	defer eventPublisher.Close()

	notificationService := service.NewNotificationService(notificationRepo, snd)
	reminderService := service.NewReminderService(
		bookingRepo,
		eventRepo,
		notificationService,
		eventPublisher,
		&service.ReminderServiceConfig{
			Lookahead: cfg.Reminder.Lookahead,
			BatchSize: cfg.Reminder.BatchSize,
		},
	)

	reminderWorker := worker.NewReminderWorker(reminderService, &worker.ReminderWorkerConfig{
		SweepInterval: cfg.Reminder.SweepInterval,
	})

	if err := reminderWorker.Start(ctx); err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to start worker: %v", err))
	}
	appLog.Info("Reminder Worker started successfully")

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("Shutting down worker...")
	cancel()
	reminderWorker.Stop()

	appLog.Info("Worker exited gracefully")
}
