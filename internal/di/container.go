package di

import (
	"context"
	"fmt"

	"github.com/VinayKumar7512/EventNest/internal/gateway"
	"github.com/VinayKumar7512/EventNest/internal/handler"
	"github.com/VinayKumar7512/EventNest/internal/repository"
	"github.com/VinayKumar7512/EventNest/internal/sender"
	"github.com/VinayKumar7512/EventNest/internal/service"
	"github.com/VinayKumar7512/EventNest/internal/worker"
	"github.com/VinayKumar7512/EventNest/pkg/config"
	"github.com/VinayKumar7512/EventNest/pkg/database"
	"github.com/VinayKumar7512/EventNest/pkg/logger"
	pkgredis "github.com/VinayKumar7512/EventNest/pkg/redis"
)

// Container holds all wired dependencies
type Container struct {
	Config *config.Config

	// Infrastructure
	DB    *database.PostgresDB
	Redis *pkgredis.Client

	// Repositories
	EventRepo        repository.EventRepository
	BookingRepo      repository.BookingRepository
	PaymentRepo      repository.PaymentRepository
	NotificationRepo repository.NotificationRepository
	EventCache       *repository.RedisEventCache

	// External
	Checkout       gateway.CheckoutGateway
	Sender         sender.Sender
	EventPublisher service.EventPublisher

	// Services
	EventService        service.EventService
	BookingService      service.BookingService
	PaymentService      service.PaymentService
	NotificationService service.NotificationService
	ReminderService     service.ReminderService

	// Workers
	ReminderWorker *worker.ReminderWorker

	// Handlers
	HealthHandler       *handler.HealthHandler
	EventHandler        *handler.EventHandler
	BookingHandler      *handler.BookingHandler
	PaymentHandler      *handler.PaymentHandler
	NotificationHandler *handler.NotificationHandler
}

// NewContainer wires the full dependency graph from configuration.
// Kafka and mail are optional: when unconfigured they fall back to no-op
// implementations so a local setup only needs Postgres.
func NewContainer(ctx context.Context, cfg *config.Config, db *database.PostgresDB, redis *pkgredis.Client) (*Container, error) {
	c := &Container{
		Config: cfg,
		DB:     db,
		Redis:  redis,
	}

	pool := db.Pool()
	c.EventRepo = repository.NewPostgresEventRepository(pool)
	c.BookingRepo = repository.NewPostgresBookingRepository(pool)
	c.PaymentRepo = repository.NewPostgresPaymentRepository(pool)
	c.NotificationRepo = repository.NewPostgresNotificationRepository(pool)

	if redis != nil {
		c.EventCache = repository.NewRedisEventCache(redis, repository.DefaultAvailabilityTTL)
	}

	checkout, err := gateway.NewStripeGateway(&gateway.StripeGatewayConfig{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		Currency:      cfg.Stripe.Currency,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe gateway: %w", err)
	}
	c.Checkout = checkout

	if cfg.Mail.APIKey != "" {
		c.Sender = sender.NewMailerSendSender(cfg.Mail.APIKey, cfg.Mail.FromName, cfg.Mail.FromEmail)
	} else {
		logger.Get().Warn("Mail API key not configured, using no-op sender")
		c.Sender = sender.NewNoOpSender()
	}

	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := service.NewKafkaEventPublisher(ctx, &service.EventPublisherConfig{
			Brokers:     cfg.Kafka.Brokers,
			Topic:       cfg.Kafka.Topic,
			ServiceName: cfg.App.Name,
			ClientID:    cfg.Kafka.ClientID,
		})
		if err != nil {
			logger.Get().Warn(fmt.Sprintf("Kafka unavailable, falling back to no-op publisher: %v", err))
			c.EventPublisher = service.NewNoOpEventPublisher()
		} else {
			c.EventPublisher = publisher
		}
	} else {
		c.EventPublisher = service.NewNoOpEventPublisher()
	}

	c.EventService = service.NewEventService(c.EventRepo, c.EventCache)
	c.NotificationService = service.NewNotificationService(c.NotificationRepo, c.Sender)
	c.BookingService = service.NewBookingService(
		c.BookingRepo,
		c.EventRepo,
		c.PaymentRepo,
		c.Checkout,
		c.EventPublisher,
		c.EventCache,
		&service.BookingServiceConfig{
			ClientURL: cfg.App.ClientURL,
			Currency:  cfg.Stripe.Currency,
		},
	)
	c.PaymentService = service.NewPaymentService(
		c.BookingRepo,
		c.EventRepo,
		c.PaymentRepo,
		c.Checkout,
		c.NotificationService,
		c.EventPublisher,
		c.EventCache,
		&service.PaymentServiceConfig{
			Currency: cfg.Stripe.Currency,
		},
	)
	c.ReminderService = service.NewReminderService(
		c.BookingRepo,
		c.EventRepo,
		c.NotificationService,
		c.EventPublisher,
		&service.ReminderServiceConfig{
			Lookahead: cfg.Reminder.Lookahead,
			BatchSize: cfg.Reminder.BatchSize,
		},
	)

	c.ReminderWorker = worker.NewReminderWorker(c.ReminderService, &worker.ReminderWorkerConfig{
		SweepInterval: cfg.Reminder.SweepInterval,
	})

	c.HealthHandler = handler.NewHealthHandler(c.DB, c.Redis, cfg.App.Version)
	c.EventHandler = handler.NewEventHandler(c.EventService)
	c.BookingHandler = handler.NewBookingHandler(c.BookingService)
	c.PaymentHandler = handler.NewPaymentHandler(c.PaymentService)
	c.NotificationHandler = handler.NewNotificationHandler(c.NotificationService)

	return c, nil
}

// Close releases container resources
func (c *Container) Close() {
	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			logger.Get().Warn(fmt.Sprintf("Failed to close event publisher: %v", err))
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logger.Get().Warn(fmt.Sprintf("Failed to close redis client: %v", err))
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
