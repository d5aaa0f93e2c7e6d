package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/VinayKumar7512/EventNest/internal/di"
	"github.com/VinayKumar7512/EventNest/pkg/config"
	"github.com/VinayKumar7512/EventNest/pkg/database"
	"github.com/VinayKumar7512/EventNest/pkg/logger"
	"github.com/VinayKumar7512/EventNest/pkg/middleware"
	pkgredis "github.com/VinayKumar7512/EventNest/pkg/redis"
	"github.com/VinayKumar7512/EventNest/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logCfg := &logger.Config{
		Level:       cfg.App.Environment,
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting EventNest API...")

	ctx := context.Background()

	// Initialize tracing
	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
	}); err != nil {
		appLog.Warn(fmt.Sprintf("Telemetry init failed, continuing without tracing: %v", err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			appLog.Warn(fmt.Sprintf("Telemetry shutdown failed: %v", err))
		}
	}()

	// Initialize database connection
	dbCfg := &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxOpenConns),
		MinConns:        int32(cfg.Database.MaxIdleConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   1 * time.Second,
		EnableTracing:   cfg.OTel.Enabled,
	}
	db, err := database.NewPostgres(ctx, dbCfg)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Database connection failed: %v", err))
	}
	defer db.Close()
	appLog.Info(fmt.Sprintf("Database connected (pool: min=%d, max=%d)", dbCfg.MinConns, dbCfg.MaxConns))

	// Initialize Redis connection. The API degrades without it (no cache,
	// no idempotency guard), so a failure only logs a warning.
	var redisClient *pkgredis.Client
	redisCfg := &pkgredis.Config{
		Host:          cfg.Redis.Host,
		Port:          cfg.Redis.Port,
		Password:      cfg.Redis.Password,
		DB:            cfg.Redis.DB,
		PoolSize:      cfg.Redis.PoolSize,
		MinIdleConns:  cfg.Redis.MinIdleConns,
		MaxRetries:    3,
		RetryInterval: 100 * time.Millisecond,
		DialTimeout:   cfg.Redis.DialTimeout,
		ReadTimeout:   cfg.Redis.ReadTimeout,
		WriteTimeout:  cfg.Redis.WriteTimeout,
	}
	redisClient, err = pkgredis.NewClient(ctx, redisCfg)
	if err != nil {
		appLog.Warn(fmt.Sprintf("Redis connection failed, running without cache: %v", err))
		redisClient = nil
	} else {
		defer redisClient.Close()
		appLog.Info(fmt.Sprintf("Redis connected (pool: %d, minIdle: %d)", redisCfg.PoolSize, redisCfg.MinIdleConns))
	}

	// Build dependency injection container
	container, err := di.NewContainer(ctx, cfg, db, redisClient)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to build container: %v", err))
	}

	// Start reminder worker alongside the API
	if err := container.ReminderWorker.Start(ctx); err != nil {
		appLog.Warn(fmt.Sprintf("Reminder worker failed to start: %v", err))
	}

	router := setupRouter(cfg, container, redisClient)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Start server in goroutine
	go func() {
		appLog.Info(fmt.Sprintf("EventNest API listening on %s", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal(fmt.Sprintf("Failed to start server: %v", err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	container.ReminderWorker.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Fatal(fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	container.Close()
	appLog.Info("Server exited gracefully")
}

func setupRouter(cfg *config.Config, container *di.Container, redisClient *pkgredis.Client) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		gin.DisableConsoleColor()
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// Health check endpoints
	router.GET("/health", container.HealthHandler.Health)
	router.GET("/ready", container.HealthHandler.Ready)

	auth := middleware.AuthMiddleware(&middleware.AuthConfig{
		Secret:            cfg.JWT.Secret,
		TrustUserIDHeader: cfg.IsDevelopment(),
	})

	v1 := router.Group("/api/v1")
	{
		// Stripe calls this endpoint directly; authenticity comes from the
		// webhook signature, not a bearer token.
		v1.POST("/payments/webhook", container.PaymentHandler.Webhook)

		// Public event browsing
		events := v1.Group("/events")
		{
			events.GET("", container.EventHandler.ListEvents)
			events.GET("/:id", container.EventHandler.GetEvent)
			events.POST("", auth, container.EventHandler.CreateEvent)
			events.PATCH("/:id", auth, container.EventHandler.UpdateEvent)
			events.DELETE("/:id", auth, container.EventHandler.DeleteEvent)
		}

		bookings := v1.Group("/bookings")
		bookings.Use(auth)
		{
			createBooking := gin.HandlersChain{container.BookingHandler.CreateBooking}
			if redisClient != nil {
				idempotencyConfig := middleware.DefaultIdempotencyConfig(redisClient.Client())
				idempotencyConfig.SkipPaths = []string{"/health", "/ready"}
				createBooking = gin.HandlersChain{
					middleware.IdempotencyMiddleware(idempotencyConfig),
					container.BookingHandler.CreateBooking,
				}
			}
			bookings.POST("", createBooking...)
			bookings.GET("", container.BookingHandler.GetUserBookings)
			bookings.GET("/:id", container.BookingHandler.GetBooking)
			bookings.POST("/:id/cancel", container.BookingHandler.CancelBooking)
		}

		payments := v1.Group("/payments")
		payments.Use(auth)
		{
			payments.POST("/checkout-session", container.BookingHandler.ReopenCheckout)
			payments.POST("/verify", container.PaymentHandler.VerifySession)
			payments.GET("/booking/:id", container.PaymentHandler.GetBookingPayment)
		}

		notifications := v1.Group("/notifications")
		notifications.Use(auth)
		{
			notifications.GET("", container.NotificationHandler.GetNotifications)
			notifications.GET("/unread-count", container.NotificationHandler.UnreadCount)
			notifications.POST("/:id/read", container.NotificationHandler.MarkRead)
			notifications.POST("/read-all", container.NotificationHandler.MarkAllRead)
		}
	}

	return router
}
