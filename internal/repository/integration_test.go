package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/VinayKumar7512/EventNest/internal/domain"
	"github.com/VinayKumar7512/EventNest/pkg/database"
)

func skipIfNoIntegration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run.")
	}
}

func setupTestDB(t *testing.T) *database.PostgresDB {
	ctx := context.Background()

	cfg := &database.PostgresConfig{
		Host:            getEnv("POSTGRES_HOST", "localhost"),
		Port:            5432,
		User:            getEnv("POSTGRES_USER", "postgres"),
		Password:        getEnv("POSTGRES_PASSWORD", ""),
		Database:        getEnv("POSTGRES_DB", "eventnest"),
		SSLMode:         "disable",
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 1 * time.Minute,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   1 * time.Second,
	}

	db, err := database.NewPostgres(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	schemas := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id VARCHAR(36) PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category VARCHAR(50) NOT NULL DEFAULT '',
			location VARCHAR(255) NOT NULL DEFAULT '',
			image_url VARCHAR(512) NOT NULL DEFAULT '',
			date TIMESTAMP WITH TIME ZONE NOT NULL,
			price DECIMAL(12,2) NOT NULL,
			total_seats INTEGER NOT NULL,
			booked_seats INTEGER NOT NULL DEFAULT 0,
			reserved_seats INTEGER NOT NULL DEFAULT 0,
			organizer_id VARCHAR(36) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS bookings (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			user_email VARCHAR(255),
			event_id VARCHAR(36) NOT NULL,
			seats INTEGER NOT NULL,
			total_amount DECIMAL(12,2) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			payment_status VARCHAR(20) NOT NULL DEFAULT 'pending',
			payment_reference VARCHAR(255),
			confirmed_at TIMESTAMP WITH TIME ZONE,
			reminder_sent BOOLEAN NOT NULL DEFAULT FALSE,
			checkout_session VARCHAR(255),
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS payments (
			id VARCHAR(36) PRIMARY KEY,
			booking_id VARCHAR(36) NOT NULL UNIQUE,
			user_id VARCHAR(36) NOT NULL,
			amount DECIMAL(12,2) NOT NULL,
			currency VARCHAR(3) NOT NULL DEFAULT 'USD',
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			checkout_session VARCHAR(255) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			booking_id VARCHAR(36),
			type VARCHAR(50) NOT NULL,
			message TEXT NOT NULL,
			read BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
	}

	for _, schema := range schemas {
		if _, err := db.Pool().Exec(ctx, schema); err != nil {
			t.Fatalf("Failed to create table: %v", err)
		}
	}

	return db
}

func cleanupTestData(t *testing.T, db *database.PostgresDB) {
	ctx := context.Background()
	for _, stmt := range []string{
		"DELETE FROM payments WHERE booking_id LIKE 'test-%'",
		"DELETE FROM notifications WHERE user_id LIKE 'test-%'",
		"DELETE FROM bookings WHERE id LIKE 'test-%'",
		"DELETE FROM events WHERE id LIKE 'test-%'",
	} {
		if _, err := db.Pool().Exec(ctx, stmt); err != nil {
			t.Logf("Warning: failed to cleanup test data: %v", err)
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func testEvent(id string) *domain.Event {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.Event{
		ID:          id,
		Title:       "Integration Test Conference",
		Description: "A test event",
		Category:    "conference",
		Location:    "Berlin",
		Date:        now.Add(48 * time.Hour),
		Price:       100.00,
		TotalSeats:  10,
		OrganizerID: "test-organizer",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func testBooking(id, eventID string, status domain.BookingStatus) *domain.Booking {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.Booking{
		ID:            id,
		UserID:        "test-user",
		UserEmail:     "test-user@example.com",
		EventID:       eventID,
		Seats:         2,
		TotalAmount:   200.00,
		Status:        status,
		PaymentStatus: domain.PaymentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
