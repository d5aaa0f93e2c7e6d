package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/VinayKumar7512/EventNest/internal/domain"
	"github.com/VinayKumar7512/EventNest/internal/repository"
	"github.com/VinayKumar7512/EventNest/pkg/logger"
	"github.com/VinayKumar7512/EventNest/pkg/telemetry"
)

// ReminderService sends event reminders to confirmed bookings
type ReminderService interface {
	// Run executes one reminder sweep. Safe to call from a ticker, a CLI
	// or an admin endpoint; overlapping runs never double-send because the
	// reminder flag is claimed before anything is delivered.
	Run(ctx context.Context) (*ReminderSweepResult, error)
}

// ReminderSweepResult summarizes one sweep
type ReminderSweepResult struct {
	Scanned int
	Sent    int
	Skipped int
	Failed  int
}

// reminderService implements ReminderService
type reminderService struct {
	bookingRepo    repository.BookingRepository
	eventRepo      repository.EventRepository
	notifications  NotificationService
	eventPublisher EventPublisher
	lookahead      time.Duration
	batchSize      int
}

// ReminderServiceConfig contains configuration for the reminder service
type ReminderServiceConfig struct {
	// Lookahead is how far ahead of event start reminders go out (default: 24h)
	Lookahead time.Duration
	// BatchSize caps how many bookings one sweep handles (default: 100)
	BatchSize int
}

// NewReminderService creates a new reminder service
func NewReminderService(
	bookingRepo repository.BookingRepository,
	eventRepo repository.EventRepository,
	notifications NotificationService,
	eventPublisher EventPublisher,
	cfg *ReminderServiceConfig,
) ReminderService {
	lookahead := 24 * time.Hour
	batchSize := 100
	if cfg != nil {
		if cfg.Lookahead > 0 {
			lookahead = cfg.Lookahead
		}
		if cfg.BatchSize > 0 {
			batchSize = cfg.BatchSize
		}
	}
	if eventPublisher == nil {
		eventPublisher = NewNoOpEventPublisher()
	}
	return &reminderService{
		bookingRepo:    bookingRepo,
		eventRepo:      eventRepo,
		notifications:  notifications,
		eventPublisher: eventPublisher,
		lookahead:      lookahead,
		batchSize:      batchSize,
	}
}

// Run executes one reminder sweep. For every candidate the reminder flag is
// claimed first; only the claim winner sends. A reminder can therefore be
// lost if the process dies between claim and send, but it can never be
// duplicated, which is the right trade for reminders.
func (s *reminderService) Run(ctx context.Context) (*ReminderSweepResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reminder.run")
	defer span.End()

	result := &ReminderSweepResult{}

	until := time.Now().Add(s.lookahead)
	bookings, err := s.bookingRepo.GetRemindable(ctx, until, s.batchSize)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	result.Scanned = len(bookings)

	for _, booking := range bookings {
		if ctx.Err() != nil {
			span.SetStatus(codes.Error, "context canceled")
			return result, ctx.Err()
		}

		transition, err := s.bookingRepo.MarkReminderSent(ctx, booking.ID)
		if err != nil {
			logger.Get().Error(fmt.Sprintf("Failed to claim reminder for booking %s: %v", booking.ID, err))
			result.Failed++
			continue
		}
		if transition == domain.TransitionAlreadyApplied {
			// Another sweep got here first
			result.Skipped++
			continue
		}

		s.sendReminder(ctx, booking)
		result.Sent++
	}

	span.SetAttributes(
		attribute.Int("scanned", result.Scanned),
		attribute.Int("sent", result.Sent),
		attribute.Int("skipped", result.Skipped),
		attribute.Int("failed", result.Failed),
	)
	span.SetStatus(codes.Ok, "")
	return result, nil
}

func (s *reminderService) sendReminder(ctx context.Context, booking *domain.Booking) {
	message := "Reminder: your booked event starts soon."
	if event, err := s.eventRepo.GetByID(ctx, booking.EventID); err == nil {
		message = fmt.Sprintf("Reminder: %s starts at %s (%s).", event.Title, event.Date.Format(time.RFC1123), event.Location)
	}

	if err := s.notifications.Notify(ctx, booking.UserID, booking.UserEmail, booking.ID, domain.NotificationEventReminder, "Event reminder", message); err != nil {
		logger.Get().Warn(fmt.Sprintf("Failed to notify user %s for reminder on booking %s: %v", booking.UserID, booking.ID, err))
	}

	if err := s.eventPublisher.PublishBookingReminded(ctx, booking); err != nil {
		logger.Get().Warn(fmt.Sprintf("Failed to publish reminder event for booking %s: %v", booking.ID, err))
	}
}
