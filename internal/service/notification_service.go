package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/VinayKumar7512/EventNest/internal/domain"
	"github.com/VinayKumar7512/EventNest/internal/dto"
	"github.com/VinayKumar7512/EventNest/internal/repository"
	"github.com/VinayKumar7512/EventNest/internal/sender"
	"github.com/VinayKumar7512/EventNest/pkg/logger"
	"github.com/VinayKumar7512/EventNest/pkg/telemetry"
)

// NotificationService defines the interface for notification logic
type NotificationService interface {
	// Notify writes one notification row and attempts one channel delivery.
	// The row is the record of truth; a failed delivery is logged, never
	// retried, and never fails the caller. bookingID links the row to the
	// booking it is about and may be empty for notifications without one.
	Notify(ctx context.Context, userID, email, bookingID string, ntype domain.NotificationType, subject, message string) error

	// GetUserNotifications lists a user's notifications
	GetUserNotifications(ctx context.Context, userID string, page, limit int) ([]*dto.NotificationResponse, error)

	// MarkRead marks one notification as read
	MarkRead(ctx context.Context, notificationID, userID string) error

	// MarkAllRead marks all of a user's notifications as read
	MarkAllRead(ctx context.Context, userID string) error

	// CountUnread returns the unread notification count
	CountUnread(ctx context.Context, userID string) (int64, error)
}

// notificationService implements NotificationService
type notificationService struct {
	notificationRepo repository.NotificationRepository
	sender           sender.Sender
}

// NewNotificationService creates a new notification service
func NewNotificationService(notificationRepo repository.NotificationRepository, snd sender.Sender) NotificationService {
	if snd == nil {
		snd = sender.NewNoOpSender()
	}
	return &notificationService{
		notificationRepo: notificationRepo,
		sender:           snd,
	}
}

// Notify writes the notification row and attempts delivery
func (s *notificationService) Notify(ctx context.Context, userID, email, bookingID string, ntype domain.NotificationType, subject, message string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.notification.notify")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("type", string(ntype)),
	)

	notification := &domain.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		BookingID: bookingID,
		Type:      ntype,
		Message:   message,
		CreatedAt: time.Now(),
	}

	if err := notification.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if email != "" {
		err := s.sender.Send(ctx, &sender.Message{
			To:      email,
			Subject: subject,
			Body:    message,
		})
		if err != nil {
			logger.Get().Warn(fmt.Sprintf("Failed to deliver notification %s to %s: %v", notification.ID, email, err))
		}
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetUserNotifications lists a user's notifications
func (s *notificationService) GetUserNotifications(ctx context.Context, userID string, page, limit int) ([]*dto.NotificationResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.notification.get_user_notifications")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	if userID == "" {
		span.SetStatus(codes.Error, "invalid user_id")
		return nil, domain.ErrInvalidUserID
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	notifications, err := s.notificationRepo.GetByUserID(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(notifications)))
	span.SetStatus(codes.Ok, "")
	return dto.NotificationsFromDomain(notifications), nil
}

// MarkRead marks one notification as read
func (s *notificationService) MarkRead(ctx context.Context, notificationID, userID string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.notification.mark_read")
	defer span.End()

	span.SetAttributes(attribute.String("notification_id", notificationID))

	if err := s.notificationRepo.MarkRead(ctx, notificationID, userID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// MarkAllRead marks all of a user's notifications as read
func (s *notificationService) MarkAllRead(ctx context.Context, userID string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.notification.mark_all_read")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	if err := s.notificationRepo.MarkAllRead(ctx, userID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// CountUnread returns the unread notification count
func (s *notificationService) CountUnread(ctx context.Context, userID string) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.notification.count_unread")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	count, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	span.SetStatus(codes.Ok, "")
	return count, nil
}
