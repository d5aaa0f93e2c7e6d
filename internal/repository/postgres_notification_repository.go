package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/VinayKumar7512/EventNest/internal/domain"
	"github.com/VinayKumar7512/EventNest/pkg/telemetry"
)

// PostgresNotificationRepository implements NotificationRepository using PostgreSQL
type PostgresNotificationRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresNotificationRepository creates a new PostgresNotificationRepository
func NewPostgresNotificationRepository(pool *pgxpool.Pool) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{pool: pool}
}

// Create inserts a notification row
func (r *PostgresNotificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.notification.create")
	defer span.End()

	span.SetAttributes(
		attribute.String("notification_id", notification.ID),
		attribute.String("user_id", notification.UserID),
		attribute.String("type", string(notification.Type)),
	)

	query := `
		INSERT INTO notifications (
			id, user_id, booking_id, type, message, read, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`

	_, err := r.pool.Exec(ctx, query,
		notification.ID,
		notification.UserID,
		nullString(notification.BookingID),
		string(notification.Type),
		notification.Message,
		notification.Read,
		notification.CreatedAt,
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to create notification: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetByUserID retrieves notifications for a user, most recent first
func (r *PostgresNotificationRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*domain.Notification, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.notification.get_by_user_id")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	query := `
		SELECT id, user_id, booking_id, type, message, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*domain.Notification
	for rows.Next() {
		n := &domain.Notification{}
		var ntype string
		var bookingID *string
		if err := rows.Scan(&n.ID, &n.UserID, &bookingID, &ntype, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		n.Type = domain.NotificationType(ntype)
		if bookingID != nil {
			n.BookingID = *bookingID
		}
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	span.SetAttributes(attribute.Int("count", len(notifications)))
	span.SetStatus(codes.Ok, "")
	return notifications, nil
}

// MarkRead marks a single notification as read. Scoped to the owning user
// so one user cannot touch another's notifications.
func (r *PostgresNotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.notification.mark_read")
	defer span.End()

	span.SetAttributes(
		attribute.String("notification_id", id),
		attribute.String("user_id", userID),
	)

	query := `
		UPDATE notifications SET read = TRUE
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	if result.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "not found")
		return domain.ErrNotificationNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// MarkAllRead marks every notification for a user as read
func (r *PostgresNotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.notification.mark_all_read")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	_, err := r.pool.Exec(ctx, "UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE", userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// CountUnread returns the number of unread notifications for a user
func (r *PostgresNotificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.notification.count_unread")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	var count int64
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE", userID).Scan(&count)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	span.SetAttributes(attribute.Int64("count", count))
	span.SetStatus(codes.Ok, "")
	return count, nil
}
