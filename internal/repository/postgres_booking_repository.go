package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/VinayKumar7512/EventNest/internal/domain"
	"github.com/VinayKumar7512/EventNest/pkg/telemetry"
)

// PostgresBookingRepository implements BookingRepository using PostgreSQL with pgxpool
type PostgresBookingRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresBookingRepository creates a new PostgresBookingRepository
func NewPostgresBookingRepository(pool *pgxpool.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{pool: pool}
}

// Create creates a new booking record in the database
func (r *PostgresBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.create")
	defer span.End()

	span.SetAttributes(
		attribute.String("booking_id", booking.ID),
		attribute.String("user_id", booking.UserID),
		attribute.String("event_id", booking.EventID),
	)

	query := `
		INSERT INTO bookings (
			id, user_id, user_email, event_id, seats, total_amount, status,
			payment_status, payment_reference, confirmed_at,
			reminder_sent, checkout_session, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10,
			$11, $12, $13, $14
		)
	`

	_, err := r.pool.Exec(ctx, query,
		booking.ID,
		booking.UserID,
		nullString(booking.UserEmail),
		booking.EventID,
		booking.Seats,
		booking.TotalAmount,
		string(booking.Status),
		string(booking.PaymentStatus),
		nullString(booking.PaymentReference),
		booking.ConfirmedAt,
		booking.ReminderSent,
		nullString(booking.CheckoutSession),
		booking.CreatedAt,
		booking.UpdatedAt,
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to create booking: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetByID retrieves a booking by its ID
func (r *PostgresBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("booking_id", id))

	query := selectBooking + ` WHERE id = $1`

	booking, err := scanBooking(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrBookingNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return booking, nil
}

// GetByUserID retrieves bookings for a user, most recent first
func (r *PostgresBookingRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.get_by_user_id")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	query := selectBooking + ` WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get bookings by user ID: %w", err)
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("error iterating bookings: %w", err)
	}

	span.SetAttributes(attribute.Int("count", len(bookings)))
	span.SetStatus(codes.Ok, "")
	return bookings, nil
}

// SetCheckoutSession attaches the provider checkout session to a booking
func (r *PostgresBookingRepository) SetCheckoutSession(ctx context.Context, id, sessionID string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.set_checkout_session")
	defer span.End()

	span.SetAttributes(
		attribute.String("booking_id", id),
		attribute.String("checkout_session", sessionID),
	)

	query := `
		UPDATE bookings SET
			checkout_session = $2,
			updated_at = $3
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, sessionID, time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to set checkout session: %w", err)
	}

	if result.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "not found")
		return domain.ErrBookingNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// ConfirmPayment transitions a booking from pending to confirmed, setting
// the payment columns in the same guarded update. The status guard makes the
// transition idempotent: the first caller applies it and owns the payment
// reference, every later caller gets TransitionAlreadyApplied.
func (r *PostgresBookingRepository) ConfirmPayment(ctx context.Context, id, paymentRef string) (domain.TransitionResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.confirm_payment")
	defer span.End()

	span.SetAttributes(attribute.String("booking_id", id))

	now := time.Now()
	query := `
		UPDATE bookings SET
			status = $2,
			payment_status = $3,
			payment_reference = $4,
			confirmed_at = $5,
			updated_at = $5
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.pool.Exec(ctx, query, id,
		string(domain.BookingStatusConfirmed),
		string(domain.PaymentStatusCompleted),
		nullString(paymentRef),
		now,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("failed to confirm booking: %w", err)
	}

	if result.RowsAffected() == 0 {
		var status string
		err := r.pool.QueryRow(ctx, "SELECT status FROM bookings WHERE id = $1", id).Scan(&status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				span.SetStatus(codes.Error, "not found")
				return 0, domain.ErrBookingNotFound
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return 0, fmt.Errorf("failed to check booking status: %w", err)
		}
		if status == string(domain.BookingStatusConfirmed) {
			span.SetStatus(codes.Ok, "already confirmed")
			return domain.TransitionAlreadyApplied, nil
		}
		span.SetStatus(codes.Error, "cancelled")
		return 0, domain.ErrBookingCancelled
	}

	span.SetStatus(codes.Ok, "")
	return domain.TransitionApplied, nil
}

// Cancel transitions a booking from pending to cancelled
func (r *PostgresBookingRepository) Cancel(ctx context.Context, id string) (domain.TransitionResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.cancel")
	defer span.End()

	span.SetAttributes(attribute.String("booking_id", id))

	query := `
		UPDATE bookings SET
			status = $2,
			updated_at = $3
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.pool.Exec(ctx, query, id, string(domain.BookingStatusCancelled), time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("failed to cancel booking: %w", err)
	}

	if result.RowsAffected() == 0 {
		var status string
		err := r.pool.QueryRow(ctx, "SELECT status FROM bookings WHERE id = $1", id).Scan(&status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				span.SetStatus(codes.Error, "not found")
				return 0, domain.ErrBookingNotFound
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return 0, fmt.Errorf("failed to check booking status: %w", err)
		}
		if status == string(domain.BookingStatusCancelled) {
			span.SetStatus(codes.Ok, "already cancelled")
			return domain.TransitionAlreadyApplied, nil
		}
		span.SetStatus(codes.Error, "already confirmed")
		return 0, domain.ErrAlreadyConfirmed
	}

	span.SetStatus(codes.Ok, "")
	return domain.TransitionApplied, nil
}

// MarkReminderSent flips the reminder flag on a confirmed booking. The flag
// guard means overlapping sweeps agree on a single winner per booking.
func (r *PostgresBookingRepository) MarkReminderSent(ctx context.Context, id string) (domain.TransitionResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.mark_reminder_sent")
	defer span.End()

	span.SetAttributes(attribute.String("booking_id", id))

	query := `
		UPDATE bookings SET
			reminder_sent = TRUE,
			updated_at = $2
		WHERE id = $1 AND status = 'confirmed' AND reminder_sent = FALSE
	`

	result, err := r.pool.Exec(ctx, query, id, time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("failed to mark reminder sent: %w", err)
	}

	if result.RowsAffected() == 0 {
		var exists bool
		err := r.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM bookings WHERE id = $1)", id).Scan(&exists)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return 0, fmt.Errorf("failed to check booking existence: %w", err)
		}
		if !exists {
			span.SetStatus(codes.Error, "not found")
			return 0, domain.ErrBookingNotFound
		}
		span.SetStatus(codes.Ok, "already sent")
		return domain.TransitionAlreadyApplied, nil
	}

	span.SetStatus(codes.Ok, "")
	return domain.TransitionApplied, nil
}

// GetRemindable returns confirmed bookings whose event starts before the
// given time and which have not been reminded yet
func (r *PostgresBookingRepository) GetRemindable(ctx context.Context, until time.Time, limit int) ([]*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.get_remindable")
	defer span.End()

	span.SetAttributes(attribute.String("until", until.Format(time.RFC3339)))

	query := `
		SELECT
			b.id, b.user_id, b.user_email, b.event_id, b.seats, b.total_amount, b.status,
			b.payment_status, b.payment_reference, b.confirmed_at,
			b.reminder_sent, b.checkout_session, b.created_at, b.updated_at
		FROM bookings b
		JOIN events e ON e.id = b.event_id
		WHERE b.status = 'confirmed'
		  AND b.reminder_sent = FALSE
		  AND e.date > NOW()
		  AND e.date <= $1
		ORDER BY e.date ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, until, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get remindable bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("error iterating remindable bookings: %w", err)
	}

	span.SetAttributes(attribute.Int("count", len(bookings)))
	span.SetStatus(codes.Ok, "")
	return bookings, nil
}

const selectBooking = `
	SELECT
		id, user_id, user_email, event_id, seats, total_amount, status,
		payment_status, payment_reference, confirmed_at,
		reminder_sent, checkout_session, created_at, updated_at
	FROM bookings`

// scanBooking scans a booking row from either QueryRow or Query results
func scanBooking(row pgx.Row) (*domain.Booking, error) {
	booking := &domain.Booking{}
	var (
		status          string
		paymentStatus   string
		userEmail       *string
		paymentRef      *string
		confirmedAt     *time.Time
		checkoutSession *string
	)

	err := row.Scan(
		&booking.ID,
		&booking.UserID,
		&userEmail,
		&booking.EventID,
		&booking.Seats,
		&booking.TotalAmount,
		&status,
		&paymentStatus,
		&paymentRef,
		&confirmedAt,
		&booking.ReminderSent,
		&checkoutSession,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.Status = domain.BookingStatus(status)
	booking.PaymentStatus = domain.PaymentStatus(paymentStatus)
	booking.ConfirmedAt = confirmedAt
	if userEmail != nil {
		booking.UserEmail = *userEmail
	}
	if paymentRef != nil {
		booking.PaymentReference = *paymentRef
	}
	if checkoutSession != nil {
		booking.CheckoutSession = *checkoutSession
	}
	return booking, nil
}

// nullString converts empty strings to nil for nullable columns
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
