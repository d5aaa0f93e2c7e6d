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

// PostgresPaymentRepository implements PaymentRepository using PostgreSQL with pgxpool
type PostgresPaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresPaymentRepository creates a new PostgresPaymentRepository
func NewPostgresPaymentRepository(pool *pgxpool.Pool) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{pool: pool}
}

// Create inserts a payment record. bookings carry at most one payment row,
// enforced by a unique index on booking_id; a duplicate insert reports
// ErrPaymentAlreadyExists instead of failing the reconcile.
func (r *PostgresPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.payment.create")
	defer span.End()

	span.SetAttributes(
		attribute.String("payment_id", payment.ID),
		attribute.String("booking_id", payment.BookingID),
	)

	query := `
		INSERT INTO payments (
			id, booking_id, user_id, amount, currency, status,
			checkout_session, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9
		)
		ON CONFLICT (booking_id) DO NOTHING
	`

	result, err := r.pool.Exec(ctx, query,
		payment.ID,
		payment.BookingID,
		payment.UserID,
		payment.Amount,
		payment.Currency,
		string(payment.Status),
		payment.CheckoutSession,
		payment.CreatedAt,
		payment.UpdatedAt,
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to create payment: %w", err)
	}

	if result.RowsAffected() == 0 {
		span.SetStatus(codes.Ok, "already exists")
		return domain.ErrPaymentAlreadyExists
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetByBookingID retrieves the payment for a booking
func (r *PostgresPaymentRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.Payment, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.payment.get_by_booking_id")
	defer span.End()

	span.SetAttributes(attribute.String("booking_id", bookingID))

	query := selectPayment + ` WHERE booking_id = $1`

	payment, err := scanPayment(r.pool.QueryRow(ctx, query, bookingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrPaymentNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return payment, nil
}

// GetByCheckoutSession retrieves the payment attached to a checkout session
func (r *PostgresPaymentRepository) GetByCheckoutSession(ctx context.Context, sessionID string) (*domain.Payment, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.payment.get_by_checkout_session")
	defer span.End()

	span.SetAttributes(attribute.String("checkout_session", sessionID))

	query := selectPayment + ` WHERE checkout_session = $1`

	payment, err := scanPayment(r.pool.QueryRow(ctx, query, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrPaymentNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return payment, nil
}

// SetCheckoutSession repoints a payment at a new checkout session, for
// bookings whose original session was abandoned and reopened
func (r *PostgresPaymentRepository) SetCheckoutSession(ctx context.Context, bookingID, sessionID string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.payment.set_checkout_session")
	defer span.End()

	span.SetAttributes(
		attribute.String("booking_id", bookingID),
		attribute.String("checkout_session", sessionID),
	)

	query := `
		UPDATE payments SET
			checkout_session = $2,
			updated_at = $3
		WHERE booking_id = $1
	`

	result, err := r.pool.Exec(ctx, query, bookingID, sessionID, time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to set payment checkout session: %w", err)
	}

	if result.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "not found")
		return domain.ErrPaymentNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// MarkCompleted transitions a payment from pending to completed
func (r *PostgresPaymentRepository) MarkCompleted(ctx context.Context, bookingID string) (domain.TransitionResult, error) {
	return r.transition(ctx, "repo.postgres.payment.mark_completed", bookingID, domain.PaymentStatusCompleted)
}

// MarkFailed transitions a payment from pending to failed
func (r *PostgresPaymentRepository) MarkFailed(ctx context.Context, bookingID string) (domain.TransitionResult, error) {
	return r.transition(ctx, "repo.postgres.payment.mark_failed", bookingID, domain.PaymentStatusFailed)
}

func (r *PostgresPaymentRepository) transition(ctx context.Context, spanName, bookingID string, to domain.PaymentStatus) (domain.TransitionResult, error) {
	ctx, span := telemetry.StartSpan(ctx, spanName)
	defer span.End()

	span.SetAttributes(
		attribute.String("booking_id", bookingID),
		attribute.String("to_status", string(to)),
	)

	query := `
		UPDATE payments SET
			status = $2,
			updated_at = $3
		WHERE booking_id = $1 AND status = 'pending'
	`

	result, err := r.pool.Exec(ctx, query, bookingID, string(to), time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("failed to update payment status: %w", err)
	}

	if result.RowsAffected() == 0 {
		var exists bool
		err := r.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM payments WHERE booking_id = $1)", bookingID).Scan(&exists)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return 0, fmt.Errorf("failed to check payment existence: %w", err)
		}
		if !exists {
			span.SetStatus(codes.Error, "not found")
			return 0, domain.ErrPaymentNotFound
		}
		span.SetStatus(codes.Ok, "already settled")
		return domain.TransitionAlreadyApplied, nil
	}

	span.SetStatus(codes.Ok, "")
	return domain.TransitionApplied, nil
}

const selectPayment = `
	SELECT
		id, booking_id, user_id, amount, currency, status,
		checkout_session, created_at, updated_at
	FROM payments`

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	payment := &domain.Payment{}
	var status string

	err := row.Scan(
		&payment.ID,
		&payment.BookingID,
		&payment.UserID,
		&payment.Amount,
		&payment.Currency,
		&status,
		&payment.CheckoutSession,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	payment.Status = domain.PaymentStatus(status)
	return payment, nil
}
