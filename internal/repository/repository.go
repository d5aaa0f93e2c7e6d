package repository

import (
	"context"
	"time"

	"github.com/VinayKumar7512/EventNest/internal/domain"
)

// EventFilter carries list filtering and pagination for events
type EventFilter struct {
	Category string
	Search   string
	Limit    int
	Offset   int
}

// EventRepository defines storage operations for events and their seat ledger.
// Reserve, Commit, Release and ReleaseReservation are the only ways seat
// counters move; each is a single conditional UPDATE so concurrent callers
// cannot oversell.
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	List(ctx context.Context, filter EventFilter) ([]*domain.Event, int64, error)
	Update(ctx context.Context, event *domain.Event) error
	Delete(ctx context.Context, id string) error

	// Reserve atomically holds seats for a pending booking.
	// Fails with ErrInsufficientSeats when capacity would be exceeded.
	Reserve(ctx context.Context, eventID string, seats int) error

	// Commit atomically moves reserved seats into booked seats.
	Commit(ctx context.Context, eventID string, seats int) error

	// Release atomically returns booked seats to the available pool,
	// for undoing a settled booking.
	Release(ctx context.Context, eventID string, seats int) error

	// ReleaseReservation atomically returns reserved seats to the
	// available pool, for abandoning a provisional hold.
	ReleaseReservation(ctx context.Context, eventID string, seats int) error
}

// BookingRepository defines storage operations for bookings.
// ConfirmPayment and MarkReminderSent are conditional updates: they report
// whether this caller applied the transition or a concurrent one already had.
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*domain.Booking, error)
	SetCheckoutSession(ctx context.Context, id, sessionID string) error

	// ConfirmPayment transitions pending -> confirmed, persisting the
	// provider payment reference and the confirmation time.
	ConfirmPayment(ctx context.Context, id, paymentRef string) (domain.TransitionResult, error)

	// Cancel transitions pending -> cancelled.
	Cancel(ctx context.Context, id string) (domain.TransitionResult, error)

	// MarkReminderSent sets the reminder flag on a confirmed booking.
	MarkReminderSent(ctx context.Context, id string) (domain.TransitionResult, error)

	// GetRemindable returns confirmed bookings for events starting inside
	// the window that have not had a reminder sent yet.
	GetRemindable(ctx context.Context, until time.Time, limit int) ([]*domain.Booking, error)
}

// PaymentRepository defines storage operations for payment records
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByBookingID(ctx context.Context, bookingID string) (*domain.Payment, error)
	GetByCheckoutSession(ctx context.Context, sessionID string) (*domain.Payment, error)

	// SetCheckoutSession repoints the payment at a new checkout session.
	SetCheckoutSession(ctx context.Context, bookingID, sessionID string) error

	// MarkCompleted transitions pending -> completed.
	MarkCompleted(ctx context.Context, bookingID string) (domain.TransitionResult, error)

	// MarkFailed transitions pending -> failed.
	MarkFailed(ctx context.Context, bookingID string) (domain.TransitionResult, error)
}

// NotificationRepository defines storage operations for notifications
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
	CountUnread(ctx context.Context, userID string) (int64, error)
}
