package domain

import "time"

// BookingStatus represents the lifecycle state of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// TransitionResult reports the outcome of a conditional status update.
// AlreadyApplied means a concurrent actor won the race; callers treat it
// as success and skip their side effects.
type TransitionResult int

const (
	TransitionApplied TransitionResult = iota
	TransitionAlreadyApplied
)

// Booking represents a seat booking for an event.
// TotalAmount is computed once at creation from the event price and seat
// count and never recomputed afterwards. PaymentStatus tracks the money
// side of the booking independently of Status; PaymentReference holds the
// provider transaction reference once the payment settles.
type Booking struct {
	ID               string        `json:"id"`
	UserID           string        `json:"user_id"`
	UserEmail        string        `json:"user_email,omitempty"`
	EventID          string        `json:"event_id"`
	Seats            int           `json:"seats"`
	TotalAmount      float64       `json:"total_amount"`
	Status           BookingStatus `json:"status"`
	PaymentStatus    PaymentStatus `json:"payment_status"`
	PaymentReference string        `json:"payment_reference,omitempty"`
	ConfirmedAt      *time.Time    `json:"confirmed_at,omitempty"`
	ReminderSent     bool          `json:"reminder_sent"`
	CheckoutSession  string        `json:"checkout_session,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// IsPending reports whether the booking can still be confirmed
func (b *Booking) IsPending() bool {
	return b.Status == BookingStatusPending
}

// Validate validates the booking fields
func (b *Booking) Validate() error {
	if b.UserID == "" {
		return ErrInvalidUserID
	}
	if b.EventID == "" {
		return ErrInvalidEventID
	}
	if b.Seats <= 0 {
		return ErrInvalidSeatCount
	}
	if b.TotalAmount < 0 {
		return ErrInvalidTotalAmount
	}
	return nil
}
