package domain

import "time"

// PaymentStatus represents the state of a payment record
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// WebhookKind is the closed set of provider webhook events this service
// reacts to. Anything else is acknowledged and dropped.
type WebhookKind string

const (
	WebhookCheckoutCompleted WebhookKind = "checkout.session.completed"
	WebhookCheckoutExpired   WebhookKind = "checkout.session.expired"
)

// ParseWebhookKind maps a provider event type onto the closed set
func ParseWebhookKind(eventType string) (WebhookKind, bool) {
	switch WebhookKind(eventType) {
	case WebhookCheckoutCompleted:
		return WebhookCheckoutCompleted, true
	case WebhookCheckoutExpired:
		return WebhookCheckoutExpired, true
	default:
		return "", false
	}
}

// Payment represents a payment attempt against a booking
type Payment struct {
	ID              string        `json:"id"`
	BookingID       string        `json:"booking_id"`
	UserID          string        `json:"user_id"`
	Amount          float64       `json:"amount"`
	Currency        string        `json:"currency"`
	Status          PaymentStatus `json:"status"`
	CheckoutSession string        `json:"checkout_session"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Validate validates the payment fields
func (p *Payment) Validate() error {
	if p.BookingID == "" {
		return ErrInvalidBookingID
	}
	if p.UserID == "" {
		return ErrInvalidUserID
	}
	if p.Amount < 0 {
		return ErrInvalidTotalAmount
	}
	return nil
}
