package dto

import (
	"time"

	"github.com/VinayKumar7512/EventNest/internal/domain"
)

// VerifySessionRequest asks the service to poll the provider for a
// checkout session's status and reconcile the booking if it has paid
type VerifySessionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// VerifySessionResponse reports the reconciled state after a poll
type VerifySessionResponse struct {
	BookingID     string `json:"booking_id"`
	BookingStatus string `json:"booking_status"`
	PaymentStatus string `json:"payment_status"`
}

// CheckoutSessionRequest asks for a fresh checkout session on a pending
// booking, for users who abandoned the original one
type CheckoutSessionRequest struct {
	BookingID string `json:"booking_id" binding:"required"`
}

// CheckoutSessionResponse carries the new session
type CheckoutSessionResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

// WebhookAckResponse acknowledges a verified webhook delivery
type WebhookAckResponse struct {
	Received bool `json:"received"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID              string    `json:"id"`
	BookingID       string    `json:"booking_id"`
	Amount          float64   `json:"amount"`
	Currency        string    `json:"currency"`
	Status          string    `json:"status"`
	CheckoutSession string    `json:"checkout_session"`
	CreatedAt       time.Time `json:"created_at"`
}

// PaymentFromDomain converts a domain Payment to a PaymentResponse
func PaymentFromDomain(p *domain.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:              p.ID,
		BookingID:       p.BookingID,
		Amount:          p.Amount,
		Currency:        p.Currency,
		Status:          string(p.Status),
		CheckoutSession: p.CheckoutSession,
		CreatedAt:       p.CreatedAt,
	}
}
