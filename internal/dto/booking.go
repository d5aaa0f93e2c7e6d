package dto

import (
	"time"

	"github.com/VinayKumar7512/EventNest/internal/domain"
)

// CreateBookingRequest represents a request to book seats for an event
type CreateBookingRequest struct {
	EventID string `json:"event_id" binding:"required"`
	Seats   int    `json:"seats" binding:"required,min=1,max=10"`
}

// BookingResponse represents a booking in API responses
type BookingResponse struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	EventID          string     `json:"event_id"`
	Seats            int        `json:"seats"`
	TotalAmount      float64    `json:"total_amount"`
	Status           string     `json:"status"`
	PaymentStatus    string     `json:"payment_status"`
	PaymentReference string     `json:"payment_reference,omitempty"`
	ConfirmedAt      *time.Time `json:"confirmed_at,omitempty"`
	ReminderSent     bool       `json:"reminder_sent"`
	CheckoutSession  string     `json:"checkout_session,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// CreateBookingResponse is returned after a booking is created, carrying
// the checkout URL the client should redirect to
type CreateBookingResponse struct {
	Booking     *BookingResponse `json:"booking"`
	CheckoutURL string           `json:"checkout_url"`
}

// CancelBookingResponse is returned after a booking is cancelled
type CancelBookingResponse struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

// BookingFromDomain converts a domain Booking to a BookingResponse
func BookingFromDomain(b *domain.Booking) *BookingResponse {
	return &BookingResponse{
		ID:               b.ID,
		UserID:           b.UserID,
		EventID:          b.EventID,
		Seats:            b.Seats,
		TotalAmount:      b.TotalAmount,
		Status:           string(b.Status),
		PaymentStatus:    string(b.PaymentStatus),
		PaymentReference: b.PaymentReference,
		ConfirmedAt:      b.ConfirmedAt,
		ReminderSent:     b.ReminderSent,
		CheckoutSession:  b.CheckoutSession,
		CreatedAt:        b.CreatedAt,
	}
}

// BookingsFromDomain converts a slice of domain bookings
func BookingsFromDomain(bookings []*domain.Booking) []*BookingResponse {
	out := make([]*BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, BookingFromDomain(b))
	}
	return out
}
