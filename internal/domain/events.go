package domain

import "time"

// BookingEventType identifies a booking lifecycle event on the bus
type BookingEventType string

const (
	BookingEventCreated   BookingEventType = "booking.created"
	BookingEventConfirmed BookingEventType = "booking.confirmed"
	BookingEventCancelled BookingEventType = "booking.cancelled"
	BookingEventReminded  BookingEventType = "booking.reminded"
)

// BookingEvent is the envelope published to the event bus
type BookingEvent struct {
	EventID     string           `json:"event_id"`
	Type        BookingEventType `json:"type"`
	BookingID   string           `json:"booking_id"`
	UserID      string           `json:"user_id"`
	EventRef    string           `json:"event_ref"`
	Seats       int              `json:"seats"`
	TotalAmount float64          `json:"total_amount"`
	Status      string           `json:"status"`
	Timestamp   time.Time        `json:"timestamp"`
}

// NewBookingEvent builds an event envelope from a booking
func NewBookingEvent(eventType BookingEventType, booking *Booking, eventID string) *BookingEvent {
	return &BookingEvent{
		EventID:     eventID,
		Type:        eventType,
		BookingID:   booking.ID,
		UserID:      booking.UserID,
		EventRef:    booking.EventID,
		Seats:       booking.Seats,
		TotalAmount: booking.TotalAmount,
		Status:      string(booking.Status),
		Timestamp:   time.Now(),
	}
}

// Key returns the partition key. Keying by booking keeps one booking's
// events in order.
func (e *BookingEvent) Key() string {
	return e.BookingID
}
