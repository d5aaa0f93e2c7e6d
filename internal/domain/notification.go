package domain

import "time"

// NotificationType classifies what a notification is about
type NotificationType string

const (
	NotificationBookingConfirmed NotificationType = "booking_confirmed"
	NotificationBookingCancelled NotificationType = "booking_cancelled"
	NotificationEventReminder    NotificationType = "event_reminder"
	NotificationEventUpdate      NotificationType = "event_update"
)

// Notification is an in-app notification row. Channel delivery (email) is
// best effort and never blocks the row from being written. BookingID links
// the notification back to the booking it is about, when there is one.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	BookingID string           `json:"booking_id,omitempty"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// Validate validates the notification fields
func (n *Notification) Validate() error {
	if n.UserID == "" {
		return ErrInvalidUserID
	}
	if n.Message == "" {
		return ErrEmptyMessage
	}
	return nil
}
