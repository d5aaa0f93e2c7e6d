package dto

import (
	"time"

	"github.com/VinayKumar7512/EventNest/internal/domain"
)

// NotificationResponse represents a notification in API responses
type NotificationResponse struct {
	ID        string    `json:"id"`
	BookingID string    `json:"booking_id,omitempty"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// UnreadCountResponse carries the unread notification count
type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

// NotificationFromDomain converts a domain Notification
func NotificationFromDomain(n *domain.Notification) *NotificationResponse {
	return &NotificationResponse{
		ID:        n.ID,
		BookingID: n.BookingID,
		Type:      string(n.Type),
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

// NotificationsFromDomain converts a slice of domain notifications
func NotificationsFromDomain(notifications []*domain.Notification) []*NotificationResponse {
	out := make([]*NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, NotificationFromDomain(n))
	}
	return out
}
