package dto

import (
	"time"

	"github.com/VinayKumar7512/EventNest/internal/domain"
)

// CreateEventRequest represents a request to create an event
type CreateEventRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Location    string    `json:"location" binding:"required"`
	ImageURL    string    `json:"image_url"`
	Date        time.Time `json:"date" binding:"required"`
	Price       float64   `json:"price" binding:"min=0"`
	TotalSeats  int       `json:"total_seats" binding:"required,min=1"`
}

// UpdateEventRequest represents a partial event update.
// Seat counters are not updatable through this path.
type UpdateEventRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Category    *string    `json:"category,omitempty"`
	Location    *string    `json:"location,omitempty"`
	ImageURL    *string    `json:"image_url,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
	Price       *float64   `json:"price,omitempty"`
}

// EventResponse represents an event in API responses
type EventResponse struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Category       string    `json:"category"`
	Location       string    `json:"location"`
	ImageURL       string    `json:"image_url,omitempty"`
	Date           time.Time `json:"date"`
	Price          float64   `json:"price"`
	TotalSeats     int       `json:"total_seats"`
	AvailableSeats int       `json:"available_seats"`
	OrganizerID    string    `json:"organizer_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// EventFilter carries list filtering and pagination parameters
type EventFilter struct {
	Category string `form:"category"`
	Search   string `form:"search"`
	Page     int    `form:"page,default=1"`
	Limit    int    `form:"limit,default=20"`
}

// EventFromDomain converts a domain Event to an EventResponse
func EventFromDomain(e *domain.Event) *EventResponse {
	return &EventResponse{
		ID:             e.ID,
		Title:          e.Title,
		Description:    e.Description,
		Category:       e.Category,
		Location:       e.Location,
		ImageURL:       e.ImageURL,
		Date:           e.Date,
		Price:          e.Price,
		TotalSeats:     e.TotalSeats,
		AvailableSeats: e.AvailableSeats(),
		OrganizerID:    e.OrganizerID,
		CreatedAt:      e.CreatedAt,
	}
}

// EventsFromDomain converts a slice of domain events
func EventsFromDomain(events []*domain.Event) []*EventResponse {
	out := make([]*EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, EventFromDomain(e))
	}
	return out
}
