package domain

import "time"

// Event represents an event with a seat inventory ledger.
// BookedSeats counts paid seats; ReservedSeats counts seats provisionally
// held by pending bookings. Both are only ever mutated through conditional
// updates in the repository, never read-modify-write in application code.
type Event struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Location      string    `json:"location"`
	ImageURL      string    `json:"image_url,omitempty"`
	Date          time.Time `json:"date"`
	Price         float64   `json:"price"`
	TotalSeats    int       `json:"total_seats"`
	BookedSeats   int       `json:"booked_seats"`
	ReservedSeats int       `json:"reserved_seats"`
	OrganizerID   string    `json:"organizer_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AvailableSeats returns seats not booked and not held by a pending booking
func (e *Event) AvailableSeats() int {
	return e.TotalSeats - e.BookedSeats - e.ReservedSeats
}

// IsPast reports whether the event has already started
func (e *Event) IsPast() bool {
	return e.Date.Before(time.Now())
}

// Validate validates the event fields
func (e *Event) Validate() error {
	if e.Title == "" {
		return ErrInvalidEventTitle
	}
	if e.Price < 0 {
		return ErrInvalidPrice
	}
	if e.TotalSeats <= 0 {
		return ErrInvalidSeatCount
	}
	if e.OrganizerID == "" {
		return ErrInvalidUserID
	}
	return nil
}
