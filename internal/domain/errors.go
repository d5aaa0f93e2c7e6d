package domain

import "errors"

// Domain errors
var (
	// Booking errors
	ErrBookingNotFound      = errors.New("booking not found")
	ErrBookingNotPending    = errors.New("booking is not pending")
	ErrBookingCancelled     = errors.New("booking has been cancelled")
	ErrAlreadyConfirmed     = errors.New("booking already confirmed")
	ErrReminderAlreadySent  = errors.New("reminder already sent")
	ErrInvalidBookingStatus = errors.New("invalid booking status")

	// Validation errors
	ErrInvalidUserID      = errors.New("invalid user id")
	ErrInvalidBookingID   = errors.New("invalid booking id")
	ErrInvalidEventID     = errors.New("invalid event id")
	ErrInvalidEventTitle  = errors.New("event title is required")
	ErrInvalidSeatCount   = errors.New("seat count must be greater than zero")
	ErrInvalidTotalAmount = errors.New("total amount cannot be negative")
	ErrInvalidPrice       = errors.New("price cannot be negative")
	ErrInvalidEventDate   = errors.New("event date must be in the future")
	ErrInvalidWebhookKind = errors.New("unsupported webhook event kind")

	// Capacity errors
	ErrInsufficientSeats = errors.New("insufficient seats available")
	ErrNoSeatsReserved   = errors.New("no seats reserved for this booking")
	ErrNoSeatsBooked     = errors.New("no booked seats to release")

	// Event errors
	ErrEventNotFound = errors.New("event not found")

	// Payment errors
	ErrPaymentNotFound       = errors.New("payment not found")
	ErrPaymentAlreadyExists  = errors.New("payment already recorded")
	ErrPaymentNotCompleted   = errors.New("payment has not completed")
	ErrInvalidSignature      = errors.New("invalid webhook signature")
	ErrPaymentProviderFailed = errors.New("payment provider request failed")

	// Notification errors
	ErrNotificationNotFound = errors.New("notification not found")
	ErrEmptyMessage         = errors.New("notification message is required")
)

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrBookingNotFound) ||
		errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrPaymentNotFound) ||
		errors.Is(err, ErrNotificationNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidUserID) ||
		errors.Is(err, ErrInvalidBookingID) ||
		errors.Is(err, ErrInvalidEventID) ||
		errors.Is(err, ErrInvalidEventTitle) ||
		errors.Is(err, ErrInvalidSeatCount) ||
		errors.Is(err, ErrInvalidTotalAmount) ||
		errors.Is(err, ErrInvalidPrice) ||
		errors.Is(err, ErrInvalidEventDate) ||
		errors.Is(err, ErrInvalidWebhookKind) ||
		errors.Is(err, ErrInvalidBookingStatus) ||
		errors.Is(err, ErrEmptyMessage)
}

// IsCapacityError checks if the error is a seat capacity error
func IsCapacityError(err error) bool {
	return errors.Is(err, ErrInsufficientSeats)
}

// IsConflictError checks if the error is a benign conflict. Conflicts mean
// another actor already applied the same transition, not that anything broke.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrAlreadyConfirmed) ||
		errors.Is(err, ErrReminderAlreadySent) ||
		errors.Is(err, ErrBookingNotPending) ||
		errors.Is(err, ErrPaymentAlreadyExists)
}

// IsAuthenticityError checks if the error indicates an unverifiable caller
func IsAuthenticityError(err error) bool {
	return errors.Is(err, ErrInvalidSignature)
}

// IsExternalProviderError checks if the error came from the payment provider
func IsExternalProviderError(err error) bool {
	return errors.Is(err, ErrPaymentProviderFailed)
}
