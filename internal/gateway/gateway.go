package gateway

import "context"

// CheckoutGateway defines the interface to the payment provider.
// The service never trusts its own view of a payment; it either verifies a
// signed webhook or polls the provider for session state.
type CheckoutGateway interface {
	// CreateCheckoutSession opens a hosted checkout session for a booking
	CreateCheckoutSession(ctx context.Context, req *CheckoutRequest) (*CheckoutSession, error)

	// GetCheckoutSession fetches the current session state from the provider
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)

	// VerifyWebhook checks the payload signature and parses the event.
	// An unverifiable payload must never be processed.
	VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error)

	// Name returns the gateway name
	Name() string
}

// CheckoutRequest represents a request to open a checkout session
type CheckoutRequest struct {
	BookingID   string
	UserID      string
	EventTitle  string
	Seats       int
	Amount      float64
	Currency    string
	SuccessURL  string
	CancelURL   string
	CustomerRef string
}

// CheckoutSession represents the provider's view of a checkout session
type CheckoutSession struct {
	ID        string
	URL       string
	Paid      bool
	Status    string
	BookingID string
	Amount    float64
	Currency  string
}

// WebhookEvent is a verified provider event
type WebhookEvent struct {
	ID        string
	Type      string
	SessionID string
	BookingID string
}
