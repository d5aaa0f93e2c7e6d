package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/VinayKumar7512/EventNest/internal/domain"
)

// MockGateway implements CheckoutGateway in memory for development and tests
type MockGateway struct {
	mu       sync.RWMutex
	sessions map[string]*CheckoutSession

	// MarkPaidOnCreate makes every new session immediately paid,
	// which lets local flows run without a real provider.
	MarkPaidOnCreate bool

	// FailCreate makes CreateCheckoutSession return a provider error
	FailCreate bool
}

// NewMockGateway creates a new mock gateway
func NewMockGateway() *MockGateway {
	return &MockGateway{
		sessions: make(map[string]*CheckoutSession),
	}
}

// CreateCheckoutSession opens a fake session
func (g *MockGateway) CreateCheckoutSession(ctx context.Context, req *CheckoutRequest) (*CheckoutSession, error) {
	if req == nil {
		return nil, fmt.Errorf("checkout request is required")
	}
	if g.FailCreate {
		return nil, fmt.Errorf("%w: mock create failed", domain.ErrPaymentProviderFailed)
	}

	sess := &CheckoutSession{
		ID:        "cs_mock_" + uuid.New().String(),
		URL:       "https://checkout.mock.local/" + req.BookingID,
		Paid:      g.MarkPaidOnCreate,
		Status:    "open",
		BookingID: req.BookingID,
		Amount:    req.Amount,
		Currency:  req.Currency,
	}

	g.mu.Lock()
	g.sessions[sess.ID] = sess
	g.mu.Unlock()

	return sess, nil
}

// GetCheckoutSession returns the stored session state
func (g *MockGateway) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	sess, ok := g.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("mock gateway: session %s not found", sessionID)
	}
	copied := *sess
	return &copied, nil
}

// MarkPaid flips a stored session to paid, simulating checkout completion
func (g *MockGateway) MarkPaid(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if sess, ok := g.sessions[sessionID]; ok {
		sess.Paid = true
		sess.Status = "complete"
	}
}

// VerifyWebhook accepts any payload with the signature "mock-valid"
func (g *MockGateway) VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if signature != "mock-valid" {
		return nil, domain.ErrInvalidSignature
	}
	return &WebhookEvent{
		ID:   "evt_mock_" + uuid.New().String(),
		Type: "checkout.session.completed",
	}, nil
}

// Name returns the gateway name
func (g *MockGateway) Name() string {
	return "mock"
}
