package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/VinayKumar7512/EventNest/internal/domain"
)

// StripeGateway implements CheckoutGateway using Stripe hosted checkout
type StripeGateway struct {
	config *StripeGatewayConfig
}

// StripeGatewayConfig holds configuration for the Stripe gateway
type StripeGatewayConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
}

// NewStripeGateway creates a new Stripe gateway
func NewStripeGateway(config *StripeGatewayConfig) (*StripeGateway, error) {
	if config == nil {
		return nil, fmt.Errorf("stripe config is required")
	}
	if config.SecretKey == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}
	if config.Currency == "" {
		config.Currency = "usd"
	}

	stripe.Key = config.SecretKey

	return &StripeGateway{config: config}, nil
}

// CreateCheckoutSession opens a hosted checkout session. The booking ID
// travels in the session metadata so webhook and poll paths can both find
// their way back to the booking.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req *CheckoutRequest) (*CheckoutSession, error) {
	if req == nil {
		return nil, fmt.Errorf("checkout request is required")
	}

	currency := req.Currency
	if currency == "" {
		currency = g.config.Currency
	}

	amountInCents := amountToMinorUnits(req.Amount)

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(req.EventTitle),
						Description: stripe.String(fmt.Sprintf("%d seat(s)", req.Seats)),
					},
					UnitAmount: stripe.Int64(amountInCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		Metadata: map[string]string{
			"booking_id": req.BookingID,
			"user_id":    req.UserID,
		},
	}
	params.Context = ctx

	s, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentProviderFailed, err)
	}

	return &CheckoutSession{
		ID:        s.ID,
		URL:       s.URL,
		Paid:      s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Status:    string(s.Status),
		BookingID: req.BookingID,
		Amount:    req.Amount,
		Currency:  currency,
	}, nil
}

// GetCheckoutSession fetches session state from Stripe for poll verification
func (g *StripeGateway) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := session.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentProviderFailed, err)
	}

	return &CheckoutSession{
		ID:        s.ID,
		URL:       s.URL,
		Paid:      s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Status:    string(s.Status),
		BookingID: s.Metadata["booking_id"],
		Amount:    float64(s.AmountTotal) / 100,
		Currency:  string(s.Currency),
	}, nil
}

// VerifyWebhook verifies the Stripe signature and extracts the session
func (g *StripeGateway) VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.config.WebhookSecret)
	if err != nil {
		return nil, domain.ErrInvalidSignature
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse webhook session: %w", err)
	}

	return &WebhookEvent{
		ID:        event.ID,
		Type:      string(event.Type),
		SessionID: sess.ID,
		BookingID: sess.Metadata["booking_id"],
	}, nil
}

// Name returns the gateway name
func (g *StripeGateway) Name() string {
	return "stripe"
}

// amountToMinorUnits converts a decimal amount to integer cents. Rounding
// rather than truncating keeps sums like 3 x 19.99, which are not exactly
// representable in binary, from coming out a cent short.
func amountToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
