package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/VinayKumar7512/EventNest/internal/domain"
	"github.com/VinayKumar7512/EventNest/internal/dto"
	"github.com/VinayKumar7512/EventNest/pkg/middleware"
)

// MockPaymentService is a mock implementation of service.PaymentService
type MockPaymentService struct {
	HandleWebhookFunc     func(ctx context.Context, payload []byte, signature string) error
	VerifySessionFunc     func(ctx context.Context, sessionID string) (*dto.VerifySessionResponse, error)
	GetBookingPaymentFunc func(ctx context.Context, bookingID, userID string) (*dto.PaymentResponse, error)
}

func (m *MockPaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if m.HandleWebhookFunc != nil {
		return m.HandleWebhookFunc(ctx, payload, signature)
	}
	return nil
}

func (m *MockPaymentService) VerifySession(ctx context.Context, sessionID string) (*dto.VerifySessionResponse, error) {
	if m.VerifySessionFunc != nil {
		return m.VerifySessionFunc(ctx, sessionID)
	}
	return nil, nil
}

func (m *MockPaymentService) GetBookingPayment(ctx context.Context, bookingID, userID string) (*dto.PaymentResponse, error) {
	if m.GetBookingPaymentFunc != nil {
		return m.GetBookingPaymentFunc(ctx, bookingID, userID)
	}
	return nil, nil
}

func setupPaymentRouter(handler *PaymentHandler, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	if userID != "" {
		router.Use(func(c *gin.Context) {
			c.Set(middleware.ContextKeyUserID, userID)
			c.Next()
		})
	}

	payments := router.Group("/payments")
	{
		payments.POST("/webhook", handler.Webhook)
		payments.POST("/verify", handler.VerifySession)
		payments.GET("/booking/:id", handler.GetBookingPayment)
	}

	return router
}

func TestPaymentHandler_Webhook(t *testing.T) {
	tests := []struct {
		name           string
		signature      string
		mockFunc       func(ctx context.Context, payload []byte, signature string) error
		expectedStatus int
		wantReceived   bool
	}{
		{
			name:      "valid delivery acknowledged",
			signature: "t=1,v1=abc",
			mockFunc: func(ctx context.Context, payload []byte, signature string) error {
				return nil
			},
			expectedStatus: http.StatusOK,
			wantReceived:   true,
		},
		{
			name:      "invalid signature rejected",
			signature: "garbage",
			mockFunc: func(ctx context.Context, payload []byte, signature string) error {
				return domain.ErrInvalidSignature
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			// Processing failures are still acknowledged; the provider
			// redelivers and reconciliation is idempotent.
			name:      "processing failure still acknowledged",
			signature: "t=1,v1=abc",
			mockFunc: func(ctx context.Context, payload []byte, signature string) error {
				return errors.New("database down")
			},
			expectedStatus: http.StatusOK,
			wantReceived:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewPaymentHandler(&MockPaymentService{HandleWebhookFunc: tt.mockFunc})
			router := setupPaymentRouter(handler, "")

			req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader([]byte(`{"type":"checkout.session.completed"}`)))
			req.Header.Set("Stripe-Signature", tt.signature)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d (body: %s)", w.Code, tt.expectedStatus, w.Body.String())
			}

			if tt.wantReceived {
				var ack dto.WebhookAckResponse
				if err := json.Unmarshal(w.Body.Bytes(), &ack); err != nil {
					t.Fatalf("Failed to decode ack: %v", err)
				}
				if !ack.Received {
					t.Error("ack.received = false, want true")
				}
			}
		})
	}
}

func TestPaymentHandler_Webhook_PassesSignatureAndPayload(t *testing.T) {
	var gotPayload []byte
	var gotSignature string
	handler := NewPaymentHandler(&MockPaymentService{
		HandleWebhookFunc: func(ctx context.Context, payload []byte, signature string) error {
			gotPayload = payload
			gotSignature = signature
			return nil
		},
	})
	router := setupPaymentRouter(handler, "")

	body := []byte(`{"id":"evt_1"}`)
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(body))
	req.Header.Set("Stripe-Signature", "t=1,v1=sig")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if !bytes.Equal(gotPayload, body) {
		t.Error("payload must reach the service unmodified for signature verification")
	}
	if gotSignature != "t=1,v1=sig" {
		t.Errorf("signature = %q, want header value", gotSignature)
	}
}

func TestPaymentHandler_VerifySession(t *testing.T) {
	tests := []struct {
		name           string
		userID         string
		body           interface{}
		mockFunc       func(ctx context.Context, sessionID string) (*dto.VerifySessionResponse, error)
		expectedStatus int
	}{
		{
			name:   "paid session",
			userID: "user-123",
			body:   &dto.VerifySessionRequest{SessionID: "cs_123"},
			mockFunc: func(ctx context.Context, sessionID string) (*dto.VerifySessionResponse, error) {
				return &dto.VerifySessionResponse{
					BookingID:     "booking-123",
					BookingStatus: "confirmed",
					PaymentStatus: "completed",
				}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unauthorized",
			userID:         "",
			body:           &dto.VerifySessionRequest{SessionID: "cs_123"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "missing session id",
			userID:         "user-123",
			body:           map[string]interface{}{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "provider unreachable",
			userID: "user-123",
			body:   &dto.VerifySessionRequest{SessionID: "cs_123"},
			mockFunc: func(ctx context.Context, sessionID string) (*dto.VerifySessionResponse, error) {
				return nil, domain.ErrPaymentProviderFailed
			},
			expectedStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewPaymentHandler(&MockPaymentService{VerifySessionFunc: tt.mockFunc})
			router := setupPaymentRouter(handler, tt.userID)

			body, _ := json.Marshal(tt.body)
			req := httptest.NewRequest(http.MethodPost, "/payments/verify", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d (body: %s)", w.Code, tt.expectedStatus, w.Body.String())
			}
		})
	}
}

func TestPaymentHandler_GetBookingPayment_NotFound(t *testing.T) {
	handler := NewPaymentHandler(&MockPaymentService{
		GetBookingPaymentFunc: func(ctx context.Context, bookingID, userID string) (*dto.PaymentResponse, error) {
			return nil, domain.ErrPaymentNotFound
		},
	})
	router := setupPaymentRouter(handler, "user-123")

	req := httptest.NewRequest(http.MethodGet, "/payments/booking/booking-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
