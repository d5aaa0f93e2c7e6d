package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/VinayKumar7512/EventNest/internal/domain"
	"github.com/VinayKumar7512/EventNest/internal/dto"
	"github.com/VinayKumar7512/EventNest/internal/service"
	"github.com/VinayKumar7512/EventNest/pkg/logger"
	"github.com/VinayKumar7512/EventNest/pkg/middleware"
	"github.com/VinayKumar7512/EventNest/pkg/response"
	"github.com/VinayKumar7512/EventNest/pkg/telemetry"
)

// maxWebhookBody caps webhook payload size (64KB, same order as the
// provider's own limit)
const maxWebhookBody = 65536

// PaymentHandler handles payment HTTP requests
type PaymentHandler struct {
	paymentService service.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// Webhook handles POST /payments/webhook. Signature failures get a 400 so
// a misconfigured endpoint surfaces quickly; every verified delivery is
// acknowledged with 200 even when processing fails, because the provider
// redelivers unacknowledged events and reconciliation is idempotent anyway.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.payment.webhook")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unreadable body")
		response.BadRequest(c, "Unreadable payload")
		return
	}

	signature := c.GetHeader("Stripe-Signature")

	err = h.paymentService.HandleWebhook(ctx, payload, signature)
	if err != nil {
		if domain.IsAuthenticityError(err) {
			span.SetStatus(codes.Error, "invalid signature")
			response.BadRequest(c, "Invalid webhook signature")
			return
		}
		logger.Get().Warn(fmt.Sprintf("Webhook processing failed: %v", err))
		span.RecordError(err)
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, dto.WebhookAckResponse{Received: true})
}

// VerifySession handles POST /payments/verify
func (h *PaymentHandler) VerifySession(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.payment.verify_session")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	if _, ok := middleware.GetUserID(c); !ok {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c, "Authentication required")
		return
	}

	var req dto.VerifySessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, err.Error())
		return
	}

	span.SetAttributes(attribute.String("checkout_session", req.SessionID))

	result, err := h.paymentService.VerifySession(ctx, req.SessionID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		handleServiceError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// GetBookingPayment handles GET /payments/booking/:id
func (h *PaymentHandler) GetBookingPayment(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.payment.get_booking_payment")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c, "Authentication required")
		return
	}

	bookingID := c.Param("id")
	span.SetAttributes(attribute.String("booking_id", bookingID))

	result, err := h.paymentService.GetBookingPayment(ctx, bookingID, userID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		handleServiceError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}
