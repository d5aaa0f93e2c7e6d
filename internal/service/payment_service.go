package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/VinayKumar7512/EventNest/internal/domain"
	"github.com/VinayKumar7512/EventNest/internal/dto"
	"github.com/VinayKumar7512/EventNest/internal/gateway"
	"github.com/VinayKumar7512/EventNest/internal/repository"
	"github.com/VinayKumar7512/EventNest/pkg/logger"
	"github.com/VinayKumar7512/EventNest/pkg/retry"
	"github.com/VinayKumar7512/EventNest/pkg/telemetry"
)

// PaymentService reconciles provider payment outcomes with bookings.
// Webhook push and poll verification both funnel into the same reconcile
// routine, so a payment observed twice settles exactly once.
type PaymentService interface {
	// HandleWebhook verifies and processes a provider webhook delivery
	HandleWebhook(ctx context.Context, payload []byte, signature string) error

	// VerifySession polls the provider for a checkout session and
	// reconciles the booking if the session has been paid
	VerifySession(ctx context.Context, sessionID string) (*dto.VerifySessionResponse, error)

	// GetBookingPayment retrieves the payment for a booking owned by the user
	GetBookingPayment(ctx context.Context, bookingID, userID string) (*dto.PaymentResponse, error)
}

// paymentService implements PaymentService
type paymentService struct {
	bookingRepo    repository.BookingRepository
	eventRepo      repository.EventRepository
	paymentRepo    repository.PaymentRepository
	checkout       gateway.CheckoutGateway
	notifications  NotificationService
	eventPublisher EventPublisher
	cache          *repository.RedisEventCache
	commitRetry    *retry.Config
	currency       string
}

// PaymentServiceConfig contains configuration for the payment service
type PaymentServiceConfig struct {
	Currency    string
	CommitRetry *retry.Config
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	bookingRepo repository.BookingRepository,
	eventRepo repository.EventRepository,
	paymentRepo repository.PaymentRepository,
	checkout gateway.CheckoutGateway,
	notifications NotificationService,
	eventPublisher EventPublisher,
	cache *repository.RedisEventCache,
	cfg *PaymentServiceConfig,
) PaymentService {
	currency := "usd"
	commitRetry := &retry.Config{
		MaxRetries:      4,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.1,
	}
	if cfg != nil {
		if cfg.Currency != "" {
			currency = cfg.Currency
		}
		if cfg.CommitRetry != nil {
			commitRetry = cfg.CommitRetry
		}
	}
	if eventPublisher == nil {
		eventPublisher = NewNoOpEventPublisher()
	}
	return &paymentService{
		bookingRepo:    bookingRepo,
		eventRepo:      eventRepo,
		paymentRepo:    paymentRepo,
		checkout:       checkout,
		notifications:  notifications,
		eventPublisher: eventPublisher,
		cache:          cache,
		commitRetry:    commitRetry,
		currency:       currency,
	}
}

// HandleWebhook verifies the delivery and dispatches on the event kind.
// Unknown kinds are dropped after verification; the provider retries
// deliveries that are not acknowledged, so only signature failures should
// bubble up as errors.
func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.payment.handle_webhook")
	defer span.End()

	event, err := s.checkout.VerifyWebhook(payload, signature)
	if err != nil {
		span.SetStatus(codes.Error, "signature verification failed")
		return err
	}

	span.SetAttributes(
		attribute.String("webhook_event_id", event.ID),
		attribute.String("webhook_type", event.Type),
	)

	kind, ok := domain.ParseWebhookKind(event.Type)
	if !ok {
		logger.Get().Debug(fmt.Sprintf("Ignoring webhook event type %s", event.Type))
		span.SetStatus(codes.Ok, "ignored")
		return nil
	}

	if event.BookingID == "" {
		span.SetStatus(codes.Error, "missing booking reference")
		return domain.ErrInvalidBookingID
	}

	switch kind {
	case domain.WebhookCheckoutCompleted:
		err = s.reconcile(ctx, event.BookingID, event.SessionID)
	case domain.WebhookCheckoutExpired:
		err = s.abandon(ctx, event.BookingID)
	}

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// VerifySession polls the provider and reconciles a paid session. Clients
// call this on their checkout success page; it covers lost webhooks.
func (s *paymentService) VerifySession(ctx context.Context, sessionID string) (*dto.VerifySessionResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.payment.verify_session")
	defer span.End()

	span.SetAttributes(attribute.String("checkout_session", sessionID))

	session, err := s.checkout.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if session.BookingID == "" {
		span.SetStatus(codes.Error, "missing booking reference")
		return nil, domain.ErrInvalidBookingID
	}

	if session.Paid {
		if err := s.reconcile(ctx, session.BookingID, session.ID); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}

	booking, err := s.bookingRepo.GetByID(ctx, session.BookingID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	paymentStatus := string(domain.PaymentStatusPending)
	if payment, err := s.paymentRepo.GetByBookingID(ctx, session.BookingID); err == nil {
		paymentStatus = string(payment.Status)
	}

	span.SetStatus(codes.Ok, "")
	return &dto.VerifySessionResponse{
		BookingID:     booking.ID,
		BookingStatus: string(booking.Status),
		PaymentStatus: paymentStatus,
	}, nil
}

// GetBookingPayment retrieves the payment for a booking owned by the user
func (s *paymentService) GetBookingPayment(ctx context.Context, bookingID, userID string) (*dto.PaymentResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.payment.get_booking_payment")
	defer span.End()

	span.SetAttributes(attribute.String("booking_id", bookingID))

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if booking.UserID != userID {
		span.SetStatus(codes.Error, "not the owner")
		return nil, domain.ErrBookingNotFound
	}

	payment, err := s.paymentRepo.GetByBookingID(ctx, bookingID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.PaymentFromDomain(payment), nil
}

// reconcile settles a paid checkout session against its booking. The
// pending->confirmed transition is the durable commit point, but not the
// completion marker: that is the payment row reaching completed, which is
// only written after the seat ledger has moved. A reconcile that confirmed
// the booking and then died leaves the payment pending, so the next
// delivery of the same fact, webhook redelivery or a poll, picks the work
// back up instead of returning early. Once the payment row is completed
// every further reconcile is a no-op.
func (s *paymentService) reconcile(ctx context.Context, bookingID, sessionID string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.payment.reconcile")
	defer span.End()

	span.SetAttributes(
		attribute.String("booking_id", bookingID),
		attribute.String("checkout_session", sessionID),
	)

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	result, err := s.bookingRepo.ConfirmPayment(ctx, bookingID, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrBookingCancelled) {
			// Paid for a cancelled booking: keep the money state visible
			// and let support sort out the refund
			logger.Get().Error(fmt.Sprintf("Payment received for cancelled booking %s (session %s)", bookingID, sessionID))
		}
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	redrive := result == domain.TransitionAlreadyApplied
	if redrive {
		if payment, err := s.paymentRepo.GetByBookingID(ctx, bookingID); err == nil && payment.Status == domain.PaymentStatusCompleted {
			span.SetStatus(codes.Ok, "already reconciled")
			return nil
		}
		// Confirmed but never settled: an earlier reconcile died between
		// the transition and the completion marker. Finish its work.
		logger.Get().Warn(fmt.Sprintf("Re-driving unsettled reconcile for booking %s (session %s)", bookingID, sessionID))
	}

	if err := s.commitSeats(ctx, booking, redrive); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	s.invalidateCache(ctx, booking.EventID)

	if err := s.settlePayment(ctx, booking, sessionID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	booking.Status = domain.BookingStatusConfirmed
	booking.PaymentStatus = domain.PaymentStatusCompleted
	message := fmt.Sprintf("Your booking for %d seat(s) is confirmed.", booking.Seats)
	if err := s.notifications.Notify(ctx, booking.UserID, booking.UserEmail, booking.ID, domain.NotificationBookingConfirmed, "Booking confirmed", message); err != nil {
		logger.Get().Warn(fmt.Sprintf("Failed to notify user %s about booking %s: %v", booking.UserID, bookingID, err))
	}

	if err := s.eventPublisher.PublishBookingConfirmed(ctx, booking); err != nil {
		logger.Get().Warn(fmt.Sprintf("Failed to publish booking confirmed event: %v", err))
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// commitSeats moves the booking's reserved seats into booked seats,
// retrying transient failures. Ledger states that can never succeed are
// permanent and stop the retry loop immediately, with one exception: on a
// re-drive, no reservation means the earlier run already moved the seats
// before it died, so the commit is treated as done.
func (s *paymentService) commitSeats(ctx context.Context, booking *domain.Booking, redrive bool) error {
	result := retry.New(s.commitRetry).DoWithCallback(ctx, func(ctx context.Context) error {
		err := s.eventRepo.Commit(ctx, booking.EventID, booking.Seats)
		if errors.Is(err, domain.ErrEventNotFound) || errors.Is(err, domain.ErrNoSeatsReserved) {
			return retry.Permanent(err)
		}
		return err
	}, func(attempt int, err error, next time.Duration) {
		logger.Get().Warn(fmt.Sprintf("Seat commit for booking %s failed (attempt %d), retrying in %s: %v", booking.ID, attempt, next, err))
	})

	if result.Err != nil {
		if redrive && errors.Is(result.Err, domain.ErrNoSeatsReserved) {
			return nil
		}
		logger.Get().Error(fmt.Sprintf("Seat commit for booking %s failed after %d attempt(s): %v", booking.ID, result.Attempts, result.LastError))
		return fmt.Errorf("failed to commit seats for booking %s: %w", booking.ID, result.Err)
	}
	return nil
}

// settlePayment marks the payment row completed. The pending row is written
// at checkout-session creation; if it is missing here it is recreated first
// so the completion marker always lands. A failure is returned, not
// swallowed: until the marker lands the reconcile stays unfinished and the
// next delivery re-drives it.
func (s *paymentService) settlePayment(ctx context.Context, booking *domain.Booking, sessionID string) error {
	now := time.Now()
	payment := &domain.Payment{
		ID:              uuid.New().String(),
		BookingID:       booking.ID,
		UserID:          booking.UserID,
		Amount:          booking.TotalAmount,
		Currency:        s.currency,
		Status:          domain.PaymentStatusPending,
		CheckoutSession: sessionID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil && !errors.Is(err, domain.ErrPaymentAlreadyExists) {
		return fmt.Errorf("failed to record payment for booking %s: %w", booking.ID, err)
	}

	if _, err := s.paymentRepo.MarkCompleted(ctx, booking.ID); err != nil {
		return fmt.Errorf("failed to complete payment for booking %s: %w", booking.ID, err)
	}
	return nil
}

// abandon handles an expired checkout session: cancel the pending booking
// and return its seats. A booking that already confirmed or cancelled is
// left alone.
func (s *paymentService) abandon(ctx context.Context, bookingID string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.payment.abandon")
	defer span.End()

	span.SetAttributes(attribute.String("booking_id", bookingID))

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	result, err := s.bookingRepo.Cancel(ctx, bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyConfirmed) {
			// Session expired after the payment settled; nothing to undo
			span.SetStatus(codes.Ok, "already confirmed")
			return nil
		}
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if result == domain.TransitionApplied {
		if err := s.eventRepo.ReleaseReservation(ctx, booking.EventID, booking.Seats); err != nil {
			logger.Get().Error(fmt.Sprintf("Failed to release seats for abandoned booking %s: %v", bookingID, err))
		}
		s.invalidateCache(ctx, booking.EventID)

		if _, err := s.paymentRepo.MarkFailed(ctx, bookingID); err != nil && !errors.Is(err, domain.ErrPaymentNotFound) {
			logger.Get().Warn(fmt.Sprintf("Failed to mark payment failed for booking %s: %v", bookingID, err))
		}
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

func (s *paymentService) invalidateCache(ctx context.Context, eventID string) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, eventID)
	}
}
