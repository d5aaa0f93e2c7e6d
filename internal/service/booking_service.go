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
	"github.com/VinayKumar7512/EventNest/pkg/telemetry"
)

// BookingService defines the interface for booking business logic
type BookingService interface {
	// CreateBooking reserves seats, creates a pending booking and opens a
	// checkout session for it
	CreateBooking(ctx context.Context, userID, userEmail string, req *dto.CreateBookingRequest) (*dto.CreateBookingResponse, error)

	// GetBooking retrieves a booking owned by the user
	GetBooking(ctx context.Context, bookingID, userID string) (*dto.BookingResponse, error)

	// GetUserBookings retrieves all bookings for a user
	GetUserBookings(ctx context.Context, userID string, page, limit int) ([]*dto.BookingResponse, error)

	// CancelBooking cancels a pending booking and releases its seats
	CancelBooking(ctx context.Context, bookingID, userID string) (*dto.CancelBookingResponse, error)

	// ReopenCheckout opens a fresh checkout session for a pending booking
	// whose original session was abandoned
	ReopenCheckout(ctx context.Context, bookingID, userID string) (*dto.CheckoutSessionResponse, error)
}

// bookingService implements BookingService
type bookingService struct {
	bookingRepo    repository.BookingRepository
	eventRepo      repository.EventRepository
	paymentRepo    repository.PaymentRepository
	checkout       gateway.CheckoutGateway
	eventPublisher EventPublisher
	cache          *repository.RedisEventCache
	clientURL      string
	currency       string
}

// BookingServiceConfig contains configuration for the booking service
type BookingServiceConfig struct {
	ClientURL string
	Currency  string
}

// NewBookingService creates a new booking service
func NewBookingService(
	bookingRepo repository.BookingRepository,
	eventRepo repository.EventRepository,
	paymentRepo repository.PaymentRepository,
	checkout gateway.CheckoutGateway,
	eventPublisher EventPublisher,
	cache *repository.RedisEventCache,
	cfg *BookingServiceConfig,
) BookingService {
	clientURL := "http://localhost:3000"
	currency := "usd"
	if cfg != nil {
		if cfg.ClientURL != "" {
			clientURL = cfg.ClientURL
		}
		if cfg.Currency != "" {
			currency = cfg.Currency
		}
	}
	if eventPublisher == nil {
		eventPublisher = NewNoOpEventPublisher()
	}
	return &bookingService{
		bookingRepo:    bookingRepo,
		eventRepo:      eventRepo,
		paymentRepo:    paymentRepo,
		checkout:       checkout,
		eventPublisher: eventPublisher,
		cache:          cache,
		clientURL:      clientURL,
		currency:       currency,
	}
}

// CreateBooking reserves seats, records the pending booking, then opens a
// checkout session. The reservation happens before anything else so a burst
// of concurrent requests can never oversell; if any later step fails the
// reserved seats are released again.
func (s *bookingService) CreateBooking(ctx context.Context, userID, userEmail string, req *dto.CreateBookingRequest) (*dto.CreateBookingResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.create")
	defer span.End()

	if userID == "" {
		span.SetStatus(codes.Error, "invalid user_id")
		return nil, domain.ErrInvalidUserID
	}
	if req == nil || req.EventID == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return nil, domain.ErrInvalidEventID
	}
	if req.Seats <= 0 {
		span.SetStatus(codes.Error, "invalid seat count")
		return nil, domain.ErrInvalidSeatCount
	}

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("event_id", req.EventID),
		attribute.Int("seats", req.Seats),
	)

	event, err := s.eventRepo.GetByID(ctx, req.EventID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if event.IsPast() {
		span.SetStatus(codes.Error, "event already started")
		return nil, domain.ErrInvalidEventDate
	}

	if err := s.eventRepo.Reserve(ctx, event.ID, req.Seats); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	s.invalidateCache(ctx, event.ID)

	now := time.Now()
	booking := &domain.Booking{
		ID:        uuid.New().String(),
		UserID:    userID,
		UserEmail: userEmail,
		EventID:   event.ID,
		Seats:     req.Seats,
		// The amount is fixed here; later price edits never change it
		TotalAmount:   event.Price * float64(req.Seats),
		Status:        domain.BookingStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		s.releaseSeats(ctx, event.ID, req.Seats)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	session, err := s.checkout.CreateCheckoutSession(ctx, &gateway.CheckoutRequest{
		BookingID:  booking.ID,
		UserID:     userID,
		EventTitle: event.Title,
		Seats:      req.Seats,
		Amount:     booking.TotalAmount,
		Currency:   s.currency,
		SuccessURL: fmt.Sprintf("%s/bookings/%s?checkout=success&session_id={CHECKOUT_SESSION_ID}", s.clientURL, booking.ID),
		CancelURL:  fmt.Sprintf("%s/events/%s?checkout=cancelled", s.clientURL, event.ID),
	})
	if err != nil {
		// Checkout never opened, undo everything
		if _, cancelErr := s.bookingRepo.Cancel(ctx, booking.ID); cancelErr != nil {
			logger.Get().Error(fmt.Sprintf("Failed to cancel booking %s after checkout failure: %v", booking.ID, cancelErr))
		}
		s.releaseSeats(ctx, event.ID, req.Seats)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := s.bookingRepo.SetCheckoutSession(ctx, booking.ID, session.ID); err != nil {
		logger.Get().Error(fmt.Sprintf("Failed to attach checkout session to booking %s: %v", booking.ID, err))
	}
	booking.CheckoutSession = session.ID

	s.openPayment(ctx, booking, session.ID)

	if err := s.eventPublisher.PublishBookingCreated(ctx, booking); err != nil {
		logger.Get().Warn(fmt.Sprintf("Failed to publish booking created event: %v", err))
	}

	span.SetAttributes(attribute.String("booking_id", booking.ID))
	span.SetStatus(codes.Ok, "")
	return &dto.CreateBookingResponse{
		Booking:     dto.BookingFromDomain(booking),
		CheckoutURL: session.URL,
	}, nil
}

// GetBooking retrieves a booking owned by the user
func (s *bookingService) GetBooking(ctx context.Context, bookingID, userID string) (*dto.BookingResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.get")
	defer span.End()

	span.SetAttributes(attribute.String("booking_id", bookingID))

	if bookingID == "" {
		span.SetStatus(codes.Error, "invalid booking_id")
		return nil, domain.ErrInvalidBookingID
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if booking.UserID != userID {
		// Hide other users' bookings rather than reveal they exist
		span.SetStatus(codes.Error, "not the owner")
		return nil, domain.ErrBookingNotFound
	}

	span.SetStatus(codes.Ok, "")
	return dto.BookingFromDomain(booking), nil
}

// GetUserBookings retrieves bookings for a user
func (s *bookingService) GetUserBookings(ctx context.Context, userID string, page, limit int) ([]*dto.BookingResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.get_user_bookings")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	if userID == "" {
		span.SetStatus(codes.Error, "invalid user_id")
		return nil, domain.ErrInvalidUserID
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	bookings, err := s.bookingRepo.GetByUserID(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(bookings)))
	span.SetStatus(codes.Ok, "")
	return dto.BookingsFromDomain(bookings), nil
}

// CancelBooking cancels a pending booking. Only the transition winner
// releases seats, so a cancel racing a cancel frees them exactly once.
func (s *bookingService) CancelBooking(ctx context.Context, bookingID, userID string) (*dto.CancelBookingResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.cancel")
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

	result, err := s.bookingRepo.Cancel(ctx, bookingID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if result == domain.TransitionApplied {
		s.releaseSeats(ctx, booking.EventID, booking.Seats)
		s.invalidateCache(ctx, booking.EventID)

		booking.Status = domain.BookingStatusCancelled
		if err := s.eventPublisher.PublishBookingCancelled(ctx, booking); err != nil {
			logger.Get().Warn(fmt.Sprintf("Failed to publish booking cancelled event: %v", err))
		}
	}

	span.SetStatus(codes.Ok, "")
	return &dto.CancelBookingResponse{
		BookingID: bookingID,
		Status:    string(domain.BookingStatusCancelled),
		Message:   "Booking cancelled",
	}, nil
}

// ReopenCheckout opens a new checkout session for a still-pending booking.
// The session ID on the booking is replaced so webhooks and polls for the
// new session resolve to this booking.
func (s *bookingService) ReopenCheckout(ctx context.Context, bookingID, userID string) (*dto.CheckoutSessionResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.reopen_checkout")
	defer span.End()

	span.SetAttributes(attribute.String("booking_id", bookingID))

	if bookingID == "" {
		span.SetStatus(codes.Error, "invalid booking_id")
		return nil, domain.ErrInvalidBookingID
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if booking.UserID != userID {
		span.SetStatus(codes.Error, "not the owner")
		return nil, domain.ErrBookingNotFound
	}
	switch booking.Status {
	case domain.BookingStatusConfirmed:
		span.SetStatus(codes.Error, "already confirmed")
		return nil, domain.ErrAlreadyConfirmed
	case domain.BookingStatusCancelled:
		span.SetStatus(codes.Error, "not pending")
		return nil, domain.ErrBookingNotPending
	}

	eventTitle := "Event booking"
	event, err := s.eventRepo.GetByID(ctx, booking.EventID)
	if err == nil {
		eventTitle = event.Title
	}

	session, err := s.checkout.CreateCheckoutSession(ctx, &gateway.CheckoutRequest{
		BookingID:  booking.ID,
		UserID:     userID,
		EventTitle: eventTitle,
		Seats:      booking.Seats,
		Amount:     booking.TotalAmount,
		Currency:   s.currency,
		SuccessURL: fmt.Sprintf("%s/bookings/%s?checkout=success&session_id={CHECKOUT_SESSION_ID}", s.clientURL, booking.ID),
		CancelURL:  fmt.Sprintf("%s/events/%s?checkout=cancelled", s.clientURL, booking.EventID),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := s.bookingRepo.SetCheckoutSession(ctx, booking.ID, session.ID); err != nil {
		logger.Get().Error(fmt.Sprintf("Failed to attach checkout session to booking %s: %v", booking.ID, err))
	}

	if err := s.paymentRepo.SetCheckoutSession(ctx, booking.ID, session.ID); err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			s.openPayment(ctx, booking, session.ID)
		} else {
			logger.Get().Error(fmt.Sprintf("Failed to repoint payment for booking %s: %v", booking.ID, err))
		}
	}

	span.SetStatus(codes.Ok, "")
	return &dto.CheckoutSessionResponse{
		SessionID:   session.ID,
		CheckoutURL: session.URL,
	}, nil
}

// openPayment writes the pending payment row that tracks a checkout session.
// The row is the reconciler's completion marker; failing to write it here is
// logged rather than fatal because the reconciler recreates a missing row
// before settling.
func (s *bookingService) openPayment(ctx context.Context, booking *domain.Booking, sessionID string) {
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
		logger.Get().Error(fmt.Sprintf("Failed to open payment for booking %s: %v", booking.ID, err))
	}
}

func (s *bookingService) releaseSeats(ctx context.Context, eventID string, seats int) {
	if err := s.eventRepo.ReleaseReservation(ctx, eventID, seats); err != nil {
		logger.Get().Error(fmt.Sprintf("Failed to release %d seat(s) for event %s: %v", seats, eventID, err))
	}
}

func (s *bookingService) invalidateCache(ctx context.Context, eventID string) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, eventID)
	}
}
