package service

import (
	"context"
	"sync"
	"time"

	"github.com/VinayKumar7512/EventNest/internal/domain"
	"github.com/VinayKumar7512/EventNest/internal/dto"
	"github.com/VinayKumar7512/EventNest/internal/gateway"
	"github.com/VinayKumar7512/EventNest/internal/repository"
)

// MockEventRepository is a mock implementation of EventRepository
type MockEventRepository struct {
	CreateFunc             func(ctx context.Context, event *domain.Event) error
	GetByIDFunc            func(ctx context.Context, id string) (*domain.Event, error)
	ListFunc               func(ctx context.Context, filter repository.EventFilter) ([]*domain.Event, int64, error)
	UpdateFunc             func(ctx context.Context, event *domain.Event) error
	DeleteFunc             func(ctx context.Context, id string) error
	ReserveFunc            func(ctx context.Context, eventID string, seats int) error
	CommitFunc             func(ctx context.Context, eventID string, seats int) error
	ReleaseFunc            func(ctx context.Context, eventID string, seats int) error
	ReleaseReservationFunc func(ctx context.Context, eventID string, seats int) error
}

func (m *MockEventRepository) Create(ctx context.Context, event *domain.Event) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, event)
	}
	return nil
}

func (m *MockEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, domain.ErrEventNotFound
}

func (m *MockEventRepository) List(ctx context.Context, filter repository.EventFilter) ([]*domain.Event, int64, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return []*domain.Event{}, 0, nil
}

func (m *MockEventRepository) Update(ctx context.Context, event *domain.Event) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, event)
	}
	return nil
}

func (m *MockEventRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockEventRepository) Reserve(ctx context.Context, eventID string, seats int) error {
	if m.ReserveFunc != nil {
		return m.ReserveFunc(ctx, eventID, seats)
	}
	return nil
}

func (m *MockEventRepository) Commit(ctx context.Context, eventID string, seats int) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx, eventID, seats)
	}
	return nil
}

func (m *MockEventRepository) Release(ctx context.Context, eventID string, seats int) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, eventID, seats)
	}
	return nil
}

func (m *MockEventRepository) ReleaseReservation(ctx context.Context, eventID string, seats int) error {
	if m.ReleaseReservationFunc != nil {
		return m.ReleaseReservationFunc(ctx, eventID, seats)
	}
	return nil
}

// MockBookingRepository is a mock implementation of BookingRepository
type MockBookingRepository struct {
	CreateFunc             func(ctx context.Context, booking *domain.Booking) error
	GetByIDFunc            func(ctx context.Context, id string) (*domain.Booking, error)
	GetByUserIDFunc        func(ctx context.Context, userID string, limit, offset int) ([]*domain.Booking, error)
	SetCheckoutSessionFunc func(ctx context.Context, id, sessionID string) error
	ConfirmPaymentFunc     func(ctx context.Context, id, paymentRef string) (domain.TransitionResult, error)
	CancelFunc             func(ctx context.Context, id string) (domain.TransitionResult, error)
	MarkReminderSentFunc   func(ctx context.Context, id string) (domain.TransitionResult, error)
	GetRemindableFunc      func(ctx context.Context, until time.Time, limit int) ([]*domain.Booking, error)
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, booking)
	}
	return nil
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, domain.ErrBookingNotFound
}

func (m *MockBookingRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*domain.Booking, error) {
	if m.GetByUserIDFunc != nil {
		return m.GetByUserIDFunc(ctx, userID, limit, offset)
	}
	return []*domain.Booking{}, nil
}

func (m *MockBookingRepository) SetCheckoutSession(ctx context.Context, id, sessionID string) error {
	if m.SetCheckoutSessionFunc != nil {
		return m.SetCheckoutSessionFunc(ctx, id, sessionID)
	}
	return nil
}

func (m *MockBookingRepository) ConfirmPayment(ctx context.Context, id, paymentRef string) (domain.TransitionResult, error) {
	if m.ConfirmPaymentFunc != nil {
		return m.ConfirmPaymentFunc(ctx, id, paymentRef)
	}
	return domain.TransitionApplied, nil
}

func (m *MockBookingRepository) Cancel(ctx context.Context, id string) (domain.TransitionResult, error) {
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx, id)
	}
	return domain.TransitionApplied, nil
}

func (m *MockBookingRepository) MarkReminderSent(ctx context.Context, id string) (domain.TransitionResult, error) {
	if m.MarkReminderSentFunc != nil {
		return m.MarkReminderSentFunc(ctx, id)
	}
	return domain.TransitionApplied, nil
}

func (m *MockBookingRepository) GetRemindable(ctx context.Context, until time.Time, limit int) ([]*domain.Booking, error) {
	if m.GetRemindableFunc != nil {
		return m.GetRemindableFunc(ctx, until, limit)
	}
	return []*domain.Booking{}, nil
}

// MockPaymentRepository is a mock implementation of PaymentRepository
type MockPaymentRepository struct {
	CreateFunc               func(ctx context.Context, payment *domain.Payment) error
	GetByBookingIDFunc       func(ctx context.Context, bookingID string) (*domain.Payment, error)
	GetByCheckoutSessionFunc func(ctx context.Context, sessionID string) (*domain.Payment, error)
	SetCheckoutSessionFunc   func(ctx context.Context, bookingID, sessionID string) error
	MarkCompletedFunc        func(ctx context.Context, bookingID string) (domain.TransitionResult, error)
	MarkFailedFunc           func(ctx context.Context, bookingID string) (domain.TransitionResult, error)
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, payment)
	}
	return nil
}

func (m *MockPaymentRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.Payment, error) {
	if m.GetByBookingIDFunc != nil {
		return m.GetByBookingIDFunc(ctx, bookingID)
	}
	return nil, domain.ErrPaymentNotFound
}

func (m *MockPaymentRepository) GetByCheckoutSession(ctx context.Context, sessionID string) (*domain.Payment, error) {
	if m.GetByCheckoutSessionFunc != nil {
		return m.GetByCheckoutSessionFunc(ctx, sessionID)
	}
	return nil, domain.ErrPaymentNotFound
}

func (m *MockPaymentRepository) SetCheckoutSession(ctx context.Context, bookingID, sessionID string) error {
	if m.SetCheckoutSessionFunc != nil {
		return m.SetCheckoutSessionFunc(ctx, bookingID, sessionID)
	}
	return nil
}

func (m *MockPaymentRepository) MarkCompleted(ctx context.Context, bookingID string) (domain.TransitionResult, error) {
	if m.MarkCompletedFunc != nil {
		return m.MarkCompletedFunc(ctx, bookingID)
	}
	return domain.TransitionApplied, nil
}

func (m *MockPaymentRepository) MarkFailed(ctx context.Context, bookingID string) (domain.TransitionResult, error) {
	if m.MarkFailedFunc != nil {
		return m.MarkFailedFunc(ctx, bookingID)
	}
	return domain.TransitionApplied, nil
}

// MockNotificationRepository is a mock implementation of NotificationRepository
type MockNotificationRepository struct {
	CreateFunc      func(ctx context.Context, notification *domain.Notification) error
	GetByUserIDFunc func(ctx context.Context, userID string, limit, offset int) ([]*domain.Notification, error)
	MarkReadFunc    func(ctx context.Context, id, userID string) error
	MarkAllReadFunc func(ctx context.Context, userID string) error
	CountUnreadFunc func(ctx context.Context, userID string) (int64, error)
}

func (m *MockNotificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, notification)
	}
	return nil
}

func (m *MockNotificationRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*domain.Notification, error) {
	if m.GetByUserIDFunc != nil {
		return m.GetByUserIDFunc(ctx, userID, limit, offset)
	}
	return []*domain.Notification{}, nil
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	if m.MarkReadFunc != nil {
		return m.MarkReadFunc(ctx, id, userID)
	}
	return nil
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	if m.MarkAllReadFunc != nil {
		return m.MarkAllReadFunc(ctx, userID)
	}
	return nil
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	if m.CountUnreadFunc != nil {
		return m.CountUnreadFunc(ctx, userID)
	}
	return 0, nil
}

// MockNotificationService records Notify calls for assertions
type MockNotificationService struct {
	mu       sync.Mutex
	Notified []NotifyCall
	NotifyFn func(ctx context.Context, userID, email, bookingID string, ntype domain.NotificationType, subject, message string) error
}

// NotifyCall captures the arguments of one Notify invocation
type NotifyCall struct {
	UserID    string
	Email     string
	BookingID string
	Type      domain.NotificationType
	Subject   string
	Message   string
}

func (m *MockNotificationService) Notify(ctx context.Context, userID, email, bookingID string, ntype domain.NotificationType, subject, message string) error {
	m.mu.Lock()
	m.Notified = append(m.Notified, NotifyCall{UserID: userID, Email: email, BookingID: bookingID, Type: ntype, Subject: subject, Message: message})
	m.mu.Unlock()
	if m.NotifyFn != nil {
		return m.NotifyFn(ctx, userID, email, bookingID, ntype, subject, message)
	}
	return nil
}

func (m *MockNotificationService) GetUserNotifications(ctx context.Context, userID string, page, limit int) ([]*dto.NotificationResponse, error) {
	return nil, nil
}

func (m *MockNotificationService) MarkRead(ctx context.Context, notificationID, userID string) error {
	return nil
}

func (m *MockNotificationService) MarkAllRead(ctx context.Context, userID string) error {
	return nil
}

func (m *MockNotificationService) CountUnread(ctx context.Context, userID string) (int64, error) {
	return 0, nil
}

// MockCheckoutGateway is a mock implementation of gateway.CheckoutGateway
type MockCheckoutGateway struct {
	CreateCheckoutSessionFunc func(ctx context.Context, req *gateway.CheckoutRequest) (*gateway.CheckoutSession, error)
	GetCheckoutSessionFunc    func(ctx context.Context, sessionID string) (*gateway.CheckoutSession, error)
	VerifyWebhookFunc         func(payload []byte, signature string) (*gateway.WebhookEvent, error)
}

func (m *MockCheckoutGateway) CreateCheckoutSession(ctx context.Context, req *gateway.CheckoutRequest) (*gateway.CheckoutSession, error) {
	if m.CreateCheckoutSessionFunc != nil {
		return m.CreateCheckoutSessionFunc(ctx, req)
	}
	return &gateway.CheckoutSession{
		ID:        "cs_test_session",
		URL:       "https://checkout.test/cs_test_session",
		BookingID: req.BookingID,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Status:    "open",
	}, nil
}

func (m *MockCheckoutGateway) GetCheckoutSession(ctx context.Context, sessionID string) (*gateway.CheckoutSession, error) {
	if m.GetCheckoutSessionFunc != nil {
		return m.GetCheckoutSessionFunc(ctx, sessionID)
	}
	return &gateway.CheckoutSession{ID: sessionID, Status: "open"}, nil
}

func (m *MockCheckoutGateway) VerifyWebhook(payload []byte, signature string) (*gateway.WebhookEvent, error) {
	if m.VerifyWebhookFunc != nil {
		return m.VerifyWebhookFunc(payload, signature)
	}
	return nil, domain.ErrInvalidSignature
}

func (m *MockCheckoutGateway) Name() string { return "test" }

// RecordingEventPublisher counts published events by type
type RecordingEventPublisher struct {
	mu        sync.Mutex
	Created   int
	Confirmed int
	Cancelled int
	Reminded  int
}

func (p *RecordingEventPublisher) PublishBookingCreated(ctx context.Context, booking *domain.Booking) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Created++
	return nil
}

func (p *RecordingEventPublisher) PublishBookingConfirmed(ctx context.Context, booking *domain.Booking) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Confirmed++
	return nil
}

func (p *RecordingEventPublisher) PublishBookingCancelled(ctx context.Context, booking *domain.Booking) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Cancelled++
	return nil
}

func (p *RecordingEventPublisher) PublishBookingReminded(ctx context.Context, booking *domain.Booking) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Reminded++
	return nil
}

func (p *RecordingEventPublisher) Close() error { return nil }
