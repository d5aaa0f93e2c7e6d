package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/VinayKumar7512/EventNest/internal/domain"
	"github.com/VinayKumar7512/EventNest/internal/gateway"
	"github.com/VinayKumar7512/EventNest/pkg/retry"
)

func pendingBooking() *domain.Booking {
	return &domain.Booking{
		ID:          "booking-001",
		UserID:      "user-001",
		UserEmail:   "user@example.com",
		EventID:     "event-001",
		Seats:       2,
		TotalAmount: 200.00,
		Status:      domain.BookingStatusPending,
	}
}

func fastRetry() *retry.Config {
	return &retry.Config{
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
		Multiplier:      1.0,
		JitterFactor:    0,
	}
}

func completedWebhook(bookingID, sessionID string) *MockCheckoutGateway {
	return &MockCheckoutGateway{
		VerifyWebhookFunc: func(payload []byte, signature string) (*gateway.WebhookEvent, error) {
			if signature != "valid" {
				return nil, domain.ErrInvalidSignature
			}
			return &gateway.WebhookEvent{
				ID:        "evt-001",
				Type:      "checkout.session.completed",
				SessionID: sessionID,
				BookingID: bookingID,
			}, nil
		},
	}
}

func TestPaymentService_HandleWebhook_InvalidSignature(t *testing.T) {
	svc := NewPaymentService(
		&MockBookingRepository{},
		&MockEventRepository{},
		&MockPaymentRepository{},
		&MockCheckoutGateway{},
		&MockNotificationService{},
		nil,
		nil,
		nil,
	)

	err := svc.HandleWebhook(context.Background(), []byte("{}"), "garbage")
	if !errors.Is(err, domain.ErrInvalidSignature) {
		t.Errorf("HandleWebhook() error = %v, want ErrInvalidSignature", err)
	}
	if !domain.IsAuthenticityError(err) {
		t.Errorf("IsAuthenticityError(%v) = false, want true", err)
	}
}

func TestPaymentService_HandleWebhook_UnknownKindIgnored(t *testing.T) {
	gw := &MockCheckoutGateway{
		VerifyWebhookFunc: func(payload []byte, signature string) (*gateway.WebhookEvent, error) {
			return &gateway.WebhookEvent{ID: "evt-002", Type: "invoice.paid"}, nil
		},
	}
	bookingRepo := &MockBookingRepository{
		ConfirmPaymentFunc: func(ctx context.Context, id, paymentRef string) (domain.TransitionResult, error) {
			t.Error("ConfirmPayment should not be called for an unknown event kind")
			return domain.TransitionApplied, nil
		},
	}

	svc := NewPaymentService(bookingRepo, &MockEventRepository{}, &MockPaymentRepository{}, gw, &MockNotificationService{}, nil, nil, nil)

	if err := svc.HandleWebhook(context.Background(), []byte("{}"), "valid"); err != nil {
		t.Errorf("HandleWebhook() unexpected error = %v", err)
	}
}

func TestPaymentService_HandleWebhook_MissingBookingID(t *testing.T) {
	gw := &MockCheckoutGateway{
		VerifyWebhookFunc: func(payload []byte, signature string) (*gateway.WebhookEvent, error) {
			return &gateway.WebhookEvent{ID: "evt-003", Type: "checkout.session.completed", SessionID: "cs-003"}, nil
		},
	}

	svc := NewPaymentService(&MockBookingRepository{}, &MockEventRepository{}, &MockPaymentRepository{}, gw, &MockNotificationService{}, nil, nil, nil)

	err := svc.HandleWebhook(context.Background(), []byte("{}"), "valid")
	if !errors.Is(err, domain.ErrInvalidBookingID) {
		t.Errorf("HandleWebhook() error = %v, want ErrInvalidBookingID", err)
	}
}

// fakePaymentStore is a MockPaymentRepository with just enough state to act
// as the reconciler's completion marker: one payment row per booking whose
// status moves pending -> completed.
type fakePaymentStore struct {
	MockPaymentRepository
	mu       sync.Mutex
	payments map[string]*domain.Payment
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{payments: make(map[string]*domain.Payment)}
}

func (f *fakePaymentStore) Create(ctx context.Context, payment *domain.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.payments[payment.BookingID]; ok {
		return domain.ErrPaymentAlreadyExists
	}
	copied := *payment
	f.payments[payment.BookingID] = &copied
	return nil
}

func (f *fakePaymentStore) GetByBookingID(ctx context.Context, bookingID string) (*domain.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	payment, ok := f.payments[bookingID]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	copied := *payment
	return &copied, nil
}

func (f *fakePaymentStore) MarkCompleted(ctx context.Context, bookingID string) (domain.TransitionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	payment, ok := f.payments[bookingID]
	if !ok {
		return 0, domain.ErrPaymentNotFound
	}
	if payment.Status != domain.PaymentStatusPending {
		return domain.TransitionAlreadyApplied, nil
	}
	payment.Status = domain.PaymentStatusCompleted
	return domain.TransitionApplied, nil
}

func (f *fakePaymentStore) status(bookingID string) domain.PaymentStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	if payment, ok := f.payments[bookingID]; ok {
		return payment.Status
	}
	return ""
}

// confirmableBookingRepo models the pending -> confirmed transition guard
type confirmableBookingRepo struct {
	MockBookingRepository
	mu        sync.Mutex
	confirmed bool
	reference string
}

func (r *confirmableBookingRepo) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	b := pendingBooking()
	r.mu.Lock()
	if r.confirmed {
		b.Status = domain.BookingStatusConfirmed
		b.PaymentStatus = domain.PaymentStatusCompleted
		b.PaymentReference = r.reference
	}
	r.mu.Unlock()
	return b, nil
}

func (r *confirmableBookingRepo) ConfirmPayment(ctx context.Context, id, paymentRef string) (domain.TransitionResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.confirmed {
		return domain.TransitionAlreadyApplied, nil
	}
	r.confirmed = true
	r.reference = paymentRef
	return domain.TransitionApplied, nil
}

func TestPaymentService_Reconcile_AppliesOnce(t *testing.T) {
	var mu sync.Mutex
	commits := 0

	bookingRepo := &confirmableBookingRepo{}
	eventRepo := &MockEventRepository{
		CommitFunc: func(ctx context.Context, eventID string, seats int) error {
			mu.Lock()
			defer mu.Unlock()
			commits++
			return nil
		},
	}
	paymentRepo := newFakePaymentStore()
	notifications := &MockNotificationService{}
	publisher := &RecordingEventPublisher{}

	svc := NewPaymentService(bookingRepo, eventRepo, paymentRepo, completedWebhook("booking-001", "cs-001"), notifications, publisher, nil, &PaymentServiceConfig{CommitRetry: fastRetry()})

	// The provider redelivered the webhook; both deliveries must converge
	for i := 0; i < 2; i++ {
		if err := svc.HandleWebhook(context.Background(), []byte("{}"), "valid"); err != nil {
			t.Fatalf("HandleWebhook() delivery %d unexpected error = %v", i+1, err)
		}
	}

	if commits != 1 {
		t.Errorf("seat commits = %d, want 1", commits)
	}
	if got := paymentRepo.status("booking-001"); got != domain.PaymentStatusCompleted {
		t.Errorf("payment status = %s, want %s", got, domain.PaymentStatusCompleted)
	}
	if bookingRepo.reference != "cs-001" {
		t.Errorf("payment reference = %q, want cs-001", bookingRepo.reference)
	}
	if len(notifications.Notified) != 1 {
		t.Errorf("notifications = %d, want 1", len(notifications.Notified))
	}
	if publisher.Confirmed != 1 {
		t.Errorf("confirmed events published = %d, want 1", publisher.Confirmed)
	}
	if len(notifications.Notified) == 1 {
		if notifications.Notified[0].Type != domain.NotificationBookingConfirmed {
			t.Errorf("notification type = %s, want %s", notifications.Notified[0].Type, domain.NotificationBookingConfirmed)
		}
		if notifications.Notified[0].BookingID != "booking-001" {
			t.Errorf("notification booking = %s, want booking-001", notifications.Notified[0].BookingID)
		}
	}
}

func TestPaymentService_Reconcile_RedrivesAfterCommitFailure(t *testing.T) {
	var mu sync.Mutex
	commitAttempts := 0
	commitsApplied := 0
	failing := true

	bookingRepo := &confirmableBookingRepo{}
	eventRepo := &MockEventRepository{
		CommitFunc: func(ctx context.Context, eventID string, seats int) error {
			mu.Lock()
			defer mu.Unlock()
			commitAttempts++
			if failing {
				return errors.New("connection refused")
			}
			commitsApplied++
			return nil
		},
	}
	paymentRepo := newFakePaymentStore()
	notifications := &MockNotificationService{}

	gw := completedWebhook("booking-001", "cs-001")
	gw.GetCheckoutSessionFunc = func(ctx context.Context, sessionID string) (*gateway.CheckoutSession, error) {
		return &gateway.CheckoutSession{ID: sessionID, Paid: true, Status: "complete", BookingID: "booking-001"}, nil
	}

	svc := NewPaymentService(bookingRepo, eventRepo, paymentRepo, gw, notifications, nil, nil, &PaymentServiceConfig{CommitRetry: fastRetry()})

	// First delivery confirms the booking but exhausts the commit budget
	if err := svc.HandleWebhook(context.Background(), []byte("{}"), "valid"); err == nil {
		t.Fatal("HandleWebhook() expected error while the ledger is down")
	}
	if got := paymentRepo.status("booking-001"); got == domain.PaymentStatusCompleted {
		t.Fatal("payment must not complete before the seats are committed")
	}
	firstAttempts := commitAttempts

	// The ledger recovers; the success-page poll must finish the reconcile
	// even though the confirm transition was already applied
	failing = false
	resp, err := svc.VerifySession(context.Background(), "cs-001")
	if err != nil {
		t.Fatalf("VerifySession() unexpected error = %v", err)
	}

	if commitAttempts <= firstAttempts {
		t.Error("re-driven reconcile never retried the seat commit")
	}
	if commitsApplied != 1 {
		t.Errorf("commits applied = %d, want 1", commitsApplied)
	}
	if got := paymentRepo.status("booking-001"); got != domain.PaymentStatusCompleted {
		t.Errorf("payment status = %s, want %s", got, domain.PaymentStatusCompleted)
	}
	if resp.BookingStatus != string(domain.BookingStatusConfirmed) {
		t.Errorf("BookingStatus = %s, want confirmed", resp.BookingStatus)
	}
	if resp.PaymentStatus != string(domain.PaymentStatusCompleted) {
		t.Errorf("PaymentStatus = %s, want completed", resp.PaymentStatus)
	}
	if len(notifications.Notified) != 1 {
		t.Errorf("notifications = %d, want 1", len(notifications.Notified))
	}
}

func TestPaymentService_Reconcile_RedriveAfterSeatsCommitted(t *testing.T) {
	// An earlier reconcile committed the seats, then died before settling
	// the payment. The re-drive sees no reservation left and must treat the
	// commit as done instead of failing the reconcile forever.
	bookingRepo := &confirmableBookingRepo{confirmed: true, reference: "cs-001"}
	eventRepo := &MockEventRepository{
		CommitFunc: func(ctx context.Context, eventID string, seats int) error {
			return domain.ErrNoSeatsReserved
		},
	}
	paymentRepo := newFakePaymentStore()
	notifications := &MockNotificationService{}

	svc := NewPaymentService(bookingRepo, eventRepo, paymentRepo, completedWebhook("booking-001", "cs-001"), notifications, nil, nil, &PaymentServiceConfig{CommitRetry: fastRetry()})

	if err := svc.HandleWebhook(context.Background(), []byte("{}"), "valid"); err != nil {
		t.Fatalf("HandleWebhook() unexpected error = %v", err)
	}
	if got := paymentRepo.status("booking-001"); got != domain.PaymentStatusCompleted {
		t.Errorf("payment status = %s, want %s", got, domain.PaymentStatusCompleted)
	}
	if len(notifications.Notified) != 1 {
		t.Errorf("notifications = %d, want 1", len(notifications.Notified))
	}
}

func TestPaymentService_Reconcile_CancelledBooking(t *testing.T) {
	bookingRepo := &MockBookingRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*domain.Booking, error) {
			b := pendingBooking()
			b.Status = domain.BookingStatusCancelled
			return b, nil
		},
		ConfirmPaymentFunc: func(ctx context.Context, id, paymentRef string) (domain.TransitionResult, error) {
			return 0, domain.ErrBookingCancelled
		},
	}
	eventRepo := &MockEventRepository{
		CommitFunc: func(ctx context.Context, eventID string, seats int) error {
			t.Error("Commit should not run when the booking is cancelled")
			return nil
		},
	}

	svc := NewPaymentService(bookingRepo, eventRepo, &MockPaymentRepository{}, completedWebhook("booking-001", "cs-001"), &MockNotificationService{}, nil, nil, &PaymentServiceConfig{CommitRetry: fastRetry()})

	err := svc.HandleWebhook(context.Background(), []byte("{}"), "valid")
	if !errors.Is(err, domain.ErrBookingCancelled) {
		t.Errorf("HandleWebhook() error = %v, want ErrBookingCancelled", err)
	}
}

func TestPaymentService_Reconcile_CommitRetries(t *testing.T) {
	attempts := 0
	eventRepo := &MockEventRepository{
		CommitFunc: func(ctx context.Context, eventID string, seats int) error {
			attempts++
			if attempts < 3 {
				return errors.New("connection reset")
			}
			return nil
		},
	}
	bookingRepo := &MockBookingRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*domain.Booking, error) {
			return pendingBooking(), nil
		},
	}
	notifications := &MockNotificationService{}

	svc := NewPaymentService(bookingRepo, eventRepo, &MockPaymentRepository{}, completedWebhook("booking-001", "cs-001"), notifications, nil, nil, &PaymentServiceConfig{CommitRetry: fastRetry()})

	if err := svc.HandleWebhook(context.Background(), []byte("{}"), "valid"); err != nil {
		t.Fatalf("HandleWebhook() unexpected error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("commit attempts = %d, want 3", attempts)
	}
	if len(notifications.Notified) != 1 {
		t.Errorf("notifications = %d, want 1", len(notifications.Notified))
	}
}

func TestPaymentService_Reconcile_CommitPermanentError(t *testing.T) {
	attempts := 0
	eventRepo := &MockEventRepository{
		CommitFunc: func(ctx context.Context, eventID string, seats int) error {
			attempts++
			return domain.ErrNoSeatsReserved
		},
	}
	bookingRepo := &MockBookingRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*domain.Booking, error) {
			return pendingBooking(), nil
		},
	}
	notifications := &MockNotificationService{}

	svc := NewPaymentService(bookingRepo, eventRepo, &MockPaymentRepository{}, completedWebhook("booking-001", "cs-001"), notifications, nil, nil, &PaymentServiceConfig{CommitRetry: fastRetry()})

	err := svc.HandleWebhook(context.Background(), []byte("{}"), "valid")
	if !errors.Is(err, domain.ErrNoSeatsReserved) {
		t.Errorf("HandleWebhook() error = %v, want ErrNoSeatsReserved", err)
	}
	if attempts != 1 {
		t.Errorf("commit attempts = %d, want 1 (permanent error must not retry)", attempts)
	}
	if len(notifications.Notified) != 0 {
		t.Errorf("notifications = %d, want 0 when commit fails", len(notifications.Notified))
	}
}

func TestPaymentService_HandleWebhook_Expired(t *testing.T) {
	released := 0
	cancelled := false

	gw := &MockCheckoutGateway{
		VerifyWebhookFunc: func(payload []byte, signature string) (*gateway.WebhookEvent, error) {
			return &gateway.WebhookEvent{
				ID:        "evt-004",
				Type:      "checkout.session.expired",
				SessionID: "cs-004",
				BookingID: "booking-001",
			}, nil
		},
	}
	bookingRepo := &MockBookingRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*domain.Booking, error) {
			return pendingBooking(), nil
		},
		CancelFunc: func(ctx context.Context, id string) (domain.TransitionResult, error) {
			if cancelled {
				return domain.TransitionAlreadyApplied, nil
			}
			cancelled = true
			return domain.TransitionApplied, nil
		},
	}
	eventRepo := &MockEventRepository{
		ReleaseReservationFunc: func(ctx context.Context, eventID string, seats int) error {
			released++
			return nil
		},
	}

	svc := NewPaymentService(bookingRepo, eventRepo, &MockPaymentRepository{}, gw, &MockNotificationService{}, nil, nil, nil)

	for i := 0; i < 2; i++ {
		if err := svc.HandleWebhook(context.Background(), []byte("{}"), "valid"); err != nil {
			t.Fatalf("HandleWebhook() delivery %d unexpected error = %v", i+1, err)
		}
	}

	if released != 1 {
		t.Errorf("seat releases = %d, want 1", released)
	}
}

func TestPaymentService_HandleWebhook_ExpiredAfterConfirm(t *testing.T) {
	bookingRepo := &MockBookingRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*domain.Booking, error) {
			b := pendingBooking()
			b.Status = domain.BookingStatusConfirmed
			return b, nil
		},
		CancelFunc: func(ctx context.Context, id string) (domain.TransitionResult, error) {
			return 0, domain.ErrAlreadyConfirmed
		},
	}
	eventRepo := &MockEventRepository{
		ReleaseReservationFunc: func(ctx context.Context, eventID string, seats int) error {
			t.Error("ReleaseReservation should not run for a confirmed booking")
			return nil
		},
	}
	gw := &MockCheckoutGateway{
		VerifyWebhookFunc: func(payload []byte, signature string) (*gateway.WebhookEvent, error) {
			return &gateway.WebhookEvent{
				ID:        "evt-005",
				Type:      "checkout.session.expired",
				SessionID: "cs-005",
				BookingID: "booking-001",
			}, nil
		},
	}

	svc := NewPaymentService(bookingRepo, eventRepo, &MockPaymentRepository{}, gw, &MockNotificationService{}, nil, nil, nil)

	if err := svc.HandleWebhook(context.Background(), []byte("{}"), "valid"); err != nil {
		t.Errorf("HandleWebhook() unexpected error = %v (expiry after confirm is benign)", err)
	}
}

func TestPaymentService_VerifySession(t *testing.T) {
	tests := []struct {
		name           string
		session        *gateway.CheckoutSession
		confirmResult  domain.TransitionResult
		wantReconciled bool
		wantStatus     string
	}{
		{
			name: "paid session reconciles booking",
			session: &gateway.CheckoutSession{
				ID:        "cs-010",
				Paid:      true,
				Status:    "complete",
				BookingID: "booking-001",
			},
			confirmResult:  domain.TransitionApplied,
			wantReconciled: true,
			wantStatus:     string(domain.BookingStatusConfirmed),
		},
		{
			name: "unpaid session leaves booking pending",
			session: &gateway.CheckoutSession{
				ID:        "cs-011",
				Paid:      false,
				Status:    "open",
				BookingID: "booking-001",
			},
			wantReconciled: false,
			wantStatus:     string(domain.BookingStatusPending),
		},
		{
			name: "already reconciled session is a no-op",
			session: &gateway.CheckoutSession{
				ID:        "cs-012",
				Paid:      true,
				Status:    "complete",
				BookingID: "booking-001",
			},
			confirmResult:  domain.TransitionAlreadyApplied,
			wantReconciled: false,
			wantStatus:     string(domain.BookingStatusConfirmed),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			commits := 0
			confirmed := tt.confirmResult == domain.TransitionAlreadyApplied

			gw := &MockCheckoutGateway{
				GetCheckoutSessionFunc: func(ctx context.Context, sessionID string) (*gateway.CheckoutSession, error) {
					return tt.session, nil
				},
			}
			bookingRepo := &MockBookingRepository{
				GetByIDFunc: func(ctx context.Context, id string) (*domain.Booking, error) {
					b := pendingBooking()
					if confirmed {
						b.Status = domain.BookingStatusConfirmed
					}
					return b, nil
				},
				ConfirmPaymentFunc: func(ctx context.Context, id, paymentRef string) (domain.TransitionResult, error) {
					if tt.confirmResult == domain.TransitionApplied {
						confirmed = true
					}
					return tt.confirmResult, nil
				},
			}
			eventRepo := &MockEventRepository{
				CommitFunc: func(ctx context.Context, eventID string, seats int) error {
					commits++
					return nil
				},
			}
			paymentRepo := &MockPaymentRepository{}
			if tt.confirmResult == domain.TransitionAlreadyApplied {
				// The earlier reconcile settled in full
				paymentRepo.GetByBookingIDFunc = func(ctx context.Context, bookingID string) (*domain.Payment, error) {
					return &domain.Payment{BookingID: bookingID, Status: domain.PaymentStatusCompleted}, nil
				}
			}

			svc := NewPaymentService(bookingRepo, eventRepo, paymentRepo, gw, &MockNotificationService{}, nil, nil, &PaymentServiceConfig{CommitRetry: fastRetry()})

			resp, err := svc.VerifySession(context.Background(), tt.session.ID)
			if err != nil {
				t.Fatalf("VerifySession() unexpected error = %v", err)
			}

			if resp.BookingStatus != tt.wantStatus {
				t.Errorf("BookingStatus = %s, want %s", resp.BookingStatus, tt.wantStatus)
			}
			if tt.wantReconciled && commits != 1 {
				t.Errorf("seat commits = %d, want 1", commits)
			}
			if !tt.wantReconciled && commits != 0 {
				t.Errorf("seat commits = %d, want 0", commits)
			}
		})
	}
}

func TestPaymentService_GetBookingPayment_WrongUser(t *testing.T) {
	bookingRepo := &MockBookingRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*domain.Booking, error) {
			return pendingBooking(), nil
		},
	}

	svc := NewPaymentService(bookingRepo, &MockEventRepository{}, &MockPaymentRepository{}, &MockCheckoutGateway{}, &MockNotificationService{}, nil, nil, nil)

	_, err := svc.GetBookingPayment(context.Background(), "booking-001", "someone-else")
	if !errors.Is(err, domain.ErrBookingNotFound) {
		t.Errorf("GetBookingPayment() error = %v, want ErrBookingNotFound", err)
	}
}
