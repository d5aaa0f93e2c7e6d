package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/VinayKumar7512/EventNest/internal/domain"
	"github.com/VinayKumar7512/EventNest/internal/dto"
	"github.com/VinayKumar7512/EventNest/internal/repository"
	"github.com/VinayKumar7512/EventNest/pkg/telemetry"
)

// EventService defines the interface for event business logic
type EventService interface {
	// CreateEvent creates a new event with an empty seat ledger
	CreateEvent(ctx context.Context, organizerID string, req *dto.CreateEventRequest) (*dto.EventResponse, error)

	// GetEvent retrieves an event, served from cache when possible
	GetEvent(ctx context.Context, eventID string) (*dto.EventResponse, error)

	// ListEvents retrieves events matching the filter
	ListEvents(ctx context.Context, filter *dto.EventFilter) ([]*dto.EventResponse, int64, error)

	// UpdateEvent applies a partial update to an event's descriptive fields
	UpdateEvent(ctx context.Context, eventID, organizerID string, req *dto.UpdateEventRequest) (*dto.EventResponse, error)

	// DeleteEvent removes an event
	DeleteEvent(ctx context.Context, eventID, organizerID string) error
}

// eventService implements EventService
type eventService struct {
	eventRepo repository.EventRepository
	cache     *repository.RedisEventCache
}

// NewEventService creates a new event service. The cache is optional.
func NewEventService(eventRepo repository.EventRepository, cache *repository.RedisEventCache) EventService {
	return &eventService{
		eventRepo: eventRepo,
		cache:     cache,
	}
}

// CreateEvent creates a new event with an empty seat ledger
func (s *eventService) CreateEvent(ctx context.Context, organizerID string, req *dto.CreateEventRequest) (*dto.EventResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.create")
	defer span.End()

	if organizerID == "" {
		span.SetStatus(codes.Error, "invalid organizer")
		return nil, domain.ErrInvalidUserID
	}
	if req == nil {
		span.SetStatus(codes.Error, "invalid request")
		return nil, domain.ErrInvalidEventTitle
	}
	if req.Date.Before(time.Now()) {
		span.SetStatus(codes.Error, "event date in the past")
		return nil, domain.ErrInvalidEventDate
	}

	now := time.Now()
	event := &domain.Event{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		ImageURL:    req.ImageURL,
		Date:        req.Date,
		Price:       req.Price,
		TotalSeats:  req.TotalSeats,
		OrganizerID: organizerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := event.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("event_id", event.ID))
	span.SetStatus(codes.Ok, "")
	return dto.EventFromDomain(event), nil
}

// GetEvent retrieves an event, cache first
func (s *eventService) GetEvent(ctx context.Context, eventID string) (*dto.EventResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.get")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	if eventID == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return nil, domain.ErrInvalidEventID
	}

	if s.cache != nil {
		if cached, _ := s.cache.Get(ctx, eventID); cached != nil {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			span.SetStatus(codes.Ok, "")
			return dto.EventFromDomain(cached), nil
		}
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, event)
	}

	span.SetStatus(codes.Ok, "")
	return dto.EventFromDomain(event), nil
}

// ListEvents retrieves events matching the filter
func (s *eventService) ListEvents(ctx context.Context, filter *dto.EventFilter) ([]*dto.EventResponse, int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.list")
	defer span.End()

	if filter == nil {
		filter = &dto.EventFilter{}
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}

	events, total, err := s.eventRepo.List(ctx, repository.EventFilter{
		Category: filter.Category,
		Search:   filter.Search,
		Limit:    filter.Limit,
		Offset:   (filter.Page - 1) * filter.Limit,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, err
	}

	span.SetAttributes(attribute.Int("count", len(events)))
	span.SetStatus(codes.Ok, "")
	return dto.EventsFromDomain(events), total, nil
}

// UpdateEvent applies a partial update. Only the organizer can modify an
// event, and seat counters are out of reach entirely.
func (s *eventService) UpdateEvent(ctx context.Context, eventID, organizerID string, req *dto.UpdateEventRequest) (*dto.EventResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.update")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if event.OrganizerID != organizerID {
		span.SetStatus(codes.Error, "not the organizer")
		return nil, domain.ErrEventNotFound
	}

	if req.Title != nil {
		event.Title = *req.Title
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Category != nil {
		event.Category = *req.Category
	}
	if req.Location != nil {
		event.Location = *req.Location
	}
	if req.ImageURL != nil {
		event.ImageURL = *req.ImageURL
	}
	if req.Date != nil {
		if req.Date.Before(time.Now()) {
			span.SetStatus(codes.Error, "event date in the past")
			return nil, domain.ErrInvalidEventDate
		}
		event.Date = *req.Date
	}
	if req.Price != nil {
		if *req.Price < 0 {
			span.SetStatus(codes.Error, "negative price")
			return nil, domain.ErrInvalidPrice
		}
		event.Price = *req.Price
	}

	if err := event.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := s.eventRepo.Update(ctx, event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, eventID)
	}

	span.SetStatus(codes.Ok, "")
	return dto.EventFromDomain(event), nil
}

// DeleteEvent removes an event
func (s *eventService) DeleteEvent(ctx context.Context, eventID, organizerID string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.event.delete")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if event.OrganizerID != organizerID {
		span.SetStatus(codes.Error, "not the organizer")
		return domain.ErrEventNotFound
	}

	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, eventID)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}
