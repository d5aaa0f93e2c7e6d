package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/VinayKumar7512/EventNest/internal/domain"
	"github.com/VinayKumar7512/EventNest/pkg/telemetry"
)

// PostgresEventRepository implements EventRepository using PostgreSQL with pgxpool
type PostgresEventRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresEventRepository creates a new PostgresEventRepository
func NewPostgresEventRepository(pool *pgxpool.Pool) *PostgresEventRepository {
	return &PostgresEventRepository{pool: pool}
}

// Create creates a new event record in the database
func (r *PostgresEventRepository) Create(ctx context.Context, event *domain.Event) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.create")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", event.ID),
		attribute.Int("total_seats", event.TotalSeats),
	)

	query := `
		INSERT INTO events (
			id, title, description, category, location, image_url,
			date, price, total_seats, booked_seats, reserved_seats,
			organizer_id, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14
		)
	`

	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.Title,
		event.Description,
		event.Category,
		event.Location,
		event.ImageURL,
		event.Date,
		event.Price,
		event.TotalSeats,
		event.BookedSeats,
		event.ReservedSeats,
		event.OrganizerID,
		event.CreatedAt,
		event.UpdatedAt,
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to create event: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetByID retrieves an event by its ID
func (r *PostgresEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", id))

	query := `
		SELECT
			id, title, description, category, location, image_url,
			date, price, total_seats, booked_seats, reserved_seats,
			organizer_id, created_at, updated_at
		FROM events
		WHERE id = $1
	`

	event, err := scanEvent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrEventNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return event, nil
}

// List retrieves events matching the filter, with the total match count
func (r *PostgresEventRepository) List(ctx context.Context, filter EventFilter) ([]*domain.Event, int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.list")
	defer span.End()

	where := " WHERE 1=1"
	args := []interface{}{}
	argn := 0

	if filter.Category != "" {
		argn++
		where += fmt.Sprintf(" AND category = $%d", argn)
		args = append(args, filter.Category)
	}
	if filter.Search != "" {
		argn++
		where += fmt.Sprintf(" AND (title ILIKE $%d OR location ILIKE $%d)", argn, argn)
		args = append(args, "%"+filter.Search+"%")
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM events"+where, args...).Scan(&total); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	query := `
		SELECT
			id, title, description, category, location, image_url,
			date, price, total_seats, booked_seats, reserved_seats,
			organizer_id, created_at, updated_at
		FROM events` + where + fmt.Sprintf(" ORDER BY date ASC LIMIT $%d OFFSET $%d", argn+1, argn+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, 0, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, fmt.Errorf("error iterating events: %w", err)
	}

	span.SetAttributes(attribute.Int("count", len(events)))
	span.SetStatus(codes.Ok, "")
	return events, total, nil
}

// Update updates the descriptive fields of an event. Seat counters are
// untouchable here; they only move through Reserve, Commit and Release.
func (r *PostgresEventRepository) Update(ctx context.Context, event *domain.Event) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.update")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", event.ID))

	query := `
		UPDATE events SET
			title = $2,
			description = $3,
			category = $4,
			location = $5,
			image_url = $6,
			date = $7,
			price = $8,
			updated_at = $9
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		event.ID,
		event.Title,
		event.Description,
		event.Category,
		event.Location,
		event.ImageURL,
		event.Date,
		event.Price,
		time.Now(),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to update event: %w", err)
	}

	if result.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "not found")
		return domain.ErrEventNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Delete removes an event
func (r *PostgresEventRepository) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.delete")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", id))

	result, err := r.pool.Exec(ctx, "DELETE FROM events WHERE id = $1", id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to delete event: %w", err)
	}

	if result.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "not found")
		return domain.ErrEventNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Reserve holds seats for a pending booking. The guard in the WHERE clause
// is the capacity invariant: booked + reserved + requested never exceeds
// total, no matter how many callers race.
func (r *PostgresEventRepository) Reserve(ctx context.Context, eventID string, seats int) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.reserve")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.Int("seats", seats),
	)

	if seats <= 0 {
		span.SetStatus(codes.Error, "invalid seat count")
		return domain.ErrInvalidSeatCount
	}

	query := `
		UPDATE events SET
			reserved_seats = reserved_seats + $2,
			updated_at = $3
		WHERE id = $1 AND booked_seats + reserved_seats + $2 <= total_seats
	`

	result, err := r.pool.Exec(ctx, query, eventID, seats, time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to reserve seats: %w", err)
	}

	if result.RowsAffected() == 0 {
		var exists bool
		err := r.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM events WHERE id = $1)", eventID).Scan(&exists)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("failed to check event existence: %w", err)
		}
		if !exists {
			span.SetStatus(codes.Error, "not found")
			return domain.ErrEventNotFound
		}
		span.SetStatus(codes.Error, "insufficient seats")
		return domain.ErrInsufficientSeats
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Commit moves reserved seats into booked seats after payment
func (r *PostgresEventRepository) Commit(ctx context.Context, eventID string, seats int) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.commit")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.Int("seats", seats),
	)

	if seats <= 0 {
		span.SetStatus(codes.Error, "invalid seat count")
		return domain.ErrInvalidSeatCount
	}

	query := `
		UPDATE events SET
			booked_seats = booked_seats + $2,
			reserved_seats = reserved_seats - $2,
			updated_at = $3
		WHERE id = $1 AND reserved_seats >= $2
	`

	result, err := r.pool.Exec(ctx, query, eventID, seats, time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to commit seats: %w", err)
	}

	if result.RowsAffected() == 0 {
		var exists bool
		err := r.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM events WHERE id = $1)", eventID).Scan(&exists)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("failed to check event existence: %w", err)
		}
		if !exists {
			span.SetStatus(codes.Error, "not found")
			return domain.ErrEventNotFound
		}
		span.SetStatus(codes.Error, "no seats reserved")
		return domain.ErrNoSeatsReserved
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Release returns booked seats to the available pool, undoing a commit
func (r *PostgresEventRepository) Release(ctx context.Context, eventID string, seats int) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.release")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.Int("seats", seats),
	)

	if seats <= 0 {
		span.SetStatus(codes.Error, "invalid seat count")
		return domain.ErrInvalidSeatCount
	}

	query := `
		UPDATE events SET
			booked_seats = booked_seats - $2,
			updated_at = $3
		WHERE id = $1 AND booked_seats >= $2
	`

	result, err := r.pool.Exec(ctx, query, eventID, seats, time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to release booked seats: %w", err)
	}

	if result.RowsAffected() == 0 {
		var exists bool
		err := r.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM events WHERE id = $1)", eventID).Scan(&exists)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("failed to check event existence: %w", err)
		}
		if !exists {
			span.SetStatus(codes.Error, "not found")
			return domain.ErrEventNotFound
		}
		span.SetStatus(codes.Error, "no seats booked")
		return domain.ErrNoSeatsBooked
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// ReleaseReservation returns reserved seats to the available pool
func (r *PostgresEventRepository) ReleaseReservation(ctx context.Context, eventID string, seats int) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.release_reservation")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.Int("seats", seats),
	)

	if seats <= 0 {
		span.SetStatus(codes.Error, "invalid seat count")
		return domain.ErrInvalidSeatCount
	}

	query := `
		UPDATE events SET
			reserved_seats = reserved_seats - $2,
			updated_at = $3
		WHERE id = $1 AND reserved_seats >= $2
	`

	result, err := r.pool.Exec(ctx, query, eventID, seats, time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to release reserved seats: %w", err)
	}

	if result.RowsAffected() == 0 {
		var exists bool
		err := r.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM events WHERE id = $1)", eventID).Scan(&exists)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("failed to check event existence: %w", err)
		}
		if !exists {
			span.SetStatus(codes.Error, "not found")
			return domain.ErrEventNotFound
		}
		span.SetStatus(codes.Error, "no seats reserved")
		return domain.ErrNoSeatsReserved
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// scanEvent scans an event row from either QueryRow or Query results
func scanEvent(row pgx.Row) (*domain.Event, error) {
	event := &domain.Event{}
	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.Category,
		&event.Location,
		&event.ImageURL,
		&event.Date,
		&event.Price,
		&event.TotalSeats,
		&event.BookedSeats,
		&event.ReservedSeats,
		&event.OrganizerID,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return event, nil
}
