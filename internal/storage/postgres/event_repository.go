package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/ethantaylan/five-v2-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EventRepository struct {
	querier
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{querier{pool: pool}}
}

func (r *EventRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

const eventColumns = `id, title, description, location, starts_at, duration_minutes, capacity, organizer_id, share_code, group_id, created_at`

func scanEvent(row pgx.Row) (domain.Event, error) {
	var (
		e       domain.Event
		minutes int
	)
	err := row.Scan(
		&e.ID,
		&e.Title,
		&e.Description,
		&e.Location,
		&e.StartsAt,
		&minutes,
		&e.Capacity,
		&e.OrganizerID,
		&e.ShareCode,
		&e.GroupID,
		&e.CreatedAt,
	)
	if err != nil {
		return domain.Event{}, err
	}
	e.StartsAt = e.StartsAt.UTC()
	e.Duration = time.Duration(minutes) * time.Minute
	e.CreatedAt = e.CreatedAt.UTC()
	return e, nil
}

func (r *EventRepository) CreateEvent(ctx context.Context, event domain.Event) error {
	const stmt = `
INSERT INTO events (id, title, description, location, starts_at, duration_minutes, capacity, organizer_id, share_code, group_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.exec(ctx, stmt,
		event.ID,
		event.Title,
		event.Description,
		event.Location,
		event.StartsAt,
		int(event.Duration/time.Minute),
		event.Capacity,
		event.OrganizerID,
		event.ShareCode,
		event.GroupID,
		event.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrShareCodeTaken
		}
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (r *EventRepository) GetEventByID(ctx context.Context, eventID string) (domain.Event, error) {
	const query = `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	event, err := scanEvent(r.queryRow(ctx, query, eventID))
	if err != nil {
		if isInvalidUUID(err) || err == pgx.ErrNoRows {
			return domain.Event{}, domain.ErrEventNotFound
		}
		return domain.Event{}, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// GetEventForUpdate locks the event row so an organizer patch reads and
// rewrites it under one lock. Meant to run inside WithTx.
func (r *EventRepository) GetEventForUpdate(ctx context.Context, eventID string) (domain.Event, error) {
	const query = `SELECT ` + eventColumns + ` FROM events WHERE id = $1 FOR UPDATE`
	event, err := scanEvent(r.queryRow(ctx, query, eventID))
	if err != nil {
		if isInvalidUUID(err) || err == pgx.ErrNoRows {
			return domain.Event{}, domain.ErrEventNotFound
		}
		return domain.Event{}, fmt.Errorf("get event for update: %w", err)
	}
	return event, nil
}

func (r *EventRepository) GetEventByShareCode(ctx context.Context, code string) (domain.Event, error) {
	const query = `SELECT ` + eventColumns + ` FROM events WHERE share_code = $1`
	event, err := scanEvent(r.queryRow(ctx, query, code))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Event{}, domain.ErrEventNotFound
		}
		return domain.Event{}, fmt.Errorf("get event by share code: %w", err)
	}
	return event, nil
}

func (r *EventRepository) UpdateEvent(ctx context.Context, event domain.Event) error {
	const stmt = `
UPDATE events
SET title = $2, description = $3, location = $4, starts_at = $5, duration_minutes = $6, capacity = $7
WHERE id = $1`

	tag, err := r.exec(ctx, stmt,
		event.ID,
		event.Title,
		event.Description,
		event.Location,
		event.StartsAt,
		int(event.Duration/time.Minute),
		event.Capacity,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrEventNotFound
		}
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

// DeleteEvent removes the event; participants, guests and messages cascade.
func (r *EventRepository) DeleteEvent(ctx context.Context, eventID string) (bool, error) {
	const stmt = `DELETE FROM events WHERE id = $1`
	tag, err := r.exec(ctx, stmt, eventID)
	if err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrEventNotFound
		}
		return false, fmt.Errorf("delete event: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListEventsForUser returns the union of events the user organizes and
// events where the user holds a ledger row, deduplicated.
func (r *EventRepository) ListEventsForUser(ctx context.Context, userID string) ([]domain.Event, error) {
	const query = `
SELECT DISTINCT e.id, e.title, e.description, e.location, e.starts_at, e.duration_minutes, e.capacity, e.organizer_id, e.share_code, e.group_id, e.created_at
FROM events e
LEFT JOIN participants p ON p.event_id = e.id AND p.user_id = $1
WHERE e.organizer_id = $1 OR p.user_id IS NOT NULL`

	rows, err := r.query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list events for user: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events for user: %w", err)
	}
	return events, nil
}

func (r *EventRepository) ListParticipants(ctx context.Context, eventID string) ([]domain.ParticipantWithUser, error) {
	return listParticipants(ctx, r.querier, eventID)
}

func (r *EventRepository) ListGuests(ctx context.Context, eventID string) ([]domain.GuestParticipant, error) {
	return listGuests(ctx, r.querier, eventID)
}

func (r *EventRepository) CreateParticipant(ctx context.Context, p domain.Participant) error {
	return createParticipant(ctx, r.querier, p)
}
