package postgres

import (
	"context"
	"fmt"

	"github.com/ethantaylan/five-v2-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ParticipationRepository struct {
	querier
}

func NewParticipationRepository(pool *pgxpool.Pool) *ParticipationRepository {
	return &ParticipationRepository{querier{pool: pool}}
}

func (r *ParticipationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// GetEventForUpdate locks the event row so occupancy is counted and the
// admission row inserted under one lock. This is what keeps two concurrent
// joins from both being admitted into the last slot.
func (r *ParticipationRepository) GetEventForUpdate(ctx context.Context, eventID string) (domain.Event, error) {
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

func (r *ParticipationRepository) ListParticipants(ctx context.Context, eventID string) ([]domain.ParticipantWithUser, error) {
	return listParticipants(ctx, r.querier, eventID)
}

func (r *ParticipationRepository) ListGuests(ctx context.Context, eventID string) ([]domain.GuestParticipant, error) {
	return listGuests(ctx, r.querier, eventID)
}

func (r *ParticipationRepository) FindParticipant(ctx context.Context, eventID, userID string) (*domain.Participant, error) {
	const query = `
SELECT id, event_id, user_id, class, joined_at
FROM participants
WHERE event_id = $1 AND user_id = $2`

	var p domain.Participant
	err := r.queryRow(ctx, query, eventID, userID).
		Scan(&p.ID, &p.EventID, &p.UserID, &p.Class, &p.JoinedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrEventNotFound
		}
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find participant: %w", err)
	}
	return &p, nil
}

func (r *ParticipationRepository) GetParticipant(ctx context.Context, participantID string) (domain.Participant, error) {
	const query = `
SELECT id, event_id, user_id, class, joined_at
FROM participants
WHERE id = $1`

	var p domain.Participant
	err := r.queryRow(ctx, query, participantID).
		Scan(&p.ID, &p.EventID, &p.UserID, &p.Class, &p.JoinedAt)
	if err != nil {
		if isInvalidUUID(err) || err == pgx.ErrNoRows {
			return domain.Participant{}, domain.ErrParticipantNotFound
		}
		return domain.Participant{}, fmt.Errorf("get participant: %w", err)
	}
	return p, nil
}

// GetParticipantWithUser materializes one row with its joined display name,
// used by the realtime layer after an insert notification.
func (r *ParticipationRepository) GetParticipantWithUser(ctx context.Context, participantID string) (domain.ParticipantWithUser, error) {
	const query = `
SELECT p.id, p.event_id, p.user_id, p.class, p.joined_at, COALESCE(u.display_name, '')
FROM participants p
LEFT JOIN users u ON u.id = p.user_id
WHERE p.id = $1`

	var p domain.ParticipantWithUser
	err := r.queryRow(ctx, query, participantID).
		Scan(&p.ID, &p.EventID, &p.UserID, &p.Class, &p.JoinedAt, &p.DisplayName)
	if err != nil {
		if isInvalidUUID(err) || err == pgx.ErrNoRows {
			return domain.ParticipantWithUser{}, domain.ErrParticipantNotFound
		}
		return domain.ParticipantWithUser{}, fmt.Errorf("get participant with user: %w", err)
	}
	return p, nil
}

func (r *ParticipationRepository) CreateParticipant(ctx context.Context, p domain.Participant) error {
	return createParticipant(ctx, r.querier, p)
}

// DeleteParticipant is idempotent: deleting an absent row reports zero rows
// matched, not an error.
func (r *ParticipationRepository) DeleteParticipant(ctx context.Context, eventID, userID string) (*domain.Participant, error) {
	const stmt = `
DELETE FROM participants
WHERE event_id = $1 AND user_id = $2
RETURNING id, event_id, user_id, class, joined_at`

	var p domain.Participant
	err := r.queryRow(ctx, stmt, eventID, userID).
		Scan(&p.ID, &p.EventID, &p.UserID, &p.Class, &p.JoinedAt)
	if err != nil {
		if isInvalidUUID(err) || err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("delete participant: %w", err)
	}
	return &p, nil
}

func (r *ParticipationRepository) CreateGuest(ctx context.Context, g domain.GuestParticipant) error {
	const stmt = `
INSERT INTO guest_participants (id, event_id, first_name, last_name, added_by, class, added_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.exec(ctx, stmt, g.ID, g.EventID, g.FirstName, g.LastName, g.AddedBy, g.Class, g.AddedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrEventNotFound
		}
		return fmt.Errorf("create guest: %w", err)
	}
	return nil
}

func (r *ParticipationRepository) GetGuest(ctx context.Context, guestID string) (domain.GuestParticipant, error) {
	const query = `
SELECT id, event_id, first_name, last_name, added_by, class, added_at
FROM guest_participants
WHERE id = $1`

	var g domain.GuestParticipant
	err := r.queryRow(ctx, query, guestID).
		Scan(&g.ID, &g.EventID, &g.FirstName, &g.LastName, &g.AddedBy, &g.Class, &g.AddedAt)
	if err != nil {
		if isInvalidUUID(err) || err == pgx.ErrNoRows {
			return domain.GuestParticipant{}, domain.ErrGuestNotFound
		}
		return domain.GuestParticipant{}, fmt.Errorf("get guest: %w", err)
	}
	return g, nil
}

func (r *ParticipationRepository) DeleteGuest(ctx context.Context, guestID string) (bool, error) {
	const stmt = `DELETE FROM guest_participants WHERE id = $1`
	tag, err := r.exec(ctx, stmt, guestID)
	if err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrGuestNotFound
		}
		return false, fmt.Errorf("delete guest: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func listParticipants(ctx context.Context, q querier, eventID string) ([]domain.ParticipantWithUser, error) {
	const query = `
SELECT p.id, p.event_id, p.user_id, p.class, p.joined_at, COALESCE(u.display_name, '')
FROM participants p
LEFT JOIN users u ON u.id = p.user_id
WHERE p.event_id = $1
ORDER BY p.joined_at, p.id`

	rows, err := q.query(ctx, query, eventID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var out []domain.ParticipantWithUser
	for rows.Next() {
		var p domain.ParticipantWithUser
		if err := rows.Scan(&p.ID, &p.EventID, &p.UserID, &p.Class, &p.JoinedAt, &p.DisplayName); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return out, nil
}

func listGuests(ctx context.Context, q querier, eventID string) ([]domain.GuestParticipant, error) {
	const query = `
SELECT id, event_id, first_name, last_name, added_by, class, added_at
FROM guest_participants
WHERE event_id = $1
ORDER BY added_at, id`

	rows, err := q.query(ctx, query, eventID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("list guests: %w", err)
	}
	defer rows.Close()

	var out []domain.GuestParticipant
	for rows.Next() {
		var g domain.GuestParticipant
		if err := rows.Scan(&g.ID, &g.EventID, &g.FirstName, &g.LastName, &g.AddedBy, &g.Class, &g.AddedAt); err != nil {
			return nil, fmt.Errorf("scan guest: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list guests: %w", err)
	}
	return out, nil
}

func createParticipant(ctx context.Context, q querier, p domain.Participant) error {
	const stmt = `
INSERT INTO participants (id, event_id, user_id, class, joined_at)
VALUES ($1, $2, $3, $4, $5)`

	_, err := q.exec(ctx, stmt, p.ID, p.EventID, p.UserID, p.Class, p.JoinedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyJoined
		}
		if isInvalidUUID(err) {
			return domain.ErrEventNotFound
		}
		return fmt.Errorf("create participant: %w", err)
	}
	return nil
}
