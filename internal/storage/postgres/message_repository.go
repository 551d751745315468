package postgres

import (
	"context"
	"fmt"

	"github.com/ethantaylan/five-v2-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageRepository struct {
	querier
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{querier{pool: pool}}
}

func (r *MessageRepository) CreateMessage(ctx context.Context, m domain.Message) error {
	const stmt = `
INSERT INTO messages (id, event_id, author_id, body, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.exec(ctx, stmt, m.ID, m.EventID, m.AuthorID, m.Body, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrEventNotFound
		}
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

func (r *MessageRepository) ListMessages(ctx context.Context, eventID string) ([]domain.MessageWithAuthor, error) {
	const query = `
SELECT m.id, m.event_id, m.author_id, m.body, m.created_at, m.updated_at, COALESCE(u.display_name, '')
FROM messages m
LEFT JOIN users u ON u.id = m.author_id
WHERE m.event_id = $1
ORDER BY m.created_at, m.id`

	rows, err := r.query(ctx, query, eventID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []domain.MessageWithAuthor
	for rows.Next() {
		var m domain.MessageWithAuthor
		if err := rows.Scan(&m.ID, &m.EventID, &m.AuthorID, &m.Body, &m.CreatedAt, &m.UpdatedAt, &m.AuthorName); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return out, nil
}

func (r *MessageRepository) GetMessageWithAuthor(ctx context.Context, messageID string) (domain.MessageWithAuthor, error) {
	const query = `
SELECT m.id, m.event_id, m.author_id, m.body, m.created_at, m.updated_at, COALESCE(u.display_name, '')
FROM messages m
LEFT JOIN users u ON u.id = m.author_id
WHERE m.id = $1`

	var m domain.MessageWithAuthor
	err := r.queryRow(ctx, query, messageID).
		Scan(&m.ID, &m.EventID, &m.AuthorID, &m.Body, &m.CreatedAt, &m.UpdatedAt, &m.AuthorName)
	if err != nil {
		if isInvalidUUID(err) || err == pgx.ErrNoRows {
			return domain.MessageWithAuthor{}, domain.ErrMessageNotFound
		}
		return domain.MessageWithAuthor{}, fmt.Errorf("get message: %w", err)
	}
	return m, nil
}

// DeleteMessageByRequester deletes the message only when the requester is
// its author or the event organizer. Authorization is re-checked in the
// predicate itself so a forged request cannot remove someone else's
// message.
func (r *MessageRepository) DeleteMessageByRequester(ctx context.Context, messageID, requesterID string) (*domain.Message, error) {
	const stmt = `
DELETE FROM messages m
USING events e
WHERE m.id = $1
  AND e.id = m.event_id
  AND (m.author_id = $2 OR e.organizer_id = $2)
RETURNING m.id, m.event_id, m.author_id, m.body, m.created_at, m.updated_at`

	var m domain.Message
	err := r.queryRow(ctx, stmt, messageID, requesterID).
		Scan(&m.ID, &m.EventID, &m.AuthorID, &m.Body, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if isInvalidUUID(err) || err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("delete message: %w", err)
	}
	return &m, nil
}
