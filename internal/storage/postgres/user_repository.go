package postgres

import (
	"context"
	"fmt"

	"github.com/ethantaylan/five-v2-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository maintains the display-name directory joined into
// participant and message rows.
type UserRepository struct {
	querier
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{querier{pool: pool}}
}

func (r *UserRepository) UpsertProfile(ctx context.Context, profile domain.UserProfile) error {
	const stmt = `
INSERT INTO users (id, display_name, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET display_name = EXCLUDED.display_name, updated_at = EXCLUDED.updated_at`

	if _, err := r.exec(ctx, stmt, profile.ID, profile.DisplayName, profile.UpdatedAt); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (r *UserRepository) GetProfile(ctx context.Context, userID string) (domain.UserProfile, error) {
	const query = `SELECT id, display_name, updated_at FROM users WHERE id = $1`

	var p domain.UserProfile
	err := r.queryRow(ctx, query, userID).Scan(&p.ID, &p.DisplayName, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.UserProfile{}, domain.ErrProfileNotFound
		}
		return domain.UserProfile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}
