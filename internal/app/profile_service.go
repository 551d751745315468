package app

import (
	"context"
	"strings"

	"github.com/ethantaylan/five-v2-sub000/internal/clock"
	"github.com/ethantaylan/five-v2-sub000/internal/domain"
)

type UserRepository interface {
	UpsertProfile(ctx context.Context, profile domain.UserProfile) error
	GetProfile(ctx context.Context, userID string) (domain.UserProfile, error)
}

// ProfileService maintains the display-name directory that participant and
// message rows are joined against.
type ProfileService struct {
	repo  UserRepository
	clock clock.Clock
}

func NewProfileService(repo UserRepository, clk clock.Clock) *ProfileService {
	return &ProfileService{repo: repo, clock: clk}
}

func (s *ProfileService) Upsert(ctx context.Context, userID, displayName string) (domain.UserProfile, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return domain.UserProfile{}, domain.ErrDisplayNameRequired
	}

	profile := domain.UserProfile{
		ID:          userID,
		DisplayName: displayName,
		UpdatedAt:   s.clock.Now(),
	}
	if err := s.repo.UpsertProfile(ctx, profile); err != nil {
		return domain.UserProfile{}, err
	}
	return profile, nil
}

func (s *ProfileService) Get(ctx context.Context, userID string) (domain.UserProfile, error) {
	return s.repo.GetProfile(ctx, userID)
}
