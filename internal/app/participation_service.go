package app

import (
	"context"
	"log"
	"strings"

	"github.com/ethantaylan/five-v2-sub000/internal/clock"
	"github.com/ethantaylan/five-v2-sub000/internal/domain"
	"github.com/ethantaylan/five-v2-sub000/internal/realtime"
)

type ParticipationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetEventForUpdate(ctx context.Context, eventID string) (domain.Event, error)
	ListParticipants(ctx context.Context, eventID string) ([]domain.ParticipantWithUser, error)
	ListGuests(ctx context.Context, eventID string) ([]domain.GuestParticipant, error)
	FindParticipant(ctx context.Context, eventID, userID string) (*domain.Participant, error)
	CreateParticipant(ctx context.Context, p domain.Participant) error
	DeleteParticipant(ctx context.Context, eventID, userID string) (*domain.Participant, error)
	CreateGuest(ctx context.Context, g domain.GuestParticipant) error
	GetGuest(ctx context.Context, guestID string) (domain.GuestParticipant, error)
	DeleteGuest(ctx context.Context, guestID string) (bool, error)
}

// FeedPublisher pushes committed ledger mutations to connected viewers.
type FeedPublisher interface {
	Publish(ctx context.Context, delta realtime.Delta) error
}

// ParticipationService is the admission ledger. Every admission runs inside
// one transaction holding a lock on the event row: occupancy is counted,
// the class resolved and the row inserted under that lock, so two
// concurrent joins cannot both take the last active slot.
type ParticipationService struct {
	repo   ParticipationRepository
	feed   FeedPublisher
	clock  clock.Clock
	logger *log.Logger
}

func NewParticipationService(repo ParticipationRepository, feed FeedPublisher, clk clock.Clock, logger *log.Logger) *ParticipationService {
	if logger == nil {
		logger = log.Default()
	}
	return &ParticipationService{repo: repo, feed: feed, clock: clk, logger: logger}
}

// Join admits the user to the event, as active if a slot is free and as
// substitute otherwise. The class is returned so callers can say "joined"
// versus "joined the bench". A second join for the same user fails with
// ErrAlreadyJoined.
func (s *ParticipationService) Join(ctx context.Context, eventID, userID string) (domain.Participant, error) {
	var participant domain.Participant

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.repo.GetEventForUpdate(txCtx, eventID)
		if err != nil {
			return err
		}

		existing, err := s.repo.FindParticipant(txCtx, eventID, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrAlreadyJoined
		}

		occupancy, err := s.occupancy(txCtx, eventID)
		if err != nil {
			return err
		}

		participant = domain.Participant{
			ID:       newID(),
			EventID:  eventID,
			UserID:   userID,
			Class:    domain.ResolveAdmission(occupancy.TotalActive(), event.Capacity),
			JoinedAt: s.clock.Now(),
		}
		return s.repo.CreateParticipant(txCtx, participant)
	})
	if err != nil {
		return domain.Participant{}, err
	}

	s.publish(ctx, realtime.Delta{
		Stream:  realtime.StreamParticipants,
		Kind:    realtime.KindInsert,
		EventID: eventID,
		RowID:   participant.ID,
	})
	return participant, nil
}

// Leave removes the user's ledger row. Leaving an event the user never
// joined is a successful no-op. Remaining substitutes are not promoted.
func (s *ParticipationService) Leave(ctx context.Context, eventID, userID string) error {
	removed, err := s.repo.DeleteParticipant(ctx, eventID, userID)
	if err != nil {
		return err
	}
	if removed == nil {
		return nil
	}

	s.publish(ctx, realtime.Delta{
		Stream:  realtime.StreamParticipants,
		Kind:    realtime.KindDelete,
		EventID: eventID,
		RowID:   removed.ID,
	})
	return nil
}

type AddGuestInput struct {
	EventID     string
	FirstName   string
	LastName    string
	RequesterID string
}

// AddGuest admits an organizer-added guest under the same occupancy rules
// as Join.
func (s *ParticipationService) AddGuest(ctx context.Context, in AddGuestInput) (domain.GuestParticipant, error) {
	firstName := strings.TrimSpace(in.FirstName)
	if firstName == "" {
		return domain.GuestParticipant{}, domain.ErrGuestNameRequired
	}

	var guest domain.GuestParticipant

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.repo.GetEventForUpdate(txCtx, in.EventID)
		if err != nil {
			return err
		}
		if event.OrganizerID != in.RequesterID {
			return domain.ErrNotOrganizer
		}

		occupancy, err := s.occupancy(txCtx, in.EventID)
		if err != nil {
			return err
		}

		guest = domain.GuestParticipant{
			ID:        newID(),
			EventID:   in.EventID,
			FirstName: firstName,
			LastName:  strings.TrimSpace(in.LastName),
			AddedBy:   in.RequesterID,
			Class:     domain.ResolveAdmission(occupancy.TotalActive(), event.Capacity),
			AddedAt:   s.clock.Now(),
		}
		return s.repo.CreateGuest(txCtx, guest)
	})
	if err != nil {
		return domain.GuestParticipant{}, err
	}

	s.publish(ctx, realtime.Delta{
		Stream:  realtime.StreamGuests,
		Kind:    realtime.KindInsert,
		EventID: in.EventID,
		RowID:   guest.ID,
	})
	return guest, nil
}

// RemoveGuest resolves the guest's event and removes the row, organizer
// only.
func (s *ParticipationService) RemoveGuest(ctx context.Context, guestID, requesterID string) error {
	var guest domain.GuestParticipant

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		guest, err = s.repo.GetGuest(txCtx, guestID)
		if err != nil {
			return err
		}

		event, err := s.repo.GetEventForUpdate(txCtx, guest.EventID)
		if err != nil {
			return err
		}
		if event.OrganizerID != requesterID {
			return domain.ErrNotOrganizer
		}

		deleted, err := s.repo.DeleteGuest(txCtx, guestID)
		if err != nil {
			return err
		}
		if !deleted {
			return domain.ErrGuestNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, realtime.Delta{
		Stream:  realtime.StreamGuests,
		Kind:    realtime.KindDelete,
		EventID: guest.EventID,
		RowID:   guestID,
	})
	return nil
}

// RemoveParticipant is the organizer's forced removal of a registered
// participant.
func (s *ParticipationService) RemoveParticipant(ctx context.Context, eventID, targetUserID, requesterID string) error {
	var removed *domain.Participant

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.repo.GetEventForUpdate(txCtx, eventID)
		if err != nil {
			return err
		}
		if event.OrganizerID != requesterID {
			return domain.ErrNotOrganizer
		}

		removed, err = s.repo.DeleteParticipant(txCtx, eventID, targetUserID)
		if err != nil {
			return err
		}
		if removed == nil {
			return domain.ErrParticipantNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, realtime.Delta{
		Stream:  realtime.StreamParticipants,
		Kind:    realtime.KindDelete,
		EventID: eventID,
		RowID:   removed.ID,
	})
	return nil
}

func (s *ParticipationService) occupancy(ctx context.Context, eventID string) (domain.Occupancy, error) {
	participants, err := s.repo.ListParticipants(ctx, eventID)
	if err != nil {
		return domain.Occupancy{}, err
	}
	guests, err := s.repo.ListGuests(ctx, eventID)
	if err != nil {
		return domain.Occupancy{}, err
	}
	return domain.ComputeOccupancy(bareParticipants(participants), guests), nil
}

// publish happens after commit: an undelivered delta costs viewers a
// refresh, an in-tx publish could announce a rolled-back row.
func (s *ParticipationService) publish(ctx context.Context, delta realtime.Delta) {
	if s.feed == nil {
		return
	}
	if err := s.feed.Publish(ctx, delta); err != nil {
		s.logger.Printf("participation: publish %s %s: %v", delta.Kind, delta.Stream, err)
	}
}
