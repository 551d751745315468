package app

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/ethantaylan/five-v2-sub000/internal/clock"
	"github.com/ethantaylan/five-v2-sub000/internal/domain"
)

type EventRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateEvent(ctx context.Context, event domain.Event) error
	GetEventByID(ctx context.Context, eventID string) (domain.Event, error)
	GetEventForUpdate(ctx context.Context, eventID string) (domain.Event, error)
	GetEventByShareCode(ctx context.Context, code string) (domain.Event, error)
	UpdateEvent(ctx context.Context, event domain.Event) error
	DeleteEvent(ctx context.Context, eventID string) (bool, error)
	ListEventsForUser(ctx context.Context, userID string) ([]domain.Event, error)
	ListParticipants(ctx context.Context, eventID string) ([]domain.ParticipantWithUser, error)
	ListGuests(ctx context.Context, eventID string) ([]domain.GuestParticipant, error)
	CreateParticipant(ctx context.Context, p domain.Participant) error
}

// EventService owns the event records and composes viewer-specific views
// over the ledger.
type EventService struct {
	repo  EventRepository
	clock clock.Clock
}

func NewEventService(repo EventRepository, clk clock.Clock) *EventService {
	return &EventService{repo: repo, clock: clk}
}

type CreateEventInput struct {
	Title       string
	Description string
	Location    string
	StartsAt    time.Time
	Duration    time.Duration
	Capacity    int
	OrganizerID string
	GroupID     *string
}

const shareCodeAttempts = 5

// Create stores the event and admits the organizer as the first active
// participant in the same transaction. Share code collisions are retried
// with a fresh code.
func (s *EventService) Create(ctx context.Context, in CreateEventInput) (EventView, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return EventView{}, domain.ErrTitleRequired
	}
	if in.Capacity < 1 {
		return EventView{}, domain.ErrInvalidCapacity
	}

	now := s.clock.Now()
	event := domain.Event{
		ID:          newID(),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Location:    strings.TrimSpace(in.Location),
		StartsAt:    in.StartsAt.UTC(),
		Duration:    in.Duration,
		Capacity:    in.Capacity,
		OrganizerID: in.OrganizerID,
		GroupID:     in.GroupID,
		CreatedAt:   now,
	}

	var err error
	for attempt := 0; attempt < shareCodeAttempts; attempt++ {
		event.ShareCode = NewShareCode()
		err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
			if err := s.repo.CreateEvent(txCtx, event); err != nil {
				return err
			}
			return s.repo.CreateParticipant(txCtx, domain.Participant{
				ID:       newID(),
				EventID:  event.ID,
				UserID:   in.OrganizerID,
				Class:    domain.AdmissionActive,
				JoinedAt: now,
			})
		})
		if !errors.Is(err, domain.ErrShareCodeTaken) {
			break
		}
	}
	if err != nil {
		return EventView{}, err
	}

	return s.GetForViewer(ctx, event.ID, in.OrganizerID)
}

type UpdateEventInput struct {
	EventID     string
	RequesterID string
	Title       *string
	Description *string
	Location    *string
	StartsAt    *time.Time
	Duration    *time.Duration
	Capacity    *int
}

// Update patches the record, organizer only. The read and write run in one
// transaction over the locked row so concurrent patches cannot overwrite
// each other's fields. A capacity change does not revise admission classes
// already handed out.
func (s *EventService) Update(ctx context.Context, in UpdateEventInput) (EventView, error) {
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.repo.GetEventForUpdate(txCtx, in.EventID)
		if err != nil {
			return err
		}
		if event.OrganizerID != in.RequesterID {
			return domain.ErrNotOrganizer
		}

		if in.Title != nil {
			title := strings.TrimSpace(*in.Title)
			if title == "" {
				return domain.ErrTitleRequired
			}
			event.Title = title
		}
		if in.Description != nil {
			event.Description = strings.TrimSpace(*in.Description)
		}
		if in.Location != nil {
			event.Location = strings.TrimSpace(*in.Location)
		}
		if in.StartsAt != nil {
			event.StartsAt = in.StartsAt.UTC()
		}
		if in.Duration != nil {
			event.Duration = *in.Duration
		}
		if in.Capacity != nil {
			if *in.Capacity < 1 {
				return domain.ErrInvalidCapacity
			}
			event.Capacity = *in.Capacity
		}

		return s.repo.UpdateEvent(txCtx, event)
	})
	if err != nil {
		return EventView{}, err
	}
	return s.GetForViewer(ctx, in.EventID, in.RequesterID)
}

// Delete removes the event and, through cascade, its whole ledger and chat
// thread.
func (s *EventService) Delete(ctx context.Context, eventID, requesterID string) error {
	event, err := s.repo.GetEventByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event.OrganizerID != requesterID {
		return domain.ErrNotOrganizer
	}

	deleted, err := s.repo.DeleteEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrEventNotFound
	}
	return nil
}

// GetForViewer resolves ref as an event id first and as a share code
// second; share codes are case-insensitive. viewerID may be empty for
// anonymous shared-link preview.
func (s *EventService) GetForViewer(ctx context.Context, ref, viewerID string) (EventView, error) {
	event, err := s.repo.GetEventByID(ctx, ref)
	if errors.Is(err, domain.ErrEventNotFound) {
		event, err = s.repo.GetEventByShareCode(ctx, NormalizeShareCode(ref))
	}
	if err != nil {
		return EventView{}, err
	}
	return s.enrich(ctx, event, viewerID)
}

// ListForUser returns every event the user organizes or holds a ledger row
// in, upcoming first (soonest first), then past (most recent first).
func (s *EventService) ListForUser(ctx context.Context, userID string) ([]EventView, error) {
	events, err := s.repo.ListEventsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	sort.SliceStable(events, func(i, j int) bool {
		iUpcoming := !events[i].StartsAt.Before(now)
		jUpcoming := !events[j].StartsAt.Before(now)
		if iUpcoming != jUpcoming {
			return iUpcoming
		}
		if iUpcoming {
			return events[i].StartsAt.Before(events[j].StartsAt)
		}
		return events[i].StartsAt.After(events[j].StartsAt)
	})

	views := make([]EventView, 0, len(events))
	for _, event := range events {
		view, err := s.enrich(ctx, event, userID)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *EventService) enrich(ctx context.Context, event domain.Event, viewerID string) (EventView, error) {
	participants, err := s.repo.ListParticipants(ctx, event.ID)
	if err != nil {
		return EventView{}, err
	}
	guests, err := s.repo.ListGuests(ctx, event.ID)
	if err != nil {
		return EventView{}, err
	}
	return buildEventView(event, participants, guests, viewerID), nil
}

// Participants exposes the enriched rows for the roster view.
func (s *EventService) Participants(ctx context.Context, eventID string) ([]domain.ParticipantWithUser, []domain.GuestParticipant, error) {
	if _, err := s.repo.GetEventByID(ctx, eventID); err != nil {
		return nil, nil, err
	}
	participants, err := s.repo.ListParticipants(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	guests, err := s.repo.ListGuests(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	return participants, guests, nil
}
