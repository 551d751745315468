package app

import "github.com/ethantaylan/five-v2-sub000/internal/domain"

// EventView is the event as seen by one viewer: the record plus derived
// occupancy counts and viewer-specific flags. An anonymous viewer (empty
// id) always gets false flags.
type EventView struct {
	domain.Event

	ParticipantCount     int
	SubstituteCount      int
	GuestCount           int
	GuestSubstituteCount int
	IsFull               bool

	IsUserParticipant bool
	IsUserSubstitute  bool
	IsCreator         bool
}

func buildEventView(event domain.Event, participants []domain.ParticipantWithUser, guests []domain.GuestParticipant, viewerID string) EventView {
	occupancy := domain.ComputeOccupancy(bareParticipants(participants), guests)

	view := EventView{
		Event:                event,
		ParticipantCount:     occupancy.ActiveCount,
		SubstituteCount:      occupancy.SubstituteCount,
		GuestCount:           occupancy.GuestActiveCount,
		GuestSubstituteCount: occupancy.GuestSubstituteCount,
		IsFull:               occupancy.IsFull(event.Capacity),
	}

	if viewerID == "" {
		return view
	}

	view.IsCreator = event.OrganizerID == viewerID
	for _, p := range participants {
		if p.UserID == viewerID {
			view.IsUserParticipant = true
			view.IsUserSubstitute = p.Class == domain.AdmissionSubstitute
			break
		}
	}
	return view
}

func bareParticipants(participants []domain.ParticipantWithUser) []domain.Participant {
	out := make([]domain.Participant, 0, len(participants))
	for _, p := range participants {
		out = append(out, p.Participant)
	}
	return out
}
