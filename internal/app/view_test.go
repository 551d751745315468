package app

import (
	"testing"

	"github.com/ethantaylan/five-v2-sub000/internal/domain"
)

func TestBuildEventView(t *testing.T) {
	t.Parallel()

	event := domain.Event{ID: "event-1", Capacity: 3, OrganizerID: "org"}
	participants := []domain.ParticipantWithUser{
		{Participant: domain.Participant{ID: "p1", EventID: "event-1", UserID: "org", Class: domain.AdmissionActive}},
		{Participant: domain.Participant{ID: "p2", EventID: "event-1", UserID: "user-b", Class: domain.AdmissionActive}},
		{Participant: domain.Participant{ID: "p3", EventID: "event-1", UserID: "user-c", Class: domain.AdmissionSubstitute}},
	}
	guests := []domain.GuestParticipant{
		{ID: "g1", EventID: "event-1", FirstName: "Leo", Class: domain.AdmissionActive},
		{ID: "g2", EventID: "event-1", FirstName: "Max", Class: domain.AdmissionSubstitute},
	}

	t.Run("counts and fullness", func(t *testing.T) {
		view := buildEventView(event, participants, guests, "")
		if view.ParticipantCount != 2 || view.SubstituteCount != 1 {
			t.Fatalf("unexpected participant counts: %+v", view)
		}
		if view.GuestCount != 1 || view.GuestSubstituteCount != 1 {
			t.Fatalf("unexpected guest counts: %+v", view)
		}
		if !view.IsFull {
			t.Fatalf("expected full: 2 active + 1 active guest against capacity 3")
		}
	})

	t.Run("anonymous viewer has no flags", func(t *testing.T) {
		view := buildEventView(event, participants, guests, "")
		if view.IsCreator || view.IsUserParticipant || view.IsUserSubstitute {
			t.Fatalf("expected all flags false, got %+v", view)
		}
	})

	t.Run("organizer viewer", func(t *testing.T) {
		view := buildEventView(event, participants, guests, "org")
		if !view.IsCreator || !view.IsUserParticipant || view.IsUserSubstitute {
			t.Fatalf("unexpected organizer flags: %+v", view)
		}
	})

	t.Run("substitute viewer", func(t *testing.T) {
		view := buildEventView(event, participants, guests, "user-c")
		if view.IsCreator || !view.IsUserParticipant || !view.IsUserSubstitute {
			t.Fatalf("unexpected substitute flags: %+v", view)
		}
	})

	t.Run("non-member viewer", func(t *testing.T) {
		view := buildEventView(event, participants, guests, "stranger")
		if view.IsUserParticipant || view.IsUserSubstitute {
			t.Fatalf("unexpected flags for a non-member: %+v", view)
		}
	})
}
