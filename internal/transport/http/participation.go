package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ethantaylan/five-v2-sub000/internal/app"
	"github.com/ethantaylan/five-v2-sub000/internal/auth"
	"github.com/ethantaylan/five-v2-sub000/internal/domain"
	"github.com/go-chi/chi/v5"
)

// ParticipationService is the ledger surface the join/leave/guest endpoints
// need.
type ParticipationService interface {
	Join(ctx context.Context, eventID, userID string) (domain.Participant, error)
	Leave(ctx context.Context, eventID, userID string) error
	AddGuest(ctx context.Context, in app.AddGuestInput) (domain.GuestParticipant, error)
	RemoveGuest(ctx context.Context, guestID, requesterID string) error
	RemoveParticipant(ctx context.Context, eventID, targetUserID, requesterID string) error
}

// HandleJoin admits the viewer; the response carries the admission class so
// the caller can say "joined" or "joined the substitute bench".
func HandleJoin(svc ParticipationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer := auth.IdentityFromContext(r.Context())
		participant, err := svc.Join(r.Context(), chi.URLParam(r, "id"), viewer.UserID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, joinResponse{
			ID:    participant.ID,
			Class: string(participant.Class),
		})
	}
}

// HandleLeave is idempotent: leaving an event the viewer never joined still
// succeeds.
func HandleLeave(svc ParticipationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer := auth.IdentityFromContext(r.Context())
		if err := svc.Leave(r.Context(), chi.URLParam(r, "id"), viewer.UserID); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleRemoveParticipant(svc ParticipationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer := auth.IdentityFromContext(r.Context())
		err := svc.RemoveParticipant(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "userID"), viewer.UserID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleAddGuest(svc ParticipationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer := auth.IdentityFromContext(r.Context())

		var req addGuestRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		guest, err := svc.AddGuest(r.Context(), app.AddGuestInput{
			EventID:     chi.URLParam(r, "id"),
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			RequesterID: viewer.UserID,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, guestResponseFrom(guest))
	}
}

func HandleRemoveGuest(svc ParticipationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer := auth.IdentityFromContext(r.Context())
		if err := svc.RemoveGuest(r.Context(), chi.URLParam(r, "id"), viewer.UserID); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type joinResponse struct {
	ID    string `json:"id"`
	Class string `json:"class"`
}

type addGuestRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
}
