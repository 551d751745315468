package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ethantaylan/five-v2-sub000/internal/app"
	"github.com/ethantaylan/five-v2-sub000/internal/auth"
	"github.com/ethantaylan/five-v2-sub000/internal/domain"
	"github.com/go-chi/chi/v5"
)

// EventService is the aggregator surface the event endpoints need.
type EventService interface {
	Create(ctx context.Context, in app.CreateEventInput) (app.EventView, error)
	Update(ctx context.Context, in app.UpdateEventInput) (app.EventView, error)
	Delete(ctx context.Context, eventID, requesterID string) error
	GetForViewer(ctx context.Context, ref, viewerID string) (app.EventView, error)
	ListForUser(ctx context.Context, userID string) ([]app.EventView, error)
	Participants(ctx context.Context, eventID string) ([]domain.ParticipantWithUser, []domain.GuestParticipant, error)
}

// HandleCreateEvent creates an event; the organizer auto-joins as the first
// active participant.
func HandleCreateEvent(svc EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer := auth.IdentityFromContext(r.Context())

		var req createEventRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidStartsAt, "starts_at must be RFC 3339")
			return
		}

		view, err := svc.Create(r.Context(), app.CreateEventInput{
			Title:       req.Title,
			Description: req.Description,
			Location:    req.Location,
			StartsAt:    startsAt,
			Duration:    time.Duration(req.DurationMinutes) * time.Minute,
			Capacity:    req.Capacity,
			OrganizerID: viewer.UserID,
			GroupID:     req.GroupID,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, eventViewResponseFrom(view))
	}
}

// HandleGetEvent resolves {id} as an event id or a share code. Anonymous
// viewers get the preview with all viewer flags false.
func HandleGetEvent(svc EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer := auth.IdentityFromContext(r.Context())
		view, err := svc.GetForViewer(r.Context(), chi.URLParam(r, "id"), viewer.UserID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, eventViewResponseFrom(view))
	}
}

func HandleUpdateEvent(svc EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer := auth.IdentityFromContext(r.Context())

		var req updateEventRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		in := app.UpdateEventInput{
			EventID:     chi.URLParam(r, "id"),
			RequesterID: viewer.UserID,
			Title:       req.Title,
			Description: req.Description,
			Location:    req.Location,
			Capacity:    req.Capacity,
		}
		if req.StartsAt != nil {
			startsAt, err := time.Parse(time.RFC3339, *req.StartsAt)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidStartsAt, "starts_at must be RFC 3339")
				return
			}
			in.StartsAt = &startsAt
		}
		if req.DurationMinutes != nil {
			d := time.Duration(*req.DurationMinutes) * time.Minute
			in.Duration = &d
		}

		view, err := svc.Update(r.Context(), in)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, eventViewResponseFrom(view))
	}
}

func HandleDeleteEvent(svc EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer := auth.IdentityFromContext(r.Context())
		if err := svc.Delete(r.Context(), chi.URLParam(r, "id"), viewer.UserID); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleListMyEvents(svc EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer := auth.IdentityFromContext(r.Context())
		views, err := svc.ListForUser(r.Context(), viewer.UserID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		resp := make([]eventViewResponse, 0, len(views))
		for _, view := range views {
			resp = append(resp, eventViewResponseFrom(view))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleListEventParticipants returns the roster: registered participants
// with display names, and guests.
func HandleListEventParticipants(svc EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		participants, guests, err := svc.Participants(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := rosterResponse{
			Participants: make([]participantResponse, 0, len(participants)),
			Guests:       make([]guestResponse, 0, len(guests)),
		}
		for _, p := range participants {
			resp.Participants = append(resp.Participants, participantResponseFrom(p))
		}
		for _, g := range guests {
			resp.Guests = append(resp.Guests, guestResponseFrom(g))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type createEventRequest struct {
	Title           string  `json:"title"`
	Description     string  `json:"description,omitempty"`
	Location        string  `json:"location,omitempty"`
	StartsAt        string  `json:"starts_at"`
	DurationMinutes int     `json:"duration_minutes"`
	Capacity        int     `json:"capacity"`
	GroupID         *string `json:"group_id,omitempty"`
}

type updateEventRequest struct {
	Title           *string `json:"title,omitempty"`
	Description     *string `json:"description,omitempty"`
	Location        *string `json:"location,omitempty"`
	StartsAt        *string `json:"starts_at,omitempty"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
	Capacity        *int    `json:"capacity,omitempty"`
}

type eventViewResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	Location        string    `json:"location,omitempty"`
	StartsAt        time.Time `json:"starts_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Capacity        int       `json:"capacity"`
	OrganizerID     string    `json:"organizer_id"`
	ShareCode       string    `json:"share_code"`
	GroupID         *string   `json:"group_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`

	ParticipantCount     int  `json:"participant_count"`
	SubstituteCount      int  `json:"substitute_count"`
	GuestCount           int  `json:"guest_count"`
	GuestSubstituteCount int  `json:"guest_substitute_count"`
	IsFull               bool `json:"is_full"`
	IsUserParticipant    bool `json:"is_user_participant"`
	IsUserSubstitute     bool `json:"is_user_substitute"`
	IsCreator            bool `json:"is_creator"`
}

func eventViewResponseFrom(view app.EventView) eventViewResponse {
	return eventViewResponse{
		ID:                   view.ID,
		Title:                view.Title,
		Description:          view.Description,
		Location:             view.Location,
		StartsAt:             view.StartsAt,
		DurationMinutes:      int(view.Duration / time.Minute),
		Capacity:             view.Capacity,
		OrganizerID:          view.OrganizerID,
		ShareCode:            view.ShareCode,
		GroupID:              view.GroupID,
		CreatedAt:            view.CreatedAt,
		ParticipantCount:     view.ParticipantCount,
		SubstituteCount:      view.SubstituteCount,
		GuestCount:           view.GuestCount,
		GuestSubstituteCount: view.GuestSubstituteCount,
		IsFull:               view.IsFull,
		IsUserParticipant:    view.IsUserParticipant,
		IsUserSubstitute:     view.IsUserSubstitute,
		IsCreator:            view.IsCreator,
	}
}

type rosterResponse struct {
	Participants []participantResponse `json:"participants"`
	Guests       []guestResponse       `json:"guests"`
}

type participantResponse struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id"`
	UserID      string    `json:"user_id"`
	Class       string    `json:"class"`
	JoinedAt    time.Time `json:"joined_at"`
	DisplayName string    `json:"display_name"`
}

func participantResponseFrom(p domain.ParticipantWithUser) participantResponse {
	return participantResponse{
		ID:          p.ID,
		EventID:     p.EventID,
		UserID:      p.UserID,
		Class:       string(p.Class),
		JoinedAt:    p.JoinedAt,
		DisplayName: p.DisplayName,
	}
}

type guestResponse struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name,omitempty"`
	AddedBy   string    `json:"added_by"`
	Class     string    `json:"class"`
	AddedAt   time.Time `json:"added_at"`
}

func guestResponseFrom(g domain.GuestParticipant) guestResponse {
	return guestResponse{
		ID:        g.ID,
		EventID:   g.EventID,
		FirstName: g.FirstName,
		LastName:  g.LastName,
		AddedBy:   g.AddedBy,
		Class:     string(g.Class),
		AddedAt:   g.AddedAt,
	}
}
