package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ethantaylan/five-v2-sub000/internal/auth"
	"github.com/ethantaylan/five-v2-sub000/internal/domain"
	"github.com/go-chi/chi/v5"
)

type ChatService interface {
	List(ctx context.Context, eventID string) ([]domain.MessageWithAuthor, error)
	Send(ctx context.Context, eventID, userID, body string) (domain.MessageWithAuthor, error)
	Delete(ctx context.Context, messageID, requesterID string) (bool, error)
}

type ProfileService interface {
	Upsert(ctx context.Context, userID, displayName string) (domain.UserProfile, error)
}

func HandleListMessages(svc ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		messages, err := svc.List(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		resp := make([]messageResponse, 0, len(messages))
		for _, m := range messages {
			resp = append(resp, messageResponseFrom(m))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func HandleSendMessage(svc ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer := auth.IdentityFromContext(r.Context())

		var req sendMessageRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		message, err := svc.Send(r.Context(), chi.URLParam(r, "id"), viewer.UserID, req.Body)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, messageResponseFrom(message))
	}
}

// HandleDeleteMessage reports 404 when nothing matched: either the message
// does not exist or the viewer is neither author nor organizer, and the two
// are deliberately indistinguishable.
func HandleDeleteMessage(svc ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer := auth.IdentityFromContext(r.Context())
		deleted, err := svc.Delete(r.Context(), chi.URLParam(r, "id"), viewer.UserID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if !deleted {
			writeError(w, http.StatusNotFound, codeMessageNotFound, domain.ErrMessageNotFound.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleUpsertProfile(svc ProfileService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer := auth.IdentityFromContext(r.Context())

		var req upsertProfileRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		profile, err := svc.Upsert(r.Context(), viewer.UserID, req.DisplayName)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, profileResponse{
			ID:          profile.ID,
			DisplayName: profile.DisplayName,
		})
	}
}

type sendMessageRequest struct {
	Body string `json:"body"`
}

type messageResponse struct {
	ID         string    `json:"id"`
	EventID    string    `json:"event_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func messageResponseFrom(m domain.MessageWithAuthor) messageResponse {
	return messageResponse{
		ID:         m.ID,
		EventID:    m.EventID,
		AuthorID:   m.AuthorID,
		AuthorName: m.AuthorName,
		Body:       m.Body,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

type upsertProfileRequest struct {
	DisplayName string `json:"display_name"`
}

type profileResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}
