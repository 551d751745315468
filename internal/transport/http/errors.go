package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ethantaylan/five-v2-sub000/internal/domain"
)

const (
	codeMethodNotAllowed    = "method_not_allowed"
	codeNotFound            = "not_found"
	codeInvalidRequestBody  = "invalid_request_body"
	codeInvalidStartsAt     = "invalid_starts_at"
	codeUnauthorized        = "unauthorized"
	codeForbidden           = "forbidden"
	codeEventNotFound       = "event_not_found"
	codeGuestNotFound       = "guest_not_found"
	codeParticipantNotFound = "participant_not_found"
	codeMessageNotFound     = "message_not_found"
	codeProfileNotFound     = "profile_not_found"
	codeAlreadyJoined       = "already_joined"
	codeEmptyMessage        = "empty_message"
	codeTitleRequired       = "title_required"
	codeGuestNameRequired   = "guest_name_required"
	codeDisplayNameRequired = "display_name_required"
	codeInvalidCapacity     = "invalid_capacity"
	codeInvalidID           = "invalid_id"
	codeInternalError       = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeDomainError maps sentinel errors to statuses and codes. Anything
// unrecognized is a store/transport failure and surfaces as 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEventNotFound):
		writeError(w, http.StatusNotFound, codeEventNotFound, err.Error())
	case errors.Is(err, domain.ErrGuestNotFound):
		writeError(w, http.StatusNotFound, codeGuestNotFound, err.Error())
	case errors.Is(err, domain.ErrParticipantNotFound):
		writeError(w, http.StatusNotFound, codeParticipantNotFound, err.Error())
	case errors.Is(err, domain.ErrMessageNotFound):
		writeError(w, http.StatusNotFound, codeMessageNotFound, err.Error())
	case errors.Is(err, domain.ErrProfileNotFound):
		writeError(w, http.StatusNotFound, codeProfileNotFound, err.Error())
	case errors.Is(err, domain.ErrNotOrganizer):
		writeError(w, http.StatusForbidden, codeForbidden, err.Error())
	case errors.Is(err, domain.ErrAlreadyJoined):
		writeError(w, http.StatusConflict, codeAlreadyJoined, err.Error())
	case errors.Is(err, domain.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, codeEmptyMessage, err.Error())
	case errors.Is(err, domain.ErrTitleRequired):
		writeError(w, http.StatusBadRequest, codeTitleRequired, err.Error())
	case errors.Is(err, domain.ErrGuestNameRequired):
		writeError(w, http.StatusBadRequest, codeGuestNameRequired, err.Error())
	case errors.Is(err, domain.ErrDisplayNameRequired):
		writeError(w, http.StatusBadRequest, codeDisplayNameRequired, err.Error())
	case errors.Is(err, domain.ErrInvalidCapacity):
		writeError(w, http.StatusBadRequest, codeInvalidCapacity, err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
