package http

import (
	"net/http"

	"github.com/ethantaylan/five-v2-sub000/internal/auth"
	"github.com/go-chi/chi/v5"
)

// HandleEventStream attaches the viewer to the event's realtime room. The
// event is resolved first so a dead link fails with a JSON 404 instead of
// a broken upgrade.
func HandleEventStream(events EventService, hub RealtimeHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer := auth.IdentityFromContext(r.Context())
		view, err := events.GetForViewer(r.Context(), chi.URLParam(r, "id"), viewer.UserID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		hub.ServeWS(w, r, view.ID)
	}
}
