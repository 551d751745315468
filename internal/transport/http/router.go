package http

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// RealtimeHub is the websocket side of the realtime propagator.
type RealtimeHub interface {
	ServeWS(w http.ResponseWriter, r *http.Request, eventID string)
}

type Deps struct {
	Events        EventService
	Participation ParticipationService
	Chat          ChatService
	Profiles      ProfileService
	Hub           RealtimeHub
	Verifier      TokenVerifier
	CORSOrigins   []string
	Logger        *log.Logger
}

// NewRouter assembles the full HTTP surface.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(func(next http.Handler) http.Handler {
		return RequestLogger(next, deps.Logger)
	})
	r.Use(func(next http.Handler) http.Handler {
		return CORS(deps.CORSOrigins, next)
	})

	r.Get("/health", HealthHandler)

	// Shared-link preview works without a token; a bad token is still
	// rejected.
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return OptionalAuth(deps.Verifier, next)
		})
		r.Get("/events/{id}", HandleGetEvent(deps.Events))
	})

	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return RequireAuth(deps.Verifier, next)
		})

		r.Post("/events", HandleCreateEvent(deps.Events))
		r.Patch("/events/{id}", HandleUpdateEvent(deps.Events))
		r.Delete("/events/{id}", HandleDeleteEvent(deps.Events))
		r.Get("/me/events", HandleListMyEvents(deps.Events))
		r.Put("/me/profile", HandleUpsertProfile(deps.Profiles))

		r.Get("/events/{id}/participants", HandleListEventParticipants(deps.Events))
		r.Post("/events/{id}/join", HandleJoin(deps.Participation))
		r.Delete("/events/{id}/participants/me", HandleLeave(deps.Participation))
		r.Delete("/events/{id}/participants/{userID}", HandleRemoveParticipant(deps.Participation))
		r.Post("/events/{id}/guests", HandleAddGuest(deps.Participation))
		r.Delete("/guests/{id}", HandleRemoveGuest(deps.Participation))

		r.Get("/events/{id}/messages", HandleListMessages(deps.Chat))
		r.Post("/events/{id}/messages", HandleSendMessage(deps.Chat))
		r.Delete("/messages/{id}", HandleDeleteMessage(deps.Chat))

		r.Get("/ws/events/{id}", HandleEventStream(deps.Events, deps.Hub))
	})

	r.NotFound(NotFoundHandler().ServeHTTP)
	return r
}
