package http

import (
	"net/http"
	"strings"

	"github.com/ethantaylan/five-v2-sub000/internal/auth"
)

// TokenVerifier is the identity boundary: a bearer token in, a viewer out.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(verifier TokenVerifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := bearerIdentity(verifier, r)
		if !ok || identity.Anonymous() {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing or invalid bearer token")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
	})
}

// OptionalAuth attaches the viewer when a token is present and lets
// anonymous requests through; a token that is present but invalid is still
// rejected.
func OptionalAuth(verifier TokenVerifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next.ServeHTTP(w, r)
			return
		}
		identity, ok := bearerIdentity(verifier, r)
		if !ok {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "invalid bearer token")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
	})
}

func bearerIdentity(verifier TokenVerifier, r *http.Request) (auth.Identity, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return auth.Identity{}, false
	}
	identity, err := verifier.Verify(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return auth.Identity{}, false
	}
	return identity, true
}
