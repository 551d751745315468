package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS(t *testing.T) {
	t.Parallel()

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("allowed origin is echoed", func(t *testing.T) {
		handler := CORS([]string{"https://five.example"}, okHandler)
		req := httptest.NewRequest(http.MethodGet, "/events/e1", nil)
		req.Header.Set("Origin", "https://five.example")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://five.example" {
			t.Fatalf("expected origin echoed, got %q", got)
		}
		if got := rec.Header().Get("Vary"); got != "Origin" {
			t.Fatalf("expected Vary: Origin, got %q", got)
		}
	})

	t.Run("wildcard", func(t *testing.T) {
		handler := CORS([]string{"*"}, okHandler)
		req := httptest.NewRequest(http.MethodGet, "/events/e1", nil)
		req.Header.Set("Origin", "https://anywhere.example")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Fatalf("expected wildcard, got %q", got)
		}
	})

	t.Run("preflight from an allowed origin", func(t *testing.T) {
		handler := CORS([]string{"https://five.example"}, okHandler)
		req := httptest.NewRequest(http.MethodOptions, "/events/e1/join", nil)
		req.Header.Set("Origin", "https://five.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Methods"); got == "" {
			t.Fatalf("expected allow-methods header on preflight")
		}
	})

	t.Run("preflight from a disallowed origin is refused", func(t *testing.T) {
		handler := CORS([]string{"https://five.example"}, okHandler)
		req := httptest.NewRequest(http.MethodOptions, "/events/e1/join", nil)
		req.Header.Set("Origin", "https://evil.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("plain request from a disallowed origin passes without headers", func(t *testing.T) {
		handler := CORS([]string{"https://five.example"}, okHandler)
		req := httptest.NewRequest(http.MethodGet, "/events/e1", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Fatalf("expected no allow-origin header, got %q", got)
		}
	})

	t.Run("no origin header", func(t *testing.T) {
		handler := CORS(nil, okHandler)
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})
}
