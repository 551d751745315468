package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethantaylan/five-v2-sub000/internal/app"
	"github.com/ethantaylan/five-v2-sub000/internal/auth"
	"github.com/ethantaylan/five-v2-sub000/internal/clock"
	"github.com/ethantaylan/five-v2-sub000/internal/domain"
	"github.com/ethantaylan/five-v2-sub000/internal/storage/postgres"
	"github.com/ethantaylan/five-v2-sub000/internal/testutil"
	"github.com/go-chi/chi/v5"
)

func TestJoinLeave_HTTPIntegration(t *testing.T) {
	pool := testutil.NewTestPool(t)
	testutil.ApplyMigrations(t, context.Background(), pool)
	repo := postgres.NewParticipationRepository(pool)
	now := time.Date(2025, 6, 5, 19, 0, 0, 0, time.UTC)
	svc := app.NewParticipationService(repo, nil, clock.NewFixed(now), nil)

	ctx := context.Background()
	testutil.TruncateAll(t, ctx, pool)
	eventID := testutil.InsertEvent(t, ctx, pool, "org", "CODE0001", 2)
	testutil.InsertParticipant(t, ctx, pool, eventID, "org", domain.AdmissionActive)

	router := chi.NewRouter()
	router.Post("/events/{id}/join", HandleJoin(svc))
	router.Delete("/events/{id}/participants/me", HandleLeave(svc))

	joinAs := func(userID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/events/"+eventID+"/join", nil)
		req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: userID}))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := joinAs("user-b")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp joinResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Class != string(domain.AdmissionActive) {
		t.Fatalf("expected active admission, got %s", resp.Class)
	}

	rec = joinAs("user-c")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Class != string(domain.AdmissionSubstitute) {
		t.Fatalf("expected substitute admission on a full event, got %s", resp.Class)
	}

	rec = joinAs("user-b")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409 on duplicate join, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodDelete, "/events/"+eventID+"/participants/me", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: "user-b"}))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}

	var class string
	err := pool.QueryRow(ctx,
		`SELECT class FROM participants WHERE event_id = $1 AND user_id = $2`,
		eventID, "user-c",
	).Scan(&class)
	if err != nil {
		t.Fatalf("query substitute row: %v", err)
	}
	if class != string(domain.AdmissionSubstitute) {
		t.Fatalf("expected the substitute to stay substitute after a leave, got %s", class)
	}
}
