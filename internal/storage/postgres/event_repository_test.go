package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/ethantaylan/five-v2-sub000/internal/domain"
	"github.com/ethantaylan/five-v2-sub000/internal/testutil"
	"github.com/google/uuid"
)

func TestEventRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewEventRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	newEvent := func(shareCode string) domain.Event {
		return domain.Event{
			ID:          uuid.New().String(),
			Title:       "Thursday five",
			Location:    "Gymnase Jean Moulin",
			StartsAt:    time.Now().Add(48 * time.Hour).Truncate(time.Second).UTC(),
			Duration:    90 * time.Minute,
			Capacity:    10,
			OrganizerID: "org",
			ShareCode:   shareCode,
			CreatedAt:   time.Now().Truncate(time.Second).UTC(),
		}
	}

	t.Run("CreateEvent and GetEventByID round-trip", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		event := newEvent("CODE0001")
		if err := repo.CreateEvent(ctx, event); err != nil {
			t.Fatalf("create: %v", err)
		}

		stored, err := repo.GetEventByID(ctx, event.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if stored.Title != event.Title || stored.Duration != 90*time.Minute || stored.ShareCode != "CODE0001" {
			t.Fatalf("unexpected event: %+v", stored)
		}
		if !stored.StartsAt.Equal(event.StartsAt) {
			t.Fatalf("expected starts_at %v, got %v", event.StartsAt, stored.StartsAt)
		}

		_, err = repo.GetEventByID(ctx, "00000000-0000-0000-0000-000000000001")
		if err != domain.ErrEventNotFound {
			t.Fatalf("expected ErrEventNotFound, got %v", err)
		}
		_, err = repo.GetEventByID(ctx, "not-a-uuid")
		if err != domain.ErrEventNotFound {
			t.Fatalf("expected ErrEventNotFound for a malformed id, got %v", err)
		}
	})

	t.Run("GetEventForUpdate locks inside a transaction", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		event := newEvent("CODE0001")
		if err := repo.CreateEvent(ctx, event); err != nil {
			t.Fatalf("create: %v", err)
		}

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			locked, err := repo.GetEventForUpdate(txCtx, event.ID)
			if err != nil {
				return err
			}
			locked.Capacity = 12
			return repo.UpdateEvent(txCtx, locked)
		})
		if err != nil {
			t.Fatalf("tx: %v", err)
		}

		stored, err := repo.GetEventByID(ctx, event.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if stored.Capacity != 12 {
			t.Fatalf("expected capacity 12 after the locked patch, got %d", stored.Capacity)
		}

		_ = repo.WithTx(ctx, func(txCtx context.Context) error {
			if _, err := repo.GetEventForUpdate(txCtx, "00000000-0000-0000-0000-000000000001"); err != domain.ErrEventNotFound {
				t.Fatalf("expected ErrEventNotFound, got %v", err)
			}
			return nil
		})
	})

	t.Run("CreateEvent maps a share code collision", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		if err := repo.CreateEvent(ctx, newEvent("CODE0001")); err != nil {
			t.Fatalf("first create: %v", err)
		}
		if err := repo.CreateEvent(ctx, newEvent("CODE0001")); err != domain.ErrShareCodeTaken {
			t.Fatalf("expected ErrShareCodeTaken, got %v", err)
		}
	})

	t.Run("GetEventByShareCode", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		event := newEvent("CODE0001")
		if err := repo.CreateEvent(ctx, event); err != nil {
			t.Fatalf("create: %v", err)
		}

		stored, err := repo.GetEventByShareCode(ctx, "CODE0001")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if stored.ID != event.ID {
			t.Fatalf("expected %s, got %s", event.ID, stored.ID)
		}

		if _, err := repo.GetEventByShareCode(ctx, "NOPE"); err != domain.ErrEventNotFound {
			t.Fatalf("expected ErrEventNotFound, got %v", err)
		}
	})

	t.Run("UpdateEvent", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		event := newEvent("CODE0001")
		if err := repo.CreateEvent(ctx, event); err != nil {
			t.Fatalf("create: %v", err)
		}

		event.Title = "Rematch"
		event.Capacity = 12
		if err := repo.UpdateEvent(ctx, event); err != nil {
			t.Fatalf("update: %v", err)
		}

		stored, err := repo.GetEventByID(ctx, event.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if stored.Title != "Rematch" || stored.Capacity != 12 {
			t.Fatalf("unexpected event after update: %+v", stored)
		}

		missing := newEvent("CODE0002")
		if err := repo.UpdateEvent(ctx, missing); err != domain.ErrEventNotFound {
			t.Fatalf("expected ErrEventNotFound, got %v", err)
		}
	})

	t.Run("DeleteEvent cascades the ledger and chat", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		eventID := testutil.InsertEvent(t, ctx, pool, "org", "CODE0001", 10)
		testutil.InsertParticipant(t, ctx, pool, eventID, "user-b", domain.AdmissionActive)
		testutil.InsertGuest(t, ctx, pool, eventID, "Leo", "org", domain.AdmissionActive)
		testutil.InsertMessage(t, ctx, pool, eventID, "user-b", "see you there")

		deleted, err := repo.DeleteEvent(ctx, eventID)
		if err != nil || !deleted {
			t.Fatalf("expected delete to match, got deleted=%v err=%v", deleted, err)
		}

		var count int
		if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM participants`).Scan(&count); err != nil || count != 0 {
			t.Fatalf("expected participants cascaded, count=%d err=%v", count, err)
		}
		if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count); err != nil || count != 0 {
			t.Fatalf("expected messages cascaded, count=%d err=%v", count, err)
		}

		deleted, err = repo.DeleteEvent(ctx, eventID)
		if err != nil || deleted {
			t.Fatalf("expected second delete to be a no-op, got deleted=%v err=%v", deleted, err)
		}
	})

	t.Run("ListEventsForUser dedupes the organizer's own events", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		organized := testutil.InsertEvent(t, ctx, pool, "user-a", "CODE0001", 10)
		testutil.InsertParticipant(t, ctx, pool, organized, "user-a", domain.AdmissionActive)
		joined := testutil.InsertEvent(t, ctx, pool, "org", "CODE0002", 10)
		testutil.InsertParticipant(t, ctx, pool, joined, "user-a", domain.AdmissionSubstitute)
		testutil.InsertEvent(t, ctx, pool, "someone-else", "CODE0003", 10)

		events, err := repo.ListEventsForUser(ctx, "user-a")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(events) != 2 {
			t.Fatalf("expected 2 events, got %d", len(events))
		}
		seen := map[string]bool{}
		for _, e := range events {
			seen[e.ID] = true
		}
		if !seen[organized] || !seen[joined] {
			t.Fatalf("expected organized and joined events, got %v", seen)
		}
	})
}
