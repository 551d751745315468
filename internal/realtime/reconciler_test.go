package realtime

import (
	"context"
	"errors"
	"testing"
)

type row struct {
	ID   string
	Name string
}

func newTestReconciler(store map[string]row) (*Reconciler[row], *int) {
	fetches := 0
	r := NewReconciler(
		func(r row) string { return r.ID },
		func(_ context.Context, rowID string) (row, error) {
			fetches++
			stored, ok := store[rowID]
			if !ok {
				return row{}, errors.New("row not found")
			}
			return stored, nil
		},
	)
	return r, &fetches
}

func TestReconciler_ApplyInsert(t *testing.T) {
	t.Parallel()

	t.Run("fetches and appends a new row", func(t *testing.T) {
		store := map[string]row{"r2": {ID: "r2", Name: "two"}}
		r, fetches := newTestReconciler(store)
		r.Seed([]row{{ID: "r1", Name: "one"}})

		inserted, ok, err := r.ApplyInsert(context.Background(), "r2")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !ok || inserted.Name != "two" {
			t.Fatalf("expected enriched row appended, got ok=%v row=%+v", ok, inserted)
		}
		if *fetches != 1 {
			t.Fatalf("expected one fetch, got %d", *fetches)
		}

		rows := r.Rows()
		if len(rows) != 2 || rows[0].ID != "r1" || rows[1].ID != "r2" {
			t.Fatalf("expected arrival order [r1 r2], got %+v", rows)
		}
	})

	t.Run("duplicate insert is suppressed without a fetch", func(t *testing.T) {
		store := map[string]row{"r1": {ID: "r1", Name: "one"}}
		r, fetches := newTestReconciler(store)
		r.Seed([]row{{ID: "r1", Name: "one"}})

		_, ok, err := r.ApplyInsert(context.Background(), "r1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if ok {
			t.Fatalf("expected duplicate to be suppressed")
		}
		if *fetches != 0 {
			t.Fatalf("expected no fetch for a known id, got %d", *fetches)
		}
		if r.Len() != 1 {
			t.Fatalf("expected sequence unchanged, got %d rows", r.Len())
		}
	})

	t.Run("fetch failure leaves the sequence unchanged", func(t *testing.T) {
		r, _ := newTestReconciler(map[string]row{})
		r.Seed([]row{{ID: "r1"}})

		_, ok, err := r.ApplyInsert(context.Background(), "missing")
		if err == nil {
			t.Fatalf("expected fetch error")
		}
		if ok {
			t.Fatalf("expected no append on fetch failure")
		}
		if r.Len() != 1 {
			t.Fatalf("expected sequence unchanged, got %d rows", r.Len())
		}
	})
}

func TestReconciler_ApplyDelete(t *testing.T) {
	t.Parallel()

	r, _ := newTestReconciler(nil)
	r.Seed([]row{{ID: "r1"}, {ID: "r2"}, {ID: "r3"}})

	if !r.ApplyDelete("r2") {
		t.Fatalf("expected delete of a known id to report true")
	}
	rows := r.Rows()
	if len(rows) != 2 || rows[0].ID != "r1" || rows[1].ID != "r3" {
		t.Fatalf("expected [r1 r3], got %+v", rows)
	}

	if r.ApplyDelete("r2") {
		t.Fatalf("expected second delete of the same id to be a no-op")
	}
	if r.ApplyDelete("unknown") {
		t.Fatalf("expected delete of an unknown id to be a no-op")
	}
	if r.Len() != 2 {
		t.Fatalf("expected 2 rows after no-op deletes, got %d", r.Len())
	}
}

func TestReconciler_SeedResets(t *testing.T) {
	t.Parallel()

	store := map[string]row{"r9": {ID: "r9"}}
	r, _ := newTestReconciler(store)
	r.Seed([]row{{ID: "r1"}, {ID: "r2"}})
	r.Seed([]row{{ID: "r9"}})

	if r.Len() != 1 {
		t.Fatalf("expected reseed to replace the sequence, got %d rows", r.Len())
	}
	if !r.ApplyDelete("r9") {
		t.Fatalf("expected reseeded id to be present")
	}
	if r.ApplyDelete("r1") {
		t.Fatalf("expected pre-reseed id to be gone")
	}
}
