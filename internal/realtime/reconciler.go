package realtime

import (
	"context"
	"sync"
)

// Reconciler keeps an ordered local copy of one event's rows and applies
// insert/delete deltas without refetching the whole set. Inserts are
// de-duplicated by row id: an insert notification may race with the
// optimistic local append made by the mutation that caused it.
type Reconciler[T any] struct {
	idOf  func(T) string
	fetch func(ctx context.Context, rowID string) (T, error)

	mu      sync.Mutex
	rows    []T
	present map[string]struct{}
}

func NewReconciler[T any](idOf func(T) string, fetch func(ctx context.Context, rowID string) (T, error)) *Reconciler[T] {
	return &Reconciler[T]{
		idOf:    idOf,
		fetch:   fetch,
		present: make(map[string]struct{}),
	}
}

// Seed replaces the local sequence with an initial load.
func (r *Reconciler[T]) Seed(rows []T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append([]T(nil), rows...)
	r.present = make(map[string]struct{}, len(rows))
	for _, row := range rows {
		r.present[r.idOf(row)] = struct{}{}
	}
}

// ApplyInsert fetches the enriched row and appends it unless the id is
// already present. On fetch failure the sequence is left unchanged.
func (r *Reconciler[T]) ApplyInsert(ctx context.Context, rowID string) (T, bool, error) {
	var zero T
	if r.has(rowID) {
		return zero, false, nil
	}

	row, err := r.fetch(ctx, rowID)
	if err != nil {
		return zero, false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.present[rowID]; ok {
		return zero, false, nil
	}
	r.rows = append(r.rows, row)
	r.present[rowID] = struct{}{}
	return row, true, nil
}

// ApplyDelete removes the row with the given id; removing an unknown id is
// a no-op.
func (r *Reconciler[T]) ApplyDelete(rowID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.present[rowID]; !ok {
		return false
	}
	delete(r.present, rowID)
	for i, row := range r.rows {
		if r.idOf(row) == rowID {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			break
		}
	}
	return true
}

// Rows returns a copy of the current sequence in arrival order.
func (r *Reconciler[T]) Rows() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.rows...)
}

func (r *Reconciler[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

func (r *Reconciler[T]) has(rowID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.present[rowID]
	return ok
}
