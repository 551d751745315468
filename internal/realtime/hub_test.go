package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethantaylan/five-v2-sub000/internal/domain"
)

type fakeEventState struct {
	mu        sync.Mutex
	listCalls int
	listErr   error

	participants []domain.ParticipantWithUser
	guests       []domain.GuestParticipant
	messages     []domain.MessageWithAuthor
}

func (f *fakeEventState) ListParticipants(_ context.Context, _ string) ([]domain.ParticipantWithUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return f.participants, f.listErr
}

func (f *fakeEventState) ListGuests(_ context.Context, _ string) ([]domain.GuestParticipant, error) {
	return f.guests, f.listErr
}

func (f *fakeEventState) ListMessages(_ context.Context, _ string) ([]domain.MessageWithAuthor, error) {
	return f.messages, f.listErr
}

func (f *fakeEventState) GetParticipantWithUser(_ context.Context, id string) (domain.ParticipantWithUser, error) {
	for _, p := range f.participants {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.ParticipantWithUser{}, domain.ErrParticipantNotFound
}

func (f *fakeEventState) GetGuest(_ context.Context, _ string) (domain.GuestParticipant, error) {
	return domain.GuestParticipant{}, domain.ErrGuestNotFound
}

func (f *fakeEventState) GetMessageWithAuthor(_ context.Context, _ string) (domain.MessageWithAuthor, error) {
	return domain.MessageWithAuthor{}, domain.ErrMessageNotFound
}

type fakeSubscriber struct {
	mu         sync.Mutex
	subscribes int
	stops      int
	deltas     chan Delta
}

func (f *fakeSubscriber) Subscribe(_ context.Context, _ string) (<-chan Delta, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribes++
	f.deltas = make(chan Delta)
	deltas := f.deltas
	return deltas, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.stops++
		close(deltas)
	}
}

func newClientForTest() *client {
	return &client{send: make(chan []byte, sendBuffer)}
}

func TestHub_RoomLifecycle(t *testing.T) {
	t.Parallel()

	t.Run("attach reuses the room and seeds once", func(t *testing.T) {
		state := &fakeEventState{}
		feed := &fakeSubscriber{}
		h := NewHub(feed, state, nil)

		c1 := newClientForTest()
		rm1 := h.attach("event-1", c1)
		if err := rm1.ensureSeeded(h); err != nil {
			t.Fatalf("seed: %v", err)
		}

		c2 := newClientForTest()
		rm2 := h.attach("event-1", c2)
		if rm2 != rm1 {
			t.Fatalf("expected the second client to share the room")
		}
		if err := rm2.ensureSeeded(h); err != nil {
			t.Fatalf("seed: %v", err)
		}

		if state.listCalls != 1 {
			t.Fatalf("expected one snapshot load, got %d", state.listCalls)
		}
		if feed.subscribes != 1 {
			t.Fatalf("expected one feed subscription, got %d", feed.subscribes)
		}

		h.release(rm1, c1)
		h.release(rm1, c2)
	})

	t.Run("release keeps the room while clients remain", func(t *testing.T) {
		state := &fakeEventState{}
		feed := &fakeSubscriber{}
		h := NewHub(feed, state, nil)

		c1 := newClientForTest()
		rm := h.attach("event-1", c1)
		if err := rm.ensureSeeded(h); err != nil {
			t.Fatalf("seed: %v", err)
		}
		c2 := newClientForTest()
		h.attach("event-1", c2)

		h.release(rm, c1)
		if h.rooms["event-1"] != rm {
			t.Fatalf("room with an attached client was evicted from the hub")
		}

		h.release(rm, c2)
		if _, ok := h.rooms["event-1"]; ok {
			t.Fatalf("expected empty room to be evicted")
		}
		if feed.stops != 1 {
			t.Fatalf("expected the feed subscription to be stopped, got %d stops", feed.stops)
		}
	})

	t.Run("stale release does not evict the replacement room", func(t *testing.T) {
		state := &fakeEventState{}
		feed := &fakeSubscriber{}
		h := NewHub(feed, state, nil)

		straggler := newClientForTest()
		rm1 := h.attach("event-1", straggler)
		if err := rm1.ensureSeeded(h); err != nil {
			t.Fatalf("seed: %v", err)
		}
		h.release(rm1, straggler)
		if _, ok := h.rooms["event-1"]; ok {
			t.Fatalf("expected first room to be evicted")
		}

		c := newClientForTest()
		rm2 := h.attach("event-1", c)
		if err := rm2.ensureSeeded(h); err != nil {
			t.Fatalf("seed: %v", err)
		}

		// A disconnect carrying the earlier generation's room pointer.
		h.release(rm1, newClientForTest())

		if h.rooms["event-1"] != rm2 {
			t.Fatalf("live room with an attached client was evicted from the hub")
		}
		if h.attach("event-1", newClientForTest()) != rm2 {
			t.Fatalf("expected new clients to join the live room, not fork a third")
		}

		h.release(rm2, c)
	})

	t.Run("seed failure leaves the hub clean for a retry", func(t *testing.T) {
		state := &fakeEventState{listErr: errors.New("db down")}
		feed := &fakeSubscriber{}
		h := NewHub(feed, state, nil)

		c := newClientForTest()
		rm := h.attach("event-1", c)
		if err := rm.ensureSeeded(h); err == nil {
			t.Fatalf("expected seed error")
		}
		if feed.subscribes != 0 {
			t.Fatalf("expected no subscription after a failed seed")
		}
		h.release(rm, c)
		if _, ok := h.rooms["event-1"]; ok {
			t.Fatalf("expected failed room to be evicted")
		}

		state.mu.Lock()
		state.listErr = nil
		state.mu.Unlock()

		c2 := newClientForTest()
		rm2 := h.attach("event-1", c2)
		if rm2 == rm {
			t.Fatalf("expected a fresh room after the failed seed")
		}
		if err := rm2.ensureSeeded(h); err != nil {
			t.Fatalf("expected retry to seed, got %v", err)
		}
		h.release(rm2, c2)
	})
}

func TestHub_BroadcastsAppliedDeltas(t *testing.T) {
	t.Parallel()

	state := &fakeEventState{
		participants: []domain.ParticipantWithUser{
			{Participant: domain.Participant{ID: "p9", EventID: "event-1", UserID: "user-b"}, DisplayName: "Bruno"},
		},
	}
	feed := &fakeSubscriber{}
	h := NewHub(feed, state, nil)

	c := newClientForTest()
	rm := h.attach("event-1", c)
	if err := rm.ensureSeeded(h); err != nil {
		t.Fatalf("seed: %v", err)
	}
	defer h.release(rm, c)

	// The seed already knows p9: a duplicate insert must not fan out.
	feed.deltas <- Delta{Stream: StreamParticipants, Kind: KindInsert, EventID: "event-1", RowID: "p9"}
	feed.deltas <- Delta{Stream: StreamParticipants, Kind: KindDelete, EventID: "event-1", RowID: "p9"}

	select {
	case payload := <-c.send:
		if len(payload) == 0 {
			t.Fatalf("expected a delta payload")
		}
	case <-time.After(time.Second):
		t.Fatalf("expected the delete delta to reach the client")
	}

	select {
	case payload := <-c.send:
		t.Fatalf("expected exactly one fan-out, got a second payload %s", payload)
	default:
	}
}
