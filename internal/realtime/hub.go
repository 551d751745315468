package realtime

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/ethantaylan/five-v2-sub000/internal/domain"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
)

// EventState loads and enriches the rows a room needs: the initial snapshot
// on first subscribe, and single-row fetches after insert notifications.
type EventState interface {
	ListParticipants(ctx context.Context, eventID string) ([]domain.ParticipantWithUser, error)
	ListGuests(ctx context.Context, eventID string) ([]domain.GuestParticipant, error)
	ListMessages(ctx context.Context, eventID string) ([]domain.MessageWithAuthor, error)
	GetParticipantWithUser(ctx context.Context, participantID string) (domain.ParticipantWithUser, error)
	GetGuest(ctx context.Context, guestID string) (domain.GuestParticipant, error)
	GetMessageWithAuthor(ctx context.Context, messageID string) (domain.MessageWithAuthor, error)
}

// Subscriber is the feed side the hub consumes. Satisfied by *Feed.
type Subscriber interface {
	Subscribe(ctx context.Context, eventID string) (<-chan Delta, func())
}

// Hub owns one room per viewed event. A room keeps a reconciled local copy
// of the event's participants, guests and messages, and fans deltas out to
// its websocket clients. The room and its local state are discarded when
// the last client leaves.
type Hub struct {
	feed     Subscriber
	state    EventState
	logger   *log.Logger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	rooms map[string]*room
}

func NewHub(feed Subscriber, state EventState, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		feed:   feed,
		state:  state,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		rooms: make(map[string]*room),
	}
}

type room struct {
	eventID string
	ctx     context.Context
	cancel  context.CancelFunc
	stop    func()

	seedOnce sync.Once
	seedErr  error

	mu      sync.Mutex
	clients map[*client]struct{}

	participants *Reconciler[domain.ParticipantWithUser]
	guests       *Reconciler[domain.GuestParticipant]
	messages     *Reconciler[domain.MessageWithAuthor]
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// ServeWS attaches the viewer to the event's room and upgrades the request.
// It blocks until the client disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, eventID string) {
	c := &client{send: make(chan []byte, sendBuffer)}
	rm := h.attach(eventID, c)

	if err := rm.ensureSeeded(h); err != nil {
		h.release(rm, c)
		h.logger.Printf("realtime: open room for %s: %v", eventID, err)
		http.Error(w, "event not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.release(rm, c)
		return
	}
	c.conn = conn
	defer h.release(rm, c)

	if payload, err := json.Marshal(rm.snapshot()); err == nil {
		c.send <- payload
	}

	go c.writePump()
	c.readPump()
}

// attach registers the client and resolves its room under one hub lock, so
// a concurrent release of the room's last client cannot tear the room down
// between resolution and registration.
func (h *Hub) attach(eventID string, c *client) *room {
	h.mu.Lock()
	defer h.mu.Unlock()

	rm, ok := h.rooms[eventID]
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		rm = &room{
			eventID: eventID,
			ctx:     ctx,
			cancel:  cancel,
			clients: make(map[*client]struct{}),
			participants: NewReconciler(
				func(p domain.ParticipantWithUser) string { return p.ID },
				func(ctx context.Context, id string) (domain.ParticipantWithUser, error) {
					return h.state.GetParticipantWithUser(ctx, id)
				},
			),
			guests: NewReconciler(
				func(g domain.GuestParticipant) string { return g.ID },
				func(ctx context.Context, id string) (domain.GuestParticipant, error) {
					return h.state.GetGuest(ctx, id)
				},
			),
			messages: NewReconciler(
				func(m domain.MessageWithAuthor) string { return m.ID },
				func(ctx context.Context, id string) (domain.MessageWithAuthor, error) {
					return h.state.GetMessageWithAuthor(ctx, id)
				},
			),
		}
		h.rooms[eventID] = rm
	}
	rm.add(c)
	return rm
}

// ensureSeeded loads the initial snapshot and opens the feed subscription
// exactly once per room, outside the hub lock so one slow event load does
// not stall room resolution for every other event.
func (rm *room) ensureSeeded(h *Hub) error {
	rm.seedOnce.Do(func() {
		if err := rm.seed(rm.ctx, h.state); err != nil {
			rm.seedErr = err
			return
		}
		deltas, stop := h.feed.Subscribe(rm.ctx, rm.eventID)
		rm.stop = stop
		go h.run(rm.ctx, rm, deltas)
	})
	return rm.seedErr
}

func (h *Hub) release(rm *room, c *client) {
	rm.remove(c)

	h.mu.Lock()
	defer h.mu.Unlock()
	// Only the room currently registered for the event may be evicted; a
	// stale pointer from an earlier generation must not tear down its
	// replacement.
	if h.rooms[rm.eventID] != rm || !rm.empty() {
		return
	}
	rm.cancel()
	if rm.stop != nil {
		rm.stop()
	}
	delete(h.rooms, rm.eventID)
}

func (h *Hub) run(ctx context.Context, rm *room, deltas <-chan Delta) {
	for delta := range deltas {
		row, applied, err := rm.apply(ctx, delta)
		if err != nil {
			// Post-notification fetch failed; the local copy stays as it
			// was rather than gaining a malformed entry.
			h.logger.Printf("realtime: apply %s %s on %s: %v", delta.Kind, delta.Stream, rm.eventID, err)
			continue
		}
		if !applied {
			continue
		}

		payload, err := json.Marshal(deltaEnvelope{
			Type:   "delta",
			Stream: delta.Stream,
			Kind:   delta.Kind,
			RowID:  delta.RowID,
			Row:    row,
		})
		if err != nil {
			h.logger.Printf("realtime: marshal delta: %v", err)
			continue
		}
		rm.broadcast(payload)
	}
}

func (rm *room) seed(ctx context.Context, state EventState) error {
	participants, err := state.ListParticipants(ctx, rm.eventID)
	if err != nil {
		return err
	}
	guests, err := state.ListGuests(ctx, rm.eventID)
	if err != nil {
		return err
	}
	messages, err := state.ListMessages(ctx, rm.eventID)
	if err != nil {
		return err
	}
	rm.participants.Seed(participants)
	rm.guests.Seed(guests)
	rm.messages.Seed(messages)
	return nil
}

// apply routes a delta to the matching reconciler. For inserts it returns
// the enriched row for fan-out.
func (rm *room) apply(ctx context.Context, delta Delta) (any, bool, error) {
	switch delta.Kind {
	case KindInsert:
		switch delta.Stream {
		case StreamParticipants:
			row, ok, err := rm.participants.ApplyInsert(ctx, delta.RowID)
			return participantPayloadFrom(row), ok, err
		case StreamGuests:
			row, ok, err := rm.guests.ApplyInsert(ctx, delta.RowID)
			return guestPayloadFrom(row), ok, err
		case StreamMessages:
			row, ok, err := rm.messages.ApplyInsert(ctx, delta.RowID)
			return messagePayloadFrom(row), ok, err
		}
	case KindDelete:
		switch delta.Stream {
		case StreamParticipants:
			return nil, rm.participants.ApplyDelete(delta.RowID), nil
		case StreamGuests:
			return nil, rm.guests.ApplyDelete(delta.RowID), nil
		case StreamMessages:
			return nil, rm.messages.ApplyDelete(delta.RowID), nil
		}
	}
	return nil, false, nil
}

func (rm *room) snapshot() snapshotEnvelope {
	env := snapshotEnvelope{
		Type:         "snapshot",
		Participants: []participantPayload{},
		Guests:       []guestPayload{},
		Messages:     []messagePayload{},
	}
	for _, p := range rm.participants.Rows() {
		env.Participants = append(env.Participants, participantPayloadFrom(p))
	}
	for _, g := range rm.guests.Rows() {
		env.Guests = append(env.Guests, guestPayloadFrom(g))
	}
	for _, m := range rm.messages.Rows() {
		env.Messages = append(env.Messages, messagePayloadFrom(m))
	}
	return env
}

func (rm *room) add(c *client) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.clients[c] = struct{}{}
}

func (rm *room) remove(c *client) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if _, ok := rm.clients[c]; ok {
		delete(rm.clients, c)
		close(c.send)
	}
}

func (rm *room) empty() bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return len(rm.clients) == 0
}

func (rm *room) broadcast(payload []byte) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	for c := range rm.clients {
		select {
		case c.send <- payload:
		default:
			// Slow consumer; drop it rather than stall the room.
			delete(rm.clients, c)
			close(c.send)
		}
	}
}

func (c *client) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		// The stream is server-to-client; reads only surface pongs and
		// disconnects.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
