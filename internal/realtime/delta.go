// Package realtime propagates ledger and chat mutations to connected
// viewers: services publish insert/delete deltas to a Redis-backed feed,
// and per-event hubs reconcile a local copy and fan the change out over
// websockets.
package realtime

type Stream string

const (
	StreamParticipants Stream = "participants"
	StreamGuests       Stream = "guests"
	StreamMessages     Stream = "messages"
)

type Kind string

const (
	KindInsert Kind = "insert"
	KindDelete Kind = "delete"
)

// Delta describes one row-level mutation scoped to a single event.
type Delta struct {
	Stream  Stream `json:"stream"`
	Kind    Kind   `json:"kind"`
	EventID string `json:"event_id"`
	RowID   string `json:"row_id"`
}
