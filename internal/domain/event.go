package domain

import "time"

// Event is the aggregate root: a scheduled capacity-bounded match ("five").
// Participants, guests and messages belong to exactly one event and are
// removed with it.
type Event struct {
	ID          string
	Title       string
	Description string
	Location    string
	StartsAt    time.Time
	Duration    time.Duration
	Capacity    int
	OrganizerID string
	ShareCode   string
	GroupID     *string
	CreatedAt   time.Time
}
