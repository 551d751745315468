package realtime

import (
	"time"

	"github.com/ethantaylan/five-v2-sub000/internal/domain"
)

type snapshotEnvelope struct {
	Type         string               `json:"type"`
	Participants []participantPayload `json:"participants"`
	Guests       []guestPayload       `json:"guests"`
	Messages     []messagePayload     `json:"messages"`
}

type deltaEnvelope struct {
	Type   string `json:"type"`
	Stream Stream `json:"stream"`
	Kind   Kind   `json:"kind"`
	RowID  string `json:"row_id"`
	Row    any    `json:"row,omitempty"`
}

type participantPayload struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id"`
	UserID      string    `json:"user_id"`
	Class       string    `json:"class"`
	JoinedAt    time.Time `json:"joined_at"`
	DisplayName string    `json:"display_name"`
}

func participantPayloadFrom(p domain.ParticipantWithUser) participantPayload {
	return participantPayload{
		ID:          p.ID,
		EventID:     p.EventID,
		UserID:      p.UserID,
		Class:       string(p.Class),
		JoinedAt:    p.JoinedAt,
		DisplayName: p.DisplayName,
	}
}

type guestPayload struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name,omitempty"`
	AddedBy   string    `json:"added_by"`
	Class     string    `json:"class"`
	AddedAt   time.Time `json:"added_at"`
}

func guestPayloadFrom(g domain.GuestParticipant) guestPayload {
	return guestPayload{
		ID:        g.ID,
		EventID:   g.EventID,
		FirstName: g.FirstName,
		LastName:  g.LastName,
		AddedBy:   g.AddedBy,
		Class:     string(g.Class),
		AddedAt:   g.AddedAt,
	}
}

type messagePayload struct {
	ID         string    `json:"id"`
	EventID    string    `json:"event_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func messagePayloadFrom(m domain.MessageWithAuthor) messagePayload {
	return messagePayload{
		ID:         m.ID,
		EventID:    m.EventID,
		AuthorID:   m.AuthorID,
		AuthorName: m.AuthorName,
		Body:       m.Body,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}
