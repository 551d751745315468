package domain

import "time"

type AdmissionClass string

const (
	AdmissionActive     AdmissionClass = "active"
	AdmissionSubstitute AdmissionClass = "substitute"
)

// Participant links a registered user to an event. The admission class is
// fixed at join time and never revised while the row exists; the only way
// from substitute to active is leave and rejoin.
type Participant struct {
	ID       string
	EventID  string
	UserID   string
	Class    AdmissionClass
	JoinedAt time.Time
}

// GuestParticipant is an organizer-added attendee without an account. Two
// guests with the same name are distinct rows.
type GuestParticipant struct {
	ID        string
	EventID   string
	FirstName string
	LastName  string
	AddedBy   string
	Class     AdmissionClass
	AddedAt   time.Time
}

// ParticipantWithUser carries the denormalized display name joined from the
// profile directory.
type ParticipantWithUser struct {
	Participant
	DisplayName string
}
