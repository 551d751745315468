package domain

import "time"

// Message is one entry in an event's chat thread.
type Message struct {
	ID        string
	EventID   string
	AuthorID  string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MessageWithAuthor carries the author's display name joined from the
// profile directory.
type MessageWithAuthor struct {
	Message
	AuthorName string
}

// UserProfile is the display-name directory row for a registered user.
// Identity itself lives with the external provider; this is only what the
// service needs to render participants and chat authors.
type UserProfile struct {
	ID          string
	DisplayName string
	UpdatedAt   time.Time
}
