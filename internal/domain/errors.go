package domain

import "errors"

var (
	ErrEventNotFound       = errors.New("event not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrGuestNotFound       = errors.New("guest not found")
	ErrMessageNotFound     = errors.New("message not found")
	ErrProfileNotFound     = errors.New("profile not found")
	ErrAlreadyJoined       = errors.New("already joined")
	ErrShareCodeTaken      = errors.New("share code taken")
	ErrNotOrganizer        = errors.New("requester is not the organizer")
	ErrEmptyMessage        = errors.New("message body is empty")
	ErrTitleRequired       = errors.New("title required")
	ErrGuestNameRequired   = errors.New("guest first name required")
	ErrInvalidCapacity     = errors.New("invalid capacity")
	ErrDisplayNameRequired = errors.New("display name required")
	ErrInvalidID           = errors.New("invalid id")
)
