package session

import "errors"

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrMashupNotFound       = errors.New("mashup not found")
	ErrTooManyRetries       = errors.New("too many concurrent updates")
)
