package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeRoomRequired = "room_required"
)

var (
	// ErrHubStopped is returned by hub calls made after Run has returned.
	ErrHubStopped = errors.New("hub stopped")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
