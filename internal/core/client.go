package core

import "sync/atomic"

// ClientID identifies one connection for the lifetime of the process.
type ClientID int64

// Session is a connected client as seen by the core layer.
type Session struct {
	ID      ClientID
	TraceID string
	Events  chan *Event

	// room is read and written only by the hub loop.
	room    string
	closing atomic.Bool
}

// NewSession constructs a session with a buffered outbound queue.
func NewSession(id ClientID, traceID string, buffer int) *Session {
	if buffer <= 0 {
		buffer = 1
	}
	return &Session{
		ID:      id,
		TraceID: traceID,
		Events:  make(chan *Event, buffer),
	}
}

// MarkClosing stops further deliveries to the session. Safe to call from any goroutine.
func (s *Session) MarkClosing() {
	s.closing.Store(true)
}

// Writable reports whether the session still accepts deliveries.
func (s *Session) Writable() bool {
	return !s.closing.Load()
}
