package utils

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Sequence hands out strictly increasing identifiers starting at 1.
// The zero value is ready to use and safe for concurrent callers.
type Sequence struct {
	last atomic.Int64
}

// Next returns the next identifier. Identifiers are never reused.
func (s *Sequence) Next() int64 {
	return s.last.Add(1)
}

// NewTraceID returns a random identifier used to correlate log lines of one connection.
func NewTraceID() string {
	return uuid.NewString()
}
