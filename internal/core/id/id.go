// Package id provides identifier generation for receipts, sessions and receiving lines.
// UUIDv7 is time-ordered, allowing natural sorting by creation time.
package id

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// ID is a type alias for UUID, used for persisted documents.
type ID = uuid.UUID

// New generates a new UUIDv7 (time-ordered UUID).
func New() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to V4 if V7 fails (should never happen)
		return uuid.New()
	}
	return id
}

// Parse converts string to ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// MustParse converts string to ID, panics on error.
// Use only for constants and tests.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// Nil returns zero-value UUID.
func Nil() ID {
	return uuid.Nil
}

// IsNil checks if ID is zero-value.
func IsNil(id ID) bool {
	return id == uuid.Nil
}

// Generator produces identifiers that are unique within their scope.
type Generator interface {
	NewID() string
}

// UUIDGenerator issues UUIDv7 strings. Unique across sessions.
type UUIDGenerator struct{}

// NewID implements Generator.
func (UUIDGenerator) NewID() string {
	return New().String()
}

// Sequence issues monotonic identifiers scoped to one session ("L-0001", "L-0002", ...).
type Sequence struct {
	prefix string
	next   atomic.Int64
}

// NewSequence creates a sequence that starts after the given value.
// Pass the highest value already issued when resuming a restored session.
func NewSequence(prefix string, after int64) *Sequence {
	s := &Sequence{prefix: prefix}
	s.next.Store(after)
	return s
}

// NewID implements Generator.
func (s *Sequence) NewID() string {
	return fmt.Sprintf("%s-%04d", s.prefix, s.next.Add(1))
}

// Advance makes the next identifier follow at least the given value. Used when
// lines issued elsewhere are reloaded.
func (s *Sequence) Advance(after int64) {
	for {
		cur := s.next.Load()
		if cur >= after || s.next.CompareAndSwap(cur, after) {
			return
		}
	}
}

// SequenceValue extracts the numeric part of an identifier issued by a Sequence
// with the given prefix. Returns -1 for identifiers of any other shape.
func SequenceValue(prefix, s string) int64 {
	var n int64
	if _, err := fmt.Sscanf(s, prefix+"-%d", &n); err != nil {
		return -1
	}
	return n
}

// Ensure interface compliance at compile time.
var (
	_ Generator = UUIDGenerator{}
	_ Generator = (*Sequence)(nil)
)
