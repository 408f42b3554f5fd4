package receipt

import (
	"context"
	"encoding/json"
	"fmt"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/types"
	"stockroom/internal/domain/receiving"
	"stockroom/pkg/logger"
)

// KeyValueStore persists opaque session values.
// Implementations live in the infrastructure layer (memory, Redis, PostgreSQL).
type KeyValueStore interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	// Clear deletes the keys. Missing keys are ignored.
	Clear(ctx context.Context, keys ...string) error
}

// HeaderKey is the persistence key of a session header.
func HeaderKey(sessionID string) string {
	return fmt.Sprintf("receipt:%s:header", sessionID)
}

// LinesKey is the persistence key of a session's lines.
func LinesKey(sessionID string) string {
	return fmt.Sprintf("receipt:%s:lines", sessionID)
}

// Snapshot is the serialized form of a session exactly as persisted.
type Snapshot struct {
	Header []byte
	Lines  []byte
}

// SessionStore holds the header and ordered lines of one receipt session and
// mirrors every change to a KeyValueStore. A change that cannot be persisted
// is rolled back, so memory never runs ahead of storage.
//
// SessionStore is not safe for concurrent use; the service serializes access.
type SessionStore struct {
	sessionID string
	kv        KeyValueStore
	today     func() types.Date

	header Header
	lines  []receiving.ReceivingLine
}

// NewSessionStore creates an empty session. Nothing is persisted until the
// first mutation.
func NewSessionStore(sessionID string, kv KeyValueStore, today func() types.Date) *SessionStore {
	if today == nil {
		today = types.Today
	}
	return &SessionStore{
		sessionID: sessionID,
		kv:        kv,
		today:     today,
		header:    DefaultHeader(today()),
		lines:     []receiving.ReceivingLine{},
	}
}

func (s *SessionStore) SessionID() string { return s.sessionID }

func (s *SessionStore) Header() Header { return s.header }

// Lines returns deep copies of the lines in insertion order.
func (s *SessionStore) Lines() []receiving.ReceivingLine {
	out := make([]receiving.ReceivingLine, len(s.lines))
	for i, l := range s.lines {
		out[i] = l.Clone()
	}
	return out
}

// Len returns the number of lines.
func (s *SessionStore) Len() int { return len(s.lines) }

// AddLine appends a line and persists the session.
func (s *SessionStore) AddLine(ctx context.Context, line receiving.ReceivingLine) error {
	for _, l := range s.lines {
		if l.LineID == line.LineID {
			return apperror.NewDuplicate("receiving line", "lineId", line.LineID)
		}
	}

	prev := s.lines
	s.lines = append(append(make([]receiving.ReceivingLine, 0, len(prev)+1), prev...), line.Clone())

	if err := s.Persist(ctx); err != nil {
		s.lines = prev
		return err
	}
	return nil
}

// RemoveLine removes the line with the given id and persists the session.
func (s *SessionStore) RemoveLine(ctx context.Context, lineID string) error {
	idx := -1
	for i, l := range s.lines {
		if l.LineID == lineID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return apperror.NewNotFound("receiving line", lineID)
	}

	prev := s.lines
	next := make([]receiving.ReceivingLine, 0, len(prev)-1)
	next = append(next, prev[:idx]...)
	next = append(next, prev[idx+1:]...)
	s.lines = next

	if err := s.Persist(ctx); err != nil {
		s.lines = prev
		return err
	}
	return nil
}

// UpdateHeader merges the patch into the header and persists the session.
func (s *SessionStore) UpdateHeader(ctx context.Context, patch HeaderPatch) (Header, error) {
	prev := s.header
	s.header = s.header.Apply(patch)

	if err := s.Persist(ctx); err != nil {
		s.header = prev
		return prev, err
	}
	return s.header, nil
}

// Clear empties the lines, resets the header and deletes the persisted keys.
func (s *SessionStore) Clear(ctx context.Context) error {
	if err := s.kv.Clear(ctx, HeaderKey(s.sessionID), LinesKey(s.sessionID)); err != nil {
		return apperror.NewStorage(err)
	}
	s.header = DefaultHeader(s.today())
	s.lines = []receiving.ReceivingLine{}
	return nil
}

// Snapshot serializes the session.
func (s *SessionStore) Snapshot() (Snapshot, error) {
	header, err := json.Marshal(s.header)
	if err != nil {
		return Snapshot{}, fmt.Errorf("marshal header: %w", err)
	}
	lines, err := json.Marshal(s.lines)
	if err != nil {
		return Snapshot{}, fmt.Errorf("marshal lines: %w", err)
	}
	return Snapshot{Header: header, Lines: lines}, nil
}

// Persist writes both keys. Every mutation goes through it so the header and
// lines keys always carry the same expiry.
func (s *SessionStore) Persist(ctx context.Context) error {
	snap, err := s.Snapshot()
	if err != nil {
		return apperror.NewInternal(err)
	}
	if err := s.kv.Set(ctx, HeaderKey(s.sessionID), snap.Header); err != nil {
		return apperror.NewStorage(err)
	}
	if err := s.kv.Set(ctx, LinesKey(s.sessionID), snap.Lines); err != nil {
		return apperror.NewStorage(err)
	}
	return nil
}

// Restore loads the session from the store. It reports false when nothing
// was persisted, leaving the session at its defaults. A snapshot with only
// one of its two keys has partly expired or was torn by a failed write; it is
// deleted and reported as missing rather than restored with empty parts.
func (s *SessionStore) Restore(ctx context.Context) (bool, error) {
	headerData, headerOK, err := s.kv.Get(ctx, HeaderKey(s.sessionID))
	if err != nil {
		return false, apperror.NewStorage(err)
	}
	linesData, linesOK, err := s.kv.Get(ctx, LinesKey(s.sessionID))
	if err != nil {
		return false, apperror.NewStorage(err)
	}
	if !headerOK && !linesOK {
		return false, nil
	}
	if headerOK != linesOK {
		logger.Warn(ctx, "discarding incomplete session snapshot",
			"session_id", s.sessionID,
			"has_header", headerOK,
			"has_lines", linesOK)
		if err := s.kv.Clear(ctx, HeaderKey(s.sessionID), LinesKey(s.sessionID)); err != nil {
			return false, apperror.NewStorage(err)
		}
		return false, nil
	}

	header := DefaultHeader(s.today())
	if err := json.Unmarshal(headerData, &header); err != nil {
		return false, apperror.NewInternal(fmt.Errorf("decode session header: %w", err))
	}

	lines := []receiving.ReceivingLine{}
	if err := json.Unmarshal(linesData, &lines); err != nil {
		return false, apperror.NewInternal(fmt.Errorf("decode session lines: %w", err))
	}
	if lines == nil {
		lines = []receiving.ReceivingLine{}
	}

	s.header = header
	s.lines = lines
	return true, nil
}
