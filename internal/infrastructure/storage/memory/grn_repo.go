// Package memory provides in-process repositories for running without a database.
package memory

import (
	"context"
	"sync"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/id"
	"stockroom/internal/domain/grn"
)

// GRNRepo keeps goods-received notes in memory.
type GRNRepo struct {
	mu       sync.RWMutex
	notes    map[id.ID]grn.Note
	byNumber map[string]id.ID
}

var _ grn.Repository = (*GRNRepo)(nil)

// NewGRNRepo creates an empty repository.
func NewGRNRepo() *GRNRepo {
	return &GRNRepo{
		notes:    make(map[id.ID]grn.Note),
		byNumber: make(map[string]id.ID),
	}
}

// Create stores a note and its lines.
func (r *GRNRepo) Create(_ context.Context, note *grn.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byNumber[note.Number]; exists {
		return apperror.NewDuplicate("goods received note", "number", note.Number)
	}

	stored := *note
	stored.Lines = append([]grn.Line(nil), note.Lines...)
	r.notes[note.ID] = stored
	r.byNumber[note.Number] = note.ID
	return nil
}

// GetByID returns a note header without lines.
func (r *GRNRepo) GetByID(_ context.Context, noteID id.ID) (*grn.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.notes[noteID]
	if !ok {
		return nil, apperror.NewNotFound("goods received note", noteID.String())
	}
	stored.Lines = nil
	return &stored, nil
}

// GetLines returns a note's lines in line order.
func (r *GRNRepo) GetLines(_ context.Context, noteID id.ID) ([]grn.Line, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.notes[noteID]
	if !ok {
		return nil, apperror.NewNotFound("goods received note", noteID.String())
	}
	return append([]grn.Line(nil), stored.Lines...), nil
}
