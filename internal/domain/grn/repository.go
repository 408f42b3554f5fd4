package grn

import (
	"context"

	"stockroom/internal/core/id"
)

// Repository defines storage operations for goods-received notes.
type Repository interface {
	// Create inserts the header and lines. Called inside a transaction.
	Create(ctx context.Context, note *Note) error
	GetByID(ctx context.Context, noteID id.ID) (*Note, error)
	GetLines(ctx context.Context, noteID id.ID) ([]Line, error)
}
