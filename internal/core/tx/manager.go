// Package tx lets domain services group writes without knowing the database.
package tx

import (
	"context"
)

// Manager runs fn as one unit of work. If fn returns an error nothing it
// wrote is kept. Nested calls join the unit already in ctx.
//
// The postgres implementation lives in infrastructure/storage/postgres.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoopManager runs fn directly. Used by the in-memory backend, which has
// nothing to commit or roll back.
type NoopManager struct{}

// RunInTransaction implements Manager.
func (NoopManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
