package numerator

import (
	"context"
	"sync"
	"time"

	corenumerator "stockroom/internal/core/numerator"
)

// Local numbers documents from in-process counters. Used when no database is
// configured; counters start over on restart.
type Local struct {
	mu       sync.Mutex
	counters map[string]int64
}

var _ corenumerator.Generator = (*Local)(nil)

// NewLocal creates an in-process numerator.
func NewLocal() *Local {
	return &Local{counters: make(map[string]int64)}
}

// GetNextNumber implements corenumerator.Generator. Strategy is ignored, every
// number comes from the same gapless counter.
func (l *Local) GetNextNumber(_ context.Context, cfg corenumerator.Config, _ *corenumerator.Options, period time.Time) (string, error) {
	key := cfg.Key(period)

	l.mu.Lock()
	l.counters[key]++
	num := l.counters[key]
	l.mu.Unlock()

	return cfg.Format(period, num), nil
}

// SetNextNumber implements corenumerator.Generator.
func (l *Local) SetNextNumber(_ context.Context, cfg corenumerator.Config, period time.Time, value int64) error {
	key := cfg.Key(period)

	l.mu.Lock()
	l.counters[key] = value
	l.mu.Unlock()
	return nil
}
