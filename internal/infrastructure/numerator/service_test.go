package numerator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corenumerator "stockroom/internal/core/numerator"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates sys_sequences for a single key: strict calls pass
// (key), cached calls pass (key, increment).
type mockQuerier struct {
	mu           sync.Mutex
	currentValue int64
	calls        int
	err          error
}

func (m *mockQuerier) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return &mockRow{err: m.err}
	}

	var increment int64 = 1
	if len(args) == 2 {
		if val, ok := args[1].(int64); ok {
			increment = val
		}
	}

	m.currentValue += increment
	return &mockRow{val: m.currentValue}
}

var period = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

func TestGetNextNumber_Strict(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("GRN")

	num, err := svc.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "GRN-2025-00001", num)

	num, err = svc.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "GRN-2025-00002", num)
	assert.Equal(t, 2, q.calls)
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("ORD")
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10}

	// First call reserves 1..10.
	num, err := svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "ORD-2025-00001", num)
	assert.Equal(t, int64(10), q.currentValue)

	num, err = svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "ORD-2025-00002", num)
	assert.Equal(t, 1, q.calls)

	for i := 0; i < 8; i++ {
		_, err := svc.GetNextNumber(ctx, cfg, opts, period)
		require.NoError(t, err)
	}

	// Range exhausted: next call reserves 11..20.
	num, err = svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "ORD-2025-00011", num)
	assert.Equal(t, int64(20), q.currentValue)
	assert.Equal(t, 2, q.calls)
}

func TestGetNextNumber_Error(t *testing.T) {
	q := &mockQuerier{err: errors.New("connection reset")}
	svc := New(q)

	_, err := svc.GetNextNumber(context.Background(), corenumerator.DefaultConfig("GRN"), nil, period)
	assert.ErrorContains(t, err, "connection reset")
}

func TestNewWithSource_ResolvesPerCall(t *testing.T) {
	a, b := &mockQuerier{}, &mockQuerier{}
	type key struct{}

	svc := NewWithSource(func(ctx context.Context) Querier {
		if ctx.Value(key{}) != nil {
			return b
		}
		return a
	})
	cfg := corenumerator.DefaultConfig("GRN")

	_, err := svc.GetNextNumber(context.Background(), cfg, nil, period)
	require.NoError(t, err)
	_, err = svc.GetNextNumber(context.WithValue(context.Background(), key{}, true), cfg, nil, period)
	require.NoError(t, err)

	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}
