package receipt

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/id"
	"stockroom/internal/core/types"
	"stockroom/internal/domain/receiving"
)

var testToday = types.MustDate("2025-06-15")

func fixedToday() types.Date { return testToday }

// fakeKV is an in-memory KeyValueStore whose writes can be made to fail.
type fakeKV struct {
	mu      sync.Mutex
	data    map[string][]byte
	failSet bool
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string][]byte)}
}

func (f *fakeKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return append([]byte(nil), v...), ok, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSet {
		return errors.New("disk full")
	}
	f.data[key] = append([]byte(nil), value...)
	return nil
}

func (f *fakeKV) Clear(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeKV) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok
}

// expiringKV expires each key ttl after its last write, like the Redis and
// memory backends. The clock is advanced by tests.
type expiringKV struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     time.Time
	data    map[string][]byte
	expires map[string]time.Time
}

func newExpiringKV(ttl time.Duration) *expiringKV {
	return &expiringKV{
		ttl:     ttl,
		now:     time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC),
		data:    make(map[string][]byte),
		expires: make(map[string]time.Time),
	}
}

func (f *expiringKV) advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func (f *expiringKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok || !f.now.Before(f.expires[key]) {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (f *expiringKV) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = append([]byte(nil), value...)
	f.expires[key] = f.now.Add(f.ttl)
	return nil
}

func (f *expiringKV) Clear(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
		delete(f.expires, k)
	}
	return nil
}

func testLineInput(itemRef string) receiving.ReceivingLineInput {
	return receiving.ReceivingLineInput{
		ItemRef:           itemRef,
		BuyingPrice:       types.MustMoney("100"),
		Units:             10,
		ItemsPerUnit:      12,
		FreeUnits:         5,
		RejectedUnits:     3,
		BilledUnpaidUnits: 20,
		SellingPrice:      types.MustMoney("1000"),
		Wholesale:         receiving.Wholesale{Enabled: true, MinQty: 20, TotalPrice: types.MustMoney("15000")},
		BatchNumber:       "B-77",
		ManufactureDate:   types.MustDate("2025-05-01"),
		ExpiryDate:        types.MustDate("2027-05-01"),
		ReceivedDate:      testToday,
		Comments:          "dented carton",
	}
}

func testLine(t *testing.T, gen id.Generator, itemRef string) receiving.ReceivingLine {
	t.Helper()
	in := testLineInput(itemRef)
	fig := receiving.Recompute(in, testToday, receiving.DefaultPolicy())
	line, err := receiving.Assemble(in, fig, receiving.ItemSnapshot{ItemRef: itemRef, Name: "Item " + itemRef}, gen)
	require.NoError(t, err)
	return line
}

func TestSessionStore_SnapshotRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	gen := id.NewSequence("L", 0)

	s := NewSessionStore("s1", kv, fixedToday)
	supplier, invoice := "Acme Pharma", "INV-9"
	_, err := s.UpdateHeader(ctx, HeaderPatch{SupplierName: &supplier, InvoiceNumber: &invoice})
	require.NoError(t, err)
	require.NoError(t, s.AddLine(ctx, testLine(t, gen, "SKU-1")))
	require.NoError(t, s.AddLine(ctx, testLine(t, gen, "SKU-2")))

	before, err := s.Snapshot()
	require.NoError(t, err)

	// Simulated reload.
	reloaded := NewSessionStore("s1", kv, fixedToday)
	found, err := reloaded.Restore(ctx)
	require.NoError(t, err)
	require.True(t, found)

	after, err := reloaded.Snapshot()
	require.NoError(t, err)

	assert.Equal(t, string(before.Header), string(after.Header))
	assert.Equal(t, string(before.Lines), string(after.Lines))
	assert.Equal(t, s.Len(), reloaded.Len())
}

func TestSessionStore_RestoreEmpty(t *testing.T) {
	s := NewSessionStore("missing", newFakeKV(), fixedToday)

	found, err := s.Restore(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
	assert.True(t, s.Header().ReceivingDate.Equal(testToday))
	assert.Equal(t, 0, s.Len())
}

func TestSessionStore_HeaderEditKeepsLinesAlive(t *testing.T) {
	ctx := context.Background()
	kv := newExpiringKV(time.Hour)

	s := NewSessionStore("s1", kv, fixedToday)
	require.NoError(t, s.AddLine(ctx, testLine(t, nil, "SKU-1")))

	kv.advance(50 * time.Minute)
	supplier := "Acme"
	_, err := s.UpdateHeader(ctx, HeaderPatch{SupplierName: &supplier})
	require.NoError(t, err)

	// Past the first write's expiry, within the header edit's.
	kv.advance(20 * time.Minute)
	reloaded := NewSessionStore("s1", kv, fixedToday)
	found, err := reloaded.Restore(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Acme", reloaded.Header().SupplierName)
	assert.Equal(t, 1, reloaded.Len())
}

func TestSessionStore_RestoreIncompleteSnapshot(t *testing.T) {
	tests := []struct {
		name    string
		present func(sessionID string) string
	}{
		{"header without lines", HeaderKey},
		{"lines without header", LinesKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			kv := newFakeKV()
			require.NoError(t, kv.Set(ctx, tt.present("s1"), []byte(`{}`)))

			s := NewSessionStore("s1", kv, fixedToday)
			found, err := s.Restore(ctx)
			require.NoError(t, err)
			assert.False(t, found)
			assert.False(t, kv.has(tt.present("s1")))
		})
	}
}

func TestSessionStore_RemoveLine(t *testing.T) {
	ctx := context.Background()
	gen := id.NewSequence("L", 0)
	s := NewSessionStore("s1", newFakeKV(), fixedToday)

	a, b, c := testLine(t, gen, "A"), testLine(t, gen, "B"), testLine(t, gen, "C")
	for _, l := range []receiving.ReceivingLine{a, b, c} {
		require.NoError(t, s.AddLine(ctx, l))
	}

	require.NoError(t, s.RemoveLine(ctx, b.LineID))

	lines := s.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, a.LineID, lines[0].LineID)
	assert.Equal(t, c.LineID, lines[1].LineID)

	err := s.RemoveLine(ctx, b.LineID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestSessionStore_AddLineDuplicate(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore("s1", newFakeKV(), fixedToday)
	line := testLine(t, nil, "A")

	require.NoError(t, s.AddLine(ctx, line))
	err := s.AddLine(ctx, line)
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))
	assert.Equal(t, 1, s.Len())
}

func TestSessionStore_RollbackOnPersistFailure(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	s := NewSessionStore("s1", kv, fixedToday)

	first := testLine(t, nil, "A")
	require.NoError(t, s.AddLine(ctx, first))

	kv.failSet = true

	err := s.AddLine(ctx, testLine(t, nil, "B"))
	assert.True(t, apperror.HasCode(err, apperror.CodeStorage))
	assert.Equal(t, 1, s.Len())

	err = s.RemoveLine(ctx, first.LineID)
	assert.True(t, apperror.HasCode(err, apperror.CodeStorage))
	assert.Equal(t, 1, s.Len())

	name := "Other"
	h, err := s.UpdateHeader(ctx, HeaderPatch{SupplierName: &name})
	assert.Error(t, err)
	assert.Empty(t, h.SupplierName)
	assert.Empty(t, s.Header().SupplierName)
}

func TestSessionStore_Clear(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	s := NewSessionStore("s1", kv, fixedToday)

	name := "Acme"
	_, err := s.UpdateHeader(ctx, HeaderPatch{SupplierName: &name})
	require.NoError(t, err)
	require.NoError(t, s.AddLine(ctx, testLine(t, nil, "A")))
	require.True(t, kv.has(HeaderKey("s1")))
	require.True(t, kv.has(LinesKey("s1")))

	require.NoError(t, s.Clear(ctx))

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, DefaultHeader(testToday), s.Header())
	assert.False(t, kv.has(HeaderKey("s1")))
	assert.False(t, kv.has(LinesKey("s1")))
}

func TestSessionStore_LinesAreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore("s1", newFakeKV(), fixedToday)
	require.NoError(t, s.AddLine(ctx, testLine(t, nil, "A")))

	lines := s.Lines()
	require.NotNil(t, lines[0].Wholesale)
	lines[0].Wholesale.IsPremium = true
	lines[0].Input.BatchNumber = "tampered"

	again := s.Lines()
	assert.False(t, again[0].Wholesale.IsPremium)
	assert.Equal(t, "B-77", again[0].Input.BatchNumber)
}

func TestHeader_Apply(t *testing.T) {
	h := DefaultHeader(testToday)
	name, desc := "  Acme  ", "weekly delivery"
	date := types.MustDate("2025-06-14")

	h = h.Apply(HeaderPatch{SupplierName: &name, Description: &desc, ReceivingDate: &date})

	assert.Equal(t, "Acme", h.SupplierName)
	assert.Equal(t, "weekly delivery", h.Description)
	assert.True(t, h.ReceivingDate.Equal(date))
	assert.Empty(t, h.InvoiceNumber)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "receipt:abc:header", HeaderKey("abc"))
	assert.Equal(t, "receipt:abc:lines", LinesKey("abc"))
}
