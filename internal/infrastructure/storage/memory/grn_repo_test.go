package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/id"
	"stockroom/internal/domain/grn"
)

func TestGRNRepo_CreateAndGet(t *testing.T) {
	repo := NewGRNRepo()
	ctx := context.Background()

	note := &grn.Note{
		ID:           id.New(),
		Number:       "GRN-2025-00001",
		SupplierName: "Acme",
		Lines:        []grn.Line{{LineNo: 1, LineID: "L-0001", ItemID: "SKU-1", Quantity: 10}},
	}
	require.NoError(t, repo.Create(ctx, note))

	note.Lines[0].Quantity = 99

	got, err := repo.GetByID(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "GRN-2025-00001", got.Number)
	assert.Nil(t, got.Lines)

	lines, err := repo.GetLines(ctx, note.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, int64(10), lines[0].Quantity)
}

func TestGRNRepo_DuplicateNumber(t *testing.T) {
	repo := NewGRNRepo()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &grn.Note{ID: id.New(), Number: "GRN-2025-00001"}))
	err := repo.Create(ctx, &grn.Note{ID: id.New(), Number: "GRN-2025-00001"})
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))
}

func TestGRNRepo_NotFound(t *testing.T) {
	repo := NewGRNRepo()

	_, err := repo.GetByID(context.Background(), id.New())
	assert.True(t, apperror.IsNotFound(err))

	_, err = repo.GetLines(context.Background(), id.New())
	assert.True(t, apperror.IsNotFound(err))
}
