package postgres

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_EncodeDecode(t *testing.T) {
	store, err := NewSessionStore(nil, 64, 0)
	require.NoError(t, err)

	t.Run("small values stay raw", func(t *testing.T) {
		value := []byte(`{"supplierName":"Acme"}`)

		data, algo := store.encode(value)
		assert.Equal(t, CompressionNone, algo)
		assert.Equal(t, value, data)

		out, err := store.decode(data, algo)
		require.NoError(t, err)
		assert.Equal(t, value, out)
	})

	t.Run("large values are compressed", func(t *testing.T) {
		var buf bytes.Buffer
		buf.WriteString("[")
		for i := 0; i < 200; i++ {
			if i > 0 {
				buf.WriteString(",")
			}
			fmt.Fprintf(&buf, `{"lineId":"L-%04d","input":{"itemRef":"SKU-%d","batchNumber":"B-1"}}`, i, i)
		}
		buf.WriteString("]")
		value := buf.Bytes()

		data, algo := store.encode(value)
		assert.Equal(t, CompressionZstd, algo)
		assert.Less(t, len(data), len(value))

		out, err := store.decode(data, algo)
		require.NoError(t, err)
		assert.Equal(t, value, out)
	})

	t.Run("unknown algorithm", func(t *testing.T) {
		_, err := store.decode([]byte("x"), CompressionAlgo("lz4"))
		assert.Error(t, err)
	})
}

func TestSessionStore_DefaultThreshold(t *testing.T) {
	store, err := NewSessionStore(nil, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultCompressThreshold, store.compressThreshold)
}

func TestErrorHelpers(t *testing.T) {
	assert.True(t, isNoRows(fmt.Errorf("wrapped: %w", pgx.ErrNoRows)))
	assert.False(t, isNoRows(errors.New("other")))

	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("other")))

	assert.True(t, IsRetryable(fmt.Errorf("create note: %w", &pgconn.PgError{Code: "40001"})))
	assert.True(t, IsRetryable(&pgconn.PgError{Code: "40P01"}))
	assert.False(t, IsRetryable(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsRetryable(errors.New("connection reset")))
}
