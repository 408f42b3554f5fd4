package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
)

// CompressionAlgo specifies the compression algorithm used for a stored value.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// DefaultCompressThreshold is the value size above which snapshots are compressed.
const DefaultCompressThreshold = 8 * 1024

// SessionStore keeps receipt session snapshots in sys_receiving_sessions.
// Large values (sessions with many lines) are stored zstd-compressed.
type SessionStore struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
	ttl               time.Duration
}

// NewSessionStore creates a session store. A threshold <= 0 uses the default;
// a zero ttl keeps sessions until they are cleared.
func NewSessionStore(txManager *TxManager, compressThreshold int, ttl time.Duration) (*SessionStore, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	if compressThreshold <= 0 {
		compressThreshold = DefaultCompressThreshold
	}

	return &SessionStore{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: compressThreshold,
		ttl:               ttl,
	}, nil
}

// Get returns the stored value, decompressing it if needed.
func (s *SessionStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		data []byte
		algo CompressionAlgo
	)

	querier := s.txManager.GetQuerier(ctx)
	err := querier.QueryRow(ctx, `
		SELECT value, compression_algo
		FROM sys_receiving_sessions
		WHERE key = $1 AND (expires_at IS NULL OR expires_at > NOW())
	`, key).Scan(&data, &algo)
	if err != nil {
		if isNoRows(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get session value %s: %w", key, err)
	}

	value, err := s.decode(data, algo)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Set upserts a value, compressing it above the threshold.
func (s *SessionStore) Set(ctx context.Context, key string, value []byte) error {
	data, algo := s.encode(value)

	var expiresAt *time.Time
	if s.ttl > 0 {
		t := time.Now().UTC().Add(s.ttl)
		expiresAt = &t
	}

	querier := s.txManager.GetQuerier(ctx)
	_, err := querier.Exec(ctx, `
		INSERT INTO sys_receiving_sessions (key, value, compression_algo, updated_at, expires_at)
		VALUES ($1, $2, $3, NOW(), $4)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			compression_algo = EXCLUDED.compression_algo,
			updated_at = EXCLUDED.updated_at,
			expires_at = EXCLUDED.expires_at
	`, key, data, algo, expiresAt)
	if err != nil {
		return fmt.Errorf("set session value %s: %w", key, err)
	}
	return nil
}

// Clear deletes keys.
func (s *SessionStore) Clear(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	querier := s.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, `DELETE FROM sys_receiving_sessions WHERE key = ANY($1)`, keys); err != nil {
		return fmt.Errorf("clear session values: %w", err)
	}
	return nil
}

// PurgeExpired deletes expired sessions and returns how many rows were removed.
func (s *SessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	querier := s.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, `
		DELETE FROM sys_receiving_sessions
		WHERE expires_at IS NOT NULL AND expires_at <= NOW()
	`)
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *SessionStore) encode(value []byte) ([]byte, CompressionAlgo) {
	if len(value) > s.compressThreshold {
		return s.encoder.EncodeAll(value, nil), CompressionZstd
	}
	return value, CompressionNone
}

func (s *SessionStore) decode(data []byte, algo CompressionAlgo) ([]byte, error) {
	switch algo {
	case CompressionZstd:
		out, err := s.decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress session value: %w", err)
		}
		return out, nil
	case CompressionNone, "":
		return data, nil
	default:
		return nil, fmt.Errorf("unknown compression algo %q", algo)
	}
}
