package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboxRelay_ClaimQuery(t *testing.T) {
	relay := NewOutboxRelay(nil, nil, 0)
	assert.EqualValues(t, DefaultOutboxBatchSize, relay.batchSize)

	relay = NewOutboxRelay(nil, nil, 25)
	sql, args, err := relay.claimQuery().ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at FROM sys_outbox "+
			"WHERE status = $1 ORDER BY created_at LIMIT 25 FOR UPDATE SKIP LOCKED",
		sql)
	assert.Equal(t, []any{OutboxStatusPending}, args)
}
