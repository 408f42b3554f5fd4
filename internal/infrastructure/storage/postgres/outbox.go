package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockroom/internal/core/id"
	"stockroom/pkg/logger"
)

// OutboxStatus represents the state of an outbox message.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusProcessed OutboxStatus = "processed"
)

// DefaultOutboxBatchSize is the number of messages a relay claims per poll.
const DefaultOutboxBatchSize = 100

// DomainEvent represents an event to be published via outbox.
type DomainEvent struct {
	AggregateType string
	AggregateID   id.ID
	EventType     string
	Payload       any
}

// OutboxPublisher writes events to sys_outbox in the caller's transaction, so
// an event exists exactly when the change that produced it was committed.
// Delivery to consumers (debt ledger, stock valuation) happens outside this service.
type OutboxPublisher struct {
	txManager *TxManager
}

// NewOutboxPublisher creates a new outbox publisher.
func NewOutboxPublisher(txManager *TxManager) *OutboxPublisher {
	return &OutboxPublisher{txManager: txManager}
}

// Publish writes an event to the outbox within the current transaction.
// MUST be called inside a transaction context.
func (p *OutboxPublisher) Publish(ctx context.Context, event DomainEvent) error {
	tx := p.txManager.GetTx(ctx)
	if tx == nil {
		return fmt.Errorf("outbox publish requires transaction context")
	}

	payloadBytes, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO sys_outbox (id, aggregate_type, aggregate_id, event_type, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id.New(), event.AggregateType, event.AggregateID, event.EventType, payloadBytes, OutboxStatusPending, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert outbox message: %w", err)
	}

	return nil
}

// OutboxMessage is a stored event awaiting delivery.
type OutboxMessage struct {
	ID            id.ID           `db:"id"`
	AggregateType string          `db:"aggregate_type"`
	AggregateID   id.ID           `db:"aggregate_id"`
	EventType     string          `db:"event_type"`
	Payload       json.RawMessage `db:"payload"`
	CreatedAt     time.Time       `db:"created_at"`
}

// OutboxHandler delivers one message. An error leaves the message pending
// for the next poll.
type OutboxHandler func(ctx context.Context, msg OutboxMessage) error

// OutboxRelay moves pending outbox messages to a handler.
type OutboxRelay struct {
	txManager *TxManager
	handler   OutboxHandler
	batchSize uint64
}

// NewOutboxRelay creates a relay. batchSize <= 0 uses DefaultOutboxBatchSize.
func NewOutboxRelay(txManager *TxManager, handler OutboxHandler, batchSize int) *OutboxRelay {
	if batchSize <= 0 {
		batchSize = DefaultOutboxBatchSize
	}
	return &OutboxRelay{
		txManager: txManager,
		handler:   handler,
		batchSize: uint64(batchSize),
	}
}

// ProcessBatch claims pending messages in creation order, hands each to the
// handler and marks delivered ones processed. Rows are claimed with
// SKIP LOCKED so several relays can poll the same table.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (int, error) {
	processed := 0

	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sql, args, err := r.claimQuery().ToSql()
		if err != nil {
			return fmt.Errorf("build claim query: %w", err)
		}

		querier := r.txManager.GetQuerier(ctx)

		var msgs []OutboxMessage
		if err := pgxscan.Select(ctx, querier, &msgs, sql, args...); err != nil {
			return fmt.Errorf("claim outbox messages: %w", err)
		}

		for _, msg := range msgs {
			if err := r.handler(ctx, msg); err != nil {
				logger.Warn(ctx, "outbox delivery failed",
					"message_id", msg.ID,
					"event_type", msg.EventType,
					"error", err)
				continue
			}

			_, err := querier.Exec(ctx, `
				UPDATE sys_outbox SET status = $1, processed_at = NOW() WHERE id = $2
			`, OutboxStatusProcessed, msg.ID)
			if err != nil {
				return fmt.Errorf("mark outbox message %s: %w", msg.ID, err)
			}
			processed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return processed, nil
}

func (r *OutboxRelay) claimQuery() squirrel.SelectBuilder {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select("id", "aggregate_type", "aggregate_id", "event_type", "payload", "created_at").
		From("sys_outbox").
		Where(squirrel.Eq{"status": OutboxStatusPending}).
		OrderBy("created_at").
		Limit(r.batchSize).
		Suffix("FOR UPDATE SKIP LOCKED")
}
