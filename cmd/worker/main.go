// Package main is the entry point for the Stockroom background worker.
// It relays goods-received note events from the outbox and purges expired
// receiving sessions.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"stockroom/internal/config"
	"stockroom/internal/domain/grn"
	"stockroom/internal/infrastructure/storage/postgres"
	"stockroom/internal/infrastructure/storage/postgres/document_repo"
	"stockroom/pkg/logger"
)

const (
	pollInterval    = 500 * time.Millisecond
	cleanupInterval = time.Hour
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.App.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting stockroom worker")

	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Database.URL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)

	sessions, err := postgres.NewSessionStore(txManager, cfg.Session.CompressThreshold, cfg.Session.TTL)
	if err != nil {
		log.Fatalw("failed to create session store", "error", err)
	}

	worker := NewWorker(postgres.NewOutboxRelay(txManager, deliverEvent, 0), sessions, log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// Worker runs the background jobs.
type Worker struct {
	relay    *postgres.OutboxRelay
	sessions *postgres.SessionStore
	log      *logger.Logger
}

func NewWorker(relay *postgres.OutboxRelay, sessions *postgres.SessionStore, log *logger.Logger) *Worker {
	return &Worker{
		relay:    relay,
		sessions: sessions,
		log:      log.WithComponent("worker"),
	}
}

// Run polls until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ctx = logger.WithLogger(ctx, w.log)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(cleanupInterval)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processOutbox(ctx)
		case <-cleanupTicker.C:
			w.cleanupSessions(ctx)
		}
	}
}

func (w *Worker) processOutbox(ctx context.Context) {
	count, err := w.relay.ProcessBatch(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Errorw("outbox batch failed", "error", err)
		}
		return
	}

	if count > 0 {
		w.log.Debugw("processed outbox batch", "count", count)
	}
}

func (w *Worker) cleanupSessions(ctx context.Context) {
	n, err := w.sessions.PurgeExpired(ctx)
	if err != nil {
		w.log.Warnw("session cleanup failed", "error", err)
		return
	}

	if n > 0 {
		w.log.Infow("cleaned up expired sessions", "count", n)
	}
}

// deliverEvent publishes created notes as structured log records.
// Other event types are skipped.
func deliverEvent(ctx context.Context, msg postgres.OutboxMessage) error {
	if msg.EventType != document_repo.EventGRNCreated {
		logger.Debug(ctx, "skipping outbox event", "event_type", msg.EventType, "message_id", msg.ID)
		return nil
	}

	// A payload that does not decode now never will; log it and move on.
	var note grn.Note
	if err := json.Unmarshal(msg.Payload, &note); err != nil {
		logger.Error(ctx, "undecodable outbox payload",
			"message_id", msg.ID,
			"event_type", msg.EventType,
			"error", err)
		return nil
	}

	var billed int64
	for _, line := range note.Lines {
		billed += line.BilledAmount
	}

	logger.Info(ctx, "goods received note published",
		"event_type", msg.EventType,
		"note_id", note.ID,
		"number", note.Number,
		"supplier", note.SupplierName,
		"total_quantity", note.TotalQuantity,
		"total_cost", note.TotalCost.String(),
		"billed_units", billed,
		"lines", len(note.Lines))

	return nil
}
