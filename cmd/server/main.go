// Package main is the entry point for the Stockroom receiving API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockroom/internal/config"
	"stockroom/internal/core/tx"
	"stockroom/internal/domain/grn"
	"stockroom/internal/domain/receipt"
	"stockroom/internal/domain/receiving"
	"stockroom/internal/infrastructure/cache"
	v1 "stockroom/internal/infrastructure/http/v1"
	"stockroom/internal/infrastructure/http/v1/handlers"
	"stockroom/internal/infrastructure/numerator"
	"stockroom/internal/infrastructure/storage/memory"
	"stockroom/internal/infrastructure/storage/postgres"
	"stockroom/internal/infrastructure/storage/postgres/catalog_repo"
	"stockroom/internal/infrastructure/storage/postgres/document_repo"
	"stockroom/pkg/logger"
)

// How often expired postgres sessions are purged.
const purgeInterval = 15 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.App.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log)

	log.Infow("starting stockroom server",
		"env", cfg.App.Env,
		"session_backend", cfg.Session.Backend,
		"line_id_strategy", cfg.Receiving.LineIDStrategy,
	)

	checks := make(map[string]handlers.Pinger)

	// --- Database (optional) ---
	var (
		pool      *postgres.Pool
		txManager *postgres.TxManager
	)
	if cfg.UsesPostgres() {
		poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
		poolCfg.MaxConns = cfg.Database.MaxConns

		pool, err = postgres.NewPool(ctx, poolCfg)
		if err != nil {
			log.Fatalw("failed to connect to database", "error", err)
		}
		defer pool.Close()

		txManager = postgres.NewTxManager(pool)
		checks["database"] = pool
		log.Info("database connection established")
	}

	// --- Session store ---
	var kv receipt.KeyValueStore
	switch cfg.Session.Backend {
	case config.BackendRedis:
		store, err := cache.NewRedisStore(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Session.TTL)
		if err != nil {
			log.Fatalw("failed to connect to redis", "error", err)
		}
		defer func() { _ = store.Close() }()

		kv = store
		checks["redis"] = store

	case config.BackendPostgres:
		store, err := postgres.NewSessionStore(txManager, cfg.Session.CompressThreshold, cfg.Session.TTL)
		if err != nil {
			log.Fatalw("failed to create session store", "error", err)
		}
		kv = store
		go purgeExpiredSessions(ctx, store)

	default:
		kv = cache.NewMemoryStore(cfg.Session.TTL)
	}

	// --- Catalog and receipt creator ---
	var (
		catalog receiving.Catalog
		notes   *grn.Service
	)
	if txManager != nil {
		catalog = catalog_repo.NewItemRepo(txManager)
		notes = grn.NewService(
			document_repo.NewGRNRepo(txManager),
			numerator.NewWithSource(func(ctx context.Context) numerator.Querier {
				return txManager.GetQuerier(ctx)
			}),
			txManager,
		)
	} else {
		log.Warn("no database configured, using in-memory demo catalog and receipts")
		catalog = receiving.NewMemoryCatalog(receiving.DemoItems()...)
		notes = grn.NewService(memory.NewGRNRepo(), numerator.NewLocal(), tx.NoopManager{})
	}

	receipts := receipt.NewService(kv, catalog, notes, receipt.Config{
		Policy: receiving.Policy{
			StrictWholesaleMinimum: cfg.Receiving.StrictWholesaleMinimum,
		},
		LineIDStrategy: cfg.Receiving.LineIDStrategy,
		IdleTTL:        cfg.Session.TTL,
		SharedStore:    cfg.Session.Backend != config.BackendMemory,
	})

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:         log,
		Receipts:       receipts,
		Notes:          notes,
		SessionBackend: cfg.Session.Backend,
		HealthChecks:   checks,
		Development:    cfg.App.IsDevelopment(),
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "port", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	<-ctx.Done()

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	if pool != nil {
		pool.LogStats(ctx)
	}

	log.Info("server stopped")
}

// purgeExpiredSessions removes abandoned postgres sessions until ctx is done.
func purgeExpiredSessions(ctx context.Context, store *postgres.SessionStore) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.PurgeExpired(ctx)
			if err != nil {
				logger.Warn(ctx, "purge expired sessions failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info(ctx, "expired sessions purged", "count", n)
			}
		}
	}
}
