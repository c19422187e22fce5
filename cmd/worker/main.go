// Package main is the entry point for the hidesync background worker.
// It relays the transactional outbox to Kafka and prunes old audit data.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"hidesync/internal/infrastructure/events"
	"hidesync/internal/infrastructure/storage/postgres"
	"hidesync/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting hidesync worker")

	pool, err := pgxpool.New(ctx, mustEnv("DATABASE_URL"))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalw("failed to ping database", "error", err)
	}

	publisher := events.NewKafkaPublisher(
		strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		getEnv("KAFKA_TOPIC", "hidesync.events"),
	)
	defer publisher.Close()

	relay := postgres.NewOutboxRelay(pool, getEnvInt("OUTBOX_BATCH_SIZE", 100), publisher)

	worker := &Worker{
		pool:  pool,
		relay: relay,
		log:   log.WithComponent("worker"),
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// Worker relays outbox messages and runs periodic cleanup.
type Worker struct {
	pool  *pgxpool.Pool
	relay *postgres.OutboxRelay
	log   *logger.Logger
}

// Run polls the outbox until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(1 * time.Hour)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processOutbox(ctx)
		case <-cleanupTicker.C:
			w.cleanupOutbox(ctx)
			w.cleanupAudit(ctx)
		}
	}
}

func (w *Worker) processOutbox(ctx context.Context) {
	processed, err := w.relay.ProcessBatch(ctx)
	if err != nil {
		w.log.Errorw("outbox batch failed", "error", err)
		return
	}
	if processed > 0 {
		w.log.Debugw("processed outbox batch", "count", processed)
	}
}

func (w *Worker) cleanupOutbox(ctx context.Context) {
	result, err := w.pool.Exec(ctx, `
		DELETE FROM outbox
		WHERE status = 'published'
		  AND published_at < NOW() - INTERVAL '7 days'
	`)
	if err != nil {
		w.log.Errorw("outbox cleanup failed", "error", err)
		return
	}

	if result.RowsAffected() > 0 {
		w.log.Infow("cleaned up published outbox messages", "count", result.RowsAffected())
	}
}

func (w *Worker) cleanupAudit(ctx context.Context) {
	retention := getEnvInt("AUDIT_RETENTION_DAYS", 90)
	result, err := w.pool.Exec(ctx, `
		DELETE FROM audit_log
		WHERE created_at < NOW() - make_interval(days => $1)
	`, retention)
	if err != nil {
		w.log.Errorw("audit cleanup failed", "error", err)
		return
	}

	if result.RowsAffected() > 0 {
		w.log.Infow("cleaned up old audit entries", "count", result.RowsAffected())
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
