package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"hidesync/pkg/logger"
)

// Invalidator bridges PostgreSQL NOTIFY events to the Redis cache. Schema
// mutations fire NOTIFY schema_changed with an optional pattern payload;
// matching cache entries are dropped so other instances see fresh lists
// without TTL-based polling.
type Invalidator struct {
	pool  *pgxpool.Pool
	cache *RedisCache

	lifecycleMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

const defaultInvalidationPattern = "material_types:*"

// NewInvalidator creates an invalidation listener.
func NewInvalidator(pool *pgxpool.Pool, cache *RedisCache) *Invalidator {
	return &Invalidator{pool: pool, cache: cache}
}

// Start begins listening for NOTIFY events.
func (i *Invalidator) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	i.lifecycleMu.Lock()
	if i.started {
		i.lifecycleMu.Unlock()
		return nil
	}
	i.ctx, i.cancel = context.WithCancel(ctx)
	i.started = true
	i.lifecycleMu.Unlock()

	i.wg.Add(1)
	go i.listenLoop()
	logger.Info(i.ctx, "cache invalidator started")
	return nil
}

// Stop gracefully stops the listener.
func (i *Invalidator) Stop() {
	i.lifecycleMu.Lock()
	if !i.started {
		i.lifecycleMu.Unlock()
		return
	}
	cancel := i.cancel
	i.started = false
	i.cancel = nil
	i.lifecycleMu.Unlock()

	if cancel != nil {
		cancel()
	}
	i.wg.Wait()
	logger.Info(context.Background(), "cache invalidator stopped")
}

func (i *Invalidator) listenLoop() {
	defer i.wg.Done()

	for {
		select {
		case <-i.ctx.Done():
			return
		default:
		}

		conn, err := i.pool.Acquire(i.ctx)
		if err != nil {
			if i.ctx.Err() != nil {
				return
			}
			logger.Error(i.ctx, "failed to acquire connection for LISTEN", "error", err)
			time.Sleep(time.Second)
			continue
		}

		if _, err := conn.Exec(i.ctx, "LISTEN schema_changed;"); err != nil {
			logger.Error(i.ctx, "failed to LISTEN", "error", err)
			conn.Release()
			time.Sleep(time.Second)
			continue
		}

		i.waitForNotifications(conn)
		conn.Release()
	}
}

func (i *Invalidator) waitForNotifications(conn *pgxpool.Conn) {
	for {
		select {
		case <-i.ctx.Done():
			return
		default:
		}

		// Timeout keeps shutdown responsive; a timeout itself is expected.
		ctx, cancel := context.WithTimeout(i.ctx, 30*time.Second)
		notification, err := conn.Conn().WaitForNotification(ctx)
		cancel()

		if err != nil {
			if i.ctx.Err() != nil {
				return
			}
			continue
		}

		pattern := strings.TrimSpace(notification.Payload)
		if pattern == "" {
			pattern = defaultInvalidationPattern
		}

		logger.Debug(i.ctx, "schema change notification", "pattern", pattern)
		if err := i.cache.InvalidatePattern(i.ctx, pattern); err != nil {
			logger.Error(i.ctx, "cache invalidation failed", "pattern", pattern, "error", err)
		}
	}
}
