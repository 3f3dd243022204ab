package inbox

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"mailtriage/internal/logger"
)

// Deduper remembers which messages were already imported.
type Deduper interface {
	// Acquire returns true the first time id is seen.
	Acquire(ctx context.Context, id string) bool
	// Release forgets id so a failed import is retried on the next poll.
	Release(ctx context.Context, id string)
}

type RedisDeduper struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	logger *logger.Logger
}

func NewRedisDeduper(rdb *redis.Client, ttl time.Duration, log *logger.Logger) *RedisDeduper {
	return &RedisDeduper{rdb: rdb, ttl: ttl, prefix: "mailtriage:imported:", logger: log}
}

// Acquire fails open: when redis is unavailable the message is processed.
func (d *RedisDeduper) Acquire(ctx context.Context, id string) bool {
	ok, err := d.rdb.SetNX(ctx, d.prefix+id, 1, d.ttl).Result()
	if err != nil {
		d.logger.Warnf("redis dedup check failed for %s, allowing import: %v", id, err)
		return true
	}
	if !ok {
		d.logger.Debugf("skipping already imported message %s", id)
	}
	return ok
}

func (d *RedisDeduper) Release(ctx context.Context, id string) {
	if err := d.rdb.Del(ctx, d.prefix+id).Err(); err != nil {
		d.logger.Warnf("redis dedup release failed for %s: %v", id, err)
	}
}

// MemoryDeduper is used when no redis is configured. Its state is lost on
// restart.
type MemoryDeduper struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryDeduper() *MemoryDeduper {
	return &MemoryDeduper{seen: make(map[string]struct{})}
}

func (d *MemoryDeduper) Acquire(ctx context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[id]; ok {
		return false
	}
	d.seen[id] = struct{}{}
	return true
}

func (d *MemoryDeduper) Release(ctx context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, id)
}
