// internal/pkg/ratelimit/limiter.go
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter counts attempts per key inside a fixed window.
type Limiter interface {
	// Allow records one attempt for key and reports whether it is within the limit.
	Allow(ctx context.Context, key string) (allowed bool, remaining int64, err error)
}

type RedisLimiter struct {
	client redis.Cmdable
	prefix string
	max    int64
	window time.Duration
}

func NewRedisLimiter(client redis.Cmdable, prefix string, max int64, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		max:    max,
		window: window,
	}
}

// Allow increments the attempt counter for key
func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, int64, error) {
	redisKey := fmt.Sprintf("ratelimit:%s:%s", r.prefix, key)

	// INCR and EXPIRE NX run in one MULTI so a counter never outlives its window.
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.ExpireNX(ctx, redisKey, r.window)
		return nil
	})
	if err != nil {
		return false, 0, fmt.Errorf("failed to count attempt: %w", err)
	}

	count := incr.Val()
	return count <= r.max, remaining(r.max, count), nil
}

// sweepThreshold is the number of tracked keys above which expired windows
// are dropped on the next Allow.
const sweepThreshold = 1024

// MemoryLimiter is the single-process counterpart used when no Redis is configured.
type MemoryLimiter struct {
	mu      sync.Mutex
	max     int64
	window  time.Duration
	now     func() time.Time
	windows map[string]*window
	// sweepAt is the map size that triggers the next sweep.
	sweepAt int
}

type window struct {
	count   int64
	resetAt time.Time
}

func NewMemoryLimiter(max int64, windowSize time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		max:     max,
		window:  windowSize,
		now:     time.Now,
		windows: make(map[string]*window),
		sweepAt: sweepThreshold,
	}
}

func (m *MemoryLimiter) Allow(ctx context.Context, key string) (bool, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if len(m.windows) >= m.sweepAt {
		m.sweep(now)
	}

	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(m.window)}
		m.windows[key] = w
	}
	w.count++

	return w.count <= m.max, remaining(m.max, w.count), nil
}

// sweep drops expired windows. The next sweep waits until the map has doubled
// from what is left, so a map full of live windows is not rescanned on every call.
func (m *MemoryLimiter) sweep(now time.Time) {
	for key, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, key)
		}
	}
	m.sweepAt = 2 * len(m.windows)
	if m.sweepAt < sweepThreshold {
		m.sweepAt = sweepThreshold
	}
}

func remaining(max, count int64) int64 {
	if count >= max {
		return 0
	}
	return max - count
}
