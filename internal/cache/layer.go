package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/k4sper1love/school-service/internal/utils"
)

// DefaultTTL is used when no TTL is configured.
const DefaultTTL = 300 * time.Second

// Layer implements the cache-aside read path and best-effort invalidation.
// Cache failures are logged and treated as misses; they never reach the caller.
type Layer struct {
	cache  Cache
	ttl    time.Duration
	logger utils.Logger
}

func NewLayer(c Cache, ttl time.Duration, logger utils.Logger) *Layer {
	if c == nil {
		c = NewCacheHelper(nil, "")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Layer{cache: c, ttl: ttl, logger: logger}
}

func (l *Layer) TTL() time.Duration {
	return l.ttl
}

// Fetch fills dest from the cache, or from load on a miss and stores the result.
// dest always receives the JSON form of the value so hits and misses render alike.
func (l *Layer) Fetch(ctx context.Context, key string, dest interface{}, load func(ctx context.Context) (interface{}, error)) error {
	err := l.cache.Get(ctx, key, dest)
	if err == nil {
		l.logger.Debug("Cache hit", "key", key)
		return nil
	}
	if !errors.Is(err, ErrCacheNotFound) && !errors.Is(err, ErrCacheNotAvailable) {
		l.logger.Warn("Cache get failed, falling back to store", "key", key, "error", err)
	}

	value, err := load(ctx)
	if err != nil {
		return err
	}

	l.Set(ctx, key, value)

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal result error: %w", err)
	}
	return json.Unmarshal(data, dest)
}

// Set stores value under key with the layer TTL.
func (l *Layer) Set(ctx context.Context, key string, value interface{}) {
	if err := l.cache.Set(ctx, key, value, l.ttl); err != nil {
		l.logger.Warn("Cache set failed", "key", key, "error", err)
	}
}

// Invalidate deletes keys.
func (l *Layer) Invalidate(ctx context.Context, keys ...string) {
	if err := l.cache.Delete(ctx, keys...); err != nil {
		l.logger.Warn("Failed to delete cache keys", "keys", keys, "error", err)
	}
}

// InvalidatePattern deletes every key matching the glob patterns.
func (l *Layer) InvalidatePattern(ctx context.Context, patterns ...string) {
	for _, pattern := range patterns {
		if err := l.cache.InvalidatePattern(ctx, pattern); err != nil {
			l.logger.Warn("Failed to invalidate cache pattern", "pattern", pattern, "error", err)
		}
	}
}
