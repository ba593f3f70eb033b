package access

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/modfleet/gatehouse/pkg/observability"
)

// RedisCache is a Cache backed by Redis, for deployments running more than
// one gatehouse replica behind the same dashboard. Redis handles expiry via
// per-key TTL; a Redis outage degrades to cache misses so the engine falls
// back to upstream re-checks.
type RedisCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *observability.Logger
}

// NewRedisCache creates a Redis-backed cache and verifies connectivity
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *observability.Logger) (*RedisCache, error) {
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisCache{
		redis:  client,
		ttl:    ttl,
		logger: logger,
	}, nil
}

func cacheKey(subjectID string) string {
	return "access:decision:" + subjectID
}

// Get returns the cached decision for the subject
func (c *RedisCache) Get(ctx context.Context, subjectID string) (bool, bool) {
	value, err := c.redis.Get(ctx, cacheKey(subjectID)).Result()
	if err == redis.Nil {
		return false, false
	}
	if err != nil {
		c.logger.WithError(err).WithField("subject_id", subjectID).Warn("decision cache read failed, treating as miss")
		return false, false
	}
	return value == "1", true
}

// Put overwrites the subject's entry with a fresh TTL
func (c *RedisCache) Put(ctx context.Context, subjectID string, granted bool) {
	value := "0"
	if granted {
		value = "1"
	}
	if err := c.redis.Set(ctx, cacheKey(subjectID), value, c.ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("subject_id", subjectID).Warn("decision cache write failed")
	}
}

// Invalidate removes the subject's entry
func (c *RedisCache) Invalidate(ctx context.Context, subjectID string) {
	if err := c.redis.Del(ctx, cacheKey(subjectID)).Err(); err != nil {
		c.logger.WithError(err).WithField("subject_id", subjectID).Warn("decision cache invalidation failed")
	}
}
