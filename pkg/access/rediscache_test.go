package access

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/modfleet/gatehouse/pkg/observability"
)

func newTestRedisCache(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := observability.NewLogger(observability.ErrorLevel, nil)
	cache, err := NewRedisCache(client, ttl, logger)
	if err != nil {
		t.Fatalf("failed to create redis cache: %v", err)
	}
	return cache, mr
}

func TestRedisCacheGetPut(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestRedisCache(t, 5*time.Minute)

	if _, ok := cache.Get(ctx, "u1"); ok {
		t.Error("expected miss on empty cache")
	}

	cache.Put(ctx, "u1", true)
	granted, ok := cache.Get(ctx, "u1")
	if !ok {
		t.Fatal("expected hit")
	}
	if !granted {
		t.Error("expected granted = true")
	}

	cache.Put(ctx, "u1", false)
	granted, ok = cache.Get(ctx, "u1")
	if !ok {
		t.Fatal("expected hit")
	}
	if granted {
		t.Error("expected granted = false after overwrite")
	}
}

func TestRedisCacheExpiry(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestRedisCache(t, 5*time.Minute)

	cache.Put(ctx, "u1", true)
	if _, ok := cache.Get(ctx, "u1"); !ok {
		t.Fatal("expected hit before TTL")
	}

	mr.FastForward(5*time.Minute + time.Second)
	if _, ok := cache.Get(ctx, "u1"); ok {
		t.Error("expected miss past TTL")
	}
}

func TestRedisCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestRedisCache(t, 5*time.Minute)

	cache.Put(ctx, "u1", true)
	cache.Invalidate(ctx, "u1")

	if _, ok := cache.Get(ctx, "u1"); ok {
		t.Error("expected miss after invalidation")
	}
}

func TestRedisCacheConnectionFailure(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	addr := mr.Addr()
	mr.Close()

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	logger := observability.NewLogger(observability.ErrorLevel, nil)
	if _, err := NewRedisCache(client, time.Minute, logger); err == nil {
		t.Error("expected connection error against a closed redis")
	}
}

func TestRedisCacheDegradesToMiss(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestRedisCache(t, 5*time.Minute)

	cache.Put(ctx, "u1", true)
	mr.Close()

	// Reads against a dead redis degrade to misses instead of failing hard
	if _, ok := cache.Get(ctx, "u1"); ok {
		t.Error("expected miss when redis is unreachable")
	}
}
