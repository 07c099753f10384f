package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"chirper/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found or caching is off.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if client == nil {
		return false, nil
	}
	s, err := client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, b, ttl).Err()
}

// Aside reads key from Redis and falls back to fetch on a miss, storing the result with ttl.
// Cache failures never fail the read; fetch errors are returned unchanged and nothing is cached.
func Aside[T any](ctx context.Context, key string, ttl time.Duration, fetch func() (T, error)) (T, error) {
	var cached T
	found, err := GetJSON(ctx, key, &cached)
	if err != nil {
		logCacheError(ctx, "get", key, err)
	}
	if found {
		return cached, nil
	}

	val, err := fetch()
	if err != nil {
		return val, err
	}

	if err := SetJSON(ctx, key, val, ttl); err != nil {
		logCacheError(ctx, "set", key, err)
	}
	return val, nil
}

func logCacheError(ctx context.Context, op, key string, err error) {
	middleware.Logger.WarnContext(ctx, "cache operation failed",
		"op", op,
		"key", key,
		"error", err,
	)
}
