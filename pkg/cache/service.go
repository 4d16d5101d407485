package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"cinebook/pkg/logger"
)

// ErrCacheMiss reports a key with no cached value; callers fall back to
// the source of truth.
var ErrCacheMiss = errors.New("cache miss")

// Service is a JSON read-through cache over Redis. Listings are the only
// cached data in cinebook, so the surface stays small: point reads and
// writes, invalidation, and the read-through helper the show listings use.
// A nil Redis client degrades to pass-through; caching is never load-bearing.
type Service interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// GetOrSet returns the cached value for key, or runs fetcher and
	// caches its result for ttl. The fetched value is round-tripped
	// through JSON into dest either way.
	GetOrSet(ctx context.Context, key string, ttl time.Duration, fetcher func() (interface{}, error), dest interface{}) error
}

type service struct {
	client *redis.Client
	log    *logger.Logger
}

func NewService(client *redis.Client) Service {
	return &service{client: client, log: logger.GetDefault()}
}

func (s *service) Get(ctx context.Context, key string, dest interface{}) error {
	if s.client == nil {
		return ErrCacheMiss
	}

	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return fmt.Errorf("cache decode %s: %w", key, err)
	}
	return nil
}

func (s *service) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if s.client == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (s *service) Delete(ctx context.Context, key string) error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache delete %s: %w", key, err)
	}
	return nil
}

func (s *service) GetOrSet(ctx context.Context, key string, ttl time.Duration, fetcher func() (interface{}, error), dest interface{}) error {
	err := s.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		// Redis trouble is not the caller's problem; fetch instead.
		s.log.Warn("cache read failed, fetching from source",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}

	value, err := fetcher()
	if err != nil {
		return err
	}

	if setErr := s.Set(ctx, key, value, ttl); setErr != nil {
		s.log.Warn("cache store failed",
			slog.String("key", key),
			slog.String("error", setErr.Error()),
		)
	}

	// Round-trip through JSON so dest sees the same shape future cache
	// hits will produce.
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	return json.Unmarshal(data, dest)
}
