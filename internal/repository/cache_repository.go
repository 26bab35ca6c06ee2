package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/profsight/profsight-api/pkg/errors"
)

// cacheNamespace prefixes every key so the instance can share a Redis
// with other deployments without colliding.
const cacheNamespace = "profsight:"

// delBatchSize caps how many keys a single DEL carries during pattern
// invalidation.
const delBatchSize = 100

// CacheRepository stores JSON projections (professor directory pages,
// dashboards) in Redis. A nil client degrades to a permanent miss so the
// API keeps serving when Redis is down.
type CacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCacheRepository constructs a cache repository.
func NewCacheRepository(client *redis.Client, logger *zap.Logger) *CacheRepository {
	return &CacheRepository{client: client, logger: logger}
}

// Get unmarshals the cached value into dest. Missing keys and corrupt
// payloads both report ErrCacheMiss; corrupt entries are dropped so the
// next write repairs them.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}

	nsKey := cacheNamespace + key
	raw, err := r.client.Get(ctx, nsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", nsKey, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		if r.logger != nil {
			r.logger.Warn("dropping corrupt cache entry", zap.String("key", nsKey), zap.Error(err))
		}
		r.client.Del(ctx, nsKey)
		return appErrors.ErrCacheMiss
	}

	return nil
}

// Set marshals value and stores it under the namespaced key with the
// given TTL.
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}

	if err := r.client.Set(ctx, cacheNamespace+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", cacheNamespace+key, err)
	}

	return nil
}

// DeleteByPattern removes every key matching the pattern, deleting in
// batches so a wide invalidation does not issue one round trip per key.
func (r *CacheRepository) DeleteByPattern(ctx context.Context, pattern string) error {
	if r.client == nil {
		return nil
	}

	nsPattern := cacheNamespace + pattern
	iter := r.client.Scan(ctx, 0, nsPattern, 0).Iterator()
	batch := make([]string, 0, delBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := r.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis delete %d keys for %s: %w", len(batch), nsPattern, err)
		}
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= delBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan pattern %s: %w", nsPattern, err)
	}
	return flush()
}

// Close releases the underlying Redis connection if present.
func (r *CacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
