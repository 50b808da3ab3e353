package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/2lambda123/nasa-cumulus-sub001/pkg/redis"
	"github.com/pkg/errors"
)

// RedisStore is the part of the redis client the cache needs.
type RedisStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// RedisCache shares resolved ids between concurrent migration processes.
type RedisCache struct {
	store RedisStore
	ttl   time.Duration
}

func NewRedisCache(store RedisStore, ttl time.Duration) *RedisCache {
	return &RedisCache{store: store, ttl: ttl}
}

func (r *RedisCache) Get(ctx context.Context, key string) (int64, bool, error) {
	v, err := r.store.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrapf(err, "failed to read cached id %s", key)
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return id, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, id int64) error {
	if err := r.store.Set(ctx, key, strconv.FormatInt(id, 10), r.ttl); err != nil {
		return errors.Wrapf(err, "failed to cache id %s", key)
	}
	return nil
}
