package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache is a process-local cache with expiry.
type MemoryCache struct {
	store *gocache.Cache
}

func NewMemoryCache(ttl, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{store: gocache.New(ttl, cleanupInterval)}
}

func (m *MemoryCache) Get(_ context.Context, key string) (int64, bool, error) {
	v, ok := m.store.Get(key)
	if !ok {
		return 0, false, nil
	}
	id, ok := v.(int64)
	return id, ok, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, id int64) error {
	m.store.SetDefault(key, id)
	return nil
}

func (m *MemoryCache) Len() int {
	return m.store.ItemCount()
}
