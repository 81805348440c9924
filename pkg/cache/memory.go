package cache

import (
	"context"
	"sync"
	"time"
)

const memoryDefaultTTL = 24 * time.Hour

type memoryEntry struct {
	value    interface{}
	expireAt time.Time
	accessed time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return now.After(e.expireAt)
}

// MemoryCache is the single-process fallback when Redis is not configured.
// Bounded by entry count with least-recently-used eviction; a background
// sweep drops expired entries so an idle cache does not pin memory.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	max     int
	sweep   *time.Ticker
	done    chan struct{}
}

func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxEntries:      1000,
		CleanupInterval: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	c := &MemoryCache{
		entries: make(map[string]*memoryEntry),
		max:     cfg.MaxEntries,
		sweep:   time.NewTicker(cfg.CleanupInterval),
		done:    make(chan struct{}),
	}
	go c.sweepLoop()
	return c
}

func (c *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	now := time.Now()
	if expiration <= 0 {
		expiration = memoryDefaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.max {
		c.evictOldestLocked()
	}
	c.entries[key] = &memoryEntry{
		value:    value,
		expireAt: now.Add(expiration),
		accessed: now,
	}
	return nil
}

func (c *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.expired(now) {
		delete(c.entries, key)
		return ErrCacheMiss
	}
	e.accessed = now

	switch d := dest.(type) {
	case *string:
		if s, ok := e.value.(string); ok {
			*d = s
			return nil
		}
	case *interface{}:
		*d = e.value
		return nil
	}
	*dest.(*interface{}) = e.value
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	return nil
}

func (c *MemoryCache) Exists(_ context.Context, keys ...string) (bool, error) {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		if e, ok := c.entries[key]; ok && !e.expired(now) {
			return true, nil
		}
	}
	return false, nil
}

func (c *MemoryCache) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok && !e.expired(now) {
		return false, nil
	}
	c.entries[key] = &memoryEntry{value: "locked", expireAt: now.Add(ttl), accessed: now}
	return true, nil
}

func (c *MemoryCache) Unlock(ctx context.Context, key string) error {
	return c.Delete(ctx, key)
}

func (c *MemoryCache) evictOldestLocked() {
	var victim string
	var oldest time.Time
	for key, e := range c.entries {
		if victim == "" || e.accessed.Before(oldest) {
			victim = key
			oldest = e.accessed
		}
	}
	if victim != "" {
		delete(c.entries, victim)
	}
}

func (c *MemoryCache) sweepLoop() {
	for {
		select {
		case <-c.sweep.C:
		case <-c.done:
			return
		}
		now := time.Now()
		c.mu.Lock()
		for key, e := range c.entries {
			if e.expired(now) {
				delete(c.entries, key)
			}
		}
		c.mu.Unlock()
	}
}

func (c *MemoryCache) Close() error {
	c.sweep.Stop()
	close(c.done)
	return nil
}
