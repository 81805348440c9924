package newswatch

import (
	"context"
	"time"

	"StockPulse/pkg/cache"
)

// CooldownStore gates override re-triggers per symbol. Allow returns true
// when no override fired for the symbol within the TTL, and atomically
// starts a new window.
type CooldownStore interface {
	Allow(ctx context.Context, symbol string) bool
}

// cacheCooldown rides the cache lock primitive: acquiring the lock starts
// the cooldown window, and the lock is deliberately never released. Works
// against both the in-process cache and Redis, so the cooldown holds
// across instances when Redis backs the cache.
type cacheCooldown struct {
	cache cache.Service
	ttl   time.Duration
}

func NewCooldown(c cache.Service, ttl time.Duration) CooldownStore {
	return &cacheCooldown{cache: c, ttl: ttl}
}

func (c *cacheCooldown) Allow(ctx context.Context, symbol string) bool {
	ok, err := c.cache.TryLock(ctx, "override:cooldown:"+symbol, c.ttl)
	if err != nil {
		// cache trouble must not suppress a legitimate override
		return true
	}
	return ok
}
