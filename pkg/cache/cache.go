// Package cache provides the shared key/value cache behind the prediction
// pipeline: Redis when configured, in-process memory otherwise, and a
// layered combination of the two. The TryLock primitive doubles as the
// distributed cooldown window for the keyword override.
package cache

import (
	"context"
	"errors"
	"time"
)

var ErrCacheMiss = errors.New("cache: key not found")

type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, keys ...string) (bool, error)

	// TryLock atomically claims key for ttl. It reports false when another
	// holder already has it. Unlock releases early; an expired lock
	// releases itself.
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}
