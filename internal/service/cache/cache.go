// Package cache holds the small byte-oriented response cache used by the
// plain detector endpoints, where the marshaled JSON is cached as-is.
package cache

import "time"

type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}
