// Package cache provides a small key/value cache used to avoid repeating
// expensive lookups such as image searches.
package cache

import (
	"context"
	"time"
)

// Cache stores string values with an expiry.
type Cache interface {
	// Get returns the cached value and true, or "" and false on a miss.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Noop is a Cache that never stores anything. It is used when no cache
// backend is configured.
type Noop struct{}

func (Noop) Get(context.Context, string) (string, bool, error) { return "", false, nil }

func (Noop) Set(context.Context, string, string, time.Duration) error { return nil }
