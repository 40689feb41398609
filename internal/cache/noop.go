package cache

import (
	"context"
	"time"

	"ankigen/internal/deck"
)

// NoOpCache is a cache implementation that does nothing.
// Used as a fallback when Redis is unavailable - all operations succeed
// but no actual caching occurs (always cache miss).
type NoOpCache struct{}

// NewNoOpCache creates a new no-op cache instance
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// GetCards always returns nil (cache miss)
func (c *NoOpCache) GetCards(ctx context.Context, key string) ([]deck.Card, error) {
	return nil, nil
}

// SetCards does nothing and always succeeds
func (c *NoOpCache) SetCards(ctx context.Context, key string, cards []deck.Card, ttl time.Duration) error {
	return nil
}

// Close does nothing and always succeeds
func (c *NoOpCache) Close() error {
	return nil
}
