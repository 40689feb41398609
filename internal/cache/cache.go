package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"ankigen/internal/deck"
)

// Cache stores generated decks so identical material and options never hit
// the LLM twice.
type Cache interface {
	// GetCards retrieves cached cards by key. Returns nil on a miss.
	GetCards(ctx context.Context, key string) ([]deck.Card, error)

	// SetCards stores generated cards with TTL.
	SetCards(ctx context.Context, key string, cards []deck.Card, ttl time.Duration) error

	// Close closes the cache connection.
	Close() error
}

// Key derives a deterministic cache key from the generation inputs.
// Any change to the material or options produces a different key.
func Key(model, deckName, level string, numCards int, content string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%d|", model, deckName, level, numCards)
	h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil))
}
