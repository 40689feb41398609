package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ankigen/internal/app"
	"ankigen/internal/cache"
	"ankigen/internal/chunker"
	"ankigen/internal/deck"
	"ankigen/internal/httputil"
	"ankigen/internal/llm"
	"ankigen/internal/queue"
	"ankigen/internal/store"
)

type generateTaskPayload struct {
	DeckID   uuid.UUID `json:"deck_id"`
	SourceID uuid.UUID `json:"source_id"`
	DeckName string    `json:"deck_name"`
	NumCards int       `json:"num_cards"`
	Level    string    `json:"level"`
	Force    bool      `json:"force"`
}

func main() {
	deps, err := app.BuildGenerator()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	deps.Log.Info("generator worker starting")
	defer deps.Cache.Close()

	g, ctx := errgroup.WithContext(context.Background())

	// Run queue worker
	g.Go(func() error {
		return deps.Queue.Worker(ctx, queue.TaskTypeGenerate, func(ctx context.Context, task queue.Task) error {
			var payload generateTaskPayload
			if err := json.Unmarshal(task.Payload, &payload); err != nil {
				return err
			}
			return handleGenerate(ctx, deps, payload)
		})
	})

	// Run health check server
	g.Go(func() error {
		return httputil.ServeHealth(deps.Log, deps.Config.Port, "generator")
	})

	// Wait for either to fail
	if err := g.Wait(); err != nil {
		deps.Log.Error("generator service stopped", "err", err)
	}
}

func handleGenerate(ctx context.Context, deps app.GeneratorDeps, payload generateTaskPayload) error {
	log := deps.Log.With("deck_id", payload.DeckID, "deck_name", payload.DeckName)

	if payload.NumCards < 1 {
		payload.NumCards = deps.Config.NumCards
	}
	if !deck.ValidLevel(payload.Level) {
		return markFailed(ctx, deps, payload.DeckID, fmt.Errorf("invalid taxonomy level: %q", payload.Level))
	}

	src, err := deps.Store.GetSource(ctx, payload.SourceID)
	if err != nil {
		return markFailed(ctx, deps, payload.DeckID, fmt.Errorf("failed to get source: %w", err))
	}
	if err := deps.Store.UpdateDeckStatus(ctx, payload.DeckID, store.StatusGenerating); err != nil {
		return err
	}

	text := chunker.Condense(src.Content, deps.Config.PromptTokenBudget)
	cards, cached, err := generateCards(ctx, deps, log, payload, text)
	if err != nil {
		return markFailed(ctx, deps, payload.DeckID, err)
	}

	cards, err = deck.Clean(cards, deps.Config.MaxCards)
	if err != nil {
		return markFailed(ctx, deps, payload.DeckID, fmt.Errorf("model returned %w", err))
	}

	if _, err := deps.Store.SaveCards(ctx, payload.DeckID, cards); err != nil {
		return markFailed(ctx, deps, payload.DeckID, fmt.Errorf("failed to save cards: %w", err))
	}
	if err := deps.Store.UpdateDeckStatus(ctx, payload.DeckID, store.StatusReady); err != nil {
		return err
	}

	if !cached {
		fillCache(ctx, deps, log, payload, text, cards)
	}
	log.Info("deck generated", "cards", len(cards), "cached", cached)
	return nil
}

// generateCards consults the cache first, then the LLM. The bool result
// reports whether the cards came from the cache.
func generateCards(ctx context.Context, deps app.GeneratorDeps, log *slog.Logger, payload generateTaskPayload, text string) ([]deck.Card, bool, error) {
	key := cache.Key(deps.Config.LLMModel, payload.DeckName, payload.Level, payload.NumCards, text)
	if !payload.Force {
		if cards, err := deps.Cache.GetCards(ctx, key); err != nil {
			log.Warn("cache read failed", "err", err)
		} else if cards != nil {
			log.Info("cache hit")
			return cards, true, nil
		}
	}

	cards, err := deps.LLM.GenerateCards(ctx, llm.Request{
		Text:     text,
		DeckName: payload.DeckName,
		NumCards: payload.NumCards,
		Level:    payload.Level,
	})
	if err != nil {
		return nil, false, fmt.Errorf("llm generation failed: %w", err)
	}
	return cards, false, nil
}

func fillCache(ctx context.Context, deps app.GeneratorDeps, log *slog.Logger, payload generateTaskPayload, text string, cards []deck.Card) {
	key := cache.Key(deps.Config.LLMModel, payload.DeckName, payload.Level, payload.NumCards, text)
	ttl := time.Duration(deps.Config.CacheTTL) * time.Second
	if err := deps.Cache.SetCards(ctx, key, cards, ttl); err != nil {
		// Cache write failure is not fatal; the deck is already persisted.
		log.Warn("failed to cache cards", "err", err)
	}
}

// markFailed records the failure on the deck and returns the original error
// so the queue's retry policy still applies.
func markFailed(ctx context.Context, deps app.GeneratorDeps, deckID uuid.UUID, err error) error {
	if upErr := deps.Store.UpdateDeckStatus(ctx, deckID, store.StatusFailed); upErr != nil {
		deps.Log.Error("failed to mark deck failed", "deck_id", deckID, "err", upErr)
	}
	return err
}
