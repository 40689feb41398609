package llm

import (
	"context"

	"ankigen/internal/deck"
)

// Request describes one flashcard generation call.
type Request struct {
	Text     string // source material, already condensed to the prompt budget
	DeckName string
	NumCards int
	Level    string // optional Bloom's taxonomy level
}

// Client is a minimal LLM interface to allow pluggable providers.
type Client interface {
	GenerateCards(ctx context.Context, req Request) ([]deck.Card, error)
}
