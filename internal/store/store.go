package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"ankigen/internal/deck"
)

type DeckStatus string

const (
	StatusPending    DeckStatus = "pending"
	StatusGenerating DeckStatus = "generating"
	StatusReady      DeckStatus = "ready"
	StatusFailed     DeckStatus = "failed"
)

var (
	ErrSourceNotFound = errors.New("source not found")
	ErrDeckNotFound   = errors.New("deck not found")
)

// Source is uploaded study material. Content is kept so a deck can be
// regenerated without re-uploading.
type Source struct {
	ID        uuid.UUID
	Filename  string
	Content   string
	CreatedAt time.Time
}

type Deck struct {
	ID        uuid.UUID
	SourceID  uuid.UUID
	Name      string
	Status    DeckStatus
	CreatedAt time.Time
}

type Card struct {
	ID       uuid.UUID
	DeckID   uuid.UUID
	Index    int
	Question string
	Answer   string
	Tags     []string
}

// Flashcard converts a stored card back to its domain form.
func (c Card) Flashcard() deck.Card {
	return deck.Card{Question: c.Question, Answer: c.Answer, Tags: c.Tags}
}

// Store defines persistence contract; an external DB implementation can replace this.
type Store interface {
	CreateSource(ctx context.Context, filename, content string) (Source, error)
	GetSource(ctx context.Context, id uuid.UUID) (Source, error)
	CreateDeck(ctx context.Context, sourceID uuid.UUID, name string) (Deck, error)
	GetDeck(ctx context.Context, id uuid.UUID) (Deck, error)
	ListDecks(ctx context.Context) ([]Deck, error)
	UpdateDeckStatus(ctx context.Context, id uuid.UUID, status DeckStatus) error
	SaveCards(ctx context.Context, deckID uuid.UUID, cards []deck.Card) ([]Card, error)
	ListCards(ctx context.Context, deckID uuid.UUID) ([]Card, error)
}
