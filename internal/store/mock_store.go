package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"ankigen/internal/deck"
)

// MockStore is a mock implementation of Store using testify/mock.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateSource(ctx context.Context, filename, content string) (Source, error) {
	args := m.Called(ctx, filename, content)
	return args.Get(0).(Source), args.Error(1)
}

func (m *MockStore) GetSource(ctx context.Context, id uuid.UUID) (Source, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Source), args.Error(1)
}

func (m *MockStore) CreateDeck(ctx context.Context, sourceID uuid.UUID, name string) (Deck, error) {
	args := m.Called(ctx, sourceID, name)
	return args.Get(0).(Deck), args.Error(1)
}

func (m *MockStore) GetDeck(ctx context.Context, id uuid.UUID) (Deck, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Deck), args.Error(1)
}

func (m *MockStore) ListDecks(ctx context.Context) ([]Deck, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Deck), args.Error(1)
}

func (m *MockStore) UpdateDeckStatus(ctx context.Context, id uuid.UUID, status DeckStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockStore) SaveCards(ctx context.Context, deckID uuid.UUID, cards []deck.Card) ([]Card, error) {
	args := m.Called(ctx, deckID, cards)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Card), args.Error(1)
}

func (m *MockStore) ListCards(ctx context.Context, deckID uuid.UUID) ([]Card, error) {
	args := m.Called(ctx, deckID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Card), args.Error(1)
}
