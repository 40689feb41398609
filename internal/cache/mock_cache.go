package cache

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"ankigen/internal/deck"
)

// MockCache is a mock implementation of the Cache interface for testing
type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetCards(ctx context.Context, key string) ([]deck.Card, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]deck.Card), args.Error(1)
}

func (m *MockCache) SetCards(ctx context.Context, key string, cards []deck.Card, ttl time.Duration) error {
	args := m.Called(ctx, key, cards, ttl)
	return args.Error(0)
}

func (m *MockCache) Close() error {
	args := m.Called()
	return args.Error(0)
}
