package llm

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ankigen/internal/deck"
)

// MockClient is a mock implementation of Client using testify/mock.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) GenerateCards(ctx context.Context, req Request) ([]deck.Card, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]deck.Card), args.Error(1)
}
