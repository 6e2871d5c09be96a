package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"doculens/internal/domain"
)

// MockResultCache is a mock implementation of port.ResultCache.
type MockResultCache struct {
	mock.Mock
}

func (m *MockResultCache) Get(ctx context.Context, key string) (*domain.Envelope, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.Envelope), args.Bool(1), args.Error(2)
}

func (m *MockResultCache) Set(ctx context.Context, key string, env *domain.Envelope) error {
	args := m.Called(ctx, key, env)
	return args.Error(0)
}
