package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"doculens/internal/domain"
)

// MockInferenceGateway is a mock implementation of port.InferenceGateway.
type MockInferenceGateway struct {
	mock.Mock
}

func (m *MockInferenceGateway) Generate(ctx context.Context, req domain.InferenceRequest) domain.InferenceResponse {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.InferenceResponse)
}
