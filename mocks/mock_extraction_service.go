package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"doculens/internal/domain"
	"doculens/internal/service"
)

// MockExtractionService is a mock implementation of service.ExtractionService.
type MockExtractionService struct {
	mock.Mock
}

func (m *MockExtractionService) Submit(ctx context.Context, input service.SubmitInput) (*domain.ExtractionJob, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExtractionJob), args.Error(1)
}

func (m *MockExtractionService) ProcessSync(ctx context.Context, input service.SubmitInput) (*domain.Envelope, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Envelope), args.Error(1)
}

func (m *MockExtractionService) GetJob(ctx context.Context, id uuid.UUID) (*domain.ExtractionJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExtractionJob), args.Error(1)
}

func (m *MockExtractionService) GetEnvelope(ctx context.Context, id uuid.UUID) (*domain.Envelope, string, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*domain.Envelope), args.String(1), args.Error(2)
}

func (m *MockExtractionService) ListJobs(ctx context.Context, offset, limit int) ([]domain.ExtractionJob, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ExtractionJob), args.Int(1), args.Error(2)
}

func (m *MockExtractionService) ProcessJob(ctx context.Context, job *domain.ExtractionJob) {
	m.Called(ctx, job)
}
