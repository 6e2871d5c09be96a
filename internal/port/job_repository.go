package port

import (
	"context"

	"github.com/google/uuid"

	"doculens/internal/domain"
)

// JobRepository persists extraction jobs.
type JobRepository interface {
	Create(ctx context.Context, job *domain.ExtractionJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ExtractionJob, error)
	List(ctx context.Context, offset, limit int) ([]domain.ExtractionJob, int, error)
	// ClaimQueued atomically transitions up to limit due queued jobs to
	// processing and returns them. Concurrent workers never claim the same job.
	ClaimQueued(ctx context.Context, limit int) ([]domain.ExtractionJob, error)
	Update(ctx context.Context, job *domain.ExtractionJob) error
}
