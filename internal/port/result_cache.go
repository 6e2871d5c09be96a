package port

import (
	"context"

	"doculens/internal/domain"
)

// ResultCache stores envelopes keyed by document content fingerprint so
// identical re-submissions skip inference. Implementations are best-effort;
// a miss or a cache error never fails the pipeline.
type ResultCache interface {
	Get(ctx context.Context, key string) (*domain.Envelope, bool, error)
	Set(ctx context.Context, key string, env *domain.Envelope) error
}
