package port

import (
	"context"

	"doculens/internal/domain"
)

// InferenceGateway abstracts the external vision-language endpoint. One call
// per page; the per-call timeout in the request bounds how long Generate may
// block. Expected failures (timeout, connection refused, 5xx) are encoded in
// the response outcome, never returned as errors, so downstream components
// branch on typed outcomes instead of transport details. The gateway performs
// no retries; retry policy belongs to the orchestrator.
type InferenceGateway interface {
	Generate(ctx context.Context, req domain.InferenceRequest) domain.InferenceResponse
}
