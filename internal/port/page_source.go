package port

import (
	"context"

	"doculens/internal/domain"
)

// PageSource supplies an ordered page image sequence plus source metadata.
// Rasterization and DPI selection are the collaborator's concern; the
// pipeline only reads the pages it is given.
type PageSource interface {
	Load(ctx context.Context, sourceName string, pages [][]byte, contentTypes []string) (*domain.SourceDocument, error)
}
