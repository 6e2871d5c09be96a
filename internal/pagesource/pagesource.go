// Package pagesource assembles uploaded page images into an ordered
// SourceDocument ready for the pipeline.
package pagesource

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"

	"rsc.io/pdf"

	"doculens/internal/domain"
)

// Source builds source documents from raw page image bytes. Rasterization
// happens before doculens: callers upload one raster image per page, in
// page order.
type Source struct{}

func New() *Source {
	return &Source{}
}

// Load validates and decodes the uploaded page images. Pages keep their
// upload order; page i becomes PageImage.Index i. Images with an
// unsupported content type or undecodable bytes fail the whole load, since
// a document with silently dropped pages would fuse incorrectly.
func (s *Source) Load(ctx context.Context, sourceName string, pages [][]byte, contentTypes []string) (*domain.SourceDocument, error) {
	if len(pages) == 0 {
		return nil, domain.ErrNoPages
	}
	if len(contentTypes) != len(pages) {
		return nil, fmt.Errorf("pagesource.Source: %d pages but %d content types", len(pages), len(contentTypes))
	}

	doc := &domain.SourceDocument{
		SourceName: sourceName,
		TotalPages: len(pages),
		Pages:      make([]domain.PageImage, 0, len(pages)),
	}
	for i, data := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ct := contentTypes[i]
		if !domain.AllowedContentTypes[ct] {
			return nil, fmt.Errorf("page %d: %w (%s)", i+1, domain.ErrUnsupportedFileType, ct)
		}
		cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("page %d: decoding %s image: %w", i+1, ct, err)
		}
		log.Printf("pagesource.Source: %s page %d decoded as %s (%dx%d, %d bytes)",
			sourceName, i+1, format, cfg.Width, cfg.Height, len(data))

		doc.Pages = append(doc.Pages, domain.PageImage{
			Index:       i,
			Data:        data,
			ContentType: ct,
			Width:       cfg.Width,
			Height:      cfg.Height,
		})
	}
	return doc, nil
}

// PDFPageCount reads the page count of a source PDF. Used only to
// cross-check the number of uploaded page images; the PDF itself is never
// rasterized here.
func PDFPageCount(data []byte) (int, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("reading pdf: %w", err)
	}
	return r.NumPage(), nil
}
