// Package pipeline orchestrates per-page inference and parsing, then fuses
// and scores the ordered page results into one document result.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"doculens/internal/domain"
	"doculens/internal/extract"
	"doculens/internal/fusion"
	"doculens/internal/metrics"
	"doculens/internal/port"
	"doculens/internal/prompt"
	"doculens/internal/scoring"
)

// Config holds pipeline-wide constants, immutable for the duration of a run.
type Config struct {
	MaxConcurrency  int
	MaxRetries      int // extra gateway attempts per page, Timeout/TransportError only
	MaxPages        int // 0 = unlimited
	MaxOutputTokens int
	Temperature     float32
	CallTimeout     time.Duration
}

// Pipeline drives the extraction of one document at a time. Pages are
// independent; the gateway is the only blocking resource, so page calls run
// concurrently up to MaxConcurrency.
type Pipeline struct {
	gateway port.InferenceGateway
	cfg     Config
}

// New creates a Pipeline around an inference gateway.
func New(gateway port.InferenceGateway, cfg Config) *Pipeline {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 1
	}
	return &Pipeline{gateway: gateway, cfg: cfg}
}

// Run processes every page of doc and assembles the document result.
//
// Each page goroutine writes only its own result slot, so the final page
// sequence is in page-index order regardless of completion order and fusion
// and scoring see a deterministic input. Cancellation is document-atomic:
// a cancelled context abandons in-flight calls and returns an error instead
// of a partial result. Per-page failures are never fatal; a document where
// every page failed still returns a result with confidence 0 and an
// explicit warning.
func (p *Pipeline) Run(ctx context.Context, doc *domain.SourceDocument) (*domain.DocumentResult, error) {
	if len(doc.Pages) == 0 {
		return nil, domain.ErrNoPages
	}

	pages := doc.Pages
	var capWarning string
	if p.cfg.MaxPages > 0 && len(pages) > p.cfg.MaxPages {
		capWarning = fmt.Sprintf("processing limited to first %d of %d pages", p.cfg.MaxPages, len(pages))
		pages = pages[:p.cfg.MaxPages]
	}

	start := time.Now()

	results := make([]domain.PageResult, len(pages))
	pageWarnings := make([][]string, len(pages))
	sem := make(chan struct{}, p.cfg.MaxConcurrency)

	var wg sync.WaitGroup
	for i := range pages {
		page := pages[i]
		slot := i

		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			results[slot], pageWarnings[slot] = p.processPage(ctx, page)
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCancelled, err)
	}

	fused := fusion.Fuse(results)
	confidence := scoring.DocumentConfidence(results, fused)

	var warnings []string
	if capWarning != "" {
		warnings = append(warnings, capWarning)
	}
	for _, ws := range pageWarnings {
		warnings = append(warnings, ws...)
	}
	warnings = append(warnings, fused.Warnings...)

	elapsed := time.Since(start)
	metrics.DocumentDuration.Observe(elapsed.Seconds())

	res := &domain.DocumentResult{
		DocumentType:   fused.DocumentType,
		TotalPages:     len(results),
		Pages:          results,
		FusedFields:    fused.FusedFields,
		Conflicts:      fused.Conflicts,
		Confidence:     confidence,
		Warnings:       warnings,
		ProcessingTime: elapsed.Seconds(),
	}
	log.Printf("pipeline: %s processed %d page(s) in %.1fs (type=%s, confidence=%.2f)",
		doc.SourceName, len(results), res.ProcessingTime, res.DocumentType, res.Confidence)
	return res, nil
}

// processPage runs one page to a terminal state: prompt, gateway call with
// retry, parse. Terminal results are never revisited or re-requested.
func (p *Pipeline) processPage(ctx context.Context, page domain.PageImage) (domain.PageResult, []string) {
	resp := p.callWithRetry(ctx, page)

	if resp.Outcome != domain.OutcomeSuccess {
		metrics.PagesParsedTotal.WithLabelValues(string(domain.ParseStatusFailed)).Inc()
		return failedResult(page.Index), []string{outcomeWarning(page.Index, resp)}
	}

	result := extract.ParsePage(page.Index, resp.RawText)
	metrics.PagesParsedTotal.WithLabelValues(string(result.ParseStatus)).Inc()

	var warnings []string
	if result.ParseStatus == domain.ParseStatusFailed {
		warnings = append(warnings, fmt.Sprintf("page %d: response contained no extractable structure", page.Index+1))
	}
	return result, warnings
}

// callWithRetry issues the gateway call, re-issuing it at most MaxRetries
// times and only for transient outcomes. A received-but-malformed response
// is a content problem and is never retried.
func (p *Pipeline) callWithRetry(ctx context.Context, page domain.PageImage) domain.InferenceResponse {
	req := domain.InferenceRequest{
		PageIndex:       page.Index,
		Prompt:          prompt.BuildPagePrompt(page.Index),
		ImageData:       page.Data,
		ImageMIMEType:   page.ContentType,
		MaxOutputTokens: p.cfg.MaxOutputTokens,
		Temperature:     p.cfg.Temperature,
		Timeout:         p.cfg.CallTimeout,
	}

	resp := p.gateway.Generate(ctx, req)
	for attempt := 0; attempt < p.cfg.MaxRetries && resp.Outcome.Retryable() && ctx.Err() == nil; attempt++ {
		log.Printf("pipeline: page %d %s, retrying", page.Index+1, resp.Outcome)
		resp = p.gateway.Generate(ctx, req)
	}
	return resp
}

func failedResult(pageIndex int) domain.PageResult {
	return domain.PageResult{
		PageIndex:    pageIndex,
		DocumentType: domain.DocTypeUnknown,
		Fields:       map[string]any{},
		ParseStatus:  domain.ParseStatusFailed,
	}
}

func outcomeWarning(pageIndex int, resp domain.InferenceResponse) string {
	switch resp.Outcome {
	case domain.OutcomeTimeout:
		return fmt.Sprintf("page %d: inference timed out", pageIndex+1)
	case domain.OutcomeTransportError:
		return fmt.Sprintf("page %d: inference endpoint unreachable (%s)", pageIndex+1, resp.Detail)
	default:
		return fmt.Sprintf("page %d: inference endpoint error (%s)", pageIndex+1, resp.Detail)
	}
}
