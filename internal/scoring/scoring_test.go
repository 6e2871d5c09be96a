package scoring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"doculens/internal/domain"
	"doculens/internal/fusion"
	"doculens/internal/scoring"
)

func invoicePage(index int, status domain.ParseStatus, fields map[string]any) domain.PageResult {
	if fields == nil {
		fields = map[string]any{}
	}
	return domain.PageResult{
		PageIndex:    index,
		DocumentType: domain.DocTypeInvoice,
		Fields:       fields,
		ParseStatus:  status,
	}
}

func failedPage(index int) domain.PageResult {
	return domain.PageResult{
		PageIndex:    index,
		DocumentType: domain.DocTypeUnknown,
		Fields:       map[string]any{},
		ParseStatus:  domain.ParseStatusFailed,
	}
}

func TestPageConfidence_CleanInvoiceHalfComplete(t *testing.T) {
	// Clean parse with 2 of 4 expected invoice field groups present:
	// 0.6*1.0 + 0.4*0.5 = 0.8
	p := invoicePage(0, domain.ParseStatusClean, map[string]any{
		"vendor": "ACME Corp",
		"total":  "$1,250.00",
	})

	assert.InDelta(t, 0.8, scoring.PageConfidence(p), 1e-9)
}

func TestPageConfidence_FailedPageIsZero(t *testing.T) {
	assert.Zero(t, scoring.PageConfidence(failedPage(0)))
}

func TestPageConfidence_SynonymsCount(t *testing.T) {
	// seller counts for the vendor group, grand_total for the total group.
	a := invoicePage(0, domain.ParseStatusClean, map[string]any{"vendor": "X", "total": "$1"})
	b := invoicePage(0, domain.ParseStatusClean, map[string]any{"seller": "X", "grand_total": "$1"})

	assert.Equal(t, scoring.PageConfidence(a), scoring.PageConfidence(b))
}

func TestPageConfidence_StatusOrdering(t *testing.T) {
	fields := map[string]any{"vendor": "X", "total": "$1"}
	clean := scoring.PageConfidence(invoicePage(0, domain.ParseStatusClean, fields))
	repaired := scoring.PageConfidence(invoicePage(0, domain.ParseStatusRepairedJSON, fields))
	fallback := scoring.PageConfidence(invoicePage(0, domain.ParseStatusFallbackText, fields))

	assert.Greater(t, clean, repaired)
	assert.Greater(t, repaired, fallback)
}

func TestDocumentConfidence_MixedTwoPageDocument(t *testing.T) {
	// Page 1 failed, page 2 clean with vendor+total: (0 + 0.8)/2 = 0.4.
	pages := []domain.PageResult{
		failedPage(0),
		invoicePage(1, domain.ParseStatusClean, map[string]any{"vendor": "ACME", "total": "$9.00"}),
	}
	fus := fusion.Fuse(pages)

	score := scoring.DocumentConfidence(pages, fus)
	assert.InDelta(t, 0.4, score, 1e-9)
	assert.GreaterOrEqual(t, score, 0.3)
	assert.LessOrEqual(t, score, 0.6)
}

func TestDocumentConfidence_MonotonicInFailedPages(t *testing.T) {
	good := invoicePage(0, domain.ParseStatusClean, map[string]any{"vendor": "ACME", "total": "$9.00"})

	prev := 2.0
	for failed := 0; failed <= 3; failed++ {
		pages := []domain.PageResult{good}
		for i := 0; i < failed; i++ {
			pages = append(pages, failedPage(i+1))
		}
		score := scoring.DocumentConfidence(pages, fusion.Fuse(pages))
		assert.LessOrEqual(t, score, prev, "%d failed pages", failed)
		prev = score
	}
}

func TestDocumentConfidence_AllFailedIsZero(t *testing.T) {
	pages := []domain.PageResult{failedPage(0), failedPage(1)}
	assert.Zero(t, scoring.DocumentConfidence(pages, fusion.Fuse(pages)))
}

func TestDocumentConfidence_PenalizesDisagreementAndConflicts(t *testing.T) {
	agreeing := []domain.PageResult{
		invoicePage(0, domain.ParseStatusClean, map[string]any{"vendor": "ACME", "total": "$9.00"}),
		invoicePage(1, domain.ParseStatusClean, map[string]any{"vendor": "ACME", "total": "$9.00"}),
	}
	base := scoring.DocumentConfidence(agreeing, fusion.Fuse(agreeing))

	conflicting := []domain.PageResult{
		invoicePage(0, domain.ParseStatusClean, map[string]any{"vendor": "ACME", "total": "$9.00"}),
		invoicePage(1, domain.ParseStatusClean, map[string]any{"vendor": "ACME", "total": "$11.00"}),
	}
	withConflict := scoring.DocumentConfidence(conflicting, fusion.Fuse(conflicting))
	assert.InDelta(t, base-0.05, withConflict, 1e-9)

	disagreeing := []domain.PageResult{
		invoicePage(0, domain.ParseStatusClean, map[string]any{"vendor": "ACME", "total": "$9.00"}),
		{
			PageIndex:    1,
			DocumentType: domain.DocTypeLetter,
			Fields:       map[string]any{"sender": "ACME", "recipient": "Bob", "date": "2024-01-01"},
			ParseStatus:  domain.ParseStatusClean,
		},
	}
	fus := fusion.Fuse(disagreeing)
	withDisagreement := scoring.DocumentConfidence(disagreeing, fus)
	mean := (scoring.PageConfidence(disagreeing[0]) + scoring.PageConfidence(disagreeing[1])) / 2
	assert.InDelta(t, mean-0.05, withDisagreement, 1e-9)
}

func TestDocumentConfidence_Clamped(t *testing.T) {
	pages := []domain.PageResult{failedPage(0)}
	fus := fusion.Fuse(pages)
	// Pile on artificial conflicts to push the raw score negative.
	fus.Conflicts = map[string][]domain.FieldConflict{
		"a": {{Page: 0, Value: 1}},
		"b": {{Page: 0, Value: 1}},
	}

	score := scoring.DocumentConfidence(pages, fus)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 1.0)
}

func TestDocumentConfidence_EmptyPages(t *testing.T) {
	assert.Zero(t, scoring.DocumentConfidence(nil, fusion.Fuse(nil)))
}
