// Package scoring derives deterministic confidence scores from page results
// and fusion output. Confidence is a reliability summary in [0,1], not a
// probability.
package scoring

import (
	"doculens/internal/domain"
	"doculens/internal/fusion"
)

const (
	statusWeight       = 0.6
	completenessWeight = 0.4

	// Fixed deductions applied to the document score.
	typeDisagreementPenalty = 0.05
	fieldConflictPenalty    = 0.05
)

// statusWeights maps parse ladder outcomes to reliability weights.
var statusWeights = map[domain.ParseStatus]float64{
	domain.ParseStatusClean:        1.0,
	domain.ParseStatusRepairedJSON: 0.7,
	domain.ParseStatusFallbackText: 0.4,
	domain.ParseStatusFailed:       0.0,
}

// expectedFields lists, per document type, the field-name synonym sets that
// count toward completeness.
var expectedFields = map[domain.DocumentType][][]string{
	domain.DocTypeInvoice: {
		{"invoice_number", "invoice_no", "number"},
		{"date", "invoice_date", "issue_date"},
		{"vendor", "seller", "vendor_name", "company", "merchant"},
		{"total", "grand_total", "total_amount", "amount_due"},
	},
	domain.DocTypeReceipt: {
		{"merchant", "store", "vendor"},
		{"date", "receipt_date"},
		{"total", "grand_total", "total_amount"},
	},
	domain.DocTypeForm: {
		{"title", "form_title", "name"},
		{"date"},
	},
	domain.DocTypeTable: {
		{"title", "caption", "description"},
	},
	domain.DocTypeReport: {
		{"title", "report_title", "subject"},
		{"date", "report_date"},
	},
	domain.DocTypeLetter: {
		{"sender", "from"},
		{"recipient", "to"},
		{"date"},
	},
}

// PageConfidence scores one page as a weighted combination of parse status
// and field completeness for the detected document type.
func PageConfidence(p domain.PageResult) float64 {
	return statusWeight*statusWeights[p.ParseStatus] + completenessWeight*completeness(p)
}

// DocumentConfidence scores the whole document: the mean of per-page
// confidences, penalized per cross-page type disagreement and per conflicted
// field, clamped to [0,1]. Deterministic for a given page sequence.
func DocumentConfidence(pages []domain.PageResult, fus *fusion.Result) float64 {
	if len(pages) == 0 {
		return 0
	}

	sum := 0.0
	for _, p := range pages {
		sum += PageConfidence(p)
	}
	score := sum / float64(len(pages))

	for _, p := range pages {
		if p.DocumentType != domain.DocTypeUnknown && p.DocumentType != fus.DocumentType {
			score -= typeDisagreementPenalty
		}
	}
	score -= fieldConflictPenalty * float64(len(fus.Conflicts))

	return clamp01(score)
}

// completeness is the ratio of non-empty recognized fields to the expected
// field count for the detected type. Types without an expectation list get
// flat partial credit when any field was extracted.
func completeness(p domain.PageResult) float64 {
	expected, ok := expectedFields[p.DocumentType]
	if !ok {
		if countNonEmpty(p.Fields) > 0 {
			return 0.5
		}
		return 0
	}

	matched := 0
	for _, synonyms := range expected {
		for _, name := range synonyms {
			if v, present := p.Fields[name]; present && nonEmpty(v) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(expected))
}

func countNonEmpty(fields map[string]any) int {
	n := 0
	for _, v := range fields {
		if nonEmpty(v) {
			n++
		}
	}
	return n
}

func nonEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case map[string]any:
		return len(val) > 0
	case []any:
		return len(val) > 0
	default:
		return true
	}
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
