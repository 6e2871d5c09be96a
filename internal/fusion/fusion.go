// Package fusion combines independent per-page extraction results into one
// document-level result: a single document type, merged fields with page
// provenance, and warnings for cross-page inconsistencies.
package fusion

import (
	"fmt"
	"reflect"
	"sort"

	"doculens/internal/domain"
)

// Result is the document-level output of fusing a page sequence.
type Result struct {
	DocumentType domain.DocumentType
	FusedFields  map[string]domain.FusedField
	Conflicts    map[string][]domain.FieldConflict
	Warnings     []string
}

// Fuse merges an ordered page result sequence. It always produces a result:
// an all-failed sequence yields an unknown type, empty fields, and an
// explicit total-failure warning rather than an error.
func Fuse(pages []domain.PageResult) *Result {
	res := &Result{
		FusedFields: map[string]domain.FusedField{},
		Conflicts:   map[string][]domain.FieldConflict{},
	}

	res.DocumentType = voteDocumentType(pages)

	allFailed := true
	for _, p := range pages {
		if p.ParseStatus != domain.ParseStatusFailed {
			allFailed = false
			break
		}
	}
	if allFailed {
		res.DocumentType = domain.DocTypeUnknown
		res.Warnings = append(res.Warnings, "extraction failed on every page; no structured data recovered")
		return res
	}

	// Field merge: the first page reporting a field wins; later differing
	// values are retained as conflicts instead of being silently overwritten.
	for _, p := range pages {
		for _, name := range sortedFieldNames(p.Fields) {
			value := p.Fields[name]
			existing, ok := res.FusedFields[name]
			if !ok {
				res.FusedFields[name] = domain.FusedField{Value: value, Page: p.PageIndex}
				continue
			}
			if !reflect.DeepEqual(existing.Value, value) {
				res.Conflicts[name] = append(res.Conflicts[name], domain.FieldConflict{
					Page:  p.PageIndex,
					Value: value,
				})
			}
		}
	}

	res.Warnings = append(res.Warnings, crossPageWarnings(pages, res)...)
	return res
}

// voteDocumentType returns the plurality type over non-unknown pages. Ties
// are broken by the earliest page reporting the type.
func voteDocumentType(pages []domain.PageResult) domain.DocumentType {
	counts := map[domain.DocumentType]int{}
	firstSeen := map[domain.DocumentType]int{}

	for _, p := range pages {
		if p.DocumentType == domain.DocTypeUnknown {
			continue
		}
		if _, ok := firstSeen[p.DocumentType]; !ok {
			firstSeen[p.DocumentType] = p.PageIndex
		}
		counts[p.DocumentType]++
	}
	if len(counts) == 0 {
		return domain.DocTypeUnknown
	}

	winner := domain.DocTypeUnknown
	bestCount := -1
	for t, n := range counts {
		switch {
		case n > bestCount:
			winner, bestCount = t, n
		case n == bestCount && firstSeen[t] < firstSeen[winner]:
			winner = t
		}
	}
	return winner
}

func crossPageWarnings(pages []domain.PageResult, res *Result) []string {
	var warnings []string

	for _, p := range pages {
		if p.DocumentType != domain.DocTypeUnknown && p.DocumentType != res.DocumentType {
			warnings = append(warnings, fmt.Sprintf(
				"page %d type %q differs from majority %q", p.PageIndex+1, p.DocumentType, res.DocumentType))
		}
		if p.ParseStatus == domain.ParseStatusFailed {
			warnings = append(warnings, fmt.Sprintf("page %d: no structured data extracted", p.PageIndex+1))
		}
	}

	// Fields absent from some pages are only noteworthy on multi-page
	// documents where other pages did report them.
	if len(pages) > 1 {
		for _, name := range sortedKeys(res.FusedFields) {
			for _, p := range pages {
				if p.ParseStatus == domain.ParseStatusFailed {
					continue
				}
				if _, ok := p.Fields[name]; !ok {
					warnings = append(warnings, fmt.Sprintf("field %q missing on page %d", name, p.PageIndex+1))
				}
			}
		}
	}
	return warnings
}

func sortedFieldNames(fields map[string]any) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedKeys(fields map[string]domain.FusedField) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
