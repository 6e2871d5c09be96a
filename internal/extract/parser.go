// Package extract turns raw model output into validated page results using a
// four-stage degradation ladder: strict decode, balanced-object repair,
// heuristic text recovery, failure. Each stage's result is a typed status so
// callers can branch on confidence-relevant detail instead of catching a
// generic parse error.
package extract

import (
	"encoding/json"
	"io"
	"strings"

	"doculens/internal/domain"
)

// ParsePage runs the parse degradation ladder over one raw model response.
// It never fails: the worst outcome is a Failed result with empty fields and
// unknown type. Field values are kept exactly as the model produced them;
// currency strings and dates are never re-parsed or reformatted.
func ParsePage(pageIndex int, rawText string) domain.PageResult {
	res := domain.PageResult{
		PageIndex:    pageIndex,
		DocumentType: domain.DocTypeUnknown,
		Fields:       map[string]any{},
		ParseStatus:  domain.ParseStatusFailed,
		RawText:      rawText,
	}

	trimmed := strings.TrimSpace(rawText)
	if trimmed == "" {
		return res
	}

	// Stage 1: the entire response is the documented object.
	if v, ok := decodeObject(trimmed); ok && payloadSchema.Validate(v) == nil {
		res.DocumentType, res.Fields = coercePayload(v)
		res.ParseStatus = domain.ParseStatusClean
		return res
	}

	// Stage 2: the object is buried in prose, code fences, or the balanced
	// remainder of a truncated response. First usable candidate wins.
	cleaned := sanitize(rawText)
	for _, candidate := range balancedObjects(cleaned) {
		v, ok := decodeObject(candidate)
		if !ok {
			continue
		}
		docType, fields := coercePayload(v)
		if docType == domain.DocTypeUnknown && len(fields) == 0 {
			continue
		}
		res.DocumentType = docType
		res.Fields = fields
		res.ParseStatus = domain.ParseStatusRepairedJSON
		return res
	}

	// Stage 3: heuristic key/value recovery from unstructured text.
	if docType, fields := recoverFromText(cleaned); len(fields) > 0 {
		res.DocumentType = docType
		res.Fields = fields
		res.ParseStatus = domain.ParseStatusFallbackText
		return res
	}

	// Stage 4: nothing recoverable.
	return res
}

// decodeObject decodes s as a single JSON object with no trailing content.
// Numbers are kept as json.Number so values round-trip without precision or
// locale loss.
func decodeObject(s string) (map[string]any, bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	return obj, true
}

// coercePayload maps a decoded object onto (document type, fields). Models
// sometimes flatten the schema; anything outside the envelope keys is then
// treated as a field.
func coercePayload(obj map[string]any) (domain.DocumentType, map[string]any) {
	docType := domain.DocTypeUnknown
	if t, ok := obj["type"].(string); ok {
		if dt := domain.DocumentType(strings.ToLower(strings.TrimSpace(t))); domain.IsKnownDocumentType(dt) {
			docType = dt
		}
	}

	fields := map[string]any{}
	if f, ok := obj["fields"].(map[string]any); ok {
		for k, val := range f {
			fields[k] = val
		}
		return docType, fields
	}
	for k, val := range obj {
		switch k {
		case "type", "confidence":
			continue
		}
		fields[k] = val
	}
	return docType, fields
}
