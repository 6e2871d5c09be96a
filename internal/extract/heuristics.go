package extract

import (
	"regexp"
	"strings"

	"doculens/internal/domain"
)

const amountPattern = `[$€£₹]\s?\d[\d,]*(?:\.\d+)?|\d[\d,]*\.\d{2}`

var (
	labeledAmountRe = regexp.MustCompile(`(?i)\b(grand total|total due|amount due|subtotal|total|balance|tax)\b\s*(?:[:=]|of\b|was\b|is\b)?\s*(` + amountPattern + `)`)
	dateRe          = regexp.MustCompile(`(?i)\b\d{4}-\d{2}-\d{2}\b|\b\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4}\b|\b\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?,?\s+\d{4}\b`)
	identifierRe    = regexp.MustCompile(`(?i)\b(invoice|receipt|order|reference|ref|po)\s*(?:no\.?|number|num)?\s*[:#]\s*([A-Za-z0-9][A-Za-z0-9/_-]*)`)
)

// amountKeys normalizes amount labels onto canonical field names.
var amountKeys = map[string]string{
	"grand total": "total",
	"total due":   "total",
	"amount due":  "total",
	"total":       "total",
	"subtotal":    "subtotal",
	"balance":     "balance",
	"tax":         "tax",
}

// identifierKeys normalizes identifier labels onto canonical field names.
var identifierKeys = map[string]string{
	"invoice":   "invoice_number",
	"receipt":   "receipt_number",
	"order":     "order_number",
	"reference": "reference",
	"ref":       "reference",
	"po":        "po_number",
}

// typeKeywords guesses a document type from prose, checked in order.
var typeKeywords = []struct {
	keyword string
	docType domain.DocumentType
}{
	{"invoice", domain.DocTypeInvoice},
	{"receipt", domain.DocTypeReceipt},
	{"report", domain.DocTypeReport},
	{"sincerely", domain.DocTypeLetter},
	{"dear ", domain.DocTypeLetter},
	{"form", domain.DocTypeForm},
}

// recoverFromText scrapes recognizable field patterns (amounts, dates,
// identifiers) out of unstructured text. Amount values keep their literal
// currency text. Returns whatever was recoverable; the caller decides
// whether that is enough for a FallbackText result.
func recoverFromText(text string) (domain.DocumentType, map[string]any) {
	fields := map[string]any{}

	for _, m := range labeledAmountRe.FindAllStringSubmatch(text, -1) {
		key := amountKeys[strings.ToLower(m[1])]
		if _, seen := fields[key]; !seen {
			fields[key] = strings.TrimSpace(m[2])
		}
	}

	for _, m := range identifierRe.FindAllStringSubmatch(text, -1) {
		key := identifierKeys[strings.ToLower(m[1])]
		if _, seen := fields[key]; !seen {
			fields[key] = m[2]
		}
	}

	if m := dateRe.FindString(text); m != "" {
		fields["date"] = strings.TrimSpace(m)
	}

	docType := domain.DocTypeUnknown
	lower := strings.ToLower(text)
	for _, tk := range typeKeywords {
		if strings.Contains(lower, tk.keyword) {
			docType = tk.docType
			break
		}
	}
	if len(fields) == 0 {
		// A keyword alone is not evidence of extractable structure.
		return domain.DocTypeUnknown, fields
	}
	return docType, fields
}
