package prompt

import (
	"fmt"
	"strings"

	"doculens/internal/domain"
)

// Version identifies the prompt wording. It participates in result cache
// keys so cached envelopes are invalidated when the prompt changes.
const Version = "v1"

// BuildPagePrompt returns the single-pass classification+extraction prompt
// for one page. Pure function of its inputs: the same page index always
// yields the same text. Token budget and temperature are pipeline-wide
// constants carried on the request, not derived from content.
func BuildPagePrompt(pageIndex int) string {
	types := make([]string, 0, len(domain.KnownDocumentTypes))
	for _, t := range domain.KnownDocumentTypes {
		types = append(types, string(t))
	}

	return fmt.Sprintf(`You are a document data extraction assistant. Analyze page %d of a scanned document and classify and extract it in ONE pass.

Classify the page as exactly one of: %s.

Return ONLY a single JSON object with no markdown formatting, no code fences, and no explanation — just the raw JSON object, matching this schema:

{
  "type": "<one of the types above>",
  "fields": {
    "<field_name>": "<extracted value>"
  }
}

RULES:
- "fields" holds every key piece of data you can read on the page: numbers, names, dates, amounts, line items, addresses.
- Keep monetary amounts exactly as printed, including currency symbols and separators (e.g. "$1,250.00"). Never convert them to numbers.
- Keep dates exactly as printed. Do not reformat them.
- Field values may be strings, numbers, nested objects, or arrays.
- If the page is unreadable, return {"type": "other", "fields": {}}.
- Do not add any text before or after the JSON object.`, pageIndex+1, strings.Join(types, ", "))
}
