package extract_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doculens/internal/domain"
	"doculens/internal/extract"
)

func TestParsePage_CleanJSON(t *testing.T) {
	raw := `{"type": "invoice", "fields": {"invoice_number": "INV-2024-001", "total": "$1,250.00", "date": "15/01/2024"}}`

	res := extract.ParsePage(0, raw)

	assert.Equal(t, domain.ParseStatusClean, res.ParseStatus)
	assert.Equal(t, domain.DocTypeInvoice, res.DocumentType)
	assert.Equal(t, "INV-2024-001", res.Fields["invoice_number"])
	// Monetary and date strings come through exactly as produced.
	assert.Equal(t, "$1,250.00", res.Fields["total"])
	assert.Equal(t, "15/01/2024", res.Fields["date"])
}

func TestParsePage_CleanJSON_RoundTripsValues(t *testing.T) {
	raw := `{"type": "table", "fields": {"rows": [{"item": "Widget", "qty": 3}], "caption": "Q1 totals"}}`

	res := extract.ParsePage(2, raw)

	require.Equal(t, domain.ParseStatusClean, res.ParseStatus)
	out, err := json.Marshal(res.Fields["rows"])
	require.NoError(t, err)
	assert.JSONEq(t, `[{"item": "Widget", "qty": 3}]`, string(out))
}

func TestParsePage_ProseWrappedJSON_Repaired(t *testing.T) {
	raw := "Sure! Here is the extracted data:\n```json\n" +
		`{"type": "receipt", "fields": {"merchant": "ACME Store", "total": "€23.50"}}` +
		"\n```\nLet me know if you need anything else."

	res := extract.ParsePage(1, raw)

	assert.Equal(t, domain.ParseStatusRepairedJSON, res.ParseStatus)
	assert.Equal(t, domain.DocTypeReceipt, res.DocumentType)
	assert.Equal(t, "€23.50", res.Fields["total"])
}

func TestParsePage_ThinkBlockStripped(t *testing.T) {
	raw := "<think>The page looks like an invoice with a total of $10.\nI should respond with JSON.</think>" +
		`{"type": "invoice", "fields": {"total": "$10.00"}}`

	res := extract.ParsePage(0, raw)

	assert.Equal(t, domain.ParseStatusRepairedJSON, res.ParseStatus)
	assert.Equal(t, domain.DocTypeInvoice, res.DocumentType)
	assert.Equal(t, "$10.00", res.Fields["total"])
}

func TestParsePage_TruncatedResponse_DegradesWithoutPanic(t *testing.T) {
	// Outer object is cut off mid-stream; the inner fields object is still
	// balanced and recoverable.
	raw := `{"type": "invoice", "fields": {"invoice_number": "INV-7", "total": "$99.00"}, "confiden`

	res := extract.ParsePage(0, raw)

	assert.NotEqual(t, domain.ParseStatusClean, res.ParseStatus)
	assert.NotEqual(t, domain.ParseStatusFailed, res.ParseStatus)
	assert.Equal(t, "$99.00", res.Fields["total"])
}

func TestParsePage_FlattenedPayload(t *testing.T) {
	// Models sometimes skip the fields wrapper entirely.
	raw := `{"type": "receipt", "merchant": "Corner Cafe", "total": "$8.40"}`

	res := extract.ParsePage(0, raw)

	assert.Equal(t, domain.DocTypeReceipt, res.DocumentType)
	assert.Equal(t, "Corner Cafe", res.Fields["merchant"])
	assert.Equal(t, "$8.40", res.Fields["total"])
	assert.NotContains(t, res.Fields, "type")
}

func TestParsePage_UnknownType_KeepsFields(t *testing.T) {
	raw := `{"type": "INVOICE-THING", "fields": {"total": "$5.00"}}`

	res := extract.ParsePage(0, raw)

	assert.Equal(t, domain.DocTypeUnknown, res.DocumentType)
	assert.Equal(t, "$5.00", res.Fields["total"])
}

func TestParsePage_PlainTextAmount_FallbackText(t *testing.T) {
	raw := "The page shows a receipt from a store.\nTotal: $42.00\nDate: 2024-03-01"

	res := extract.ParsePage(0, raw)

	assert.Equal(t, domain.ParseStatusFallbackText, res.ParseStatus)
	assert.Equal(t, domain.DocTypeReceipt, res.DocumentType)
	assert.Equal(t, "$42.00", res.Fields["total"])
	assert.Equal(t, "2024-03-01", res.Fields["date"])
}

func TestParsePage_InvoiceNumberFromProse(t *testing.T) {
	raw := "This looks like invoice #INV-2024-117 issued on 15 March 2024 with a grand total of $1,999.99."

	res := extract.ParsePage(0, raw)

	assert.Equal(t, domain.ParseStatusFallbackText, res.ParseStatus)
	assert.Equal(t, domain.DocTypeInvoice, res.DocumentType)
	assert.Equal(t, "INV-2024-117", res.Fields["invoice_number"])
	assert.Equal(t, "$1,999.99", res.Fields["total"])
}

func TestParsePage_ProseAmountConnectors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		key  string
		want string
	}{
		{"of", "The receipt shows a grand total of $1,999.99 for the order.", "total", "$1,999.99"},
		{"was", "The invoice total was €250.00 after discounts.", "total", "€250.00"},
		{"is", "Your remaining balance is $12.50.", "balance", "$12.50"},
		{"colon", "Subtotal: $9.99", "subtotal", "$9.99"},
		{"bare", "Tax $1.20", "tax", "$1.20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := extract.ParsePage(0, tt.raw)

			assert.Equal(t, domain.ParseStatusFallbackText, res.ParseStatus)
			assert.Equal(t, tt.want, res.Fields[tt.key])
		})
	}
}

func TestParsePage_Garbage_Failed(t *testing.T) {
	for _, raw := range []string{
		"",
		"   \n\t ",
		"I could not read this page at all, sorry.",
		`[1, 2, 3]`,
		`"just a string"`,
	} {
		res := extract.ParsePage(3, raw)

		assert.Equal(t, domain.ParseStatusFailed, res.ParseStatus, "input: %q", raw)
		// Failed implies empty fields and unknown type.
		assert.Empty(t, res.Fields, "input: %q", raw)
		assert.Equal(t, domain.DocTypeUnknown, res.DocumentType, "input: %q", raw)
	}
}

func TestParsePage_KeywordWithoutFields_Failed(t *testing.T) {
	// A type keyword alone is not extractable structure.
	res := extract.ParsePage(0, "Some kind of form, completely blank.")

	assert.Equal(t, domain.ParseStatusFailed, res.ParseStatus)
	assert.Empty(t, res.Fields)
}

func TestParsePage_PreservesPageIndexAndRawText(t *testing.T) {
	raw := `{"type": "letter", "fields": {"sender": "J. Doe"}}`
	res := extract.ParsePage(4, raw)

	assert.Equal(t, 4, res.PageIndex)
	assert.Equal(t, raw, res.RawText)
}
