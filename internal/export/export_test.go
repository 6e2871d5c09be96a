package export_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"doculens/internal/domain"
	"doculens/internal/export"
)

func testEnvelope() *domain.Envelope {
	return &domain.Envelope{
		DocumentType: domain.DocTypeInvoice,
		Confidence:   0.82,
		TotalPages:   2,
		ExtractedContent: domain.ExtractedContent{
			Pages: []domain.EnvelopePage{
				{
					PageNumber:  1,
					Type:        domain.DocTypeInvoice,
					ParseStatus: domain.ParseStatusClean,
					Fields:      map[string]any{"invoice_number": "INV-1", "total": "$10.00"},
				},
				{
					PageNumber:  2,
					Type:        domain.DocTypeUnknown,
					ParseStatus: domain.ParseStatusFailed,
					Fields:      map[string]any{},
				},
			},
			FusedFields: map[string]domain.FusedField{
				"invoice_number": {Value: "INV-1", Page: 0},
				"total":          {Value: "$10.00", Page: 0},
			},
			Conflicts: map[string][]domain.FieldConflict{
				"total": {{Page: 1, Value: "$12.00"}},
			},
		},
		Warnings:       []string{"page 2: no structured data extracted"},
		ProcessingTime: 3.2,
	}
}

func TestParseFormat(t *testing.T) {
	f, err := export.ParseFormat("csv")
	require.NoError(t, err)
	assert.Equal(t, export.FormatCSV, f)

	f, err = export.ParseFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, export.FormatXLSX, f)

	_, err = export.ParseFormat("pdf")
	assert.ErrorIs(t, err, domain.ErrInvalidExportFormat)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, testEnvelope()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, string(export.BOM)))
	assert.Contains(t, out, "Field,Value,Source Page,Conflicting Values")
	assert.Contains(t, out, "invoice_number,INV-1,1,")
	// Conflicting later value rides along with the fused one.
	assert.Contains(t, out, "total,$10.00,1,page 2: $12.00")
	// Per-page section includes the failed page with empty fields.
	assert.Contains(t, out, "2,unknown,failed,,")
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteXLSX(&buf, "scan.pdf", testEnvelope()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.ElementsMatch(t, []string{"Summary", "Fused Fields", "Pages"}, f.GetSheetList())

	docType, err := f.GetCellValue("Summary", "B2")
	require.NoError(t, err)
	assert.Equal(t, "invoice", docType)

	field, err := f.GetCellValue("Fused Fields", "A2")
	require.NoError(t, err)
	assert.Equal(t, "invoice_number", field)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "scan_pdf", export.SanitizeFilename("scan.pdf"))
	assert.Equal(t, "my_doc_2", export.SanitizeFilename("my doc (2)"))
	assert.Equal(t, "extraction", export.SanitizeFilename("///"))
}

func TestBuildFilename(t *testing.T) {
	name := export.BuildFilename("scan.pdf", export.FormatXLSX)
	assert.True(t, strings.HasPrefix(name, "scan_pdf_"))
	assert.True(t, strings.HasSuffix(name, ".xlsx"))
}
