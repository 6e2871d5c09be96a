package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"doculens/internal/domain"
)

// WriteXLSX renders the envelope as a workbook with Summary, Fused Fields
// and Pages sheets.
func WriteXLSX(w io.Writer, sourceName string, env *domain.Envelope) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const summarySheet = "Summary"
	// The default sheet is renamed so the workbook has no empty Sheet1.
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("xlsx summary sheet: %w", err)
	}
	summaryRows := [][]any{
		{"Source", sourceName},
		{"Document Type", string(env.DocumentType)},
		{"Confidence", env.Confidence},
		{"Total Pages", env.TotalPages},
		{"Processing Time (s)", env.ProcessingTime},
		{"Warnings", strings.Join(env.Warnings, "\n")},
	}
	for i, row := range summaryRows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("xlsx summary row: %w", err)
		}
	}

	const fusedSheet = "Fused Fields"
	if _, err := f.NewSheet(fusedSheet); err != nil {
		return fmt.Errorf("xlsx fused sheet: %w", err)
	}
	header := []any{"Field", "Value", "Source Page", "Conflicting Values"}
	if err := f.SetSheetRow(fusedSheet, "A1", &header); err != nil {
		return fmt.Errorf("xlsx fused header: %w", err)
	}
	for i, name := range sortedFieldNames(env.ExtractedContent.FusedFields) {
		field := env.ExtractedContent.FusedFields[name]
		row := []any{
			name,
			formatValue(field.Value),
			field.Page + 1,
			formatConflicts(env.ExtractedContent.Conflicts[name]),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(fusedSheet, cell, &row); err != nil {
			return fmt.Errorf("xlsx fused row: %w", err)
		}
	}

	const pagesSheet = "Pages"
	if _, err := f.NewSheet(pagesSheet); err != nil {
		return fmt.Errorf("xlsx pages sheet: %w", err)
	}
	pageHeader := []any{"Page", "Type", "Parse Status", "Field", "Value"}
	if err := f.SetSheetRow(pagesSheet, "A1", &pageHeader); err != nil {
		return fmt.Errorf("xlsx pages header: %w", err)
	}
	rowN := 2
	for _, page := range env.ExtractedContent.Pages {
		names := sortedPageFieldNames(page.Fields)
		if len(names) == 0 {
			row := []any{page.PageNumber, string(page.Type), string(page.ParseStatus), "", ""}
			cell, _ := excelize.CoordinatesToCellName(1, rowN)
			if err := f.SetSheetRow(pagesSheet, cell, &row); err != nil {
				return fmt.Errorf("xlsx page row: %w", err)
			}
			rowN++
			continue
		}
		for _, name := range names {
			row := []any{page.PageNumber, string(page.Type), string(page.ParseStatus), name, formatValue(page.Fields[name])}
			cell, _ := excelize.CoordinatesToCellName(1, rowN)
			if err := f.SetSheetRow(pagesSheet, cell, &row); err != nil {
				return fmt.Errorf("xlsx page row: %w", err)
			}
			rowN++
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

// sortedPageFieldNames returns page field names in stable order.
func sortedPageFieldNames(fields map[string]any) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
