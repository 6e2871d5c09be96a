package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"doculens/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// fusedColumns defines the fused-field section header.
var fusedColumns = []string{"Field", "Value", "Source Page", "Conflicting Values"}

// pageColumns defines the per-page section header.
var pageColumns = []string{"Page", "Type", "Parse Status", "Field", "Value"}

// WriteCSV renders the envelope as a two-section CSV: document-level fused
// fields first, then one row per page field.
func WriteCSV(w io.Writer, env *domain.Envelope) error {
	if _, err := w.Write(BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)

	if err := cw.Write(fusedColumns); err != nil {
		return err
	}
	for _, name := range sortedFieldNames(env.ExtractedContent.FusedFields) {
		f := env.ExtractedContent.FusedFields[name]
		row := []string{
			name,
			formatValue(f.Value),
			strconv.Itoa(f.Page + 1),
			formatConflicts(env.ExtractedContent.Conflicts[name]),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	// Section separator
	if err := cw.Write([]string{}); err != nil {
		return err
	}
	if err := cw.Write(pageColumns); err != nil {
		return err
	}
	for _, page := range env.ExtractedContent.Pages {
		if len(page.Fields) == 0 {
			row := []string{strconv.Itoa(page.PageNumber), string(page.Type), string(page.ParseStatus), "", ""}
			if err := cw.Write(row); err != nil {
				return err
			}
			continue
		}
		for _, name := range sortedPageFieldNames(page.Fields) {
			row := []string{
				strconv.Itoa(page.PageNumber),
				string(page.Type),
				string(page.ParseStatus),
				name,
				formatValue(page.Fields[name]),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
