package content

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// extractCSV returns the file as-is when it is valid UTF-8 text, otherwise
// whatever printable content can be scraped from it.
func extractCSV(raw []byte) (string, string) {
	if utf8.Valid(raw) {
		return strings.TrimSpace(string(raw)), "csv.raw"
	}
	return printableScan(raw), "csv.salvage"
}

// extractExcel walks every sheet and flattens rows to tab-separated lines,
// one blank line between sheets. Files excelize cannot open fall back to a
// printable scan of the raw bytes.
func extractExcel(raw []byte) (string, string) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return printableScan(raw), "excel.salvage"
	}
	defer func() { _ = f.Close() }()

	var buf strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(sheet)
		for _, row := range rows {
			buf.WriteByte('\n')
			buf.WriteString(strings.Join(row, "\t"))
		}
	}
	return strings.TrimSpace(buf.String()), "excel.sheets"
}
