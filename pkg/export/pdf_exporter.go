package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders attribution sheets into a tabular PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Sheet is one printable document: a title, free-form meta lines (course code,
// academic year, verdict) and the assignment table.
type Sheet struct {
	Title     string
	MetaLines []string
	Table     Table
}

// Render creates a one-page-per-sheet PDF document.
func (e *PDFExporter) Render(sheets ...Sheet) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("pdf requires at least one sheet")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)

	for _, sheet := range sheets {
		if len(sheet.Table.Header) == 0 {
			return nil, fmt.Errorf("pdf sheet %q requires a table header", sheet.Title)
		}
		pdf.AddPage()

		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, sheet.Title, "", 1, "C", false, 0, "")
		pdf.Ln(2)

		pdf.SetFont("Arial", "", 10)
		for _, line := range sheet.MetaLines {
			pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
		}
		pdf.Ln(4)

		colWidth := 190.0 / float64(len(sheet.Table.Header))
		pdf.SetFont("Arial", "B", 10)
		for _, header := range sheet.Table.Header {
			pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 9)
		for _, row := range sheet.Table.Rows {
			for i := range sheet.Table.Header {
				value := ""
				if i < len(row) {
					value = row[i]
				}
				pdf.CellFormat(colWidth, 7, value, "1", 0, "", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
