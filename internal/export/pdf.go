package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	pdfMargin     = 20.0
	pdfTextWidth  = 170.0
	pdfLineHeight = 5.0
)

// renderPDF lays the letter out on A4: bold header on the left, bold date
// on the right, then the body wrapped at 170mm.
func renderPDF(d Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	// core fonts are cp1252; translate so æ, ø and å survive
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	company, att := d.Header()
	pdf.SetTitle(att, true)
	pdf.SetCreator("cover-letter-agent", true)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(pdfMargin, 20, tr(company))
	pdf.Text(pdfMargin, 30, tr(att))

	date := tr(d.FormattedDate())
	pageWidth, _ := pdf.GetPageSize()
	pdf.Text(pageWidth-pdfMargin-pdf.GetStringWidth(date), 30, date)

	pdf.SetFont("Helvetica", "", 11)
	pdf.SetXY(pdfMargin, 45)
	for _, line := range strings.Split(d.Content, "\n") {
		pdf.MultiCell(pdfTextWidth, pdfLineHeight, tr(line), "", "L", false)
		pdf.Ln(1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
