package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"
)

// Paragraph spacing before, in twentieths of a point.
const (
	docxDateSpacing = 200
	docxBodySpacing = 400
	docxParaSpacing = 100
)

// renderDOCX builds an A4 Word document: bold company and attention lines,
// a right-aligned bold date, then one paragraph per blank-line separated
// block of the body. Single line breaks stay line breaks.
func renderDOCX(d Document) ([]byte, error) {
	company, att := d.Header()
	w := docx.New().WithDefaultTheme()

	w.AddParagraph().AddText(company).Bold()
	w.AddParagraph().AddText(att).Bold()

	date := w.AddParagraph().Justification("right")
	spaceBefore(date, docxDateSpacing)
	date.AddText(d.FormattedDate()).Bold()

	for i, block := range strings.Split(d.Content, "\n\n") {
		p := w.AddParagraph()
		if i == 0 {
			spaceBefore(p, docxBodySpacing)
		} else {
			spaceBefore(p, docxParaSpacing)
		}
		p.AddText(block)
	}

	// the section properties close the body
	w.WithA4Page()

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("render docx: %w", err)
	}
	return buf.Bytes(), nil
}

func spaceBefore(p *docx.Paragraph, twips int) {
	if p.Properties == nil {
		p.Properties = &docx.ParagraphProperties{}
	}
	p.Properties.Spacing = &docx.Spacing{Before: twips}
}
