package document

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Page geometry in millimetres for A4 portrait.
const (
	marginLeft   = 15.0
	marginTop    = 20.0
	pageBottom   = 277.0
	lineHeight   = 6.0
	indentOffset = 8.0
)

// Builder renders a sequence of draw instructions into a paginated PDF.
// Pagination is deterministic: a new page starts whenever the cursor would
// cross the bottom boundary.
type Builder struct {
	pdf *gofpdf.Fpdf
	y   float64
}

// NewBuilder starts a fresh single-column document.
func NewBuilder() *Builder {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginLeft, marginTop, marginLeft)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	return &Builder{pdf: pdf, y: marginTop}
}

// Title draws a document heading.
func (b *Builder) Title(text string) {
	b.ensure(10)
	b.pdf.SetFont("Helvetica", "B", 16)
	b.pdf.Text(marginLeft, b.y+6, text)
	b.y += 10
}

// Subtitle draws a small secondary line, typically the generation timestamp.
func (b *Builder) Subtitle(text string) {
	b.ensure(lineHeight)
	b.pdf.SetFont("Helvetica", "", 9)
	b.pdf.Text(marginLeft, b.y+4, text)
	b.y += lineHeight
}

// Divider draws a horizontal rule across the content width.
func (b *Builder) Divider() {
	b.ensure(4)
	b.pdf.Line(marginLeft, b.y+2, 195, b.y+2)
	b.y += 4
}

// Heading draws a bold section header.
func (b *Builder) Heading(text string) {
	b.ensure(8)
	b.pdf.SetFont("Helvetica", "B", 12)
	b.pdf.Text(marginLeft, b.y+5, text)
	b.y += 8
}

// Line draws a regular body line.
func (b *Builder) Line(text string) {
	b.ensure(lineHeight)
	b.pdf.SetFont("Helvetica", "", 10)
	b.pdf.Text(marginLeft, b.y+4, text)
	b.y += lineHeight
}

// Columns draws a two-column body line with the second value at a fixed x offset.
func (b *Builder) Columns(left, right string) {
	b.ensure(lineHeight)
	b.pdf.SetFont("Helvetica", "", 10)
	b.pdf.Text(marginLeft, b.y+4, left)
	b.pdf.Text(120, b.y+4, right)
	b.y += lineHeight
}

// ColumnsHeader draws a bold two-column header row.
func (b *Builder) ColumnsHeader(left, right string) {
	b.ensure(lineHeight)
	b.pdf.SetFont("Helvetica", "B", 10)
	b.pdf.Text(marginLeft, b.y+4, left)
	b.pdf.Text(120, b.y+4, right)
	b.y += lineHeight
}

// Bullet draws an indented bullet line beneath a heading.
func (b *Builder) Bullet(text string) {
	b.ensure(lineHeight)
	b.pdf.SetFont("Helvetica", "", 10)
	b.pdf.Text(marginLeft+indentOffset, b.y+4, fmt.Sprintf("- %s", text))
	b.y += lineHeight
}

// Spacer advances the cursor without drawing.
func (b *Builder) Spacer(height float64) {
	b.ensure(height)
	b.y += height
}

// NewPage forces a page break.
func (b *Builder) NewPage() {
	b.pdf.AddPage()
	b.y = marginTop
}

func (b *Builder) ensure(height float64) {
	if b.y+height > pageBottom {
		b.NewPage()
	}
}

// Output finalises the document and returns the binary artifact.
func (b *Builder) Output() ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := b.pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
