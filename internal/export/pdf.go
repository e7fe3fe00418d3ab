package export

import (
	"io"
	"time"

	"github.com/JonMunkholm/addrbook/internal/core"
	"github.com/JonMunkholm/addrbook/internal/layout"
)

// PDFColumns is the condensed column set of the tabular PDF.
var PDFColumns = []string{"id", "first_name", "last_name", "city", "postal_code"}

// Column x-offsets in points, parallel to PDFColumns.
var pdfColumnX = []float64{40, 85, 215, 365, 490}

const (
	pdfFontSize   = 10.0
	pdfTop        = 50.0
	pdfRowHeight  = 16.0
	pdfBottom     = 40.0
	pdfTitle      = "Addresses"
	pdfHeaderGap  = 6.0
	pdfFirstRowAt = pdfTop + pdfRowHeight + pdfHeaderGap
)

// PDFTable draws the condensed columns as a table on A4 pages, repeating
// the header on every page.
type PDFTable struct {
	fonts *layout.FontRegistry
}

// NewPDFTable creates the tabular PDF serializer.
func NewPDFTable(fonts *layout.FontRegistry) PDFTable {
	return PDFTable{fonts: fonts}
}

func (PDFTable) Extension() string   { return "pdf" }
func (PDFTable) ContentType() string { return "application/pdf" }

func (t PDFTable) Write(w io.Writer, records []core.Address) error {
	doc := layout.NewPDF(t.fonts.Resolve(), time.Now())
	return doc.Render(w, layout.Document{Title: pdfTitle, Pages: tablePages(records)})
}

// tablePages lays rows out top to bottom, starting a new page with a fresh
// header when the next row would cross the bottom margin.
func tablePages(records []core.Address) []layout.Page {
	columns := mustColumns(PDFColumns...)
	header := func() layout.Page {
		p := layout.Page{Size: layout.SizeA4}
		for i, name := range PDFColumns {
			p.Fragments = append(p.Fragments, layout.Fragment{
				Text: name, X: pdfColumnX[i], Y: pdfTop, Role: layout.RoleBold, Size: pdfFontSize,
			})
		}
		return p
	}

	pages := []layout.Page{header()}
	y := pdfFirstRowAt
	for _, a := range records {
		if y > layout.SizeA4.H-pdfBottom {
			pages = append(pages, header())
			y = pdfFirstRowAt
		}
		page := &pages[len(pages)-1]
		for i, cell := range Cells(a, columns) {
			page.Fragments = append(page.Fragments, layout.Fragment{
				Text: cell, X: pdfColumnX[i], Y: y, Role: layout.RoleRegular, Size: pdfFontSize,
			})
		}
		y += pdfRowHeight
	}
	return pages
}
