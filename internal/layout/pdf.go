package layout

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
)

// PDF renders pages with fpdf and measures text against the same faces, so
// measured widths match what is drawn.
//
// A PDF is single-use and not safe for concurrent use.
type PDF struct {
	pdf       *fpdf.Fpdf
	fonts     FontSet
	translate func(string) string
	images    map[string]bool
}

// NewPDF starts a document using the resolved fonts. A zero created time
// leaves the creation date to fpdf.
func NewPDF(fonts FontSet, created time.Time) *PDF {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: SizeA4.W, Ht: SizeA4.H},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCatalogSort(true)
	if !created.IsZero() {
		pdf.SetCreationDate(created)
	}
	for _, f := range fonts.embedded() {
		pdf.AddUTF8FontFromBytes(f.Family, f.Style, f.data)
	}

	return &PDF{
		pdf:       pdf,
		fonts:     fonts,
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
		images:    make(map[string]bool),
	}
}

func (p *PDF) setFont(role Role, size float64) Face {
	face := p.fonts.Face(role)
	p.pdf.SetFont(face.Family, face.Style, size)
	return face
}

func (p *PDF) encode(face Face, s string) string {
	if face.Builtin() {
		return p.translate(s)
	}
	return s
}

// TextWidth implements Measurer.
func (p *PDF) TextWidth(role Role, size float64, text string) float64 {
	face := p.setFont(role, size)
	return p.pdf.GetStringWidth(p.encode(face, text))
}

// Render draws doc and writes the finished file to w. A document without
// pages produces a single blank A4 page.
func (p *PDF) Render(w io.Writer, doc Document) error {
	if doc.Title != "" {
		p.pdf.SetTitle(doc.Title, true)
	}
	if doc.Author != "" {
		p.pdf.SetAuthor(doc.Author, true)
	}

	if len(doc.Pages) == 0 {
		p.pdf.AddPageFormat("P", fpdf.SizeType{Wd: SizeA4.W, Ht: SizeA4.H})
	}
	for _, page := range doc.Pages {
		p.drawPage(page)
	}

	if err := p.pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

// Bytes renders doc into memory.
func (p *PDF) Bytes(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := p.Render(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (p *PDF) drawPage(page Page) {
	p.pdf.AddPageFormat("P", fpdf.SizeType{Wd: page.Size.W, Ht: page.Size.H})

	for _, img := range page.Images {
		opts := fpdf.ImageOptions{ImageType: img.Type}
		if !p.images[img.Name] {
			p.pdf.RegisterImageOptionsReader(img.Name, opts, bytes.NewReader(img.Data))
			p.images[img.Name] = true
		}
		p.pdf.ImageOptions(img.Name, img.X, img.Y, img.W, img.H, false, opts, 0, "")
	}

	for _, f := range page.Fragments {
		face := p.setFont(f.Role, f.Size)
		p.pdf.Text(f.X, f.Y, p.encode(face, f.Text))
	}
}
