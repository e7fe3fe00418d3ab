package layout

import (
	"time"

	"github.com/JonMunkholm/addrbook/internal/core"
)

// Printer turns address records into envelope and label PDFs. It is safe
// for concurrent use; each call builds its own document.
type Printer struct {
	fonts  *FontRegistry
	sender Sender
	author string
	now    func() time.Time
}

// PrinterOption configures a Printer.
type PrinterOption func(*Printer)

// WithClock sets the source of PDF creation dates.
func WithClock(now func() time.Time) PrinterOption {
	return func(p *Printer) { p.now = now }
}

// NewPrinter creates a Printer.
func NewPrinter(fonts *FontRegistry, sender Sender, author string, opts ...PrinterOption) *Printer {
	p := &Printer{fonts: fonts, sender: sender, author: author, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewPrinterFromProfile wires a registry and sender from a loaded profile.
func NewPrinterFromProfile(profile Profile, opts ...PrinterOption) (*Printer, error) {
	sender, err := profile.LoadSender()
	if err != nil {
		return nil, err
	}
	return NewPrinter(NewFontRegistry(profile.Fonts), sender, profile.Document.Author, opts...), nil
}

// Registry returns the font registry shared with other PDF writers.
func (p *Printer) Registry() *FontRegistry {
	return p.fonts
}

// Fonts returns the resolved font set.
func (p *Printer) Fonts() FontSet {
	return p.fonts.Resolve()
}

func (p *Printer) newPDF() *PDF {
	return NewPDF(p.fonts.Resolve(), p.now())
}

// Envelope renders a single envelope page for a.
func (p *Printer) Envelope(a core.Address, opts EnvelopeOptions) ([]byte, error) {
	doc := p.newPDF()
	page := ComposeEnvelope(a, opts, p.sender, doc)
	return doc.Bytes(Document{
		Title:  opts.Format.Title(),
		Author: p.author,
		Pages:  []Page{page},
	})
}

// Labels renders label sheets for records in the given order.
func (p *Printer) Labels(records []core.Address, fontSize int) ([]byte, error) {
	doc := p.newPDF()
	return doc.Bytes(Document{
		Title:  LabelsTitle,
		Author: p.author,
		Pages:  ComposeLabels(records, fontSize, doc),
	})
}
