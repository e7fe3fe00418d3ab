package layout

import (
	"fmt"
	"math"
	"strings"

	"github.com/JonMunkholm/addrbook/internal/core"
)

// PageFormat names an envelope page size.
type PageFormat string

const (
	FormatA4 PageFormat = "A4"
	FormatC6 PageFormat = "C6"
)

// ParsePageFormat accepts "A4" or "C6" in any case; empty means A4.
func ParsePageFormat(s string) (PageFormat, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "A4":
		return FormatA4, nil
	case "C6":
		return FormatC6, nil
	default:
		return "", fmt.Errorf("invalid parameter: format must be A4 or C6, got %q", s)
	}
}

// Size returns the physical page size for f.
func (f PageFormat) Size() Size {
	if f == FormatC6 {
		return SizeC6
	}
	return SizeA4
}

// Title is the document title written into the PDF metadata.
func (f PageFormat) Title() string {
	if f == FormatC6 {
		return "Koperta C6"
	}
	return "Dokument A4"
}

const (
	DefaultEnvelopeFontSize = 14
	MinEnvelopeFontSize     = 10
	MaxEnvelopeFontSize     = 36

	// Honorific precedes the recipient name.
	Honorific = "Sz. P."

	recipientXFraction = 0.5
	recipientTop       = 160.0
	recipientGapFactor = 1.7
	minHonorificSize   = 10
)

// EnvelopeOptions controls the recipient block.
type EnvelopeOptions struct {
	// Bold applies to the name line only.
	Bold     bool
	FontSize int
	Format   PageFormat
}

// DefaultEnvelopeOptions returns A4, 14pt, regular weight.
func DefaultEnvelopeOptions() EnvelopeOptions {
	return EnvelopeOptions{FontSize: DefaultEnvelopeFontSize, Format: FormatA4}
}

// Logo is a decoded sender logo.
type Logo struct {
	Data   []byte
	Type   string
	Width  int
	Height int
}

func (l *Logo) aspect() float64 {
	if l.Width == 0 {
		return 1
	}
	return float64(l.Height) / float64(l.Width)
}

// Sender is the return-address block printed on every envelope.
type Sender struct {
	Lines []string
	Logo  *Logo
	// LogoText is drawn in place of a missing logo on formats that
	// reserve room for one.
	LogoText string
}

type senderAnchor struct {
	x, top       float64
	logoWidth    float64
	gap          float64
	firstSize    float64
	otherSize    float64
	spacing      float64
	placeholderH float64
	baseline     float64 // fraction of the logo height
	placeholder  bool    // draw LogoText when there is no logo
}

var senderAnchors = map[PageFormat]senderAnchor{
	FormatA4: {
		x: 105, top: 55, logoWidth: 34, gap: 6,
		firstSize: 10, otherSize: 9, spacing: 11,
		placeholderH: 20, baseline: 0.35, placeholder: true,
	},
	FormatC6: {
		x: 40, top: 38, logoWidth: 32, gap: 6,
		firstSize: 9, otherSize: 8, spacing: 10,
		placeholderH: 18, baseline: 0.30,
	},
}

const (
	placeholderSize   = 14
	placeholderOffset = 16
)

// ComposeEnvelope lays out one envelope page for a. The font size is
// clamped to [MinEnvelopeFontSize, MaxEnvelopeFontSize]; an unknown format
// is treated as A4.
func ComposeEnvelope(a core.Address, opts EnvelopeOptions, sender Sender, m Measurer) Page {
	format := opts.Format
	if _, ok := senderAnchors[format]; !ok {
		format = FormatA4
	}
	fs := clampInt(opts.FontSize, MinEnvelopeFontSize, MaxEnvelopeFontSize)

	page := Page{Size: format.Size()}
	composeSender(&page, senderAnchors[format], sender, m)
	composeRecipient(&page, a, opts.Bold, float64(fs))
	return page
}

func composeSender(page *Page, an senderAnchor, sender Sender, m Measurer) {
	logoH := an.placeholderH
	if sender.Logo != nil {
		logoH = an.logoWidth * sender.Logo.aspect()
		page.Images = append(page.Images, Image{
			Name: "sender-logo",
			Data: sender.Logo.Data,
			Type: sender.Logo.Type,
			X:    an.x,
			Y:    an.top,
			W:    an.logoWidth,
			H:    logoH,
		})
	} else if an.placeholder && sender.LogoText != "" {
		page.text(RoleBuiltinBold, placeholderSize, an.x, an.top+placeholderOffset, sender.LogoText)
	}

	if len(sender.Lines) == 0 {
		return
	}

	type styled struct {
		role  Role
		size  float64
		width float64
	}
	lines := make([]styled, len(sender.Lines))
	blockW := 0.0
	for i, line := range sender.Lines {
		s := styled{role: RoleRegular, size: an.otherSize}
		if i == 0 {
			s = styled{role: RoleBold, size: an.firstSize}
		}
		s.width = m.TextWidth(s.role, s.size, line)
		blockW = math.Max(blockW, s.width)
		lines[i] = s
	}

	center := an.x + an.logoWidth + an.gap + blockW/2
	y := an.top + logoH*an.baseline
	for i, line := range sender.Lines {
		s := lines[i]
		page.text(s.role, s.size, center-s.width/2, y, line)
		y += an.spacing
	}
}

func composeRecipient(page *Page, a core.Address, bold bool, fs float64) {
	x := page.Size.W * recipientXFraction
	gap := math.Trunc(fs * recipientGapFactor)

	y := recipientTop
	page.text(RoleItalic, math.Max(minHonorificSize, fs-2), x, y, Honorific)
	y += gap

	for _, line := range formatLines(a) {
		role := RoleRegular
		if line.kind == lineName && bold {
			role = RoleBold
		}
		page.text(role, fs, x, y, line.text)
		y += gap
	}
}
