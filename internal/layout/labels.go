package layout

import "github.com/JonMunkholm/addrbook/internal/core"

const (
	LabelColumns  = 3
	LabelRows     = 7
	LabelsPerPage = LabelColumns * LabelRows

	DefaultLabelFontSize = 11
	MinLabelFontSize     = 8
	MaxLabelFontSize     = 24

	// LabelsTitle is the document title of a label sheet.
	LabelsTitle = "Labels 3x7"

	labelPadding = 8.0
)

// Gap after a line, as a multiple of the font size. The name sits further
// from the street than the street from the city.
const (
	gapAfterName   = 1.5
	gapAfterStreet = 1.1
	gapDefault     = 1.25
)

// Slot is a position on a label sheet.
type Slot struct {
	Page, Row, Col int
}

// LabelSlot returns where the i-th record lands: pages of 21, filled row by
// row, three to a row.
func LabelSlot(i int) Slot {
	within := i % LabelsPerPage
	return Slot{
		Page: i / LabelsPerPage,
		Row:  within / LabelColumns,
		Col:  within % LabelColumns,
	}
}

// ComposeLabels lays out records on A4 sheets of 3x7 labels, in input
// order. The font size is clamped to [MinLabelFontSize, MaxLabelFontSize],
// and a line too wide for its padded cell is set smaller until it fits.
// No records yields no pages.
//
// Names use the regular face and the address lines the bold face.
func ComposeLabels(records []core.Address, fontSize int, m Measurer) []Page {
	fs := float64(clampInt(fontSize, MinLabelFontSize, MaxLabelFontSize))
	cellW := SizeA4.W / LabelColumns
	cellH := SizeA4.H / LabelRows

	var pages []Page
	for i, rec := range records {
		slot := LabelSlot(i)
		if slot.Page == len(pages) {
			pages = append(pages, Page{Size: SizeA4})
		}
		page := &pages[slot.Page]

		left := float64(slot.Col) * cellW
		top := float64(slot.Row) * cellH
		lines := formatLines(rec)

		y := top + (cellH-blockHeight(lines, fs))/2 + fs
		for j, line := range lines {
			role := RoleBold
			if line.kind == lineName {
				role = RoleRegular
			}
			size, w := fitWidth(m, role, fs, line.text, cellW-2*labelPadding)
			page.text(role, size, centerInCell(left, cellW, w), y, line.text)
			if j < len(lines)-1 {
				y += lineGap(line.kind, fs)
			}
		}
	}
	return pages
}

func lineGap(k lineKind, fs float64) float64 {
	switch k {
	case lineName:
		return fs * gapAfterName
	case lineStreet:
		return fs * gapAfterStreet
	default:
		return fs * gapDefault
	}
}

func blockHeight(lines []addressLine, fs float64) float64 {
	if len(lines) == 0 {
		return 0
	}
	h := fs
	for _, l := range lines[:len(lines)-1] {
		h += lineGap(l.kind, fs)
	}
	return h
}

// fitWidth returns the size at which text fits in avail points and the
// resulting width. Lines that already fit keep fs; wider ones shrink on
// their own while the baseline stays put.
func fitWidth(m Measurer, role Role, fs float64, text string, avail float64) (float64, float64) {
	w := m.TextWidth(role, fs, text)
	if w <= avail || w == 0 {
		return fs, w
	}
	size := fs * avail / w
	return size, m.TextWidth(role, size, text)
}

// centerInCell returns the x that centres a run of width w in the cell,
// kept inside the padding.
func centerInCell(left, cellW, w float64) float64 {
	x := left + (cellW-w)/2
	if maxX := left + cellW - labelPadding - w; x > maxX {
		x = maxX
	}
	if minX := left + labelPadding; x < minX {
		x = minX
	}
	return x
}
