package layout

// PointsPerMM converts millimetres to PDF points.
const PointsPerMM = 72.0 / 25.4

// Size is a physical page size in points.
type Size struct {
	W, H float64
}

var (
	// SizeA4 is A4 portrait.
	SizeA4 = Size{W: 595.28, H: 841.89}
	// SizeC6 is a C6 envelope laid out landscape (162 x 114 mm).
	SizeC6 = Size{W: 162 * PointsPerMM, H: 114 * PointsPerMM}
)

// Fragment is one piece of text placed on a page. X is the left edge and Y
// the baseline, both in points from the top-left corner.
type Fragment struct {
	Text string
	X, Y float64
	Role Role
	Size float64
}

// Image is a raster placed with its top-left corner at X, Y.
type Image struct {
	Name string
	Data []byte
	Type string // "PNG" or "JPG"
	X, Y float64
	W, H float64
}

// Page is one physical page of positioned content.
type Page struct {
	Size      Size
	Fragments []Fragment
	Images    []Image
}

func (p *Page) text(role Role, size, x, y float64, s string) {
	p.Fragments = append(p.Fragments, Fragment{Text: s, X: x, Y: y, Role: role, Size: size})
}

// Document is an ordered set of pages plus metadata for the renderer.
type Document struct {
	Title  string
	Author string
	Pages  []Page
}

// Measurer reports the advance width of text in points.
type Measurer interface {
	TextWidth(role Role, size float64, text string) float64
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
