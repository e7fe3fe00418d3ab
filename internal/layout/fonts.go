package layout

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-pdf/fpdf"
)

// Role selects a typeface weight.
type Role int

const (
	RoleRegular Role = iota
	RoleBold
	RoleItalic
	// RoleBuiltinBold always draws with the built-in bold face, whatever
	// the registry resolved. Used for the sender logo placeholder.
	RoleBuiltinBold
)

func (r Role) String() string {
	switch r {
	case RoleRegular:
		return "regular"
	case RoleBold:
		return "bold"
	case RoleItalic:
		return "italic"
	case RoleBuiltinBold:
		return "builtin-bold"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// BuiltinFamily is the base font used when no TrueType candidate registers.
const BuiltinFamily = "Helvetica"

// Face is a resolved font: either a TrueType file registered under its own
// family name or a built-in PDF base font.
type Face struct {
	Family string
	Style  string
	Path   string
	data   []byte
}

// Builtin reports whether f is a PDF base font. Base fonts only cover
// cp1252, so text is transcoded before drawing.
func (f Face) Builtin() bool { return f.data == nil }

func builtinFace(r Role) Face {
	switch r {
	case RoleBold, RoleBuiltinBold:
		return Face{Family: BuiltinFamily, Style: "B"}
	case RoleItalic:
		return Face{Family: BuiltinFamily, Style: "I"}
	default:
		return Face{Family: BuiltinFamily}
	}
}

// FontSet is the result of a registry resolution.
type FontSet struct {
	Regular Face
	Bold    Face
	Italic  Face
}

// Face returns the face for role r.
func (s FontSet) Face(r Role) Face {
	switch r {
	case RoleBold:
		return s.Bold
	case RoleItalic:
		return s.Italic
	case RoleBuiltinBold:
		return builtinFace(RoleBuiltinBold)
	default:
		return s.Regular
	}
}

func (s FontSet) embedded() []Face {
	var out []Face
	for _, f := range []Face{s.Regular, s.Bold, s.Italic} {
		if !f.Builtin() {
			out = append(out, f)
		}
	}
	return out
}

// FontCandidates lists TrueType paths per role, tried in order.
type FontCandidates struct {
	Regular []string `toml:"regular"`
	Bold    []string `toml:"bold"`
	Italic  []string `toml:"italic"`
}

// DefaultFontCandidates returns common system locations followed by the
// application bundle in dir (skipped when dir is empty).
func DefaultFontCandidates(dir string) FontCandidates {
	c := FontCandidates{
		Regular: []string{
			"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
			"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
			"C:/Windows/Fonts/arial.ttf",
		},
		Bold: []string{
			"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
			"/usr/share/fonts/truetype/liberation/LiberationSans-Bold.ttf",
			"C:/Windows/Fonts/arialbd.ttf",
		},
		Italic: []string{
			"/usr/share/fonts/truetype/dejavu/DejaVuSans-Oblique.ttf",
			"/usr/share/fonts/truetype/liberation/LiberationSans-Italic.ttf",
			"C:/Windows/Fonts/ariali.ttf",
		},
	}
	if dir != "" {
		c.Regular = append(c.Regular, filepath.Join(dir, "DejaVuSans.ttf"))
		c.Bold = append(c.Bold, filepath.Join(dir, "DejaVuSans-Bold.ttf"))
		c.Italic = append(c.Italic, filepath.Join(dir, "DejaVuSans-Oblique.ttf"))
	}
	return c
}

// FontRegistry resolves the three typefaces once and caches the result.
//
// Resolve is safe for concurrent use. The first call probes the candidate
// files; later calls return the cached set without touching the
// filesystem until Reset is called. Resolution never fails: a role whose
// candidates are all missing or unreadable falls back to the built-in face.
type FontRegistry struct {
	candidates FontCandidates
	readFile   func(string) ([]byte, error)
	probe      func(family string, data []byte) error
	logger     *slog.Logger

	mu       sync.Mutex
	resolved *FontSet
}

// RegistryOption configures a FontRegistry.
type RegistryOption func(*FontRegistry)

// WithReadFile replaces the function used to load candidate files.
func WithReadFile(fn func(string) ([]byte, error)) RegistryOption {
	return func(r *FontRegistry) { r.readFile = fn }
}

// WithProbe replaces the check that a loaded file is a usable font.
func WithProbe(fn func(family string, data []byte) error) RegistryOption {
	return func(r *FontRegistry) { r.probe = fn }
}

// WithRegistryLogger sets the logger used for resolution messages.
func WithRegistryLogger(l *slog.Logger) RegistryOption {
	return func(r *FontRegistry) { r.logger = l }
}

// NewFontRegistry creates a registry over the given candidates.
func NewFontRegistry(c FontCandidates, opts ...RegistryOption) *FontRegistry {
	r := &FontRegistry{
		candidates: c,
		readFile:   os.ReadFile,
		probe:      probeTrueType,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the font set, probing candidates on first use.
func (r *FontRegistry) Resolve() FontSet {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resolved != nil {
		return *r.resolved
	}

	set := FontSet{
		Regular: r.resolveRole(RoleRegular, "AppSans", r.candidates.Regular),
		Bold:    r.resolveRole(RoleBold, "AppSans-Bold", r.candidates.Bold),
		Italic:  r.resolveRole(RoleItalic, "AppSans-Italic", r.candidates.Italic),
	}
	r.resolved = &set
	return set
}

// Reset drops the cached set so the next Resolve probes again.
func (r *FontRegistry) Reset() {
	r.mu.Lock()
	r.resolved = nil
	r.mu.Unlock()
}

func (r *FontRegistry) resolveRole(role Role, family string, paths []string) Face {
	for _, p := range paths {
		data, err := r.readFile(p)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				r.logger.Debug("font candidate unreadable", "role", role, "path", p, "error", err)
			}
			continue
		}
		if err := r.probe(family, data); err != nil {
			r.logger.Debug("font candidate rejected", "role", role, "path", p, "error", err)
			continue
		}
		r.logger.Debug("font registered", "role", role, "family", family, "path", p)
		return Face{Family: family, Path: p, data: data}
	}

	fallback := builtinFace(role)
	r.logger.Info("using built-in font", "role", role, "family", fallback.Family, "style", fallback.Style)
	return fallback
}

// probeTrueType registers data on a scratch document and selects it. A
// font fpdf could not parse is left undefined, which makes SetFont fail.
// The parser panics on some malformed input, so a panic counts as a
// rejection too.
func probeTrueType(family string, data []byte) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("parse font: %v", rec)
		}
	}()

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.AddUTF8FontFromBytes(family, "", data)
	pdf.SetFont(family, "", 10)
	return pdf.Error()
}
