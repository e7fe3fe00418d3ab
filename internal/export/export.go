// Package export serializes address lists to downloadable files.
//
// Every format builds its rows with [Cells], so a column shared by two
// formats carries the same text in both.
package export

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/JonMunkholm/addrbook/internal/core"
	"github.com/JonMunkholm/addrbook/internal/layout"
)

var (
	// ErrUnsupportedFormat means the format exists but cannot be served by
	// this process.
	ErrUnsupportedFormat = errors.New("export format unavailable")
	// ErrUnknownFormat means no such format exists.
	ErrUnknownFormat = errors.New("invalid parameter: unknown export format")
)

// Format names.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

// FileBase is the download name without extension.
const FileBase = "addresses"

// Columns is the full column order of tabular exports.
var Columns = core.FieldNames()

// Serializer writes records in one file format.
type Serializer interface {
	Extension() string
	ContentType() string
	Write(w io.Writer, records []core.Address) error
}

// Filename returns the attachment name for s.
func Filename(s Serializer) string {
	return FileBase + "." + s.Extension()
}

// Cells renders the named columns of a.
func Cells(a core.Address, columns []core.FieldSpec) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.Cell(a)
	}
	return out
}

func mustColumns(names ...string) []core.FieldSpec {
	specs, err := core.LookupFields(names...)
	if err != nil {
		panic(err)
	}
	return specs
}

// Registry maps format names to serializers. Formats can be disabled by
// configuration, in which case Lookup reports ErrUnsupportedFormat.
type Registry struct {
	mu       sync.RWMutex
	formats  map[string]Serializer
	disabled map[string]bool
}

// NewRegistry creates an empty registry with the given formats disabled.
func NewRegistry(disabled ...string) *Registry {
	r := &Registry{
		formats:  make(map[string]Serializer),
		disabled: make(map[string]bool),
	}
	for _, name := range disabled {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			r.disabled[name] = true
		}
	}
	return r
}

// NewDefaultRegistry registers CSV, XLSX and PDF.
func NewDefaultRegistry(fonts *layout.FontRegistry, disabled ...string) *Registry {
	r := NewRegistry(disabled...)
	r.Register(FormatCSV, CSV{})
	r.Register(FormatXLSX, XLSX{})
	r.Register(FormatPDF, NewPDFTable(fonts))
	return r
}

// Register adds s under name. Panics if name is already registered.
func (r *Registry) Register(name string, s Serializer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.formats[name]; exists {
		panic(fmt.Sprintf("export format already registered: %s", name))
	}
	r.formats[name] = s
}

// Lookup returns the serializer for name.
func (r *Registry) Lookup(name string) (Serializer, error) {
	name = strings.ToLower(name)

	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.formats[name]
	switch {
	case r.disabled[name]:
		return nil, fmt.Errorf("%s: %w", name, ErrUnsupportedFormat)
	case !ok:
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownFormat)
	}
	return s, nil
}

// Available returns the enabled format names, sorted.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.formats))
	for name := range r.formats {
		if !r.disabled[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
