package core

// headers.go normalises uploaded column names onto the canonical address
// fields.

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RequiredColumns must all be present in an import header.
var RequiredColumns = []string{
	"apartment_no",
	"city",
	"first_name",
	"label_marked",
	"last_name",
	"postal_code",
	"street",
}

// RequiredValues are the columns that must be non-empty on every data row.
var RequiredValues = []string{"first_name", "last_name", "street", "city", "postal_code"}

// headerAliases maps localised or synonym spellings onto canonical names.
var headerAliases = map[string]string{
	"opis":        "description",
	"uwagi":       "description",
	"uwaga":       "description",
	"notatka":     "description",
	"notatki":     "description",
	"notes":       "description",
	"note":        "description",
	"description": "description",
}

// ignoredColumns are accepted in a header but never read.
var ignoredColumns = map[string]bool{"id": true}

var lowerCaser = cases.Lower(language.Und)

// NormalizeHeader trims, lower-cases and resolves aliases. Unknown names
// pass through unchanged.
func NormalizeHeader(name string) string {
	key := lowerCaser.String(strings.TrimSpace(name))
	if canonical, ok := headerAliases[key]; ok {
		return canonical
	}
	return key
}

// HeaderIndex maps a normalised column name to its position.
type HeaderIndex map[string]int

// MakeHeaderIndex normalises a header row. When two columns normalise to
// the same name the first one wins.
func MakeHeaderIndex(header []string) (HeaderIndex, []string) {
	idx := make(HeaderIndex, len(header))
	names := make([]string, len(header))
	for i, h := range header {
		key := NormalizeHeader(h)
		names[i] = key
		if key == "" || ignoredColumns[key] {
			continue
		}
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx, names
}

// Has reports whether column is present.
func (h HeaderIndex) Has(column string) bool {
	_, ok := h[column]
	return ok
}

// Value returns the trimmed cell for column, or "" when the column is absent
// or the row is short.
func (h HeaderIndex) Value(row []string, column string) string {
	pos, ok := h[column]
	if !ok || pos >= len(row) {
		return ""
	}
	return CleanCell(row[pos])
}

// MissingColumnsError lists required columns absent from the header.
type MissingColumnsError struct {
	Columns []string // sorted
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Columns, ", "))
}

func (e *MissingColumnsError) Is(target error) bool {
	return target == ErrStructural
}

// ValidateHeaders checks that every required column is present.
func ValidateHeaders(idx HeaderIndex) error {
	var missing []string
	for _, col := range RequiredColumns {
		if !idx.Has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return &MissingColumnsError{Columns: missing}
}
