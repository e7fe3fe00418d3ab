package layout

import (
	"strings"

	"github.com/JonMunkholm/addrbook/internal/core"
)

type lineKind int

const (
	lineName lineKind = iota
	lineStreet
	lineCity
)

type addressLine struct {
	text string
	kind lineKind
}

// FormatAddress returns the recipient lines of a: the full name, the street
// with its apartment number, then postal code and city. Lines that would be
// empty are omitted, so the result has at most three entries.
//
// Envelopes and labels both draw exactly these strings.
func FormatAddress(a core.Address) []string {
	lines := formatLines(a)
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.text
	}
	return out
}

func formatLines(a core.Address) []addressLine {
	candidates := []addressLine{
		{joinNonEmpty(a.FirstName, a.LastName), lineName},
		{joinNonEmpty(a.Street, a.ApartmentNo), lineStreet},
		{joinNonEmpty(a.PostalCode, a.City), lineCity},
	}
	lines := candidates[:0]
	for _, l := range candidates {
		if l.text != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
