package core

// convert.go turns raw import cells into address field values.
//
// Cells come from externally authored spreadsheets, so every value is trimmed
// and optional columns collapse to empty when blank.

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxDescriptionLength caps the description, in characters.
const MaxDescriptionLength = 500

// postalCodeRegex is checked against the trimmed value before upper-casing.
var postalCodeRegex = regexp.MustCompile(`^[0-9A-Za-z\-\s]{3,20}$`)

// truthyValues are the lower-cased spellings that mark a record for labels.
var truthyValues = map[string]bool{
	"1":    true,
	"true": true,
	"yes":  true,
	"tak":  true,
	"y":    true,
	"t":    true,
}

// ParseLabelFlag reports whether s marks a record for label printing.
// Anything outside the truthy set, including blanks, is false.
func ParseLabelFlag(s string) bool {
	return truthyValues[strings.ToLower(strings.TrimSpace(s))]
}

// NormalizePostalCode validates and upper-cases a postal code. Non-ASCII
// spaces such as U+00A0 count as whitespace and are stored as plain spaces.
func NormalizePostalCode(s string) (string, bool) {
	s = strings.Map(foldSpace, CleanCell(s))
	if !postalCodeRegex.MatchString(s) {
		return "", false
	}
	return strings.ToUpper(s), true
}

func foldSpace(r rune) rune {
	if r > unicode.MaxASCII && unicode.IsSpace(r) {
		return ' '
	}
	return r
}

// TruncateRunes shortens s to at most n characters without splitting a
// multi-byte rune.
func TruncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// CleanCell trims surrounding whitespace, including non-breaking spaces and
// stray byte-order marks left behind by spreadsheet tools.
func CleanCell(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if CleanCell(v) != "" {
			return false
		}
	}
	return true
}
