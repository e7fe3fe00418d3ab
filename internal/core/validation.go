package core

// validation.go converts one import row into an insert payload.
//
// A row fails with at most one ValidationError: missing required values take
// precedence over a malformed postal code.

import (
	"fmt"
	"strings"
)

// ValidationError describes why a row was rejected.
type ValidationError struct {
	Fields  []string // offending columns
	Value   string   // the invalid value, when a single cell is at fault
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// BuildAddress validates row against idx and builds the insert payload.
func BuildAddress(row []string, idx HeaderIndex) (NewAddress, error) {
	var missing []string
	for _, col := range RequiredValues {
		if idx.Value(row, col) == "" {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return NewAddress{}, &ValidationError{
			Fields:  missing,
			Message: "missing required fields: " + strings.Join(missing, ", "),
		}
	}

	rawPostal := idx.Value(row, "postal_code")
	postal, ok := NormalizePostalCode(rawPostal)
	if !ok {
		return NewAddress{}, &ValidationError{
			Fields:  []string{"postal_code"},
			Value:   rawPostal,
			Message: fmt.Sprintf("invalid postal code format: %q", rawPostal),
		}
	}

	return NewAddress{
		FirstName:   idx.Value(row, "first_name"),
		LastName:    idx.Value(row, "last_name"),
		Street:      idx.Value(row, "street"),
		ApartmentNo: idx.Value(row, "apartment_no"),
		City:        idx.Value(row, "city"),
		PostalCode:  postal,
		Description: TruncateRunes(idx.Value(row, "description"), MaxDescriptionLength),
		LabelMarked: ParseLabelFlag(idx.Value(row, "label_marked")),
	}, nil
}
