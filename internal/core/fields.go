package core

// fields.go is the allow-list of address columns addressable by name.
//
// Export column selection and sort keys resolve through LookupField; any name
// outside the list is rejected with ErrUnknownField.

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strconv"
)

// ErrUnknownField is returned for a column name outside the allow-list.
var ErrUnknownField = errors.New("unknown field")

// FieldSpec binds a column name to a typed accessor and comparator.
type FieldSpec struct {
	Name    string
	Cell    func(Address) string // text form used by every exporter
	Compare func(a, b Address) int
}

func textField(name string, get func(Address) string) FieldSpec {
	return FieldSpec{
		Name:    name,
		Cell:    get,
		Compare: func(a, b Address) int { return cmp.Compare(get(a), get(b)) },
	}
}

var fieldSpecs = []FieldSpec{
	{
		Name:    "id",
		Cell:    func(a Address) string { return strconv.FormatInt(a.ID, 10) },
		Compare: func(a, b Address) int { return cmp.Compare(a.ID, b.ID) },
	},
	textField("first_name", func(a Address) string { return a.FirstName }),
	textField("last_name", func(a Address) string { return a.LastName }),
	textField("street", func(a Address) string { return a.Street }),
	textField("apartment_no", func(a Address) string { return a.ApartmentNo }),
	textField("city", func(a Address) string { return a.City }),
	textField("postal_code", func(a Address) string { return a.PostalCode }),
	textField("description", func(a Address) string { return a.Description }),
	{
		Name: "label_marked",
		Cell: func(a Address) string {
			if a.LabelMarked {
				return "1"
			}
			return "0"
		},
		Compare: func(a, b Address) int {
			return cmp.Compare(boolRank(a.LabelMarked), boolRank(b.LabelMarked))
		},
	},
}

var fieldsByName = func() map[string]FieldSpec {
	m := make(map[string]FieldSpec, len(fieldSpecs))
	for _, f := range fieldSpecs {
		m[f.Name] = f
	}
	return m
}()

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// LookupField returns the spec registered under name.
func LookupField(name string) (FieldSpec, error) {
	f, ok := fieldsByName[name]
	if !ok {
		return FieldSpec{}, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return f, nil
}

// LookupFields resolves names in order.
func LookupFields(names ...string) ([]FieldSpec, error) {
	out := make([]FieldSpec, 0, len(names))
	for _, n := range names {
		f, err := LookupField(n)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// FieldNames lists every addressable column in canonical export order.
func FieldNames() []string {
	names := make([]string, len(fieldSpecs))
	for i, f := range fieldSpecs {
		names[i] = f.Name
	}
	return names
}

// DefaultOrder is the ordering every store and exporter uses.
var DefaultOrder = []string{"last_name", "first_name", "id"}

// SortAddresses sorts records in place by the given keys, ascending.
// Ties on every key keep their input order.
func SortAddresses(records []Address, keys ...string) error {
	specs, err := LookupFields(keys...)
	if err != nil {
		return err
	}
	slices.SortStableFunc(records, func(a, b Address) int {
		for _, s := range specs {
			if c := s.Compare(a, b); c != 0 {
				return c
			}
		}
		return 0
	})
	return nil
}
