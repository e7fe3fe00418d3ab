package core

import (
	"errors"
	"testing"
)

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"First_Name", "first_name"},
		{"  POSTAL_CODE ", "postal_code"},
		{"Uwagi", "description"},
		{"OPIS", "description"},
		{"notatki", "description"},
		{"Notes", "description"},
		{"Description", "description"},
		{"Telefon", "telefon"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeHeader(tt.input); got != tt.want {
			t.Errorf("NormalizeHeader(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestMakeHeaderIndex(t *testing.T) {
	idx, names := MakeHeaderIndex([]string{"ID", "First_Name", "uwagi", "Opis", "city"})

	if idx.Has("id") {
		t.Error("id should be ignored")
	}
	if got := idx["description"]; got != 2 {
		t.Errorf("description position = %d, want 2 (first alias wins)", got)
	}
	if got := idx["city"]; got != 4 {
		t.Errorf("city position = %d, want 4", got)
	}
	want := []string{"id", "first_name", "description", "description", "city"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestHeaderIndex_Value(t *testing.T) {
	idx, _ := MakeHeaderIndex([]string{"first_name", "city"})
	row := []string{"  Jan "}

	if got := idx.Value(row, "first_name"); got != "Jan" {
		t.Errorf("Value(first_name) = %q, want Jan", got)
	}
	if got := idx.Value(row, "city"); got != "" {
		t.Errorf("Value(city) on short row = %q, want empty", got)
	}
	if got := idx.Value(row, "street"); got != "" {
		t.Errorf("Value(street) absent column = %q, want empty", got)
	}
}

func TestValidateHeaders(t *testing.T) {
	full, _ := MakeHeaderIndex(RequiredColumns)
	if err := ValidateHeaders(full); err != nil {
		t.Errorf("ValidateHeaders(all) = %v, want nil", err)
	}

	partial, _ := MakeHeaderIndex([]string{"street", "first_name", "city"})
	err := ValidateHeaders(partial)
	var mce *MissingColumnsError
	if !errors.As(err, &mce) {
		t.Fatalf("ValidateHeaders(partial) = %v, want *MissingColumnsError", err)
	}
	want := "missing required columns: apartment_no, label_marked, last_name, postal_code"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}
