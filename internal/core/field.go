package core

// field.go implements the tri-state optional used by AddressPatch.

// fieldState distinguishes "leave unchanged" from "clear" and "set".
type fieldState uint8

const (
	fieldUnset fieldState = iota
	fieldSet
	fieldCleared
)

// Field is an optional update value with three states: Unset leaves the
// stored value alone, Set replaces it, Cleared resets it to empty.
// The zero value is Unset.
type Field[T any] struct {
	state fieldState
	value T
}

// Set returns a Field holding v.
func Set[T any](v T) Field[T] {
	return Field[T]{state: fieldSet, value: v}
}

// Cleared returns a Field that resets the stored value.
func Cleared[T any]() Field[T] {
	return Field[T]{state: fieldCleared}
}

// Unset returns a Field that leaves the stored value unchanged.
func Unset[T any]() Field[T] {
	return Field[T]{}
}

func (f Field[T]) IsUnset() bool   { return f.state == fieldUnset }
func (f Field[T]) IsSet() bool     { return f.state == fieldSet }
func (f Field[T]) IsCleared() bool { return f.state == fieldCleared }

// Value returns the held value and whether the field is Set.
func (f Field[T]) Value() (T, bool) {
	return f.value, f.state == fieldSet
}

// Or resolves the field against the current stored value.
func (f Field[T]) Or(current T) T {
	switch f.state {
	case fieldSet:
		return f.value
	case fieldCleared:
		var zero T
		return zero
	default:
		return current
	}
}

// String is used in log output.
func (f Field[T]) String() string {
	switch f.state {
	case fieldSet:
		return "set"
	case fieldCleared:
		return "cleared"
	default:
		return "unset"
	}
}
