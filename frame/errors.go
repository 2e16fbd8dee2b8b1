package frame

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingColumn is returned when a named column does not exist.
	ErrMissingColumn = errors.New("missing column")

	// ErrLengthMismatch is returned when two sequences that must align
	// positionally have different lengths.
	ErrLengthMismatch = errors.New("length mismatch")

	// ErrSchemaMismatch is returned when tables concatenated row-wise do
	// not share the same columns.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrColumnCollision is returned when a join would produce two columns
	// with the same name from different sides.
	ErrColumnCollision = errors.New("column name collision")
)

// ColumnError reports the column that caused a failure.
type ColumnError struct {
	Column    string
	Available []string
	Err       error
}

func (e *ColumnError) Error() string {
	if e.Err == ErrMissingColumn {
		return fmt.Sprintf("%v: %q (available: %v)", e.Err, e.Column, e.Available)
	}
	return fmt.Sprintf("%v: %q", e.Err, e.Column)
}

func (e *ColumnError) Unwrap() error { return e.Err }

func missingColumn(name string, available []string) error {
	return &ColumnError{
		Column:    name,
		Available: append([]string(nil), available...),
		Err:       ErrMissingColumn,
	}
}

// LengthError reports the two lengths that failed to align.
type LengthError struct {
	What     string
	Expected int
	Got      int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("%v: %s expected %d, got %d", ErrLengthMismatch, e.What, e.Expected, e.Got)
}

func (e *LengthError) Unwrap() error { return ErrLengthMismatch }
