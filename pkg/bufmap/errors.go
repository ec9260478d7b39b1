package bufmap

import (
	"errors"
	"fmt"

	"github.com/twinfer/bufmap/pkg/byteview"
)

var (
	// ErrLayout marks a declaration that cannot be laid out: a bit run crossing
	// a byte, an invalid size, or an array that misses its byte budget.
	ErrLayout = errors.New("layout error")
	// ErrMisaligned is a layout error raised when a byte field is declared
	// while a bit run is still open.
	ErrMisaligned = fmt.Errorf("%w: misaligned field", ErrLayout)
	// ErrValidation means a static field did not hold its required constant,
	// i.e. the buffer is not of the expected shape.
	ErrValidation = errors.New("validation error")
	// ErrNotFound is returned by name lookups that match no field.
	ErrNotFound = errors.New("field not found")
	// ErrReadOnly is returned when setting a value on a composite or array field.
	ErrReadOnly = errors.New("field is read-only")

	ErrOutOfBounds   = byteview.ErrOutOfBounds
	ErrRange         = byteview.ErrRange
	ErrValueTooLarge = byteview.ErrValueTooLarge
)

// FieldError locates a construction failure inside a struct tree.
type FieldError struct {
	Path   string // struct path, e.g. "BMP File -> DIB Header"
	Field  string
	Offset int // byte cursor of the struct when the error occurred
	Err    error
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s (offset %d): %v", e.Path, e.Offset, e.Err)
	}
	return fmt.Sprintf("%s: field %q (offset %d): %v", e.Path, e.Field, e.Offset, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

func layoutErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrLayout, fmt.Sprintf(format, args...))
}

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
