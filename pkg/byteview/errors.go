package byteview

import "errors"

var (
	// ErrOutOfBounds is returned when an access needs bytes past the end of the view.
	ErrOutOfBounds = errors.New("out of bounds")
	// ErrInvalidSize is returned for integer widths outside 0..8 bytes or bit runs crossing a byte.
	ErrInvalidSize = errors.New("invalid size")
	// ErrRange is returned when a decoded value does not fit the requested narrower type.
	ErrRange = errors.New("value out of range")
	// ErrValueTooLarge is returned when a value to write does not fit the declared width.
	ErrValueTooLarge = errors.New("value too large")
)
