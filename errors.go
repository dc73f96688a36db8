package ledmatrix

import "github.com/pkg/errors"

var (
	// ErrIndexOutOfRange is returned when a pixel index lies outside the
	// strip.
	ErrIndexOutOfRange = errors.New("pixel index out of range")
	// ErrDotOutOfBounds is returned when a dot lies outside the matrix.
	ErrDotOutOfBounds = errors.New("dot out of bounds")
)
