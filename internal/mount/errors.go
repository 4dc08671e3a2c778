package mount

import (
	"errors"
	"fmt"
)

var (
	// ErrZeroAxis indicates a hinge, up or cross axis of zero length.
	ErrZeroAxis = errors.New("mount: zero-length axis")

	// ErrGeometry indicates a geometry limit outside its valid range.
	ErrGeometry = errors.New("mount: invalid geometry")
)

// GeometryError names the geometry field that failed validation.
type GeometryError struct {
	Field   string
	Value   any
	Wrapped error
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("%v: %s = %v", e.Wrapped, e.Field, e.Value)
}

func (e *GeometryError) Unwrap() error {
	return e.Wrapped
}
