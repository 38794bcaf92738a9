package batch

import (
	"errors"
	"fmt"
)

var (
	// ErrShapeMismatch is returned when a sequence is neither of length 1
	// nor of the batch length.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrMaskConsistency is the parent of ErrMixedMask and ErrMaskLength.
	ErrMaskConsistency = errors.New("inconsistent masks")

	ErrMixedMask  = fmt.Errorf("%w: all or none of the inputs should be masked", ErrMaskConsistency)
	ErrMaskLength = fmt.Errorf("%w: when using masked arrays all must be of equal size", ErrMaskConsistency)

	ErrMissingField = errors.New("missing field")
)

// ShapeError reports the field that could not be broadcast.
type ShapeError struct {
	Field string
	Len   int
	Want  int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%v: %s has length %d, want 1 or %d", ErrShapeMismatch, e.Field, e.Len, e.Want)
}

func (e *ShapeError) Unwrap() error { return ErrShapeMismatch }

// ElementError wraps a kernel failure with the row it happened on.
type ElementError struct {
	Index int
	Err   error
}

func (e *ElementError) Error() string {
	return fmt.Sprintf("element %d: %v", e.Index, e.Err)
}

func (e *ElementError) Unwrap() error { return e.Err }
