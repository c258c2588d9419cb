package counts

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch is returned when element-wise operations receive arrays of
// different shapes.
var ErrShapeMismatch = errors.New("counts: shape mismatch")

// ShapeMismatchError carries the offending shapes.
type ShapeMismatchError struct {
	Left  []int
	Right []int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("counts: shape mismatch: %v vs %v", e.Left, e.Right)
}

// Unwrap allows errors.Is(err, ErrShapeMismatch).
func (e *ShapeMismatchError) Unwrap() error {
	return ErrShapeMismatch
}
