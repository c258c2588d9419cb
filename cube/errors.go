package cube

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexNotReady is returned when a passive view is queried before its
	// cube was built.
	ErrIndexNotReady = errors.New("cube: index not ready")

	// ErrSelfActiveFilter is returned for a passive view on the active
	// dimension itself. Such a view reads its own histogram instead.
	ErrSelfActiveFilter = errors.New("cube: passive view shares the active dimension")

	// ErrUnsupportedView is returned for view kinds the builder cannot index.
	ErrUnsupportedView = errors.New("cube: unsupported view")

	// ErrNotCumulative is returned when a range query hits a categorical cube.
	ErrNotCumulative = errors.New("cube: range query on categorical cube")
)

// ViewError attaches the failing view to a build error.
type ViewError struct {
	View ViewID
	Err  error
}

func (e *ViewError) Error() string {
	return fmt.Sprintf("view %d: %v", e.View, e.Err)
}

// Unwrap returns the underlying error.
func (e *ViewError) Unwrap() error {
	return e.Err
}
