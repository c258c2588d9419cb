package falcon

import (
	"errors"
	"fmt"
)

var (
	// ErrSchema is returned when the table or a dimension's column is missing.
	ErrSchema = errors.New("schema error")

	// ErrNotActive is returned when Select is called on a passive view.
	ErrNotActive = errors.New("view is not active")

	// ErrDetached is returned for operations on a detached view.
	ErrDetached = errors.New("view is detached")

	// ErrStaleGeneration is returned when a newer activation superseded the
	// call while it waited on the backend. Its result was dropped.
	ErrStaleGeneration = errors.New("stale generation")
)

// SchemaError names the missing table or dimension. Table is empty for
// backends that do not implement backend.Named.
type SchemaError struct {
	Table     string
	Dimension string
}

func (e *SchemaError) Error() string {
	switch {
	case e.Dimension != "" && e.Table != "":
		return fmt.Sprintf("schema error: dimension %q does not exist in table %q", e.Dimension, e.Table)
	case e.Dimension != "":
		return fmt.Sprintf("schema error: dimension %q does not exist", e.Dimension)
	case e.Table != "":
		return fmt.Sprintf("schema error: table %q does not exist", e.Table)
	default:
		return "schema error: table does not exist"
	}
}

// Is makes errors.Is(err, ErrSchema) succeed.
func (e *SchemaError) Is(target error) bool { return target == ErrSchema }
