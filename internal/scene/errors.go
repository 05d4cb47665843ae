package scene

import (
	"errors"
	"fmt"
)

// ErrSceneNotFound is returned when a scene id does not resolve.
var ErrSceneNotFound = errors.New("scene not found")

// SchemaError reports a malformed or out-of-range payload field.
// Mapped to HTTP 400 at the API layer.
type SchemaError struct {
	Field   string
	Message string
}

func (e SchemaError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ReferenceError reports a payload that references a dependent entity that
// does not exist (e.g. an unknown image id). This is a user error (400): the
// reference was never valid, as opposed to a ConsistencyError where a stored
// reference has gone dangling.
type ReferenceError struct {
	Kind string
	ID   string
}

func (e ReferenceError) Error() string {
	return fmt.Sprintf("%s %q does not exist", e.Kind, e.ID)
}

// ConsistencyError reports a stored foreign key that no longer resolves at
// read time. Indicates corrupted invariants; mapped to 500, logged, and
// never retried.
type ConsistencyError struct {
	Kind string
	ID   string
}

func (e ConsistencyError) Error() string {
	return fmt.Sprintf("stored reference to missing %s %q", e.Kind, e.ID)
}

// StorageError wraps a failed persistence operation (500).
type StorageError struct {
	Op  string
	Err error
}

func (e StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e StorageError) Unwrap() error { return e.Err }
