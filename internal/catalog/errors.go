package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
	// ErrLocked is returned when another engine instance already owns the
	// catalog. Uncoordinated concurrent writers would corrupt it.
	ErrLocked = errors.New("catalog is locked by another process")
)

// ValidationError reports a rejected field value, such as a rating outside
// the 0-5 range.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// IntegrityError means the persisted catalog failed its load-time checks.
// It is fatal: the library must not silently start empty.
type IntegrityError struct {
	Path   string
	Detail string
	Err    error
}

func (e *IntegrityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("catalog integrity check failed for %s: %s: %v", e.Path, e.Detail, e.Err)
	}
	return fmt.Sprintf("catalog integrity check failed for %s: %s", e.Path, e.Detail)
}

func (e *IntegrityError) Unwrap() error { return e.Err }
