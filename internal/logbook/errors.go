package logbook

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a key or row position resolves to nothing.
// It is an expected outcome, not a failure of the backing store.
var ErrNotFound = errors.New("entry not found")

// ValidationError reports bad or missing caller input. It is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
