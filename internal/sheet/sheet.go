// Package sheet provides a uniform append/overwrite/read-all contract over a
// tabular backing store with a header row. Positions are 1-based store
// positions: the header occupies row 1 and the first data row is row 2.
package sheet

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrStoreUnavailable indicates the backing store could not be reached.
	ErrStoreUnavailable = errors.New("sheet store unavailable")
	// ErrWriteFailed indicates an append or overwrite did not take effect.
	ErrWriteFailed = errors.New("sheet write failed")
)

// Table is one full read of a sheet. Rows excludes the header; Rows[i] lives
// at store position i+2.
type Table struct {
	Header []string
	Rows   [][]string
}

// Position converts a data row index into its 1-based store position.
func (t Table) Position(rowIndex int) int {
	return rowIndex + 2
}

// Store is the backing-store contract. Duplicate keys across rows are
// expected; appends never check uniqueness. Overwrite replaces the row at
// position entirely, so callers must supply every column even when unchanged.
type Store interface {
	ReadAll(ctx context.Context, sheet string) (Table, error)
	EnsureHeader(ctx context.Context, sheet string, header []string) error
	Append(ctx context.Context, sheet string, row []string) error
	Overwrite(ctx context.Context, sheet string, position int, row []string) error
}

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// markTransient tags an error as a rate/quota style failure that is worth
// retrying. All other failures propagate immediately.
func markTransient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err was tagged by markTransient.
func IsTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}

// HeaderMatches compares a stored header against the expected one by value
// and order, ignoring surrounding whitespace.
func HeaderMatches(stored, expected []string) bool {
	if len(stored) != len(expected) {
		return false
	}
	for i := range expected {
		if strings.TrimSpace(stored[i]) != strings.TrimSpace(expected[i]) {
			return false
		}
	}
	return true
}
