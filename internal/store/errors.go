package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the requested row does not exist
var ErrNotFound = errors.New("record not found")

// StoreError represents a failed database operation
type StoreError struct {
	Op      string // Operation that failed
	Err     error  // Underlying error
	Details string // Additional details (table, id)
}

// Error implements the error interface
func (e *StoreError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("store %s failed: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is(err, ErrNotFound) on wrapped lookups
func (e *StoreError) Is(target error) bool {
	return target == ErrNotFound && errors.Is(e.Err, ErrNotFound)
}

func wrap(op string, err error, details string) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err, Details: details}
}
