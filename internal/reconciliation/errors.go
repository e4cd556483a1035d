package reconciliation

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownMode is returned for a mode other than booking or editing
	ErrUnknownMode = errors.New("unknown reconciliation mode")

	// ErrNotOutpatient is returned when a single-encounter reconcile targets an inpatient stay
	ErrNotOutpatient = errors.New("encounter is not an outpatient visit")
)

// ReconcileError wraps a failure while reconciling stored encounters
type ReconcileError struct {
	Op          string
	EncounterID string
	Err         error
}

// Error implements the error interface.
func (e *ReconcileError) Error() string {
	if e.EncounterID != "" {
		return fmt.Sprintf("reconciliation: %s failed for encounter %s: %v", e.Op, e.EncounterID, e.Err)
	}
	return fmt.Sprintf("reconciliation: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ReconcileError) Unwrap() error {
	return e.Err
}
