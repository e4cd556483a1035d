package forms

import (
	"errors"
	"fmt"
)

// Common form digitization errors
var (
	// ErrPDFTooLarge is returned when the scan exceeds the 20MB synchronous processing limit.
	ErrPDFTooLarge = errors.New("PDF file size exceeds the maximum limit (20MB)")

	// ErrInvalidPDF is returned when the provided data is not a PDF document.
	ErrInvalidPDF = errors.New("invalid or corrupted PDF document")

	// ErrTooManyPages is returned when Vision OCR receives more pages than it processes synchronously.
	ErrTooManyPages = errors.New("PDF has too many pages (maximum 5 pages for synchronous processing)")

	// ErrEmptyDocument is returned when the scan contains no readable text.
	ErrEmptyDocument = errors.New("document contains no readable text")

	// ErrRecognitionFailed is returned when the OCR or form parser call fails.
	ErrRecognitionFailed = errors.New("form recognition failed")

	// ErrExtractionFailed is returned when field extraction from recognized text fails.
	ErrExtractionFailed = errors.New("field extraction failed")

	// ErrInvalidConfiguration is returned when a required setting (project, processor) is missing.
	ErrInvalidConfiguration = errors.New("invalid forms configuration")

	// ErrInvalidRequest is returned for an unknown form kind or a missing UHID.
	ErrInvalidRequest = errors.New("invalid digitization request")
)

// FormError wraps errors with context about the digitization step that failed.
type FormError struct {
	// Op is the operation that failed (e.g., "Digitize", "Recognize").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *FormError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("forms: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("forms: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *FormError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *FormError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapFormError wraps an error as a FormError if it isn't already one.
func WrapFormError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var formErr *FormError
	if errors.As(err, &formErr) {
		return err
	}

	return &FormError{Op: op, Err: err, Details: details}
}
