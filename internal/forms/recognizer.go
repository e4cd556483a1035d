// Package forms digitizes scanned consent and discharge paper forms.
//
// A scan is validated, run through a Recognizer (Google Document AI's form
// parser for key/value pairs, or Cloud Vision OCR for plain text), optionally
// completed by an OpenAI field extractor when required fields are missing,
// normalized, and archived as a models.ScannedForm.
//
// Credentials:
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
//   - GOOGLE_CLOUD_PROJECT, GOOGLE_CLOUD_LOCATION, DOCUMENT_AI_PROCESSOR_ID for Document AI
//   - OPENAI_API_KEY for field extraction
//
// Limits:
//   - Maximum file size: 20MB (synchronous processing)
//   - Vision OCR: at most 5 pages per scan
package forms

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
)

const (
	// MaxFileSizeBytes is the maximum scan size for synchronous processing (20MB)
	MaxFileSizeBytes = 20 * 1024 * 1024

	// MaxPagesSync is the maximum number of pages Vision OCR processes synchronously
	MaxPagesSync = 5
)

// Recognition is the raw output of a recognizer
type Recognition struct {
	Text       string            // Full recognized text in reading order
	Fields     map[string]string // Key/value pairs as printed on the form, not yet normalized
	Confidence float32           // Average confidence (0.0-1.0)
	Pages      int
	Source     string // "documentai" or "vision"
}

// Recognizer turns a scanned PDF into text and raw key/value pairs
type Recognizer interface {
	Recognize(ctx context.Context, pdf []byte) (*Recognition, error)
}

// ValidatePDF checks the size limit and the PDF header.
func ValidatePDF(pdf []byte) error {
	const op = "ValidatePDF"

	if len(pdf) > MaxFileSizeBytes {
		return WrapFormError(op, ErrPDFTooLarge, fmt.Sprintf("file size: %d bytes", len(pdf)))
	}
	if len(pdf) < 4 || string(pdf[:4]) != "%PDF" {
		return WrapFormError(op, ErrInvalidPDF, "missing PDF header")
	}
	return nil
}

// CredentialOptions builds Google client options from inline JSON or a key file.
// Inline JSON wins; with neither set the client falls back to default credentials.
func CredentialOptions(credJSON, credFile string) []option.ClientOption {
	switch {
	case credJSON != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(credJSON))}
	case credFile != "":
		return []option.ClientOption{option.WithCredentialsFile(credFile)}
	}
	return nil
}
