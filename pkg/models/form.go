package models

import (
	"time"

	"github.com/google/uuid"
)

// FormKind is the kind of paper form being digitized
type FormKind string

const (
	FormConsent   FormKind = "consent"
	FormDischarge FormKind = "discharge"
)

// ScannedForm is a digitized consent or discharge paper form
type ScannedForm struct {
	ID         uuid.UUID         // Archive identifier
	UHID       string            // Patient the form belongs to
	Kind       FormKind          // consent or discharge
	Text       string            // Full recognized text
	Fields     map[string]string // Normalized key/value fields (patient_name, form_date, ...)
	Confidence float32           // Average recognition confidence (0.0-1.0)
	Source     string            // "documentai", "vision" or "vision+openai"
	ScannedAt  time.Time         // When the form was digitized
}
