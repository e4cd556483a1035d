package billing

import (
	"fmt"
	"strings"

	"frontdesk/pkg/models"
)

// FieldError is one failed per-field check on a bill request
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects every failed check so the operator can fix them together
type ValidationErrors struct {
	Fields []FieldError
}

// Error implements the error interface.
func (e *ValidationErrors) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationErrors) add(field, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Validate checks the selections a bill needs before any charge is computed:
// every consultation names a doctor and visit type, every catalog line names a
// service, custom lines have a non-negative amount.
func Validate(lines []models.ServiceLine) error {
	errs := &ValidationErrors{}
	errs.lines(lines)
	return errs.orNil()
}

// ValidateRequest checks the lines of req along with its mode, discount and
// tendered amounts. None of the amounts may be negative.
func ValidateRequest(req Request) error {
	errs := &ValidationErrors{}
	errs.lines(req.Lines)

	if _, err := req.ParseMode(); err != nil {
		errs.add("mode", "mode must be booking or editing")
	}
	if req.Discount.IsNegative() {
		errs.add("discount", "discount cannot be negative")
	}
	if req.Tendered.Cash.IsNegative() {
		errs.add("tendered.cash", "cash cannot be negative")
	}
	if req.Tendered.Online.IsNegative() {
		errs.add("tendered.online", "online amount cannot be negative")
	}
	return errs.orNil()
}

func (e *ValidationErrors) lines(lines []models.ServiceLine) {
	if len(lines) == 0 {
		e.add("lines", "at least one service is required")
	}

	for i, line := range lines {
		field := fmt.Sprintf("lines[%d]", i)

		switch {
		case !line.Type.Valid():
			e.add(field+".type", "unknown service type %q", line.Type)
		case line.Type == models.ServiceConsultation:
			if strings.TrimSpace(line.DoctorID) == "" {
				e.add(field+".doctorId", "doctor is required for a consultation")
			}
			if line.VisitType != models.VisitFirst && line.VisitType != models.VisitFollowUp {
				e.add(field+".visitType", "visit type must be first or followup")
			}
		case line.Type.IsCatalog():
			if strings.TrimSpace(line.ServiceKey) == "" {
				e.add(field+".service", "service is required for %s", line.Type)
			}
		case line.Type == models.ServiceCustom:
			if strings.TrimSpace(line.Name) == "" {
				e.add(field+".name", "name is required for a custom service")
			}
			if line.Amount.IsNegative() {
				e.add(field+".amount", "amount cannot be negative")
			}
		}
	}
}

func (e *ValidationErrors) orNil() error {
	if len(e.Fields) > 0 {
		return e
	}
	return nil
}
