package forms

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"frontdesk/internal/logger"
	"frontdesk/pkg/models"
	"frontdesk/pkg/services"
)

// Digitizer turns scanned paper forms into archived ScannedForm records
type Digitizer struct {
	recognizer Recognizer
	extractor  FieldExtractor // optional
	archive    services.FormArchive
	now        func() time.Time
	log        zerolog.Logger
}

// NewDigitizer wires a recognizer, an optional extractor and an archive.
// A nil extractor disables field completion.
func NewDigitizer(recognizer Recognizer, extractor FieldExtractor, archive services.FormArchive) *Digitizer {
	return &Digitizer{
		recognizer: recognizer,
		extractor:  extractor,
		archive:    archive,
		now:        time.Now,
		log:        logger.WithComponent("forms"),
	}
}

// ParseKind validates a form kind flag or request value
func ParseKind(s string) (models.FormKind, error) {
	switch kind := models.FormKind(strings.ToLower(strings.TrimSpace(s))); kind {
	case models.FormConsent, models.FormDischarge:
		return kind, nil
	}
	return "", WrapFormError("ParseKind", ErrInvalidRequest, fmt.Sprintf("unknown form kind %q", s))
}

// Digitize recognizes the scan, completes missing fields, and archives the result.
// The UHID supplied by the desk is authoritative over whatever the scan reads.
func (d *Digitizer) Digitize(ctx context.Context, kind models.FormKind, uhid string, pdf []byte) (*models.ScannedForm, error) {
	const op = "Digitize"

	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	uhid = normalizeUHID(uhid)
	if uhid == "" {
		return nil, WrapFormError(op, ErrInvalidRequest, "uhid is required")
	}
	if err := ValidatePDF(pdf); err != nil {
		return nil, err
	}

	log := d.log.With().Str("uhid", uhid).Str("kind", string(kind)).Logger()

	rec, err := d.recognizer.Recognize(ctx, pdf)
	if err != nil {
		return nil, WrapFormError(op, err, "recognition")
	}

	fields := NormalizeFields(rec.Fields)
	source := rec.Source

	if missing := MissingFields(kind, fields); len(missing) > 0 && d.extractor != nil {
		log.Debug().Strs("missing_fields", missing).Msg("Completing form fields from text")

		extracted, err := d.extractor.Extract(ctx, kind, rec.Text)
		if err != nil {
			log.Warn().Err(err).Msg("Field extraction failed, keeping recognized fields")
		} else {
			extracted = NormalizeFields(extracted)
			filled := 0
			for _, key := range missing {
				if v := extracted[key]; v != "" {
					fields[key] = v
					filled++
				}
			}
			if filled > 0 {
				source += "+openai"
			}
		}
	}

	if scanned := fields[FieldUHID]; scanned != "" && scanned != uhid {
		log.Warn().
			Str("scanned_uhid", scanned).
			Msg("UHID on form differs from the desk UHID, keeping desk UHID")
	}
	fields[FieldUHID] = uhid

	if missing := MissingFields(kind, fields); len(missing) > 0 {
		log.Warn().Strs("missing_fields", missing).Msg("Form archived with missing fields")
	}

	form := &models.ScannedForm{
		ID:         uuid.New(),
		UHID:       uhid,
		Kind:       kind,
		Text:       rec.Text,
		Fields:     fields,
		Confidence: rec.Confidence,
		Source:     source,
		ScannedAt:  d.now(),
	}

	if err := d.archive.SaveScannedForm(ctx, form); err != nil {
		return nil, WrapFormError(op, err, "archive")
	}

	log.Info().
		Str("form_id", form.ID.String()).
		Str("source", form.Source).
		Float32("confidence", form.Confidence).
		Msg("Form digitized")

	return form, nil
}
