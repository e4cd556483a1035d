package forms

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"frontdesk/internal/daterange"
	"frontdesk/pkg/models"
)

// Canonical field keys
const (
	FieldUHID        = "uhid"
	FieldPatientName = "patient_name"
	FieldFormDate    = "form_date"
	FieldDoctor      = "doctor"
	FieldWitness     = "witness"
)

var fieldSynonyms = map[string]string{
	"uhid":              FieldUHID,
	"uhid no":           FieldUHID,
	"uhid number":       FieldUHID,
	"mr no":             FieldUHID,
	"mrn":               FieldUHID,
	"patient id":        FieldUHID,
	"name":              FieldPatientName,
	"patient name":      FieldPatientName,
	"name of patient":   FieldPatientName,
	"patient_name":      FieldPatientName,
	"date":              FieldFormDate,
	"form date":         FieldFormDate,
	"date of discharge": FieldFormDate,
	"discharge date":    FieldFormDate,
	"form_date":         FieldFormDate,
	"doctor":            FieldDoctor,
	"consultant":        FieldDoctor,
	"treating doctor":   FieldDoctor,
	"doctor name":       FieldDoctor,
	"witness":           FieldWitness,
	"witness name":      FieldWitness,
	"name of witness":   FieldWitness,
}

var formDateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	daterange.DateLayout,
	"02 Jan 2006",
	"2 Jan 2006",
	"02 January 2006",
}

// NormalizeFields maps printed labels onto canonical keys and cleans values.
// Unknown labels are kept in snake_case; empty values are dropped. When several
// labels map to the same key the most specific one (most words) wins, ties
// going to the alphabetically first label.
func NormalizeFields(raw map[string]string) map[string]string {
	labels := make([]string, 0, len(raw))
	for label := range raw {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	fields := make(map[string]string, len(raw))
	ranks := make(map[string]int, len(raw))
	for _, label := range labels {
		value := strings.TrimSpace(raw[label])
		if value == "" {
			continue
		}
		cleaned := cleanLabel(label)
		key := canonicalKey(cleaned)
		if key == "" {
			continue
		}
		rank := len(strings.Fields(cleaned))
		if best, seen := ranks[key]; seen && best >= rank {
			continue
		}

		switch key {
		case FieldUHID:
			value = normalizeUHID(value)
		case FieldFormDate:
			value = normalizeFormDate(value)
		}
		fields[key] = value
		ranks[key] = rank
	}
	return fields
}

// RequiredFields lists the fields a form of the kind must carry
func RequiredFields(kind models.FormKind) []string {
	required := []string{FieldUHID, FieldPatientName, FieldFormDate}
	switch kind {
	case models.FormConsent:
		required = append(required, FieldWitness)
	case models.FormDischarge:
		required = append(required, FieldDoctor)
	}
	return required
}

// MissingFields returns the required fields absent from fields, in order
func MissingFields(kind models.FormKind, fields map[string]string) []string {
	var missing []string
	for _, key := range RequiredFields(kind) {
		if fields[key] == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

// cleanLabel lowercases a printed label and collapses its separators to single spaces
func cleanLabel(label string) string {
	label = strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(label), ":")))
	return strings.Join(strings.Fields(strings.NewReplacer(".", " ", "_", " ").Replace(label)), " ")
}

func canonicalKey(label string) string {
	if key, ok := fieldSynonyms[label]; ok {
		return key
	}

	var b strings.Builder
	for _, r := range label {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '/':
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "_") {
				b.WriteByte('_')
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

func normalizeUHID(v string) string {
	return strings.ToUpper(strings.Join(strings.Fields(v), ""))
}

// normalizeFormDate returns YYYY-MM-DD, or the value unchanged when no layout matches
func normalizeFormDate(v string) string {
	for _, layout := range formDateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format(daterange.DateLayout)
		}
	}
	return v
}
