package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"frontdesk/pkg/models"
)

// EncounterFeed supplies encounters materialized from the hospital database
type EncounterFeed interface {
	// ListEncounters returns OPD encounters dated within [start, end) and IPD
	// encounters with ledger activity (or admission) in the same window.
	ListEncounters(ctx context.Context, start, end time.Time) ([]models.Encounter, error)

	// GetEncounter returns a single encounter by its identifier
	GetEncounter(ctx context.Context, id string) (*models.Encounter, error)
}

// DiscountWriter persists a re-derived discount on an outpatient encounter
type DiscountWriter interface {
	UpdateDiscount(ctx context.Context, encounterID string, discount decimal.Decimal) error
}

// DoctorRoster lists the doctors the desk can book consultations with
type DoctorRoster interface {
	ListDoctors(ctx context.Context) ([]models.Doctor, error)
}

// FormArchive stores digitized paper forms
type FormArchive interface {
	SaveScannedForm(ctx context.Context, form *models.ScannedForm) error
}
