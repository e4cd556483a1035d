package billing

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"frontdesk/internal/catalog"
	"frontdesk/internal/logger"
	"frontdesk/pkg/models"
)

// ChargeResolver prices service lines from the catalog and the doctor roster
type ChargeResolver struct {
	catalog catalog.Catalog
	log     zerolog.Logger
}

// NewChargeResolver creates a resolver backed by the given catalog
func NewChargeResolver(c catalog.Catalog) *ChargeResolver {
	return &ChargeResolver{
		catalog: c,
		log:     logger.WithComponent("charge-resolver"),
	}
}

// Resolve returns the line with its Amount set. Consultations take the doctor's
// preset charge for the visit type, catalog services take the table charge and
// custom lines keep the operator's amount. Anything unresolvable is priced at zero.
func (r *ChargeResolver) Resolve(ctx context.Context, line models.ServiceLine) models.ServiceLine {
	switch {
	case line.Type == models.ServiceConsultation:
		line.Amount = r.consultationCharge(ctx, line)
	case line.Type.IsCatalog():
		line.Amount = r.catalogCharge(ctx, line)
	case line.Type == models.ServiceCustom:
		// operator-entered
	default:
		r.log.Warn().Str("type", string(line.Type)).Msg("Unknown service type, charging zero")
		line.Amount = decimal.Zero
	}
	return line
}

// ResolveAll prices every line.
func (r *ChargeResolver) ResolveAll(ctx context.Context, lines []models.ServiceLine) []models.ServiceLine {
	resolved := make([]models.ServiceLine, len(lines))
	for i, line := range lines {
		resolved[i] = r.Resolve(ctx, line)
	}
	return resolved
}

func (r *ChargeResolver) consultationCharge(ctx context.Context, line models.ServiceLine) decimal.Decimal {
	doc, ok, err := r.catalog.Doctor(ctx, line.DoctorID)
	if err != nil {
		r.log.Warn().Err(err).Str("doctor_id", line.DoctorID).Msg("Doctor lookup failed, charging zero")
		return decimal.Zero
	}
	if !ok {
		r.log.Warn().Str("doctor_id", line.DoctorID).Msg("Doctor not on roster, charging zero")
		return decimal.Zero
	}
	return doc.ChargeFor(line.VisitType)
}

func (r *ChargeResolver) catalogCharge(ctx context.Context, line models.ServiceLine) decimal.Decimal {
	amount, ok, err := r.catalog.LookupCharge(ctx, line.Type, line.ServiceKey)
	if err != nil {
		r.log.Warn().Err(err).Str("catalog", string(line.Type)).Str("service", line.ServiceKey).Msg("Charge lookup failed, charging zero")
		return decimal.Zero
	}
	if !ok {
		r.log.Warn().Str("catalog", string(line.Type)).Str("service", line.ServiceKey).Msg("Service not in catalog, charging zero")
		return decimal.Zero
	}
	return amount
}
