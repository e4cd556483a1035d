package reconciliation

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"frontdesk/internal/daterange"
	"frontdesk/internal/logger"
	"frontdesk/pkg/models"
	"frontdesk/pkg/services"
)

// Change records one discount the reconciler rewrote, or would rewrite in a dry run
type Change struct {
	EncounterID  string          `json:"encounterId"`
	UHID         string          `json:"uhid"`
	TotalCharges decimal.Decimal `json:"totalCharges"`
	TotalPaid    decimal.Decimal `json:"totalPaid"`
	From         decimal.Decimal `json:"from"`
	To           decimal.Decimal `json:"to"`
}

// Report summarizes a reconciliation run
type Report struct {
	Range     string   `json:"range"`
	DryRun    bool     `json:"dryRun"`
	Examined  int      `json:"examined"`
	Unchanged int      `json:"unchanged"`
	Changes   []Change `json:"changes"`
}

// Reconciler applies the editing-mode rule to stored outpatient encounters
type Reconciler struct {
	feed   services.EncounterFeed
	writer services.DiscountWriter
	log    zerolog.Logger
}

// NewReconciler creates a reconciler reading from feed and writing through writer
func NewReconciler(feed services.EncounterFeed, writer services.DiscountWriter) *Reconciler {
	return &Reconciler{
		feed:   feed,
		writer: writer,
		log:    logger.WithComponent("reconciler"),
	}
}

// Run re-derives the discount of every outpatient encounter in r. Rows whose
// stored discount already matches are not written. With dryRun set nothing is written.
func (rc *Reconciler) Run(ctx context.Context, r daterange.Range, dryRun bool) (*Report, error) {
	const op = "Run"

	from, until := r.Bounds()
	encounters, err := rc.feed.ListEncounters(ctx, from, until)
	if err != nil {
		return nil, &ReconcileError{Op: op, Err: err}
	}

	report := &Report{Range: r.String(), DryRun: dryRun}
	for i := range encounters {
		enc := &encounters[i]
		if !enc.IsOPD() || !r.Contains(enc.Date) {
			continue
		}
		report.Examined++

		change, changed := evaluate(enc)
		if !changed {
			report.Unchanged++
			continue
		}

		if !dryRun {
			if err := rc.writer.UpdateDiscount(ctx, enc.ID, change.To); err != nil {
				return report, &ReconcileError{Op: op, EncounterID: enc.ID, Err: err}
			}
		}
		encLog := logger.WithEncounter("reconciler", enc.ID)
		encLog.Info().
			Str("from", change.From.String()).
			Str("to", change.To.String()).
			Bool("dry_run", dryRun).
			Msg("Discount re-derived")
		report.Changes = append(report.Changes, change)
	}

	rc.log.Info().
		Str("range", report.Range).
		Int("examined", report.Examined).
		Int("changed", len(report.Changes)).
		Bool("dry_run", dryRun).
		Msg("Reconciliation finished")

	return report, nil
}

// ReconcileEncounter applies the editing-mode rule to a single outpatient encounter
// and persists the result when it differs from the stored discount.
func (rc *Reconciler) ReconcileEncounter(ctx context.Context, id string) (Outcome, error) {
	const op = "ReconcileEncounter"

	enc, err := rc.feed.GetEncounter(ctx, id)
	if err != nil {
		return Outcome{}, &ReconcileError{Op: op, EncounterID: id, Err: err}
	}
	if !enc.IsOPD() {
		return Outcome{}, &ReconcileError{Op: op, EncounterID: id, Err: ErrNotOutpatient}
	}

	change, changed := evaluate(enc)
	outcome := Outcome{Discount: change.To, Changed: changed}
	if !changed {
		return outcome, nil
	}

	if err := rc.writer.UpdateDiscount(ctx, id, change.To); err != nil {
		return Outcome{}, &ReconcileError{Op: op, EncounterID: id, Err: err}
	}
	encLog := logger.WithEncounter("reconciler", id)
	encLog.Info().
		Str("from", change.From.String()).
		Str("to", change.To.String()).
		Msg("Discount re-derived")
	return outcome, nil
}

func evaluate(enc *models.Encounter) (Change, bool) {
	charges := totalCharges(enc)
	paid := enc.Payment.CashAmount.Add(enc.Payment.OnlineAmount)
	outcome := Apply(ModeEditing, enc.Payment.Discount, charges, paid)

	return Change{
		EncounterID:  enc.ID,
		UHID:         enc.UHID,
		TotalCharges: charges,
		TotalPaid:    paid,
		From:         enc.Payment.Discount,
		To:           outcome.Discount,
	}, outcome.Changed
}

// totalCharges prefers the stored total and falls back to the sum of the service lines.
func totalCharges(enc *models.Encounter) decimal.Decimal {
	if !enc.Payment.TotalCharges.IsZero() || len(enc.Lines) == 0 {
		return enc.Payment.TotalCharges
	}
	sum := decimal.Zero
	for _, line := range enc.Lines {
		sum = sum.Add(line.Amount)
	}
	return sum
}
