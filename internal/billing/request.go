package billing

import (
	"github.com/shopspring/decimal"

	"frontdesk/internal/reconciliation"
	"frontdesk/pkg/models"
)

// Request is a bill as submitted from the desk. In booking mode Discount is
// the operator's entry; in editing mode it is the discount currently stored on
// the visit and the bill carries the re-derived one instead.
type Request struct {
	Lines    []models.ServiceLine `json:"lines"`
	Mode     string               `json:"mode,omitempty"`
	Discount decimal.Decimal      `json:"discount"`
	Tendered Tendered             `json:"tendered"`
}

// ParseMode returns the requested mode. An empty mode is booking.
func (r Request) ParseMode() (reconciliation.Mode, error) {
	if r.Mode == "" {
		return reconciliation.ModeBooking, nil
	}
	return reconciliation.ParseMode(r.Mode)
}

// ComputeBillInMode computes the bill with the discount mode calls for. The
// outcome reports whether that discount differs from the one supplied.
func ComputeBillInMode(mode reconciliation.Mode, lines []models.ServiceLine, discount decimal.Decimal, tendered Tendered) (BillSummary, reconciliation.Outcome) {
	totalCharges := decimal.Zero
	for _, line := range lines {
		totalCharges = totalCharges.Add(line.Amount)
	}

	outcome := reconciliation.Apply(mode, discount, totalCharges, tendered.Total())
	return ComputeBill(lines, outcome.Discount, tendered), outcome
}
