// Package billing turns priced service lines and tendered payments into the
// bill figures printed on receipts and fed to the bill renderer.
package billing

import (
	"github.com/shopspring/decimal"

	"frontdesk/internal/money"
	"frontdesk/pkg/models"
)

// Tendered holds the amounts handed over at the counter
type Tendered struct {
	Cash   decimal.Decimal `json:"cash"`
	Online decimal.Decimal `json:"online"`
}

// Total returns cash plus online.
func (t Tendered) Total() decimal.Decimal {
	return money.Sum(t.Cash, t.Online)
}

// Status describes where a bill stands after payment
type Status string

const (
	StatusSettled     Status = "settled"
	StatusOutstanding Status = "outstanding"
	StatusRefundable  Status = "refundable"
)

// BillSummary is the input contract of the bill renderer
type BillSummary struct {
	Lines        []models.ServiceLine `json:"lines"`
	TotalCharges decimal.Decimal      `json:"totalCharges"`
	Discount     decimal.Decimal      `json:"discount"`
	NetPayable   decimal.Decimal      `json:"netPayable"`
	Cash         decimal.Decimal      `json:"cash"`
	Online       decimal.Decimal      `json:"online"`
	TotalPaid    decimal.Decimal      `json:"totalPaid"`
	Due          decimal.Decimal      `json:"due"` // positive = owed, negative = refundable
	PaidInWords  string               `json:"paidInWords"`
	DueInWords   string               `json:"dueInWords,omitempty"`
}

// Status reports whether the bill is settled, still owed, or owes the patient a refund.
func (b BillSummary) Status() Status {
	switch b.Due.Sign() {
	case 1:
		return StatusOutstanding
	case -1:
		return StatusRefundable
	default:
		return StatusSettled
	}
}

// ComputeBill totals already-priced lines against a discount and the tendered amounts.
// The discount is not clamped here; keeping it within the charges is the caller's job.
func ComputeBill(lines []models.ServiceLine, discount decimal.Decimal, tendered Tendered) BillSummary {
	totalCharges := decimal.Zero
	for _, line := range lines {
		totalCharges = totalCharges.Add(line.Amount)
	}

	netPayable := totalCharges.Sub(discount)
	totalPaid := tendered.Total()
	due := netPayable.Sub(totalPaid)

	summary := BillSummary{
		Lines:        lines,
		TotalCharges: totalCharges,
		Discount:     discount,
		NetPayable:   netPayable,
		Cash:         tendered.Cash,
		Online:       tendered.Online,
		TotalPaid:    totalPaid,
		Due:          due,
		PaidInWords:  money.InWords(totalPaid),
	}
	if due.IsPositive() {
		summary.DueInWords = money.InWords(due)
	}
	return summary
}

// PaymentRecord converts the bill into the payment snapshot stored on an outpatient encounter.
func (b BillSummary) PaymentRecord() models.PaymentRecord {
	record := models.PaymentRecord{
		CashAmount:   b.Cash,
		OnlineAmount: b.Online,
		Discount:     b.Discount,
		TotalCharges: b.TotalCharges,
	}
	record.Normalize()

	switch {
	case b.Cash.IsPositive() && b.Online.IsPositive():
		record.PaymentMethod = models.MethodMixed
	case b.Online.IsPositive():
		record.PaymentMethod = models.MethodOnline
	default:
		record.PaymentMethod = models.MethodCash
	}
	return record
}
