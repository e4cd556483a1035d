// Package reconciliation re-derives outpatient discounts from the stored charges
// and payments after a payment edit.
//
// In booking mode the operator types the discount and it is kept as entered.
// In editing mode the discount is whatever the payments leave uncovered:
//
//	discount = max(0, totalCharges - totalPaid)
//
// Apply only reports a change when the derived value differs from the stored
// one, so writing the outcome back never triggers another update.
package reconciliation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"frontdesk/internal/money"
)

// Mode selects whether the discount is operator-entered or derived
type Mode string

const (
	ModeBooking Mode = "booking"
	ModeEditing Mode = "editing"
)

// ParseMode reads a mode flag value.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeBooking:
		return ModeBooking, nil
	case ModeEditing:
		return ModeEditing, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, raw)
}

// Outcome is the result of applying the rule to one encounter
type Outcome struct {
	Discount decimal.Decimal `json:"discount"`
	Changed  bool            `json:"changed"`
}

// DeriveDiscount returns the part of the charges the payments leave uncovered, never negative.
func DeriveDiscount(totalCharges, totalPaid decimal.Decimal) decimal.Decimal {
	return money.NonNegative(totalCharges.Sub(totalPaid))
}

// Apply evaluates the rule for the given mode against the stored discount.
func Apply(mode Mode, stored, totalCharges, totalPaid decimal.Decimal) Outcome {
	if mode != ModeEditing {
		return Outcome{Discount: stored}
	}

	derived := DeriveDiscount(totalCharges, totalPaid)
	return Outcome{
		Discount: derived,
		Changed:  !derived.Equal(stored),
	}
}
