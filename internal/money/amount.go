// Package money holds the monetary helpers shared by the billing and collections code.
//
// Every amount is a decimal.Decimal so that collection totals and bill figures
// never drift the way float64 sums do. Values coming from loosely typed storage
// (jsonb columns, spreadsheet cells, form fields) go through Parse, which accepts
// numbers, numeric strings with rupee symbols or Indian digit grouping, and nil.
package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNotNumeric is returned when a value cannot be read as an amount.
var ErrNotNumeric = errors.New("value is not a numeric amount")

// Parse reads an amount from a loosely typed value. nil and empty strings are zero.
func Parse(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case nil:
		return decimal.Zero, nil
	case decimal.Decimal:
		return t, nil
	case float64:
		return decimal.NewFromFloat(t), nil
	case float32:
		return decimal.NewFromFloat32(t), nil
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case int64:
		return decimal.NewFromInt(t), nil
	case json.Number:
		return parseString(t.String())
	case string:
		return parseString(t)
	case []byte:
		return parseString(string(t))
	default:
		return decimal.Zero, fmt.Errorf("%w: unsupported type %T", ErrNotNumeric, v)
	}
}

// OrZero is Parse with every failure mapped to zero.
func OrZero(v any) decimal.Decimal {
	d, err := Parse(v)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseString(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	for _, symbol := range []string{"₹", "Rs.", "Rs", "INR", ",", " "} {
		cleaned = strings.ReplaceAll(cleaned, symbol, "")
	}
	if cleaned == "" || cleaned == "null" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNotNumeric, s)
	}
	return d, nil
}

// Sum adds all amounts.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// NonNegative clamps d at zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// FormatINR renders d with two decimals and Indian digit grouping, e.g. ₹12,34,567.50.
func FormatINR(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var grouped string
	if len(intPart) <= 3 {
		grouped = intPart
	} else {
		head, tail := intPart[:len(intPart)-3], intPart[len(intPart)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		if head != "" {
			groups = append([]string{head}, groups...)
		}
		grouped = strings.Join(groups, ",") + "," + tail
	}
	return sign + "₹" + grouped + "." + frac
}
