package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

var onesWords = []string{
	"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
	"Seventeen", "Eighteen", "Nineteen",
}

var tensWords = []string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
}

// InWords renders an amount the way it is printed on a receipt, using the
// Indian numbering system: 250000.5 -> "Two Lakh Fifty Thousand and Fifty Paise only".
func InWords(d decimal.Decimal) string {
	prefix := ""
	if d.IsNegative() {
		prefix = "Minus "
		d = d.Neg()
	}

	d = d.Round(2)
	rupees := d.IntPart()
	paise := d.Sub(decimal.NewFromInt(rupees)).Shift(2).IntPart()

	switch {
	case rupees == 0 && paise == 0:
		return "Zero only"
	case paise == 0:
		return prefix + integerWords(rupees) + " only"
	case rupees == 0:
		return prefix + integerWords(paise) + " Paise only"
	default:
		return prefix + integerWords(rupees) + " and " + integerWords(paise) + " Paise only"
	}
}

// integerWords spells a positive integer in crore/lakh/thousand/hundred groups.
func integerWords(n int64) string {
	if n == 0 {
		return "Zero"
	}

	var parts []string
	if crore := n / 10000000; crore > 0 {
		parts = append(parts, integerWords(crore), "Crore")
		n %= 10000000
	}
	if lakh := n / 100000; lakh > 0 {
		parts = append(parts, belowHundred(lakh), "Lakh")
		n %= 100000
	}
	if thousand := n / 1000; thousand > 0 {
		parts = append(parts, belowHundred(thousand), "Thousand")
		n %= 1000
	}
	if hundred := n / 100; hundred > 0 {
		parts = append(parts, onesWords[hundred], "Hundred")
		n %= 100
	}
	if n > 0 {
		parts = append(parts, belowHundred(n))
	}
	return strings.Join(parts, " ")
}

func belowHundred(n int64) string {
	if n < 20 {
		return onesWords[n]
	}
	if n%10 == 0 {
		return tensWords[n/10]
	}
	return tensWords[n/10] + " " + onesWords[n%10]
}
