package collections

import (
	"github.com/shopspring/decimal"

	"frontdesk/internal/daterange"
	"frontdesk/internal/money"
)

// OnlineBreakdown splits inpatient online advances by sub-method.
// Refunds are never apportioned back across these buckets.
type OnlineBreakdown struct {
	UPI        decimal.Decimal `json:"upi"`
	Card       decimal.Decimal `json:"card"`
	NetBanking decimal.Decimal `json:"netBanking"`
	Cheque     decimal.Decimal `json:"cheque"`
	Other      decimal.Decimal `json:"other"` // online advances with a missing or unknown sub-method
}

// Total returns the sum of all sub-method buckets.
func (b OnlineBreakdown) Total() decimal.Decimal {
	return money.Sum(b.UPI, b.Card, b.NetBanking, b.Cheque, b.Other)
}

// Summary is the collection figure set for one date range
type Summary struct {
	Range string `json:"range"`

	OPDCash   decimal.Decimal `json:"opdCash"`
	OPDOnline decimal.Decimal `json:"opdOnline"`

	IPDCash           decimal.Decimal `json:"ipdCash"`   // cash advances net of overall refunds
	IPDOnline         decimal.Decimal `json:"ipdOnline"` // raw online advances
	IPDOnlineByMethod OnlineBreakdown `json:"ipdOnlineByMethod"`

	OverallRefunds decimal.Decimal `json:"overallRefunds"` // refunds plus settlements
	RefundsCash    decimal.Decimal `json:"refundsCash"`
	RefundsOnline  decimal.Decimal `json:"refundsOnline"`

	TotalOPD    decimal.Decimal `json:"totalOpd"`
	TotalIPD    decimal.Decimal `json:"totalIpd"`
	TotalOnline decimal.Decimal `json:"totalOnline"`
	TotalCash   decimal.Decimal `json:"totalCash"`
	GrandTotal  decimal.Decimal `json:"grandTotal"`

	OPDCount int `json:"opdCount"`
	IPDCount int `json:"ipdCount"`

	Warnings []Warning `json:"warnings,omitempty"`
}

// Warning is a data-quality finding that did not stop aggregation
type Warning struct {
	EncounterID string `json:"encounterId"`
	Reason      string `json:"reason"`
}

// DaySummary pairs a calendar day with its summary
type DaySummary struct {
	Day     string  `json:"day"`
	Summary Summary `json:"summary"`
}

// finalize derives every total from the channel figures.
func (s *Summary) finalize() {
	s.IPDOnline = s.IPDOnlineByMethod.Total()
	s.TotalOPD = money.Sum(s.OPDCash, s.OPDOnline)
	s.TotalIPD = money.Sum(s.IPDCash, s.IPDOnline)
	s.TotalOnline = money.Sum(s.OPDOnline, s.IPDOnlineByMethod.Total())
	s.TotalCash = money.Sum(s.OPDCash, s.IPDCash)
	s.GrandTotal = money.Sum(s.TotalOPD, s.TotalIPD)
}

func newSummary(r daterange.Range) Summary {
	return Summary{Range: r.String()}
}
