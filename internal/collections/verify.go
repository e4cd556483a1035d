package collections

import (
	"github.com/shopspring/decimal"
)

// ServerTotals are the inpatient figures returned by the get_ipd_collections
// stored procedure for one calendar day.
type ServerTotals struct {
	CashAdvances   decimal.Decimal
	OnlineAdvances decimal.Decimal
	ByMethod       OnlineBreakdown
	Refunds        decimal.Decimal
}

// Mismatch is one inpatient figure on which client and server disagree
type Mismatch struct {
	Field  string          `json:"field"`
	Client decimal.Decimal `json:"client"`
	Server decimal.Decimal `json:"server"`
}

// CompareWithServerTotals cross-checks the client-side inpatient figures of a
// single-day summary against the stored procedure's figures.
func CompareWithServerTotals(s Summary, server ServerTotals) []Mismatch {
	figures := []struct {
		field  string
		client decimal.Decimal
		server decimal.Decimal
	}{
		{"cashAdvances", s.IPDCash.Add(s.OverallRefunds), server.CashAdvances},
		{"onlineAdvances", s.IPDOnline, server.OnlineAdvances},
		{"upi", s.IPDOnlineByMethod.UPI, server.ByMethod.UPI},
		{"card", s.IPDOnlineByMethod.Card, server.ByMethod.Card},
		{"netBanking", s.IPDOnlineByMethod.NetBanking, server.ByMethod.NetBanking},
		{"cheque", s.IPDOnlineByMethod.Cheque, server.ByMethod.Cheque},
		{"refunds", s.OverallRefunds, server.Refunds},
	}

	var mismatches []Mismatch
	for _, c := range figures {
		if !c.client.Equal(c.server) {
			mismatches = append(mismatches, Mismatch{Field: c.field, Client: c.client, Server: c.server})
		}
	}
	return mismatches
}
