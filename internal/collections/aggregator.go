// Package collections aggregates daily cash and online collections from
// outpatient payment snapshots and inpatient deposit ledgers.
//
// Aggregation is a pure function of its inputs: encounters are fetched by the
// caller and the date range is always an explicit parameter, never ambient state.
//
// Inpatient refunds and settlements are netted against the cash channel while
// the online sub-method breakdown reports raw advances. This mirrors the
// database's get_ipd_collections procedure so both figures reconcile.
// Apportioning refunds across online sub-methods is still an open accounting
// question and is left to that procedure's owners.
package collections

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"frontdesk/internal/daterange"
	"frontdesk/internal/logger"
	"frontdesk/pkg/models"
)

// Aggregator computes collection summaries
type Aggregator struct {
	log zerolog.Logger
}

// NewAggregator creates a new collections aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{
		log: logger.WithComponent("collections"),
	}
}

// Aggregate sums the collections of every encounter activity falling within r.
// Missing amounts count as zero; records with unparseable dates are excluded
// and reported as warnings.
func (a *Aggregator) Aggregate(encounters []models.Encounter, r daterange.Range) Summary {
	summary := newSummary(r)
	cashAdvances := decimal.Zero

	for i := range encounters {
		enc := &encounters[i]

		switch enc.Kind {
		case models.KindOPD:
			a.addOPD(&summary, enc, r)
		case models.KindIPD:
			cashAdvances = cashAdvances.Add(a.addIPD(&summary, enc, r))
		default:
			summary.Warnings = append(summary.Warnings, Warning{
				EncounterID: enc.ID,
				Reason:      "unknown encounter kind " + string(enc.Kind),
			})
		}
	}

	summary.IPDCash = cashAdvances.Sub(summary.OverallRefunds)
	summary.finalize()

	a.log.Debug().
		Str("range", summary.Range).
		Int("encounters", len(encounters)).
		Int("opd_count", summary.OPDCount).
		Int("ipd_count", summary.IPDCount).
		Str("grand_total", summary.GrandTotal.String()).
		Int("warnings", len(summary.Warnings)).
		Msg("Collections aggregated")

	return summary
}

// addOPD uses the stored payment snapshot as the authoritative cash/online split.
func (a *Aggregator) addOPD(summary *Summary, enc *models.Encounter, r daterange.Range) {
	if enc.Date.IsZero() {
		summary.Warnings = append(summary.Warnings, Warning{
			EncounterID: enc.ID,
			Reason:      "unparseable date " + quote(enc.RawDate) + ", excluded",
		})
		return
	}
	if !r.Contains(enc.Date) {
		return
	}

	if enc.Payment.CashAmount.IsNegative() || enc.Payment.OnlineAmount.IsNegative() {
		summary.Warnings = append(summary.Warnings, Warning{
			EncounterID: enc.ID,
			Reason:      "negative payment amount",
		})
	}

	summary.OPDCash = summary.OPDCash.Add(enc.Payment.CashAmount)
	summary.OPDOnline = summary.OPDOnline.Add(enc.Payment.OnlineAmount)
	summary.OPDCount++
}

// addIPD adds in-range ledger activity and returns the cash advances it saw.
// Advances on a channel other than cash are counted as online.
func (a *Aggregator) addIPD(summary *Summary, enc *models.Encounter, r daterange.Range) decimal.Decimal {
	cash := decimal.Zero
	counted := false
	undated := false
	negative := false
	oddChannels := map[models.Channel]bool{}

	for _, entry := range enc.Ledger {
		at := entry.At
		if at.IsZero() {
			at = enc.Date
		}
		if at.IsZero() {
			undated = true
			continue
		}
		if !r.Contains(at) {
			continue
		}
		if entry.Amount.IsNegative() && (entry.IsAdvance() || entry.IsOutflow()) {
			negative = true
		}

		switch {
		case entry.IsAdvance():
			counted = true
			if entry.Channel == models.ChannelCash {
				cash = cash.Add(entry.Amount)
				continue
			}
			if entry.Channel != models.ChannelOnline {
				oddChannels[entry.Channel] = true
			}
			addOnline(&summary.IPDOnlineByMethod, entry)
		case entry.IsOutflow():
			counted = true
			summary.OverallRefunds = summary.OverallRefunds.Add(entry.Amount)
			if entry.Channel == models.ChannelCash {
				summary.RefundsCash = summary.RefundsCash.Add(entry.Amount)
			} else {
				summary.RefundsOnline = summary.RefundsOnline.Add(entry.Amount)
			}
		}
	}

	if undated {
		summary.Warnings = append(summary.Warnings, Warning{
			EncounterID: enc.ID,
			Reason:      "ledger entries without a parseable date " + quote(enc.RawDate) + ", excluded",
		})
	}
	if negative {
		summary.Warnings = append(summary.Warnings, Warning{
			EncounterID: enc.ID,
			Reason:      "negative ledger amount",
		})
	}
	if len(oddChannels) > 0 {
		channels := make([]string, 0, len(oddChannels))
		for ch := range oddChannels {
			channels = append(channels, quote(string(ch)))
		}
		sort.Strings(channels)
		summary.Warnings = append(summary.Warnings, Warning{
			EncounterID: enc.ID,
			Reason:      "advance with unknown channel " + strings.Join(channels, ", ") + " counted as online",
		})
	}
	if counted {
		summary.IPDCount++
	}
	return cash
}

func addOnline(b *OnlineBreakdown, entry models.LedgerEntry) {
	switch entry.SubMethod {
	case models.SubMethodUPI:
		b.UPI = b.UPI.Add(entry.Amount)
	case models.SubMethodCard:
		b.Card = b.Card.Add(entry.Amount)
	case models.SubMethodNetBanking:
		b.NetBanking = b.NetBanking.Add(entry.Amount)
	case models.SubMethodCheque:
		b.Cheque = b.Cheque.Add(entry.Amount)
	default:
		b.Other = b.Other.Add(entry.Amount)
	}
}

// DailyBreakdown aggregates each calendar day of r separately.
func (a *Aggregator) DailyBreakdown(encounters []models.Encounter, r daterange.Range) []DaySummary {
	days := r.Days()
	out := make([]DaySummary, 0, len(days))
	for _, day := range days {
		dayRange := daterange.Day(day)
		out = append(out, DaySummary{
			Day:     dayRange.String(),
			Summary: a.Aggregate(encounters, dayRange),
		})
	}
	return out
}

func quote(s string) string {
	return "\"" + s + "\""
}
