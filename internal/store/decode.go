package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"frontdesk/internal/daterange"
	"frontdesk/internal/money"
	"frontdesk/pkg/models"
)

// The booking forms write amounts as numbers, numeric strings or "₹1,200"
// style labels, so jsonb columns are decoded through loosely typed rows first.

type rawPayment struct {
	CashAmount    any    `json:"cashAmount"`
	OnlineAmount  any    `json:"onlineAmount"`
	Discount      any    `json:"discount"`
	TotalCharges  any    `json:"totalCharges"`
	PaymentMethod string `json:"paymentMethod"`
	CashThrough   string `json:"cashThrough"`
	OnlineThrough string `json:"onlineThrough"`
}

type rawLine struct {
	Type      string `json:"type"`
	Service   string `json:"service"`
	Name      string `json:"name"`
	Amount    any    `json:"amount"`
	DoctorID  string `json:"doctorId"`
	VisitType string `json:"visitType"`
}

type rawLedgerEntry struct {
	Amount      any    `json:"amount"`
	PaymentType string `json:"paymentType"`
	Through     string `json:"through"`
	Type        string `json:"type"`
	Date        string `json:"date"`
}

func decodeJSON(data []byte, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// decodePayment never fails; malformed input yields zero amounts and a warning.
func decodePayment(log zerolog.Logger, encounterID string, data []byte) models.PaymentRecord {
	var raw rawPayment
	if err := decodeJSON(data, &raw); err != nil {
		log.Warn().Err(err).Str("encounter_id", encounterID).Msg("Malformed payment column, treating as unpaid")
		return models.PaymentRecord{}
	}

	record := models.PaymentRecord{
		CashAmount:    lenientAmount(log, encounterID, "cashAmount", raw.CashAmount),
		OnlineAmount:  lenientAmount(log, encounterID, "onlineAmount", raw.OnlineAmount),
		Discount:      lenientAmount(log, encounterID, "discount", raw.Discount),
		TotalCharges:  lenientAmount(log, encounterID, "totalCharges", raw.TotalCharges),
		PaymentMethod: models.PaymentMethod(raw.PaymentMethod),
		CashThrough:   raw.CashThrough,
		OnlineThrough: raw.OnlineThrough,
	}
	record.Normalize()
	return record
}

func decodeLines(log zerolog.Logger, encounterID string, data []byte) []models.ServiceLine {
	var raw []rawLine
	if err := decodeJSON(data, &raw); err != nil {
		log.Warn().Err(err).Str("encounter_id", encounterID).Msg("Malformed service column, ignoring services")
		return nil
	}

	lines := make([]models.ServiceLine, 0, len(raw))
	for _, r := range raw {
		lines = append(lines, models.ServiceLine{
			Type:       models.ServiceType(r.Type),
			ServiceKey: r.Service,
			Name:       r.Name,
			Amount:     lenientAmount(log, encounterID, "amount", r.Amount),
			DoctorID:   r.DoctorID,
			VisitType:  models.VisitType(r.VisitType),
		})
	}
	return lines
}

func decodeLedger(log zerolog.Logger, encounterID string, data []byte) []models.LedgerEntry {
	var raw []rawLedgerEntry
	if err := decodeJSON(data, &raw); err != nil {
		log.Warn().Err(err).Str("encounter_id", encounterID).Msg("Malformed ledger column, ignoring ledger")
		return nil
	}

	entries := make([]models.LedgerEntry, 0, len(raw))
	for i, r := range raw {
		entry := models.LedgerEntry{
			Amount:    lenientAmount(log, encounterID, fmt.Sprintf("ledger[%d].amount", i), r.Amount),
			Channel:   models.NormalizeChannel(r.PaymentType),
			SubMethod: models.NormalizeSubMethod(r.Through),
			Type:      models.NormalizeEntryType(r.Type),
		}
		if r.Date != "" {
			at, err := daterange.ParseStoredDate(r.Date)
			if err != nil {
				// left zero: the aggregator falls back to the admission date
				log.Warn().Str("encounter_id", encounterID).Str("date", r.Date).Msg("Unparseable ledger date")
			}
			entry.At = at
		}
		entries = append(entries, entry)
	}
	return entries
}

func lenientAmount(log zerolog.Logger, encounterID, field string, v any) decimal.Decimal {
	amount, err := money.Parse(v)
	if err != nil {
		log.Warn().Err(err).Str("encounter_id", encounterID).Str("field", field).Msg("Non-numeric amount, using zero")
	}
	return amount
}
