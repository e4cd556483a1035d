package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EncounterKind distinguishes outpatient visits from inpatient stays
type EncounterKind string

const (
	KindOPD EncounterKind = "opd"
	KindIPD EncounterKind = "ipd"
)

// Encounter is one outpatient visit or inpatient stay owned by a patient (UHID)
type Encounter struct {
	ID      string        // opd_id or ipd_id
	UHID    string        // Unique hospital identifier of the owning patient
	Kind    EncounterKind // opd or ipd
	Date    time.Time     // Visit date (OPD) or admission date (IPD); zero when unparseable
	RawDate string        // Date exactly as stored, kept for data-quality warnings

	Lines   []ServiceLine // Billable services
	Payment PaymentRecord // OPD payment snapshot
	Ledger  []LedgerEntry // IPD money movements
}

// IsOPD reports whether the encounter is an outpatient visit
func (e *Encounter) IsOPD() bool {
	return e.Kind == KindOPD
}

// IsIPD reports whether the encounter is an inpatient stay
func (e *Encounter) IsIPD() bool {
	return e.Kind == KindIPD
}

// NetDeposit returns advances minus refunds and settlements over the whole stay
func (e *Encounter) NetDeposit() decimal.Decimal {
	net := decimal.Zero
	for _, entry := range e.Ledger {
		switch {
		case entry.IsAdvance():
			net = net.Add(entry.Amount)
		case entry.IsOutflow():
			net = net.Sub(entry.Amount)
		}
	}
	return net
}

// PaymentMethod is the tender used for an outpatient payment
type PaymentMethod string

const (
	MethodCash       PaymentMethod = "cash"
	MethodOnline     PaymentMethod = "online"
	MethodMixed      PaymentMethod = "mixed"
	MethodCardCredit PaymentMethod = "card-credit"
	MethodCardDebit  PaymentMethod = "card-debit"
)

// PaymentRecord is the stored payment snapshot of an outpatient encounter
type PaymentRecord struct {
	CashAmount    decimal.Decimal `json:"cashAmount"`
	OnlineAmount  decimal.Decimal `json:"onlineAmount"`
	TotalPaid     decimal.Decimal `json:"totalPaid"`
	Discount      decimal.Decimal `json:"discount"`
	TotalCharges  decimal.Decimal `json:"totalCharges"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	CashThrough   string          `json:"cashThrough,omitempty"`
	OnlineThrough string          `json:"onlineThrough,omitempty"`
}

// Normalize recomputes TotalPaid from the two tendered channels
func (p *PaymentRecord) Normalize() {
	p.TotalPaid = p.CashAmount.Add(p.OnlineAmount)
}

// Channel is the way money reached the hospital
type Channel string

const (
	ChannelCash   Channel = "cash"
	ChannelOnline Channel = "online"
)

// SubMethod refines an online payment
type SubMethod string

const (
	SubMethodUPI        SubMethod = "upi"
	SubMethodCard       SubMethod = "card"
	SubMethodNetBanking SubMethod = "netbanking"
	SubMethodCheque     SubMethod = "cheque"
	SubMethodOther      SubMethod = "other"
)

// LedgerEntryType classifies an inpatient money movement
type LedgerEntryType string

const (
	EntryAdvance    LedgerEntryType = "advance"
	EntryDeposit    LedgerEntryType = "deposit"
	EntryRefund     LedgerEntryType = "refund"
	EntrySettlement LedgerEntryType = "settlement"
)

// LedgerEntry is one dated, typed, channel-tagged money movement within an inpatient stay
type LedgerEntry struct {
	Amount    decimal.Decimal `json:"amount"`
	Channel   Channel         `json:"paymentType"`
	SubMethod SubMethod       `json:"through"`
	Type      LedgerEntryType `json:"type"`
	At        time.Time       `json:"date"` // zero when the entry carries no timestamp
}

// IsAdvance reports whether the entry increases the net deposit
func (l LedgerEntry) IsAdvance() bool {
	return l.Type == EntryAdvance
}

// IsOutflow reports whether the entry decreases the net deposit
func (l LedgerEntry) IsOutflow() bool {
	return l.Type == EntryRefund || l.Type == EntrySettlement
}

// NormalizeChannel maps free-form channel labels ("Cash", "ONLINE") onto a Channel
func NormalizeChannel(raw string) Channel {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "cash":
		return ChannelCash
	case "online", "upi", "card", "netbanking", "net banking", "net-banking", "cheque", "check":
		return ChannelOnline
	}
	return Channel(strings.ToLower(strings.TrimSpace(raw)))
}

// NormalizeSubMethod maps free-form sub-method labels onto a SubMethod
func NormalizeSubMethod(raw string) SubMethod {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	cleaned = strings.NewReplacer("-", "", "_", "", " ", "").Replace(cleaned)
	switch cleaned {
	case "upi", "gpay", "phonepe", "paytm":
		return SubMethodUPI
	case "card", "creditcard", "debitcard", "cardcredit", "carddebit":
		return SubMethodCard
	case "netbanking", "neft", "rtgs", "imps", "banktransfer":
		return SubMethodNetBanking
	case "cheque", "check":
		return SubMethodCheque
	}
	return SubMethodOther
}

// NormalizeEntryType maps free-form ledger entry labels onto a LedgerEntryType
func NormalizeEntryType(raw string) LedgerEntryType {
	return LedgerEntryType(strings.ToLower(strings.TrimSpace(raw)))
}
