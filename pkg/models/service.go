package models

import "github.com/shopspring/decimal"

// ServiceType is the kind of billable unit on a bill
type ServiceType string

const (
	ServiceConsultation ServiceType = "consultation"
	ServiceCasualty     ServiceType = "casualty"
	ServiceXRay         ServiceType = "xray"
	ServicePathology    ServiceType = "pathology"
	ServiceIPD          ServiceType = "ipd"
	ServiceRadiology    ServiceType = "radiology"
	ServiceCardiology   ServiceType = "cardiology"
	ServiceCustom       ServiceType = "custom"
)

// IsCatalog reports whether charges of this type come from a static catalog table
func (t ServiceType) IsCatalog() bool {
	switch t {
	case ServiceCasualty, ServiceXRay, ServicePathology, ServiceIPD, ServiceRadiology, ServiceCardiology:
		return true
	}
	return false
}

// Valid reports whether t is a known service type
func (t ServiceType) Valid() bool {
	return t == ServiceConsultation || t == ServiceCustom || t.IsCatalog()
}

// VisitType selects which preset consultation charge applies
type VisitType string

const (
	VisitFirst    VisitType = "first"
	VisitFollowUp VisitType = "followup"
)

// ServiceLine is a single billable unit
type ServiceLine struct {
	Type       ServiceType     `json:"type"`
	ServiceKey string          `json:"service,omitempty"`   // Catalog entry key (x-ray, pathology, ...)
	Name       string          `json:"name,omitempty"`      // Display name, free text for custom lines
	Amount     decimal.Decimal `json:"amount"`              // Resolved charge
	DoctorID   string          `json:"doctorId,omitempty"`  // Responsible doctor
	VisitType  VisitType       `json:"visitType,omitempty"` // Consultations only
}

// Doctor is a roster entry with preset consultation charges
type Doctor struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Specialty        string          `json:"specialty,omitempty"`
	FirstVisitCharge decimal.Decimal `json:"firstVisitCharge"`
	FollowUpCharge   decimal.Decimal `json:"followUpCharge"`
}

// ChargeFor returns the preset charge for the given visit type
func (d Doctor) ChargeFor(visit VisitType) decimal.Decimal {
	if visit == VisitFollowUp {
		return d.FollowUpCharge
	}
	return d.FirstVisitCharge
}

// CatalogEntry maps one service of a catalog to its fixed charge
type CatalogEntry struct {
	Catalog    ServiceType     `json:"catalog"`
	ServiceKey string          `json:"service"`
	Amount     decimal.Decimal `json:"amount"`
}
