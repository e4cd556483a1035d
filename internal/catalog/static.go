package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"frontdesk/pkg/models"
)

// Static is an in-memory catalog. It is safe for concurrent reads once built.
type Static struct {
	charges map[models.ServiceType]map[string]decimal.Decimal
	doctors map[string]models.Doctor
}

// NewStatic builds a catalog from explicit entries and a roster.
func NewStatic(entries []models.CatalogEntry, doctors []models.Doctor) (*Static, error) {
	s := &Static{
		charges: make(map[models.ServiceType]map[string]decimal.Decimal),
		doctors: make(map[string]models.Doctor, len(doctors)),
	}

	for _, e := range entries {
		if !e.Catalog.IsCatalog() {
			return nil, fmt.Errorf("%w: %q (service %q)", ErrUnknownCatalog, e.Catalog, e.ServiceKey)
		}
		if e.Amount.IsNegative() {
			return nil, fmt.Errorf("negative charge for %s/%s", e.Catalog, e.ServiceKey)
		}
		table, ok := s.charges[e.Catalog]
		if !ok {
			table = make(map[string]decimal.Decimal)
			s.charges[e.Catalog] = table
		}
		table[NormalizeKey(e.ServiceKey)] = e.Amount
	}

	for _, doc := range doctors {
		s.doctors[doc.ID] = doc
	}

	return s, nil
}

// ListDoctors returns the roster ordered by name.
func (s *Static) ListDoctors(_ context.Context) ([]models.Doctor, error) {
	doctors := make([]models.Doctor, 0, len(s.doctors))
	for _, doc := range s.doctors {
		doctors = append(doctors, doc)
	}
	sort.Slice(doctors, func(i, j int) bool {
		if doctors[i].Name != doctors[j].Name {
			return doctors[i].Name < doctors[j].Name
		}
		return doctors[i].ID < doctors[j].ID
	})
	return doctors, nil
}

// LookupCharge implements Catalog.
func (s *Static) LookupCharge(_ context.Context, catalog models.ServiceType, serviceKey string) (decimal.Decimal, bool, error) {
	table, ok := s.charges[catalog]
	if !ok {
		if !catalog.IsCatalog() {
			return decimal.Zero, false, fmt.Errorf("%w: %q", ErrUnknownCatalog, catalog)
		}
		return decimal.Zero, false, nil
	}
	amount, ok := table[NormalizeKey(serviceKey)]
	return amount, ok, nil
}

// Doctor implements Catalog.
func (s *Static) Doctor(_ context.Context, id string) (models.Doctor, bool, error) {
	doc, ok := s.doctors[id]
	return doc, ok, nil
}

// Entries lists every catalog entry (used to seed caches and exports).
func (s *Static) Entries() []models.CatalogEntry {
	var out []models.CatalogEntry
	for catalog, table := range s.charges {
		for key, amount := range table {
			out = append(out, models.CatalogEntry{Catalog: catalog, ServiceKey: key, Amount: amount})
		}
	}
	return out
}

func rupees(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

// DefaultEntries are the charge tables used when no catalog database is configured.
func DefaultEntries() []models.CatalogEntry {
	table := map[models.ServiceType]map[string]int64{
		models.ServiceXRay: {
			"chest pa view":       400,
			"chest ap view":       400,
			"skull ap/lat":        600,
			"cervical spine":      600,
			"lumbar spine ap/lat": 700,
			"knee ap/lat":         500,
			"abdomen erect":       450,
			"pelvis ap":           500,
		},
		models.ServicePathology: {
			"cbc":                  300,
			"blood sugar fasting":  80,
			"blood sugar pp":       80,
			"hba1c":                550,
			"lipid profile":        650,
			"liver function test":  700,
			"kidney function test": 700,
			"urine routine":        150,
			"thyroid profile":      600,
			"dengue ns1":           800,
		},
		models.ServiceRadiology: {
			"usg abdomen":    1200,
			"usg pelvis":     1000,
			"ct brain plain": 2500,
			"ct chest":       4500,
			"mri brain":      6500,
		},
		models.ServiceCardiology: {
			"ecg":           250,
			"2d echo":       1800,
			"tmt":           2000,
			"holter 24 hrs": 2500,
		},
		models.ServiceCasualty: {
			"dressing small":         200,
			"dressing large":         400,
			"suturing":               600,
			"injection charges":      100,
			"nebulization":           150,
			"emergency consultation": 500,
		},
		models.ServiceIPD: {
			"general ward bed per day": 1500,
			"private room bed per day": 3500,
			"icu bed per day":          7000,
			"nursing charges per day":  500,
			"oxygen per hour":          150,
			"doctor visit":             500,
		},
	}

	var entries []models.CatalogEntry
	for catalog, services := range table {
		for key, amount := range services {
			entries = append(entries, models.CatalogEntry{Catalog: catalog, ServiceKey: key, Amount: rupees(amount)})
		}
	}
	return entries
}

// Default returns the built-in catalog with the given roster.
func Default(doctors []models.Doctor) *Static {
	s, err := NewStatic(DefaultEntries(), doctors)
	if err != nil {
		// The built-in tables are constant; a failure here is a programming error.
		panic(err)
	}
	return s
}
