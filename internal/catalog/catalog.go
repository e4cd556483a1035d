// Package catalog provides the read-only reference data bills are priced from:
// fixed-charge service tables (x-ray, pathology, radiology, cardiology, casualty,
// IPD ancillary services) and the doctor roster with consultation charges.
//
// Callers depend on the Catalog interface so tables can be served from memory,
// from PostgreSQL, or through the Redis cache without redeploying billing code.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"frontdesk/pkg/models"
)

// ErrUnknownCatalog is returned when a service type has no charge table.
var ErrUnknownCatalog = errors.New("unknown service catalog")

// Catalog is the reference-data service consulted by charge resolution.
type Catalog interface {
	// LookupCharge returns the fixed charge of serviceKey in the given catalog.
	// ok is false when the service is not listed.
	LookupCharge(ctx context.Context, catalog models.ServiceType, serviceKey string) (amount decimal.Decimal, ok bool, err error)

	// Doctor returns a roster entry by identifier. ok is false when not listed.
	Doctor(ctx context.Context, id string) (doctor models.Doctor, ok bool, err error)
}

// NormalizeKey makes service keys case- and spacing-insensitive.
func NormalizeKey(key string) string {
	return strings.Join(strings.Fields(strings.ToLower(key)), " ")
}
