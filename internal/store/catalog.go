package store

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"frontdesk/internal/catalog"
	"frontdesk/pkg/models"
)

const doctorColumns = `id, name, specialty, first_visit_charge, follow_up_charge`

// ListDoctors returns the doctor roster ordered by name
func (s *Store) ListDoctors(ctx context.Context) ([]models.Doctor, error) {
	const op = "ListDoctors"

	rows, err := s.db.QueryContext(ctx, `SELECT `+doctorColumns+` FROM doctors ORDER BY name`)
	if err != nil {
		return nil, wrap(op, err, "doctors")
	}
	defer rows.Close()

	var doctors []models.Doctor
	for rows.Next() {
		doc, err := scanDoctor(rows)
		if err != nil {
			return nil, wrap(op, err, "doctors")
		}
		doctors = append(doctors, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err, "doctors")
	}
	return doctors, nil
}

// Doctor implements catalog.Catalog
func (s *Store) Doctor(ctx context.Context, id string) (models.Doctor, bool, error) {
	const op = "Doctor"

	row := s.db.QueryRowContext(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE id = $1`, id)
	doc, err := scanDoctor(row)
	if isNoRows(err) {
		return models.Doctor{}, false, nil
	}
	if err != nil {
		return models.Doctor{}, false, wrap(op, err, "doctor "+id)
	}
	return doc, true, nil
}

// LookupCharge implements catalog.Catalog over the service_charges table
func (s *Store) LookupCharge(ctx context.Context, cat models.ServiceType, serviceKey string) (decimal.Decimal, bool, error) {
	const op = "LookupCharge"

	if !cat.IsCatalog() {
		return decimal.Zero, false, wrap(op, catalog.ErrUnknownCatalog, string(cat))
	}

	var amount decimal.Decimal
	err := s.db.QueryRowContext(ctx, `SELECT amount FROM service_charges
		WHERE catalog = $1 AND lower(service_key) = $2`,
		string(cat), catalog.NormalizeKey(serviceKey)).Scan(&amount)
	if isNoRows(err) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, wrap(op, err, string(cat)+"/"+serviceKey)
	}
	return amount, true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDoctor(row scanner) (models.Doctor, error) {
	var (
		doc       models.Doctor
		specialty sql.NullString
	)
	err := row.Scan(&doc.ID, &doc.Name, &specialty, &doc.FirstVisitCharge, &doc.FollowUpCharge)
	doc.Specialty = specialty.String
	return doc, err
}

var _ catalog.Catalog = (*Store)(nil)
