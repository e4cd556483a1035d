// Package store reads encounters, charges and the doctor roster from the
// hospital's PostgreSQL database and writes back discounts and scanned forms.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"frontdesk/internal/daterange"
	"frontdesk/internal/logger"
	"frontdesk/pkg/models"
)

// Options tunes the connection pool
type Options struct {
	MaxOpenConns int
	MaxIdleConns int
}

// Store is the PostgreSQL-backed encounter feed, discount writer, catalog and form archive
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open connects to PostgreSQL and verifies the connection
func Open(ctx context.Context, dsn string, opts Options) (*Store, error) {
	const op = "Open"

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, wrap(op, err, "open")
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, wrap(op, err, "ping")
	}

	return New(db), nil
}

// New wraps an existing database handle
func New(db *sql.DB) *Store {
	return &Store{
		db:  db,
		log: logger.WithComponent("store"),
	}
}

// Close closes the underlying database handle
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

const opdColumns = `opd_id, uhid, date, service_info, payment_info`

const ipdColumns = `ipd_id, uhid, admission_date, service_info, payment_detail`

// ListEncounters returns outpatient visits dated within [start, end) and
// inpatient stays admitted in, or with a ledger entry in, the same window.
// Dates are stored as text, so the window is widened by a day on each side and
// callers filter precisely in IST.
func (s *Store) ListEncounters(ctx context.Context, start, end time.Time) ([]models.Encounter, error) {
	const op = "ListEncounters"

	from := start.In(daterange.Location).AddDate(0, 0, -1).Format(daterange.DateLayout)
	until := end.In(daterange.Location).AddDate(0, 0, 1).Format(daterange.DateLayout)

	opd, err := s.queryOPD(ctx, `SELECT `+opdColumns+` FROM opd_registration
		WHERE date >= $1 AND date < $2
		ORDER BY date, opd_id`, from, until)
	if err != nil {
		return nil, wrap(op, err, "opd_registration")
	}

	ipd, err := s.queryIPD(ctx, `SELECT `+ipdColumns+` FROM ipd_registration r
		WHERE (r.admission_date >= $1 AND r.admission_date < $2)
		   OR EXISTS (
			SELECT 1 FROM jsonb_array_elements(COALESCE(r.payment_detail, '[]'::jsonb)) e
			WHERE e->>'date' >= $1 AND e->>'date' < $2
		   )
		ORDER BY r.admission_date, r.ipd_id`, from, until)
	if err != nil {
		return nil, wrap(op, err, "ipd_registration")
	}

	s.log.Debug().
		Str("from", from).
		Str("until", until).
		Int("opd", len(opd)).
		Int("ipd", len(ipd)).
		Msg("Encounters loaded")

	return append(opd, ipd...), nil
}

// GetEncounter looks an encounter up by its OPD or IPD identifier
func (s *Store) GetEncounter(ctx context.Context, id string) (*models.Encounter, error) {
	const op = "GetEncounter"

	opd, err := s.queryOPD(ctx, `SELECT `+opdColumns+` FROM opd_registration WHERE opd_id = $1`, id)
	if err != nil {
		return nil, wrap(op, err, "opd_registration")
	}
	if len(opd) > 0 {
		return &opd[0], nil
	}

	ipd, err := s.queryIPD(ctx, `SELECT `+ipdColumns+` FROM ipd_registration WHERE ipd_id = $1`, id)
	if err != nil {
		return nil, wrap(op, err, "ipd_registration")
	}
	if len(ipd) > 0 {
		return &ipd[0], nil
	}

	return nil, wrap(op, ErrNotFound, "encounter "+id)
}

func (s *Store) queryOPD(ctx context.Context, query string, args ...any) ([]models.Encounter, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var encounters []models.Encounter
	for rows.Next() {
		var (
			enc               models.Encounter
			rawDate           sql.NullString
			services, payment []byte
		)
		if err := rows.Scan(&enc.ID, &enc.UHID, &rawDate, &services, &payment); err != nil {
			return nil, fmt.Errorf("scan opd row: %w", err)
		}

		enc.Kind = models.KindOPD
		enc.RawDate = rawDate.String
		enc.Date = s.parseDate(enc.ID, enc.RawDate)
		enc.Lines = decodeLines(s.log, enc.ID, services)
		enc.Payment = decodePayment(s.log, enc.ID, payment)
		encounters = append(encounters, enc)
	}
	return encounters, rows.Err()
}

func (s *Store) queryIPD(ctx context.Context, query string, args ...any) ([]models.Encounter, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var encounters []models.Encounter
	for rows.Next() {
		var (
			enc              models.Encounter
			rawDate          sql.NullString
			services, ledger []byte
		)
		if err := rows.Scan(&enc.ID, &enc.UHID, &rawDate, &services, &ledger); err != nil {
			return nil, fmt.Errorf("scan ipd row: %w", err)
		}

		enc.Kind = models.KindIPD
		enc.RawDate = rawDate.String
		enc.Date = s.parseDate(enc.ID, enc.RawDate)
		enc.Lines = decodeLines(s.log, enc.ID, services)
		enc.Ledger = decodeLedger(s.log, enc.ID, ledger)
		encounters = append(encounters, enc)
	}
	return encounters, rows.Err()
}

// parseDate leaves the date zero when unparseable; RawDate keeps the original
// for the aggregator's data-quality warnings.
func (s *Store) parseDate(encounterID, raw string) time.Time {
	t, err := daterange.ParseStoredDate(raw)
	if err != nil {
		s.log.Debug().Str("encounter_id", encounterID).Str("date", raw).Msg("Unparseable encounter date")
		return time.Time{}
	}
	return t
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
