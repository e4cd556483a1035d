package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"frontdesk/internal/collections"
	"frontdesk/internal/daterange"
	"frontdesk/pkg/models"
)

// IPDServerTotals calls the get_ipd_collections stored procedure for one IST calendar day
func (s *Store) IPDServerTotals(ctx context.Context, day time.Time) (collections.ServerTotals, error) {
	const op = "IPDServerTotals"

	dayStr := day.In(daterange.Location).Format(daterange.DateLayout)

	var totals collections.ServerTotals
	err := s.db.QueryRowContext(ctx, `SELECT
			COALESCE(cash_advances, 0),
			COALESCE(online_advances, 0),
			COALESCE(upi, 0),
			COALESCE(card, 0),
			COALESCE(netbanking, 0),
			COALESCE(cheque, 0),
			COALESCE(refunds, 0)
		FROM get_ipd_collections($1::date)`, dayStr).Scan(
		&totals.CashAdvances,
		&totals.OnlineAdvances,
		&totals.ByMethod.UPI,
		&totals.ByMethod.Card,
		&totals.ByMethod.NetBanking,
		&totals.ByMethod.Cheque,
		&totals.Refunds,
	)
	if isNoRows(err) {
		return collections.ServerTotals{}, nil
	}
	if err != nil {
		return collections.ServerTotals{}, wrap(op, err, "day "+dayStr)
	}
	return totals, nil
}

// UpdateDiscount rewrites the discount inside an outpatient payment snapshot
func (s *Store) UpdateDiscount(ctx context.Context, encounterID string, discount decimal.Decimal) error {
	const op = "UpdateDiscount"

	res, err := s.db.ExecContext(ctx, `UPDATE opd_registration
		SET payment_info = jsonb_set(COALESCE(payment_info, '{}'::jsonb), '{discount}', to_jsonb($2::numeric))
		WHERE opd_id = $1`, encounterID, discount.String())
	if err != nil {
		return wrap(op, err, "opd "+encounterID)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return wrap(op, err, "opd "+encounterID)
	}
	if n == 0 {
		return wrap(op, ErrNotFound, "opd "+encounterID)
	}

	s.log.Info().Str("encounter_id", encounterID).Str("discount", discount.String()).Msg("Discount updated")
	return nil
}

// SaveScannedForm archives a digitized consent or discharge form
func (s *Store) SaveScannedForm(ctx context.Context, form *models.ScannedForm) error {
	const op = "SaveScannedForm"

	if form.ID == uuid.Nil {
		form.ID = uuid.New()
	}
	if form.ScannedAt.IsZero() {
		form.ScannedAt = time.Now()
	}

	fields, err := json.Marshal(form.Fields)
	if err != nil {
		return wrap(op, fmt.Errorf("marshal fields: %w", err), "form "+form.ID.String())
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO form_scans
		(id, uhid, kind, text, fields, confidence, source, scanned_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		form.ID, form.UHID, string(form.Kind), form.Text, fields, form.Confidence, form.Source, form.ScannedAt)
	if err != nil {
		return wrap(op, err, "form "+form.ID.String())
	}

	s.log.Info().
		Str("form_id", form.ID.String()).
		Str("uhid", form.UHID).
		Str("kind", string(form.Kind)).
		Msg("Scanned form archived")
	return nil
}
