package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frontdesk/internal/catalog"
	"frontdesk/internal/daterange"
	"frontdesk/pkg/models"
)

func setupMockDB(t *testing.T) (sqlmock.Sqlmock, *Store) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return mock, New(db)
}

var (
	opdCols = []string{"opd_id", "uhid", "date", "service_info", "payment_info"}
	ipdCols = []string{"ipd_id", "uhid", "admission_date", "service_info", "payment_detail"}
)

func TestListEncounters_DecodesRows(t *testing.T) {
	mock, s := setupMockDB(t)
	day := daterange.Day(time.Date(2026, 10, 15, 9, 0, 0, 0, daterange.Location))
	from, until := day.Bounds()

	mock.ExpectQuery(`FROM opd_registration`).
		WithArgs("2026-10-14", "2026-10-17").
		WillReturnRows(sqlmock.NewRows(opdCols).
			AddRow("OPD-1", "UH1", "2026-10-15",
				[]byte(`[{"type":"consultation","doctorId":"D1","visitType":"first","amount":"500"}]`),
				[]byte(`{"cashAmount":"₹1,000","onlineAmount":250,"discount":"","totalCharges":"1250","paymentMethod":"mixed"}`)).
			AddRow("OPD-2", "UH2", "15/10/2026", nil, []byte(`not json`)))

	mock.ExpectQuery(`FROM ipd_registration`).
		WithArgs("2026-10-14", "2026-10-17").
		WillReturnRows(sqlmock.NewRows(ipdCols).
			AddRow("IPD-1", "UH3", "2026-10-12", nil,
				[]byte(`[{"amount":"5,000","paymentType":"Cash","type":"advance","date":"2026-10-15T11:30:00+05:30"},
				         {"amount":2000,"paymentType":"online","through":"GPay","type":"advance","date":"2026-10-15"},
				         {"amount":"abc","paymentType":"cash","type":"refund"}]`)))

	encounters, err := s.ListEncounters(context.Background(), from, until)
	require.NoError(t, err)
	require.Len(t, encounters, 3)

	first := encounters[0]
	assert.Equal(t, models.KindOPD, first.Kind)
	assert.Equal(t, "2026-10-15", first.Date.Format(daterange.DateLayout))
	assert.True(t, first.Payment.CashAmount.Equal(decimal.NewFromInt(1000)))
	assert.True(t, first.Payment.TotalPaid.Equal(decimal.NewFromInt(1250)))
	assert.True(t, first.Payment.Discount.IsZero())
	require.Len(t, first.Lines, 1)
	assert.Equal(t, models.VisitFirst, first.Lines[0].VisitType)

	malformed := encounters[1]
	assert.True(t, malformed.Date.IsZero())
	assert.Equal(t, "15/10/2026", malformed.RawDate)
	assert.True(t, malformed.Payment.TotalPaid.IsZero())

	stay := encounters[2]
	assert.Equal(t, models.KindIPD, stay.Kind)
	require.Len(t, stay.Ledger, 3)
	assert.Equal(t, models.ChannelCash, stay.Ledger[0].Channel)
	assert.True(t, stay.Ledger[0].Amount.Equal(decimal.NewFromInt(5000)))
	assert.Equal(t, models.SubMethodUPI, stay.Ledger[1].SubMethod)
	assert.True(t, stay.Ledger[2].Amount.IsZero())
	assert.True(t, stay.Ledger[2].At.IsZero())
	assert.True(t, stay.NetDeposit().Equal(decimal.NewFromInt(7000)))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListEncounters_QueryError(t *testing.T) {
	mock, s := setupMockDB(t)

	mock.ExpectQuery(`FROM opd_registration`).WillReturnError(errors.New("connection refused"))

	_, err := s.ListEncounters(context.Background(), time.Now(), time.Now().Add(24*time.Hour))
	require.Error(t, err)

	var serr *StoreError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "ListEncounters", serr.Op)
	assert.Contains(t, err.Error(), "opd_registration")
}

func TestGetEncounter_FallsBackToInpatient(t *testing.T) {
	mock, s := setupMockDB(t)

	mock.ExpectQuery(`FROM opd_registration WHERE opd_id`).
		WithArgs("IPD-9").
		WillReturnRows(sqlmock.NewRows(opdCols))
	mock.ExpectQuery(`FROM ipd_registration WHERE ipd_id`).
		WithArgs("IPD-9").
		WillReturnRows(sqlmock.NewRows(ipdCols).AddRow("IPD-9", "UH9", "2026-10-01", nil, nil))

	enc, err := s.GetEncounter(context.Background(), "IPD-9")
	require.NoError(t, err)
	assert.True(t, enc.IsIPD())
	assert.Empty(t, enc.Ledger)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEncounter_NotFound(t *testing.T) {
	mock, s := setupMockDB(t)

	mock.ExpectQuery(`FROM opd_registration`).WillReturnRows(sqlmock.NewRows(opdCols))
	mock.ExpectQuery(`FROM ipd_registration`).WillReturnRows(sqlmock.NewRows(ipdCols))

	_, err := s.GetEncounter(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIPDServerTotals(t *testing.T) {
	mock, s := setupMockDB(t)

	mock.ExpectQuery(`FROM get_ipd_collections\(\$1::date\)`).
		WithArgs("2026-10-15").
		WillReturnRows(sqlmock.NewRows([]string{"cash", "online", "upi", "card", "netbanking", "cheque", "refunds"}).
			AddRow("5000", "2500.50", "2000", "500.50", "0", "0", "800"))

	totals, err := s.IPDServerTotals(context.Background(), time.Date(2026, 10, 15, 0, 0, 0, 0, daterange.Location))
	require.NoError(t, err)
	assert.Equal(t, "5000", totals.CashAdvances.String())
	assert.Equal(t, "2500.5", totals.OnlineAdvances.String())
	assert.Equal(t, "500.5", totals.ByMethod.Card.String())
	assert.Equal(t, "800", totals.Refunds.String())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateDiscount(t *testing.T) {
	mock, s := setupMockDB(t)

	mock.ExpectExec(`UPDATE opd_registration`).
		WithArgs("OPD-1", "300").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE opd_registration`).
		WithArgs("OPD-X", "0").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.UpdateDiscount(context.Background(), "OPD-1", decimal.NewFromInt(300)))

	err := s.UpdateDiscount(context.Background(), "OPD-X", decimal.Zero)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogQueries(t *testing.T) {
	mock, s := setupMockDB(t)
	ctx := context.Background()
	doctorCols := []string{"id", "name", "specialty", "first_visit_charge", "follow_up_charge"}

	mock.ExpectQuery(`FROM doctors ORDER BY name`).
		WillReturnRows(sqlmock.NewRows(doctorCols).
			AddRow("D1", "Dr. Iyer", "Cardiology", "700", "400").
			AddRow("D2", "Dr. Khan", nil, "500", "300"))
	mock.ExpectQuery(`FROM doctors WHERE id`).
		WithArgs("D9").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`FROM service_charges`).
		WithArgs("xray", "chest pa view").
		WillReturnRows(sqlmock.NewRows([]string{"amount"}).AddRow("450"))

	doctors, err := s.ListDoctors(ctx)
	require.NoError(t, err)
	require.Len(t, doctors, 2)
	assert.Equal(t, "Cardiology", doctors[0].Specialty)
	assert.Empty(t, doctors[1].Specialty)
	assert.Equal(t, "300", doctors[1].ChargeFor(models.VisitFollowUp).String())

	_, ok, err := s.Doctor(ctx, "D9")
	require.NoError(t, err)
	assert.False(t, ok)

	amount, ok, err := s.LookupCharge(ctx, models.ServiceXRay, "Chest PA View")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "450", amount.String())

	_, _, err = s.LookupCharge(ctx, models.ServiceCustom, "x")
	assert.ErrorIs(t, err, catalog.ErrUnknownCatalog)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveScannedForm(t *testing.T) {
	mock, s := setupMockDB(t)

	mock.ExpectExec(`INSERT INTO form_scans`).
		WithArgs(sqlmock.AnyArg(), "UH1", "consent", "I consent", []byte(`{"patient_name":"Asha"}`),
			sqlmock.AnyArg(), "documentai", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	form := &models.ScannedForm{
		UHID:       "UH1",
		Kind:       models.FormConsent,
		Text:       "I consent",
		Fields:     map[string]string{"patient_name": "Asha"},
		Confidence: 0.9,
		Source:     "documentai",
	}
	require.NoError(t, s.SaveScannedForm(context.Background(), form))
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", form.ID.String())
	assert.False(t, form.ScannedAt.IsZero())

	require.NoError(t, mock.ExpectationsWereMet())
}
