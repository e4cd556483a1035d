package billing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frontdesk/internal/catalog"
	"frontdesk/internal/reconciliation"
	"frontdesk/pkg/models"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func priced(amounts ...int64) []models.ServiceLine {
	lines := make([]models.ServiceLine, len(amounts))
	for i, a := range amounts {
		lines[i] = models.ServiceLine{Type: models.ServiceCustom, Name: fmt.Sprintf("line %d", i), Amount: d(a)}
	}
	return lines
}

func TestComputeBill_FullyPaidInCash(t *testing.T) {
	bill := ComputeBill(priced(500, 300), decimal.Zero, Tendered{Cash: d(800)})

	assert.True(t, bill.TotalCharges.Equal(d(800)))
	assert.True(t, bill.NetPayable.Equal(d(800)))
	assert.True(t, bill.TotalPaid.Equal(d(800)))
	assert.True(t, bill.Due.IsZero())
	assert.Equal(t, StatusSettled, bill.Status())
	assert.Equal(t, "Eight Hundred only", bill.PaidInWords)
	assert.Empty(t, bill.DueInWords)
}

func TestComputeBill_DiscountAndSplitTender(t *testing.T) {
	bill := ComputeBill(priced(1000), d(200), Tendered{Cash: d(500), Online: d(300)})

	assert.True(t, bill.NetPayable.Equal(d(800)))
	assert.True(t, bill.TotalPaid.Equal(d(800)))
	assert.True(t, bill.Due.IsZero())
}

func TestComputeBill_Outstanding(t *testing.T) {
	bill := ComputeBill(priced(1500, 250), d(100), Tendered{Cash: d(1000)})

	// due = (total - discount) - paid
	assert.True(t, bill.Due.Equal(d(650)))
	assert.Equal(t, StatusOutstanding, bill.Status())
	assert.Equal(t, "Six Hundred Fifty only", bill.DueInWords)
}

func TestComputeBill_OverpaymentIsNegativeDue(t *testing.T) {
	bill := ComputeBill(priced(400), decimal.Zero, Tendered{Online: d(500)})

	assert.True(t, bill.Due.Equal(d(-100)))
	assert.Equal(t, StatusRefundable, bill.Status())
	assert.Empty(t, bill.DueInWords)
}

func TestComputeBill_EmptyBill(t *testing.T) {
	bill := ComputeBill(nil, decimal.Zero, Tendered{})

	assert.True(t, bill.TotalCharges.IsZero())
	assert.True(t, bill.Due.IsZero())
	assert.Equal(t, "Zero only", bill.PaidInWords)
}

func TestComputeBill_DiscountNotClamped(t *testing.T) {
	bill := ComputeBill(priced(300), d(500), Tendered{})
	assert.True(t, bill.NetPayable.Equal(d(-200)))
}

func TestBillSummary_PaymentRecord(t *testing.T) {
	tests := []struct {
		name     string
		tendered Tendered
		method   models.PaymentMethod
	}{
		{"cash only", Tendered{Cash: d(100)}, models.MethodCash},
		{"online only", Tendered{Online: d(100)}, models.MethodOnline},
		{"split", Tendered{Cash: d(50), Online: d(50)}, models.MethodMixed},
		{"nothing tendered", Tendered{}, models.MethodCash},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ComputeBill(priced(100), decimal.Zero, tt.tendered).PaymentRecord()
			assert.Equal(t, tt.method, rec.PaymentMethod)
			assert.True(t, rec.TotalPaid.Equal(tt.tendered.Total()))
			assert.True(t, rec.TotalCharges.Equal(d(100)))
		})
	}
}

func TestChargeResolver_Resolve(t *testing.T) {
	cat := catalog.Default([]models.Doctor{
		{ID: "D1", Name: "Dr. Rao", FirstVisitCharge: d(600), FollowUpCharge: d(350)},
	})
	resolver := NewChargeResolver(cat)

	lines := resolver.ResolveAll(context.Background(), []models.ServiceLine{
		{Type: models.ServiceConsultation, DoctorID: "D1", VisitType: models.VisitFirst},
		{Type: models.ServiceConsultation, DoctorID: "D1", VisitType: models.VisitFollowUp},
		{Type: models.ServiceConsultation, DoctorID: "ghost", VisitType: models.VisitFirst},
		{Type: models.ServiceXRay, ServiceKey: "Chest PA View"},
		{Type: models.ServicePathology, ServiceKey: "not on the list"},
		{Type: models.ServiceCustom, Name: "Dressing", Amount: d(150)},
		{Type: "laundry", Amount: d(99)},
	})

	want := []int64{600, 350, 0, 400, 0, 150, 0}
	require.Len(t, lines, len(want))
	for i, w := range want {
		assert.True(t, lines[i].Amount.Equal(d(w)), "line %d: got %s want %d", i, lines[i].Amount, w)
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate([]models.ServiceLine{
		{Type: models.ServiceConsultation, DoctorID: "D1", VisitType: models.VisitFirst},
		{Type: models.ServiceXRay, ServiceKey: "chest pa view"},
		{Type: models.ServiceCustom, Name: "Dressing", Amount: d(10)},
	}))

	err := Validate([]models.ServiceLine{
		{Type: models.ServiceConsultation},
		{Type: models.ServiceRadiology},
		{Type: models.ServiceCustom, Name: "Refund", Amount: d(-5)},
		{Type: "laundry"},
	})
	require.Error(t, err)

	var verr *ValidationErrors
	require.True(t, errors.As(err, &verr))

	fields := make([]string, len(verr.Fields))
	for i, f := range verr.Fields {
		fields[i] = f.Field
	}
	assert.Equal(t, []string{
		"lines[0].doctorId",
		"lines[0].visitType",
		"lines[1].service",
		"lines[2].amount",
		"lines[3].type",
	}, fields)

	err = Validate(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one service")
}

func TestValidateRequest_RejectsNegativeAmounts(t *testing.T) {
	req := Request{
		Lines:    priced(1000),
		Discount: d(-500),
		Tendered: Tendered{Cash: d(-1), Online: d(-200)},
	}

	err := ValidateRequest(req)
	require.Error(t, err)

	var verr *ValidationErrors
	require.True(t, errors.As(err, &verr))

	fields := make([]string, len(verr.Fields))
	for i, f := range verr.Fields {
		fields[i] = f.Field
	}
	assert.Equal(t, []string{"discount", "tendered.cash", "tendered.online"}, fields)
}

func TestValidateRequest_Mode(t *testing.T) {
	for _, mode := range []string{"", "booking", "Editing"} {
		assert.NoError(t, ValidateRequest(Request{Lines: priced(100), Mode: mode}), mode)
	}

	err := ValidateRequest(Request{Lines: priced(100), Mode: "refund"})
	var verr *ValidationErrors
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "mode", verr.Fields[0].Field)
}

func TestRequest_ParseModeDefaultsToBooking(t *testing.T) {
	mode, err := Request{}.ParseMode()
	require.NoError(t, err)
	assert.Equal(t, reconciliation.ModeBooking, mode)
}

func TestComputeBillInMode(t *testing.T) {
	lines := priced(600, 400)
	tendered := Tendered{Cash: d(500), Online: d(200)}

	t.Run("booking keeps the entered discount", func(t *testing.T) {
		bill, outcome := ComputeBillInMode(reconciliation.ModeBooking, lines, d(100), tendered)
		assert.False(t, outcome.Changed)
		assert.True(t, d(100).Equal(bill.Discount))
		assert.True(t, d(200).Equal(bill.Due))
	})

	t.Run("editing derives the uncovered part", func(t *testing.T) {
		bill, outcome := ComputeBillInMode(reconciliation.ModeEditing, lines, d(100), tendered)
		assert.True(t, outcome.Changed)
		assert.True(t, d(300).Equal(bill.Discount))
		assert.True(t, bill.Due.IsZero())
		assert.Equal(t, StatusSettled, bill.Status())
	})

	t.Run("editing with the derived discount already stored", func(t *testing.T) {
		_, outcome := ComputeBillInMode(reconciliation.ModeEditing, lines, d(300), tendered)
		assert.False(t, outcome.Changed)
	})

	t.Run("editing never goes negative on overpayment", func(t *testing.T) {
		bill, _ := ComputeBillInMode(reconciliation.ModeEditing, lines, d(0), Tendered{Cash: d(1200)})
		assert.True(t, bill.Discount.IsZero())
		assert.Equal(t, StatusRefundable, bill.Status())
	})
}

func ExampleComputeBill() {
	lines := []models.ServiceLine{
		{Type: models.ServiceConsultation, Amount: decimal.NewFromInt(500)},
		{Type: models.ServiceXRay, Amount: decimal.NewFromInt(400)},
	}

	bill := ComputeBill(lines, decimal.NewFromInt(100), Tendered{Cash: decimal.NewFromInt(500)})

	fmt.Println("Net payable:", bill.NetPayable)
	fmt.Println("Due:", bill.Due, bill.Status())
	fmt.Println(bill.DueInWords)
	// Output:
	// Net payable: 800
	// Due: 300 outstanding
	// Three Hundred only
}
