package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"frontdesk/internal/billing"
	"frontdesk/internal/collections"
	"frontdesk/internal/daterange"
	"frontdesk/internal/reconciliation"
	"frontdesk/internal/store"
	"frontdesk/pkg/models"
)

type collectionsResponse struct {
	Summary collections.Summary      `json:"summary"`
	Days    []collections.DaySummary `json:"days,omitempty"`
}

// getCollections handles GET /api/v1/collections?day=... or ?start=...&end=...
func (s *Server) getCollections(c *gin.Context) {
	start, end := c.Query("start"), c.Query("end")

	var (
		r   daterange.Range
		err error
	)
	switch {
	case start != "" || end != "":
		if start == "" || end == "" {
			sendValidationError(c, "start and end must be given together", nil)
			return
		}
		r, err = daterange.ParseSpan(start, end)
	default:
		r, err = daterange.ParseDay(c.DefaultQuery("day", "today"), s.now())
	}
	if err != nil {
		sendValidationError(c, err.Error(), nil)
		return
	}

	from, until := r.Bounds()
	encounters, err := s.feed.ListEncounters(c.Request.Context(), from, until)
	if err != nil {
		s.log.Error().Err(err).Str("range", r.String()).Msg("Failed to list encounters")
		sendFetchError(c, "Could not load encounters for "+r.String())
		return
	}

	resp := collectionsResponse{Summary: s.aggregator.Aggregate(encounters, r)}
	if !r.SingleDay() {
		resp.Days = s.aggregator.DailyBreakdown(encounters, r)
	}
	c.JSON(http.StatusOK, resp)
}

// listDoctors handles GET /api/v1/doctors
func (s *Server) listDoctors(c *gin.Context) {
	doctors, err := s.roster.ListDoctors(c.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list doctors")
		sendFetchError(c, "Could not load the doctor roster")
		return
	}
	if doctors == nil {
		doctors = []models.Doctor{}
	}
	c.JSON(http.StatusOK, gin.H{"doctors": doctors})
}

type computeBillResponse struct {
	Bill            billing.BillSummary  `json:"bill"`
	Status          billing.Status       `json:"status"`
	Payment         models.PaymentRecord `json:"payment"`
	Mode            reconciliation.Mode  `json:"mode"`
	DiscountChanged bool                 `json:"discountChanged"`
}

// computeBill handles POST /api/v1/bills/compute. In editing mode the
// discount is re-derived from the charges and the tendered amounts.
func (s *Server) computeBill(c *gin.Context) {
	var req billing.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		sendValidationError(c, "Invalid request body: "+err.Error(), nil)
		return
	}

	if err := billing.ValidateRequest(req); err != nil {
		var verrs *billing.ValidationErrors
		if errors.As(err, &verrs) {
			sendValidationError(c, verrs.Error(), verrs.Fields)
			return
		}
		sendValidationError(c, err.Error(), nil)
		return
	}

	mode, _ := req.ParseMode()
	lines := s.charges.ResolveAll(c.Request.Context(), req.Lines)
	bill, outcome := billing.ComputeBillInMode(mode, lines, req.Discount, req.Tendered)

	c.JSON(http.StatusOK, computeBillResponse{
		Bill:            bill,
		Status:          bill.Status(),
		Payment:         bill.PaymentRecord(),
		Mode:            mode,
		DiscountChanged: outcome.Changed,
	})
}

type discountResponse struct {
	EncounterID string          `json:"encounterId"`
	Discount    decimal.Decimal `json:"discount"`
	Changed     bool            `json:"changed"`
}

// reconcileDiscount handles POST /api/v1/encounters/:id/discount
func (s *Server) reconcileDiscount(c *gin.Context) {
	id := c.Param("id")

	outcome, err := s.reconciler.ReconcileEncounter(c.Request.Context(), id)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		sendNotFoundError(c, "encounter "+id)
		return
	case errors.Is(err, reconciliation.ErrNotOutpatient):
		sendValidationError(c, err.Error(), nil)
		return
	default:
		s.log.Error().Err(err).Str("encounter_id", id).Msg("Discount reconciliation failed")
		sendError(c, http.StatusInternalServerError, CodeUpdateError, "Reconciliation failed", err.Error(), nil)
		return
	}

	c.JSON(http.StatusOK, discountResponse{
		EncounterID: id,
		Discount:    outcome.Discount,
		Changed:     outcome.Changed,
	})
}
