// Package httpapi serves collections, bill computation and discount
// reconciliation to the front-desk UI over JSON.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"frontdesk/internal/billing"
	"frontdesk/internal/catalog"
	"frontdesk/internal/collections"
	"frontdesk/internal/logger"
	"frontdesk/internal/reconciliation"
	"frontdesk/pkg/services"
)

// Server holds the collaborators behind the HTTP handlers
type Server struct {
	feed       services.EncounterFeed
	aggregator *collections.Aggregator
	charges    *billing.ChargeResolver
	reconciler *reconciliation.Reconciler
	roster     services.DoctorRoster
	now        func() time.Time
	log        zerolog.Logger
}

// NewServer wires the handlers to their collaborators
func NewServer(feed services.EncounterFeed, c catalog.Catalog, writer services.DiscountWriter, roster services.DoctorRoster) *Server {
	return &Server{
		feed:       feed,
		aggregator: collections.NewAggregator(),
		charges:    billing.NewChargeResolver(c),
		reconciler: reconciliation.NewReconciler(feed, writer),
		roster:     roster,
		now:        time.Now,
		log:        logger.WithComponent("httpapi"),
	}
}

// Router builds the gin engine with all routes registered
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", s.healthz)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/collections", s.getCollections)
		v1.GET("/doctors", s.listDoctors)
		v1.POST("/bills/compute", s.computeBill)
		v1.POST("/encounters/:id/discount", s.reconcileDiscount)
	}
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("HTTP API listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info().Msg("Shutting down HTTP API")
		return srv.Shutdown(shutdownCtx)
	}
}

// requestLogger logs each request with a generated request ID
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		log := logger.WithRequestID(requestID)
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("Request handled")
	}
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
