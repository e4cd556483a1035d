package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"frontdesk/internal/catalog"
	"frontdesk/internal/config"
	"frontdesk/internal/httpapi"
	"frontdesk/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve collections, billing and reconciliation over HTTP",
	Long: `Start the JSON API used by the front-desk UI:

  GET  /healthz
  GET  /api/v1/collections?day=today|yesterday|YYYY-MM-DD  (or start & end)
  GET  /api/v1/doctors
  POST /api/v1/bills/compute
  POST /api/v1/encounters/:id/discount

Required environment variables:
  DATABASE_URL - PostgreSQL connection string of the hospital database
  REDIS_ADDR - Optional Redis address for the catalog cache
  HTTP_ADDR - Listen address (default :8080), overridden by --addr`,
	Example: `  frontdesk serve
  frontdesk serve --addr 127.0.0.1:9000

  # Drop cached charges after the tariff was revised
  frontdesk serve --flush-cache`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default: HTTP_ADDR)")
	serveCmd.Flags().Bool("flush-cache", false, "Drop cached catalog entries before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	addr, _ := cmd.Flags().GetString("addr")
	flushCache, _ := cmd.Flags().GetBool("flush-cache")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.HTTPAddr
	}
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	cat, closeCache := cachedCatalog(ctx, cfg, st, log)
	defer closeCache()

	if flushCache {
		if cached, ok := cat.(*catalog.Cached); ok {
			if err := cached.Invalidate(ctx); err != nil {
				return fmt.Errorf("failed to flush catalog cache: %w", err)
			}
		} else {
			log.Warn().Msg("Catalog cache not enabled, nothing to flush")
		}
	}

	if err := httpapi.NewServer(st, cat, st, st).ListenAndServe(ctx, addr); err != nil {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	log.Info().Msg("HTTP API stopped")
	return nil
}
