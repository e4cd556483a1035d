package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"frontdesk/internal/config"
	"frontdesk/internal/logger"
	"frontdesk/internal/money"
	"frontdesk/internal/reconciliation"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Re-derive outpatient discounts from charges and payments",
	Long: `Re-derive the discount of every outpatient visit in a day or range as
max(0, total charges - (cash + online)) and write it back where it differs
from the stored discount.

This is the editing-mode rule: after a bill is edited, whatever the patient
did not pay is recorded as discount. Inpatient stays are never touched.

Required environment variables:
  DATABASE_URL - PostgreSQL connection string of the hospital database`,
	Example: `  # Reconcile yesterday's visits
  frontdesk reconcile --day yesterday

  # Preview a range without writing
  frontdesk reconcile --start 2026-10-01 --end 2026-10-14 --dry-run`,
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().String("day", "today", "Day to reconcile: today, yesterday or YYYY-MM-DD")
	reconcileCmd.Flags().String("start", "", "First day of a range (YYYY-MM-DD)")
	reconcileCmd.Flags().String("end", "", "Last day of a range, inclusive (YYYY-MM-DD)")
	reconcileCmd.Flags().Bool("dry-run", false, "Report the discounts that would change without writing them")
	reconcileCmd.Flags().Bool("json", false, "Output as JSON format")
	reconcileCmd.Flags().Duration("timeout", 5*time.Minute, "Overall timeout")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("reconcile")

	day, _ := cmd.Flags().GetString("day")
	start, _ := cmd.Flags().GetString("start")
	end, _ := cmd.Flags().GetString("end")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	r, err := rangeFromFlags(day, start, end)
	if err != nil {
		return fmt.Errorf("invalid date selection: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(timeout, log)
	defer cancel()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	log.Info().
		Str("range", r.String()).
		Bool("dry_run", dryRun).
		Msg("Starting discount reconciliation")

	report, err := reconciliation.NewReconciler(st, st).Run(ctx, r, dryRun)
	if err != nil {
		return fmt.Errorf("reconciliation failed: %w", err)
	}

	if jsonOutput {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	verb := "Updated"
	if report.DryRun {
		verb = "Would update"
	}
	fmt.Printf("Range %s: %d outpatient visits examined, %d unchanged\n", report.Range, report.Examined, report.Unchanged)
	for _, c := range report.Changes {
		fmt.Printf("%s %s (UHID %s): discount %s -> %s (charges %s, paid %s)\n",
			verb, c.EncounterID, c.UHID,
			money.FormatINR(c.From), money.FormatINR(c.To),
			money.FormatINR(c.TotalCharges), money.FormatINR(c.TotalPaid))
	}
	return nil
}
