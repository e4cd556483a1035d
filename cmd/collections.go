package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"frontdesk/internal/collections"
	"frontdesk/internal/config"
	"frontdesk/internal/daterange"
	"frontdesk/internal/export"
	"frontdesk/internal/logger"
	"frontdesk/internal/money"
	"frontdesk/internal/sheets"
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "Aggregate outpatient and inpatient collections for a day or range",
	Long: `Aggregate the money collected at the front desk over a calendar day or an
inclusive range of days (IST).

Outpatient collections come from each visit's payment snapshot; inpatient
collections from the advance and refund ledger of every stay with activity in
the range. Refunds and settlements are netted against inpatient cash.

Required environment variables:
  DATABASE_URL - PostgreSQL connection string of the hospital database

For --sheet:
  GOOGLE_SHEET_URL - Google Sheets URL of the accounts office workbook
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string`,
	Example: `  # Today's collections
  frontdesk collections

  # Yesterday as JSON
  frontdesk collections --day yesterday --json

  # A week with a per-day workbook, appended to the accounts sheet
  frontdesk collections --start 2026-10-05 --end 2026-10-11 --xlsx week.xlsx --sheet Collections

  # Cross-check inpatient figures against get_ipd_collections
  frontdesk collections --day 2026-10-14 --verify`,
	RunE: runCollections,
}

func init() {
	rootCmd.AddCommand(collectionsCmd)

	collectionsCmd.Flags().String("day", "today", "Day to report: today, yesterday or YYYY-MM-DD")
	collectionsCmd.Flags().String("start", "", "First day of a range (YYYY-MM-DD)")
	collectionsCmd.Flags().String("end", "", "Last day of a range, inclusive (YYYY-MM-DD)")
	collectionsCmd.Flags().Bool("json", false, "Output as JSON format")
	collectionsCmd.Flags().String("xlsx", "", "Write a per-day workbook to this file")
	collectionsCmd.Flags().String("sheet", "", "Append per-day rows to this worksheet of GOOGLE_SHEET_URL")
	collectionsCmd.Flags().Bool("verify", false, "Compare inpatient figures with the database's get_ipd_collections")
	collectionsCmd.Flags().Duration("timeout", 2*time.Minute, "Overall timeout")
}

type collectionsOutput struct {
	Summary    collections.Summary               `json:"summary"`
	Days       []collections.DaySummary          `json:"days,omitempty"`
	Mismatches map[string][]collections.Mismatch `json:"mismatches,omitempty"`
}

func runCollections(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("collections-cmd")

	day, _ := cmd.Flags().GetString("day")
	start, _ := cmd.Flags().GetString("start")
	end, _ := cmd.Flags().GetString("end")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	xlsxPath, _ := cmd.Flags().GetString("xlsx")
	sheetName, _ := cmd.Flags().GetString("sheet")
	verify, _ := cmd.Flags().GetBool("verify")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	r, err := rangeFromFlags(day, start, end)
	if err != nil {
		return fmt.Errorf("invalid date selection: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if sheetName != "" {
		if err := cfg.RequireSheets(); err != nil {
			return err
		}
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
		Bool("verify", verify).
		Str("xlsx", xlsxPath).
		Str("sheet", sheetName).
		Msg("Aggregating collections")

	from, until := r.Bounds()
	encounters, err := st.ListEncounters(ctx, from, until)
	if err != nil {
		return fmt.Errorf("failed to load encounters: %w", err)
	}

	aggregator := collections.NewAggregator()
	out := collectionsOutput{
		Summary: aggregator.Aggregate(encounters, r),
		Days:    aggregator.DailyBreakdown(encounters, r),
	}

	if verify {
		out.Mismatches = make(map[string][]collections.Mismatch)
		for _, ds := range out.Days {
			dayStart, err := time.ParseInLocation(daterange.DateLayout, ds.Day, daterange.Location)
			if err != nil {
				return fmt.Errorf("invalid breakdown day %q: %w", ds.Day, err)
			}
			server, err := st.IPDServerTotals(ctx, dayStart)
			if err != nil {
				return fmt.Errorf("failed to load server totals for %s: %w", ds.Day, err)
			}
			if m := collections.CompareWithServerTotals(ds.Summary, server); len(m) > 0 {
				out.Mismatches[ds.Day] = m
				log.Warn().Str("day", ds.Day).Int("mismatches", len(m)).Msg("Inpatient figures disagree with get_ipd_collections")
			}
		}
	}

	if xlsxPath != "" {
		data, err := export.CollectionsWorkbook(out.Days)
		if err != nil {
			return fmt.Errorf("failed to build workbook: %w", err)
		}
		if err := os.WriteFile(xlsxPath, data, 0o644); err != nil {
			return fmt.Errorf("failed to write workbook: %w", err)
		}
		log.Info().Str("file", xlsxPath).Int("days", len(out.Days)).Msg("Workbook written")
	}

	if sheetName != "" {
		svc, err := sheets.NewSheetsService(ctx, cfg.GoogleSheetURL, sheets.Credentials{
			File: cfg.GoogleCredentialsFile,
			JSON: cfg.GoogleCredentials,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize Google Sheets service: %w", err)
		}
		appended, err := svc.AppendCollections(ctx, out.Days, sheetName)
		if err != nil {
			return fmt.Errorf("failed to append to sheet: %w", err)
		}
		log.Info().Str("sheet", sheetName).Int("rows", appended).Msg("Collections appended to Google Sheet")
	}

	if jsonOutput {
		if len(out.Days) == 1 {
			out.Days = nil
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
	} else {
		printCollections(out)
	}

	if len(out.Mismatches) > 0 {
		return fmt.Errorf("inpatient figures disagree with get_ipd_collections on %d day(s)", len(out.Mismatches))
	}
	return nil
}

func printCollections(out collectionsOutput) {
	s := out.Summary

	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("  COLLECTIONS %s\n", s.Range)
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n=== OPD (%d visits) ===\n", s.OPDCount)
	printAmount("Cash", s.OPDCash)
	printAmount("Online", s.OPDOnline)
	printAmount("Total OPD", s.TotalOPD)

	fmt.Printf("\n=== IPD (%d stays) ===\n", s.IPDCount)
	printAmount("Cash (net of refunds)", s.IPDCash)
	printAmount("Online", s.IPDOnline)
	printAmount("  UPI", s.IPDOnlineByMethod.UPI)
	printAmount("  Card", s.IPDOnlineByMethod.Card)
	printAmount("  Net Banking", s.IPDOnlineByMethod.NetBanking)
	printAmount("  Cheque", s.IPDOnlineByMethod.Cheque)
	if !s.IPDOnlineByMethod.Other.IsZero() {
		printAmount("  Other", s.IPDOnlineByMethod.Other)
	}
	printAmount("Refunds", s.OverallRefunds)
	printAmount("Total IPD", s.TotalIPD)

	fmt.Println("\n=== TOTAL ===")
	printAmount("Cash", s.TotalCash)
	printAmount("Online", s.TotalOnline)
	printAmount("Grand Total", s.GrandTotal)

	if len(out.Days) > 1 {
		fmt.Println("\n=== PER DAY ===")
		for _, ds := range out.Days {
			fmt.Printf("%s  %16s\n", ds.Day, money.FormatINR(ds.Summary.GrandTotal))
		}
	}

	if len(s.Warnings) > 0 {
		fmt.Printf("\n=== WARNINGS (%d) ===\n", len(s.Warnings))
		for _, w := range s.Warnings {
			fmt.Printf("%s: %s\n", w.EncounterID, w.Reason)
		}
	}

	for day, mismatches := range out.Mismatches {
		fmt.Printf("\n=== MISMATCHES %s ===\n", day)
		for _, m := range mismatches {
			fmt.Printf("%-16s client %s  server %s\n", m.Field, money.FormatINR(m.Client), money.FormatINR(m.Server))
		}
	}
}

func printAmount(label string, amount decimal.Decimal) {
	fmt.Printf("%-24s %16s\n", label+":", money.FormatINR(amount))
}
