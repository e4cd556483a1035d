package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"frontdesk/internal/billing"
	"frontdesk/internal/catalog"
	"frontdesk/internal/config"
	"frontdesk/internal/logger"
	"frontdesk/internal/money"
	"frontdesk/pkg/models"
)

var billCmd = &cobra.Command{
	Use:   "bill [request-file]",
	Short: "Compute a bill from a JSON request",
	Long: `Validate the selected services, resolve their charges and compute the bill:
total charges, discount, net payable, amount paid and due, with the amounts
in words as printed on the receipt.

The request file holds the service lines, the discount and the tendered
amounts. With "mode": "editing" the discount in the file is the one stored on
the visit, and the bill re-derives it as whatever the payments leave uncovered.
None of the amounts may be negative. Charges come from the hospital database when DATABASE_URL is set
(cached in Redis when REDIS_ADDR is set); otherwise the built-in catalog is
used together with the doctors listed in the request.`,
	Example: `  # Compute a bill
  frontdesk bill request.json

  # As JSON for the bill renderer
  frontdesk bill request.json --json

  # request.json
  {
    "lines": [
      {"type": "consultation", "doctorId": "DR-1", "visitType": "first"},
      {"type": "xray", "service": "chest pa view"}
    ],
    "discount": 100,
    "tendered": {"cash": 500, "online": 300}
  }

  # request.json after a payment edit
  {"mode": "editing", "lines": [...], "discount": 100, "tendered": {"cash": 800}}`,
	Args: cobra.ExactArgs(1),
	RunE: runBill,
}

func init() {
	rootCmd.AddCommand(billCmd)

	billCmd.Flags().Bool("json", false, "Output as JSON format")
	billCmd.Flags().Duration("timeout", 30*time.Second, "Overall timeout")
}

type billRequest struct {
	billing.Request
	Doctors []models.Doctor `json:"doctors,omitempty"` // roster for the built-in catalog
}

func runBill(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("bill-cmd")

	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read request file: %w", err)
	}
	var req billRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("failed to parse request file: %w", err)
	}

	if err := billing.ValidateRequest(req.Request); err != nil {
		var verrs *billing.ValidationErrors
		if errors.As(err, &verrs) {
			for _, f := range verrs.Fields {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", f.Field, f.Message)
			}
		}
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(timeout, log)
	defer cancel()

	var cat catalog.Catalog
	if cfg.DatabaseURL != "" {
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		var closeCache func()
		cat, closeCache = cachedCatalog(ctx, cfg, st, log)
		defer closeCache()
	} else {
		log.Debug().Int("doctors", len(req.Doctors)).Msg("DATABASE_URL not set, using built-in catalog")
		cat, err = catalog.NewStatic(catalog.DefaultEntries(), req.Doctors)
		if err != nil {
			return fmt.Errorf("invalid doctor roster: %w", err)
		}
	}

	mode, _ := req.ParseMode()
	lines := billing.NewChargeResolver(cat).ResolveAll(ctx, req.Lines)
	bill, outcome := billing.ComputeBillInMode(mode, lines, req.Discount, req.Tendered)

	log.Info().
		Str("mode", string(mode)).
		Bool("discount_changed", outcome.Changed).
		Int("lines", len(bill.Lines)).
		Str("net_payable", bill.NetPayable.String()).
		Str("due", bill.Due.String()).
		Str("status", string(bill.Status())).
		Msg("Bill computed")

	if jsonOutput {
		out, err := json.MarshalIndent(struct {
			Bill            billing.BillSummary `json:"bill"`
			Status          billing.Status      `json:"status"`
			DiscountChanged bool                `json:"discountChanged"`
		}{bill, bill.Status(), outcome.Changed}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	printBill(bill)
	if outcome.Changed {
		fmt.Printf("Discount re-derived: %s -> %s\n", money.FormatINR(req.Discount), money.FormatINR(bill.Discount))
	}
	return nil
}

func printBill(bill billing.BillSummary) {
	fmt.Println("=== SERVICES ===")
	for _, line := range bill.Lines {
		name := line.Name
		if name == "" {
			name = line.ServiceKey
		}
		if name == "" {
			name = string(line.Type)
		}
		fmt.Printf("%-12s %-30s %14s\n", line.Type, name, money.FormatINR(line.Amount))
	}

	fmt.Println("\n=== BILL ===")
	printAmount("Total Charges", bill.TotalCharges)
	printAmount("Discount", bill.Discount)
	printAmount("Net Payable", bill.NetPayable)
	printAmount("Cash", bill.Cash)
	printAmount("Online", bill.Online)
	printAmount("Total Paid", bill.TotalPaid)
	printAmount("Due", bill.Due)

	fmt.Printf("\nPaid: %s\n", bill.PaidInWords)
	if bill.DueInWords != "" {
		fmt.Printf("Due:  %s\n", bill.DueInWords)
	}
	fmt.Printf("Status: %s\n", bill.Status())
}
