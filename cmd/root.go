package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"frontdesk/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "frontdesk",
	Short: "Frontdesk - collections and billing tools for the hospital front desk",
	Long: `Frontdesk aggregates daily outpatient and inpatient collections, computes
bills, re-derives outpatient discounts and digitizes scanned paper forms.

Reports can be printed, written to an xlsx workbook or appended to the
accounts office's Google Sheet. The same operations are served over HTTP
by the serve command.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("Frontdesk CLI executed")

		fmt.Println("Welcome to Frontdesk!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
