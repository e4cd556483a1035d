package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"frontdesk/internal/config"
	"frontdesk/internal/forms"
	"frontdesk/internal/logger"
)

var digitizeCmd = &cobra.Command{
	Use:   "digitize [pdf-file]",
	Short: "Digitize a scanned consent or discharge form",
	Long: `Recognize a scanned consent or discharge form, normalize its fields and
archive it against the patient's UHID.

Recognition uses the Google Document AI form parser (key/value pairs) or
Google Cloud Vision OCR (text, at most 5 pages). With --extract, required
fields the recognizer could not find are filled in by OpenAI from the
recognized text. Scans are limited to 20MB.

Required environment variables:
  DATABASE_URL - PostgreSQL connection string (forms are archived there)
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string

For --engine documentai:
  GOOGLE_CLOUD_PROJECT, GOOGLE_CLOUD_LOCATION, DOCUMENT_AI_PROCESSOR_ID

For --extract:
  OPENAI_API_KEY (OPENAI_MODEL optional)`,
	Example: `  # Consent form through the Document AI form parser
  frontdesk digitize consent.pdf --kind consent --uhid UH1042

  # Discharge summary through Vision OCR with OpenAI field completion
  frontdesk digitize discharge.pdf --kind discharge --uhid UH1042 --engine vision --extract --json`,
	Args: cobra.ExactArgs(1),
	RunE: runDigitize,
}

func init() {
	rootCmd.AddCommand(digitizeCmd)

	digitizeCmd.Flags().String("kind", "", "Form kind: consent or discharge")
	digitizeCmd.Flags().String("uhid", "", "UHID of the patient the form belongs to")
	digitizeCmd.Flags().String("engine", "documentai", "Recognizer: documentai or vision")
	digitizeCmd.Flags().Bool("extract", false, "Fill missing fields with OpenAI")
	digitizeCmd.Flags().Bool("json", false, "Output as JSON format")
	digitizeCmd.Flags().Duration("timeout", 5*time.Minute, "Processing timeout")
	_ = digitizeCmd.MarkFlagRequired("kind")
	_ = digitizeCmd.MarkFlagRequired("uhid")
}

func runDigitize(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("digitize")

	kindFlag, _ := cmd.Flags().GetString("kind")
	uhid, _ := cmd.Flags().GetString("uhid")
	engine, _ := cmd.Flags().GetString("engine")
	extract, _ := cmd.Flags().GetBool("extract")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	kind, err := forms.ParseKind(kindFlag)
	if err != nil {
		return err
	}

	pdfPath := args[0]
	if !strings.HasSuffix(strings.ToLower(pdfPath), ".pdf") {
		log.Warn().Str("file", pdfPath).Msg("File does not have .pdf extension")
	}
	pdf, err := os.ReadFile(pdfPath)
	if err != nil {
		return fmt.Errorf("failed to read PDF file: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(timeout, log)
	defer cancel()

	recognizer, closeRecognizer, err := newRecognizer(ctx, cfg, engine)
	if err != nil {
		return err
	}
	defer closeRecognizer()

	var extractor forms.FieldExtractor
	if extract {
		if err := cfg.RequireOpenAI(); err != nil {
			return err
		}
		extractor, err = forms.NewOpenAIExtractor(cfg.OpenAIAPIKey, forms.ExtractorConfig{
			Model:       cfg.OpenAIModel,
			Temperature: 0.1,
		})
		if err != nil {
			return err
		}
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	log.Info().
		Str("file", pdfPath).
		Int("size", len(pdf)).
		Str("kind", string(kind)).
		Str("engine", engine).
		Bool("extract", extract).
		Msg("Digitizing form")

	form, err := forms.NewDigitizer(recognizer, extractor, st).Digitize(ctx, kind, uhid, pdf)
	if err != nil {
		return err
	}

	if jsonOutput {
		data, err := json.MarshalIndent(form, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Form %s archived (%s, UHID %s)\n", form.ID, form.Kind, form.UHID)
	fmt.Printf("Source: %s, confidence %.2f\n", form.Source, form.Confidence)
	keys := make([]string, 0, len(form.Fields))
	for k := range form.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-16s %s\n", k+":", form.Fields[k])
	}
	if missing := forms.MissingFields(form.Kind, form.Fields); len(missing) > 0 {
		fmt.Printf("Missing: %s\n", strings.Join(missing, ", "))
	}
	return nil
}

// newRecognizer builds the selected recognition engine
func newRecognizer(ctx context.Context, cfg *config.Config, engine string) (forms.Recognizer, func(), error) {
	log := logger.WithComponent("digitize")

	if cfg.GoogleCredentials == "" && cfg.GoogleCredentialsFile == "" {
		log.Warn().Msg("No explicit Google credentials configured, using application default credentials")
	}
	opts := forms.CredentialOptions(cfg.GoogleCredentials, cfg.GoogleCredentialsFile)

	switch engine {
	case "documentai":
		if err := cfg.RequireDocumentAI(); err != nil {
			return nil, nil, err
		}
		r, err := forms.NewDocumentAIRecognizer(ctx, forms.DocumentAIConfig{
			ProjectID:   cfg.GoogleCloudProject,
			Location:    cfg.GoogleCloudLocation,
			ProcessorID: cfg.DocumentAIProcessorID,
		}, opts...)
		if err != nil {
			return nil, nil, err
		}
		return r, closer(r.Close, log), nil
	case "vision":
		r, err := forms.NewVisionRecognizer(ctx, opts...)
		if err != nil {
			return nil, nil, err
		}
		return r, closer(r.Close, log), nil
	}
	return nil, nil, fmt.Errorf("unknown engine %q (use documentai or vision)", engine)
}

func closer(closeFn func() error, log zerolog.Logger) func() {
	return func() {
		if err := closeFn(); err != nil {
			log.Warn().Err(err).Msg("Failed to close client")
		}
	}
}
