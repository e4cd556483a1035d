package forms

import (
	"context"
	"fmt"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"frontdesk/internal/logger"
)

// DocumentAIConfig holds configuration for the Document AI form parser.
type DocumentAIConfig struct {
	// ProjectID is the Google Cloud project ID where Document AI is enabled.
	ProjectID string

	// Location is the processing location (e.g., "us", "eu").
	Location string

	// ProcessorID is the ID of a FORM_PARSER_PROCESSOR.
	ProcessorID string

	// Timeout is the maximum time to wait for processing. Default: 60 seconds.
	Timeout time.Duration
}

// DocumentAIRecognizer implements Recognizer with Google Document AI's form parser.
type DocumentAIRecognizer struct {
	client *documentai.DocumentProcessorClient
	config DocumentAIConfig
	log    zerolog.Logger
}

// NewDocumentAIRecognizer creates a form parser client for the configured location
func NewDocumentAIRecognizer(ctx context.Context, config DocumentAIConfig, opts ...option.ClientOption) (*DocumentAIRecognizer, error) {
	const op = "NewDocumentAIRecognizer"

	if config.ProjectID == "" {
		return nil, WrapFormError(op, ErrInvalidConfiguration, "GOOGLE_CLOUD_PROJECT is required")
	}
	if config.ProcessorID == "" {
		return nil, WrapFormError(op, ErrInvalidConfiguration, "DOCUMENT_AI_PROCESSOR_ID is required")
	}
	if config.Location == "" {
		config.Location = "us"
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}

	if config.Location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)
		opts = append(opts, option.WithEndpoint(endpoint))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, WrapFormError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", config.Location))
	}

	return &DocumentAIRecognizer{
		client: client,
		config: config,
		log:    logger.WithComponent("forms-documentai"),
	}, nil
}

func (d *DocumentAIRecognizer) processorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		d.config.ProjectID, d.config.Location, d.config.ProcessorID)
}

// Recognize implements Recognizer.
func (d *DocumentAIRecognizer) Recognize(ctx context.Context, pdf []byte) (*Recognition, error) {
	const op = "DocumentAIRecognize"

	if err := ValidatePDF(pdf); err != nil {
		return nil, err
	}

	processCtx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	resp, err := d.client.ProcessDocument(processCtx, &documentaipb.ProcessRequest{
		Name: d.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  pdf,
				MimeType: "application/pdf",
			},
		},
	})
	if err != nil {
		return nil, d.handleProcessingError(op, err)
	}
	if resp.Document == nil {
		return nil, WrapFormError(op, ErrRecognitionFailed, "no document in response")
	}

	result := formFields(resp.Document)
	if strings.TrimSpace(result.Text) == "" {
		return nil, WrapFormError(op, ErrEmptyDocument, "")
	}

	d.log.Debug().
		Int("pages", result.Pages).
		Int("fields", len(result.Fields)).
		Float32("confidence", result.Confidence).
		Msg("Document AI form parsing completed")

	return result, nil
}

// handleProcessingError maps Document AI failures onto form errors.
func (d *DocumentAIRecognizer) handleProcessingError(op string, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "NOT_FOUND"):
		return WrapFormError(op, ErrInvalidConfiguration, fmt.Sprintf("processor not found: %s", d.config.ProcessorID))
	case strings.Contains(errStr, "INVALID_ARGUMENT"):
		return WrapFormError(op, ErrInvalidPDF, "document format not supported or corrupted")
	case strings.Contains(errStr, "context deadline exceeded"):
		return WrapFormError(op, context.DeadlineExceeded, "processing timeout")
	default:
		return WrapFormError(op, ErrRecognitionFailed, fmt.Sprintf("Document AI error: %v", err))
	}
}

// formFields collects the form parser's key/value pairs across pages.
// Field confidence is the mean of the value confidences.
func formFields(doc *documentaipb.Document) *Recognition {
	result := &Recognition{
		Text:   doc.Text,
		Fields: make(map[string]string),
		Pages:  len(doc.Pages),
		Source: "documentai",
	}

	var confidenceSum float32
	var confidenceCount int
	for _, page := range doc.Pages {
		for _, field := range page.FormFields {
			name := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(layoutText(doc, field.FieldName)), ":"))
			value := strings.TrimSpace(layoutText(doc, field.FieldValue))
			if name == "" || value == "" {
				continue
			}
			if _, seen := result.Fields[name]; !seen {
				result.Fields[name] = value
			}
			if field.FieldValue != nil && field.FieldValue.Confidence > 0 {
				confidenceSum += field.FieldValue.Confidence
				confidenceCount++
			}
		}
	}

	if confidenceCount > 0 {
		result.Confidence = confidenceSum / float32(confidenceCount)
	}
	return result
}

// layoutText resolves a layout's text anchor against the document text.
func layoutText(doc *documentaipb.Document, layout *documentaipb.Document_Page_Layout) string {
	if layout == nil || layout.TextAnchor == nil {
		return ""
	}
	if layout.TextAnchor.Content != "" {
		return layout.TextAnchor.Content
	}

	var b strings.Builder
	for _, seg := range layout.TextAnchor.TextSegments {
		start, end := int(seg.StartIndex), int(seg.EndIndex)
		if start < 0 || end > len(doc.Text) || start >= end {
			continue
		}
		b.WriteString(doc.Text[start:end])
	}
	return b.String()
}

// Close closes the underlying Document AI client.
func (d *DocumentAIRecognizer) Close() error {
	if d.client != nil {
		return d.client.Close()
	}
	return nil
}
