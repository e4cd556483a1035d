package forms

import (
	"context"
	"fmt"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"frontdesk/internal/logger"
)

// VisionRecognizer implements Recognizer with Google Cloud Vision document text detection.
// Key/value pairs are read from "Label: value" lines of the recognized text.
type VisionRecognizer struct {
	client *vision.ImageAnnotatorClient
	log    zerolog.Logger
}

// NewVisionRecognizer creates a Vision client with the given options
func NewVisionRecognizer(ctx context.Context, opts ...option.ClientOption) (*VisionRecognizer, error) {
	const op = "NewVisionRecognizer"

	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, WrapFormError(op, err, "failed to create Vision client")
	}

	return &VisionRecognizer{
		client: client,
		log:    logger.WithComponent("forms-vision"),
	}, nil
}

// Recognize implements Recognizer.
func (v *VisionRecognizer) Recognize(ctx context.Context, pdf []byte) (*Recognition, error) {
	const op = "VisionRecognize"

	if err := ValidatePDF(pdf); err != nil {
		return nil, err
	}

	req := &visionpb.BatchAnnotateFilesRequest{
		Requests: []*visionpb.AnnotateFileRequest{
			{
				InputConfig: &visionpb.InputConfig{
					Content:  pdf,
					MimeType: "application/pdf",
				},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := v.client.BatchAnnotateFiles(ctx, req)
	if err != nil {
		return nil, WrapFormError(op, ErrRecognitionFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if len(resp.Responses) == 0 {
		return nil, WrapFormError(op, ErrRecognitionFailed, "no response from Vision API")
	}

	fileResp := resp.Responses[0]
	if fileResp.Error != nil {
		return nil, WrapFormError(op, ErrRecognitionFailed, fmt.Sprintf("Vision API error: %s", fileResp.Error.Message))
	}

	result, err := collectVisionText(fileResp)
	if err != nil {
		return nil, WrapFormError(op, err, "failed to process Vision API response")
	}

	v.log.Debug().
		Int("pages", result.Pages).
		Int("fields", len(result.Fields)).
		Float32("confidence", result.Confidence).
		Msg("Vision recognition completed")

	return result, nil
}

// collectVisionText joins page texts and averages page confidence.
func collectVisionText(fileResp *visionpb.AnnotateFileResponse) (*Recognition, error) {
	pageCount := len(fileResp.Responses)
	if pageCount == 0 {
		return nil, ErrEmptyDocument
	}
	if pageCount > MaxPagesSync {
		return nil, fmt.Errorf("%w: document has %d pages", ErrTooManyPages, pageCount)
	}

	var text strings.Builder
	var confidenceSum float32
	var confidenceCount int

	for i, page := range fileResp.Responses {
		if page.Error != nil {
			return nil, fmt.Errorf("error processing page %d: %s", i+1, page.Error.Message)
		}
		if page.FullTextAnnotation == nil {
			continue
		}
		if text.Len() > 0 {
			text.WriteString("\n")
		}
		text.WriteString(page.FullTextAnnotation.Text)

		for _, p := range page.FullTextAnnotation.Pages {
			if p.Confidence > 0 {
				confidenceSum += p.Confidence
				confidenceCount++
			}
		}
	}

	if strings.TrimSpace(text.String()) == "" {
		return nil, ErrEmptyDocument
	}

	var confidence float32
	if confidenceCount > 0 {
		confidence = confidenceSum / float32(confidenceCount)
	}

	return &Recognition{
		Text:       text.String(),
		Fields:     keyValueLines(text.String()),
		Confidence: confidence,
		Pages:      pageCount,
		Source:     "vision",
	}, nil
}

// keyValueLines picks "Label: value" lines out of OCR text. The first
// occurrence of a label wins.
func keyValueLines(text string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		label = strings.TrimSpace(label)
		value = strings.TrimSpace(value)
		if label == "" || value == "" || len(label) > 40 {
			continue
		}
		if _, seen := fields[label]; !seen {
			fields[label] = value
		}
	}
	return fields
}

// Close closes the underlying Vision client.
func (v *VisionRecognizer) Close() error {
	if v.client != nil {
		return v.client.Close()
	}
	return nil
}
