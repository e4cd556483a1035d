package forms

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"frontdesk/internal/logger"
	"frontdesk/pkg/models"
)

// FieldExtractor fills form fields from recognized text
type FieldExtractor interface {
	// Extract returns the canonical fields it could find for the form kind
	Extract(ctx context.Context, kind models.FormKind, text string) (map[string]string, error)
}

// ExtractorConfig configures the OpenAI field extractor
type ExtractorConfig struct {
	Model       string  // gpt-4o-mini, gpt-3.5-turbo
	Temperature float32 // ChatGPT temperature
	MaxRetries  int     // ChatGPT retry attempts
}

// OpenAIExtractor implements FieldExtractor with a chat completion returning a JSON object
type OpenAIExtractor struct {
	client *openai.Client
	config ExtractorConfig
	log    zerolog.Logger
}

// NewOpenAIExtractor creates an extractor for the given API key
func NewOpenAIExtractor(apiKey string, config ExtractorConfig) (*OpenAIExtractor, error) {
	const op = "NewOpenAIExtractor"

	if apiKey == "" {
		return nil, WrapFormError(op, ErrInvalidConfiguration, "OPENAI_API_KEY is required")
	}
	return NewOpenAIExtractorWithClient(openai.NewClient(apiKey), config), nil
}

// NewOpenAIExtractorWithClient creates an extractor with an explicit client
func NewOpenAIExtractorWithClient(client *openai.Client, config ExtractorConfig) *OpenAIExtractor {
	if config.Model == "" {
		config.Model = openai.GPT4oMini
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	return &OpenAIExtractor{
		client: client,
		config: config,
		log:    logger.WithComponent("forms-extractor"),
	}
}

// Extract implements FieldExtractor.
func (e *OpenAIExtractor) Extract(ctx context.Context, kind models.FormKind, text string) (map[string]string, error) {
	const op = "Extract"

	if strings.TrimSpace(text) == "" {
		return nil, WrapFormError(op, ErrEmptyDocument, "")
	}

	var lastErr error
	for attempt := 1; attempt <= e.config.MaxRetries; attempt++ {
		resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       e.config.Model,
			Temperature: e.config.Temperature,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt(kind),
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: text,
				},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			MaxTokens: 500,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, WrapFormError(op, ctx.Err(), "")
			}
			lastErr = err
			e.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_retries", e.config.MaxRetries).
				Msg("ChatGPT request failed, retrying")
			continue
		}

		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("no response choices from ChatGPT")
			continue
		}

		content := resp.Choices[0].Message.Content
		var raw map[string]interface{}
		if err := json.Unmarshal([]byte(content), &raw); err != nil {
			lastErr = fmt.Errorf("failed to parse ChatGPT JSON response: %w", err)
			e.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Msg("Failed to parse ChatGPT response, retrying")
			continue
		}

		fields := make(map[string]string)
		for _, key := range extractedKeys {
			if v := getString(raw, key); v != "" {
				fields[key] = v
			}
		}

		e.log.Debug().
			Str("kind", string(kind)).
			Int("fields", len(fields)).
			Int("attempt", attempt).
			Msg("Extracted form fields from ChatGPT")

		return fields, nil
	}

	return nil, WrapFormError(op, ErrExtractionFailed,
		fmt.Sprintf("all %d attempts failed, last error: %v", e.config.MaxRetries, lastErr))
}

var extractedKeys = []string{FieldUHID, FieldPatientName, FieldFormDate, FieldDoctor, FieldWitness}

func systemPrompt(kind models.FormKind) string {
	return fmt.Sprintf(`You read OCR text of a hospital %s form and return a JSON object.

Keys (omit any you cannot find, never guess):
- "uhid": the patient's hospital ID (UHID / MR number)
- "patient_name": the patient's full name
- "form_date": the date written on the form, as YYYY-MM-DD
- "doctor": the treating or discharging doctor
- "witness": the witness who signed, if any

Return only the JSON object.`, kind)
}

// getString safely extracts a string value from a map
func getString(m map[string]interface{}, key string) string {
	if value, exists := m[key]; exists && value != nil {
		if str, ok := value.(string); ok {
			return strings.TrimSpace(str)
		}
	}
	return ""
}
