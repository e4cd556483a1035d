package forms

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frontdesk/pkg/models"
)

var samplePDF = []byte("%PDF-1.4\n%fake scan\n")

type fakeRecognizer struct {
	rec *Recognition
	err error
}

func (f *fakeRecognizer) Recognize(ctx context.Context, pdf []byte) (*Recognition, error) {
	return f.rec, f.err
}

type fakeExtractor struct {
	fields map[string]string
	err    error
	calls  int
}

func (f *fakeExtractor) Extract(ctx context.Context, kind models.FormKind, text string) (map[string]string, error) {
	f.calls++
	return f.fields, f.err
}

type memoryArchive struct {
	saved []*models.ScannedForm
	err   error
}

func (m *memoryArchive) SaveScannedForm(ctx context.Context, form *models.ScannedForm) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, form)
	return nil
}

func TestValidatePDF(t *testing.T) {
	assert.NoError(t, ValidatePDF(samplePDF))
	assert.ErrorIs(t, ValidatePDF([]byte("PK\x03\x04")), ErrInvalidPDF)
	assert.ErrorIs(t, ValidatePDF(nil), ErrInvalidPDF)

	big := make([]byte, MaxFileSizeBytes+1)
	copy(big, "%PDF")
	assert.ErrorIs(t, ValidatePDF(big), ErrPDFTooLarge)
}

func TestCredentialOptions(t *testing.T) {
	assert.Len(t, CredentialOptions(`{"type":"service_account"}`, "/tmp/key.json"), 1)
	assert.Len(t, CredentialOptions("", "/tmp/key.json"), 1)
	assert.Nil(t, CredentialOptions("", ""))
}

func TestNormalizeFields(t *testing.T) {
	fields := NormalizeFields(map[string]string{
		"Patient Name:":   "  Asha Rao ",
		"UHID No.":        "uh 1042",
		"Date":            "14/10/2026",
		"Witness Name":    "R. Menon",
		"Ward / Bed":      "B-12",
		"Relationship":    "",
		"Treating Doctor": "Dr. Iyer",
	})

	assert.Equal(t, map[string]string{
		FieldPatientName: "Asha Rao",
		FieldUHID:        "UH1042",
		FieldFormDate:    "2026-10-14",
		FieldWitness:     "R. Menon",
		FieldDoctor:      "Dr. Iyer",
		"ward_bed":       "B-12",
	}, fields)
}

func TestNormalizeFields_MostSpecificLabelWins(t *testing.T) {
	raw := map[string]string{
		"Date":              "01/10/2026",
		"Date of Discharge": "14/10/2026",
		"Name":              "A. Rao",
		"Patient Name":      "Asha Rao",
		"UHID":              "UH1",
		"MRN":               "UH2",
	}

	for i := 0; i < 50; i++ {
		fields := NormalizeFields(raw)
		require.Equal(t, "2026-10-14", fields[FieldFormDate])
		require.Equal(t, "Asha Rao", fields[FieldPatientName])
		require.Equal(t, "UH2", fields[FieldUHID])
	}
}

func TestNormalizeFormDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"14/10/2026", "2026-10-14"},
		{"4-10-2026", "2026-10-04"},
		{"2026-10-14", "2026-10-14"},
		{"14 Oct 2026", "2026-10-14"},
		{"next tuesday", "next tuesday"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeFormDate(tt.in))
		})
	}
}

func TestMissingFields(t *testing.T) {
	fields := map[string]string{FieldUHID: "UH1", FieldPatientName: "Asha"}

	assert.Equal(t, []string{FieldFormDate, FieldWitness}, MissingFields(models.FormConsent, fields))
	assert.Equal(t, []string{FieldFormDate, FieldDoctor}, MissingFields(models.FormDischarge, fields))
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind(" Consent ")
	require.NoError(t, err)
	assert.Equal(t, models.FormConsent, kind)

	_, err = ParseKind("referral")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestCollectVisionText(t *testing.T) {
	resp := &visionpb.AnnotateFileResponse{
		Responses: []*visionpb.AnnotateImageResponse{
			{FullTextAnnotation: &visionpb.TextAnnotation{
				Text:  "CONSENT FORM\nPatient Name: Asha Rao\nUHID: UH1042\n",
				Pages: []*visionpb.Page{{Confidence: 0.9}},
			}},
			{FullTextAnnotation: &visionpb.TextAnnotation{
				Text:  "Witness: R. Menon\nDate: 14/10/2026\nPatient Name: ignored\n",
				Pages: []*visionpb.Page{{Confidence: 0.8}},
			}},
		},
	}

	rec, err := collectVisionText(resp)
	require.NoError(t, err)

	assert.Equal(t, 2, rec.Pages)
	assert.Equal(t, "vision", rec.Source)
	assert.InDelta(t, 0.85, rec.Confidence, 0.001)
	assert.Equal(t, "Asha Rao", rec.Fields["Patient Name"])
	assert.Equal(t, "UH1042", rec.Fields["UHID"])
	assert.Equal(t, "R. Menon", rec.Fields["Witness"])
	assert.Contains(t, rec.Text, "CONSENT FORM")
}

func TestCollectVisionTextLimits(t *testing.T) {
	_, err := collectVisionText(&visionpb.AnnotateFileResponse{})
	assert.ErrorIs(t, err, ErrEmptyDocument)

	pages := make([]*visionpb.AnnotateImageResponse, MaxPagesSync+1)
	for i := range pages {
		pages[i] = &visionpb.AnnotateImageResponse{}
	}
	_, err = collectVisionText(&visionpb.AnnotateFileResponse{Responses: pages})
	assert.ErrorIs(t, err, ErrTooManyPages)

	_, err = collectVisionText(&visionpb.AnnotateFileResponse{
		Responses: []*visionpb.AnnotateImageResponse{{FullTextAnnotation: &visionpb.TextAnnotation{Text: "  \n"}}},
	})
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func segment(start, end int64) *documentaipb.Document_Page_Layout {
	return &documentaipb.Document_Page_Layout{
		TextAnchor: &documentaipb.Document_TextAnchor{
			TextSegments: []*documentaipb.Document_TextAnchor_TextSegment{{StartIndex: start, EndIndex: end}},
		},
	}
}

func TestFormFields(t *testing.T) {
	text := "Patient Name: Asha Rao\nDoctor: Dr. Iyer\n"
	value := segment(14, 22)
	value.Confidence = 0.96
	doctor := segment(31, 39)
	doctor.Confidence = 0.9

	doc := &documentaipb.Document{
		Text: text,
		Pages: []*documentaipb.Document_Page{{
			FormFields: []*documentaipb.Document_Page_FormField{
				{FieldName: segment(0, 13), FieldValue: value},
				{FieldName: segment(23, 30), FieldValue: doctor},
				{FieldName: segment(0, 13), FieldValue: nil},
			},
		}},
	}

	rec := formFields(doc)

	assert.Equal(t, map[string]string{"Patient Name": "Asha Rao", "Doctor": "Dr. Iyer"}, rec.Fields)
	assert.Equal(t, 1, rec.Pages)
	assert.Equal(t, "documentai", rec.Source)
	assert.InDelta(t, 0.93, rec.Confidence, 0.001)
}

func TestLayoutTextOutOfRange(t *testing.T) {
	doc := &documentaipb.Document{Text: "short"}
	assert.Equal(t, "", layoutText(doc, segment(2, 50)))
	assert.Equal(t, "", layoutText(doc, nil))
	assert.Equal(t, "hor", layoutText(doc, segment(1, 4)))
}

func TestDigitizeFillsMissingFieldsFromExtractor(t *testing.T) {
	recognizer := &fakeRecognizer{rec: &Recognition{
		Text:       "DISCHARGE SUMMARY ... discharged by Dr. Iyer on 14/10/2026",
		Fields:     map[string]string{"Patient Name": "Asha Rao", "UHID": "UH1042"},
		Confidence: 0.82,
		Source:     "vision",
	}}
	extractor := &fakeExtractor{fields: map[string]string{
		"form_date":    "2026-10-14",
		"doctor":       "Dr. Iyer",
		"patient_name": "A. Rao",
	}}
	archive := &memoryArchive{}

	d := NewDigitizer(recognizer, extractor, archive)
	d.now = func() time.Time { return time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC) }

	form, err := d.Digitize(context.Background(), models.FormDischarge, "uh1042", samplePDF)
	require.NoError(t, err)

	assert.Equal(t, 1, extractor.calls)
	assert.Equal(t, "UH1042", form.UHID)
	assert.Equal(t, "vision+openai", form.Source)
	assert.Equal(t, "Asha Rao", form.Fields[FieldPatientName], "recognized fields are not overwritten")
	assert.Equal(t, "Dr. Iyer", form.Fields[FieldDoctor])
	assert.Equal(t, "2026-10-14", form.Fields[FieldFormDate])
	assert.NotEqual(t, "", form.ID.String())
	assert.Equal(t, 2026, form.ScannedAt.Year())
	require.Len(t, archive.saved, 1)
	assert.Same(t, form, archive.saved[0])
}

func TestDigitizeSkipsExtractorWhenComplete(t *testing.T) {
	recognizer := &fakeRecognizer{rec: &Recognition{
		Text: "consent",
		Fields: map[string]string{
			"Patient Name": "Asha Rao",
			"UHID":         "UH9999",
			"Date":         "14/10/2026",
			"Witness":      "R. Menon",
		},
		Source: "documentai",
	}}
	extractor := &fakeExtractor{}
	archive := &memoryArchive{}

	form, err := NewDigitizer(recognizer, extractor, archive).
		Digitize(context.Background(), models.FormConsent, "UH1042", samplePDF)
	require.NoError(t, err)

	assert.Zero(t, extractor.calls)
	assert.Equal(t, "documentai", form.Source)
	assert.Equal(t, "UH1042", form.Fields[FieldUHID], "desk UHID wins over the scanned one")
}

func TestDigitizeExtractorFailureKeepsRecognizedFields(t *testing.T) {
	recognizer := &fakeRecognizer{rec: &Recognition{
		Text:   "consent",
		Fields: map[string]string{"Name": "Asha Rao"},
		Source: "vision",
	}}
	extractor := &fakeExtractor{err: ErrExtractionFailed}
	archive := &memoryArchive{}

	form, err := NewDigitizer(recognizer, extractor, archive).
		Digitize(context.Background(), models.FormConsent, "UH1042", samplePDF)
	require.NoError(t, err)

	assert.Equal(t, "vision", form.Source)
	assert.Equal(t, "Asha Rao", form.Fields[FieldPatientName])
	assert.Len(t, archive.saved, 1)
}

func TestDigitizeErrors(t *testing.T) {
	ok := &fakeRecognizer{rec: &Recognition{Text: "x", Fields: map[string]string{}, Source: "vision"}}

	tests := []struct {
		name       string
		kind       models.FormKind
		uhid       string
		pdf        []byte
		recognizer Recognizer
		archive    *memoryArchive
		wantErr    error
	}{
		{"unknown kind", "referral", "UH1", samplePDF, ok, &memoryArchive{}, ErrInvalidRequest},
		{"missing uhid", models.FormConsent, "  ", samplePDF, ok, &memoryArchive{}, ErrInvalidRequest},
		{"not a pdf", models.FormConsent, "UH1", []byte("hello"), ok, &memoryArchive{}, ErrInvalidPDF},
		{"recognition", models.FormConsent, "UH1", samplePDF, &fakeRecognizer{err: ErrRecognitionFailed}, &memoryArchive{}, ErrRecognitionFailed},
		{"archive", models.FormConsent, "UH1", samplePDF, ok, &memoryArchive{err: errors.New("disk full")}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDigitizer(tt.recognizer, nil, tt.archive).
				Digitize(context.Background(), tt.kind, tt.uhid, tt.pdf)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			var formErr *FormError
			assert.ErrorAs(t, err, &formErr)
		})
	}
}

func newTestOpenAIClient(t *testing.T, handler http.HandlerFunc) *openai.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	config := openai.DefaultConfig("test-key")
	config.BaseURL = srv.URL + "/v1"
	return openai.NewClientWithConfig(config)
}

func chatResponse(content string) string {
	return fmt.Sprintf(`{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini",`+
		`"choices":[{"index":0,"message":{"role":"assistant","content":%q},"finish_reason":"stop"}]}`, content)
}

func TestOpenAIExtractor(t *testing.T) {
	var calls int32
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		if atomic.AddInt32(&calls, 1) == 1 {
			fmt.Fprint(w, chatResponse("not json"))
			return
		}
		fmt.Fprint(w, chatResponse(`{"uhid":"UH1042","patient_name":" Asha Rao ","witness":"","ward":"B-12"}`))
	})

	extractor := NewOpenAIExtractorWithClient(client, ExtractorConfig{MaxRetries: 2})
	fields, err := extractor.Extract(context.Background(), models.FormConsent, "CONSENT FORM Asha Rao UH1042")
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, map[string]string{FieldUHID: "UH1042", FieldPatientName: "Asha Rao"}, fields)
}

func TestOpenAIExtractorGivesUp(t *testing.T) {
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chatResponse("still not json"))
	})

	_, err := NewOpenAIExtractorWithClient(client, ExtractorConfig{MaxRetries: 2}).
		Extract(context.Background(), models.FormDischarge, "text")
	assert.ErrorIs(t, err, ErrExtractionFailed)

	_, err = NewOpenAIExtractorWithClient(client, ExtractorConfig{}).
		Extract(context.Background(), models.FormDischarge, "  ")
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestNewOpenAIExtractorRequiresKey(t *testing.T) {
	_, err := NewOpenAIExtractor("", ExtractorConfig{})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestSystemPromptNamesKind(t *testing.T) {
	assert.True(t, strings.Contains(systemPrompt(models.FormDischarge), "discharge form"))
}
