package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"frontdesk/internal/collections"
)

func TestExtractSpreadsheetID(t *testing.T) {
	id, err := extractSpreadsheetID("https://docs.google.com/spreadsheets/d/1AbC-d_9/edit#gid=0")
	require.NoError(t, err)
	assert.Equal(t, "1AbC-d_9", id)

	_, err = extractSpreadsheetID("https://example.com/not-a-sheet")
	assert.Error(t, err)
}

func TestCredentials_Load(t *testing.T) {
	key, err := Credentials{JSON: `{"type":"service_account"}`}.load()
	require.NoError(t, err)
	assert.Contains(t, string(key), "service_account")

	_, err = Credentials{}.load()
	assert.Error(t, err)
}

func daySummary(day string, cash, online int64) collections.DaySummary {
	s := collections.Summary{
		OPDCash:    decimal.NewFromInt(cash),
		OPDOnline:  decimal.NewFromInt(online),
		TotalOPD:   decimal.NewFromInt(cash + online),
		GrandTotal: decimal.NewFromInt(cash + online),
		OPDCount:   1,
	}
	return collections.DaySummary{Day: day, Summary: s}
}

func TestCollectionRows(t *testing.T) {
	exportedAt := time.Date(2026, 10, 15, 18, 30, 0, 0, time.UTC)
	rows := collectionRows([]collections.DaySummary{daySummary("2026-10-15", 100, 250)}, exportedAt)

	require.Len(t, rows, 1)
	require.Len(t, rows[0], len(headers))
	assert.Equal(t, "'2026-10-15", rows[0][0])
	assert.Equal(t, 100.0, rows[0][1])
	assert.Equal(t, 350.0, rows[0][3])
	assert.Equal(t, 1, rows[0][16])
	assert.Equal(t, "2026-10-15 18:30:00", rows[0][18])
}

// fakeSheets serves just enough of the Sheets v4 REST API for AppendCollections
type fakeSheets struct {
	appended    [][]interface{}
	readOptions []string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	path := r.URL.Path

	switch {
	case strings.HasSuffix(path, ":append"):
		body, _ := io.ReadAll(r.Body)
		var vr struct {
			Values [][]interface{} `json:"values"`
		}
		_ = json.Unmarshal(body, &vr)
		f.appended = append(f.appended, vr.Values...)
		io.WriteString(w, `{"spreadsheetId":"sheet-1"}`)
	case strings.Contains(path, "/values/") && strings.HasSuffix(path, "A1:S1"):
		io.WriteString(w, `{"values":[["Date","OPD Cash"]]}`)
	case strings.Contains(path, "/values/"):
		f.readOptions = append(f.readOptions, r.URL.Query().Get("valueRenderOption"), r.URL.Query().Get("dateTimeRenderOption"))
		io.WriteString(w, `{"values":[["Date"],["2026-10-14"],[46308]]}`)
	default:
		io.WriteString(w, `{"spreadsheetId":"sheet-1","sheets":[{"properties":{"title":"Collections","sheetId":7}}]}`)
	}
}

func TestAppendCollections_SkipsExportedDays(t *testing.T) {
	fake := &fakeSheets{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	svc, err := NewWithOptions(context.Background(), "sheet-1",
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	days := []collections.DaySummary{
		daySummary("2026-10-13", 5, 0),
		daySummary("2026-10-14", 10, 0),
		daySummary("2026-10-15", 100, 250),
	}

	written, err := svc.AppendCollections(context.Background(), days, "Collections")
	require.NoError(t, err)
	assert.Equal(t, 1, written)

	require.Len(t, fake.appended, 1)
	assert.Equal(t, "'2026-10-15", fake.appended[0][0])
	assert.Equal(t, 350.0, fake.appended[0][3])
	assert.Equal(t, []string{"UNFORMATTED_VALUE", "SERIAL_NUMBER"}, fake.readOptions)
}

func TestSkipExported(t *testing.T) {
	days := []collections.DaySummary{
		daySummary("2026-10-12", 1, 0),
		daySummary("2026-10-13", 1, 0),
		daySummary("2026-10-14", 1, 0),
		daySummary("2026-10-15", 1, 0),
	}
	columnA := [][]interface{}{
		{"Date"},
		{46308.0},         // 2026-10-13 as a date serial
		{"'2026-10-14"},   // text with its marker
		{" 2026-10-12 "},
		{},
	}

	pending := skipExported(days, columnA)
	require.Len(t, pending, 1)
	assert.Equal(t, "2026-10-15", pending[0].Day)
}
