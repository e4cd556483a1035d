// Package sheets appends daily collection summaries to a Google Sheet for the accounts office.
package sheets

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"frontdesk/internal/collections"
	"frontdesk/internal/daterange"
	"frontdesk/internal/logger"
)

// Credentials points at a service account key, as a file path or inline JSON
type Credentials struct {
	File string
	JSON string
}

func (c Credentials) load() ([]byte, error) {
	switch {
	case c.File != "":
		return os.ReadFile(c.File)
	case c.JSON != "":
		return []byte(c.JSON), nil
	}
	return nil, fmt.Errorf("neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set")
}

// Service handles Google Sheets operations
type Service struct {
	sheetsService *sheets.Service
	spreadsheetID string
	log           zerolog.Logger
}

// headers of the collections sheet, columns A to S
var headers = []interface{}{
	"Date", "OPD Cash", "OPD Online", "Total OPD",
	"IPD Cash", "IPD Online", "UPI", "Card", "Net Banking", "Cheque", "Other",
	"Refunds", "Total IPD", "Total Cash", "Total Online", "Grand Total",
	"OPD Count", "IPD Count", "Exported At",
}

const lastColumn = "S"

// NewSheetsService creates a new Google Sheets service
func NewSheetsService(ctx context.Context, sheetURL string, creds Credentials) (*Service, error) {
	const op = "NewSheetsService"

	log := logger.WithComponent("sheets")

	spreadsheetID, err := extractSpreadsheetID(sheetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to extract spreadsheet ID: %w", op, err)
	}

	log.Debug().Str("spreadsheet_id", spreadsheetID).Msg("Extracted spreadsheet ID")

	key, err := creds.load()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read credentials: %w", op, err)
	}

	config, err := google.JWTConfigFromJSON(key, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse credentials: %w", op, err)
	}

	return NewWithOptions(ctx, spreadsheetID, option.WithHTTPClient(config.Client(ctx)))
}

// NewWithOptions creates a service for a known spreadsheet ID with explicit client options
func NewWithOptions(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*Service, error) {
	const op = "NewWithOptions"

	sheetsService, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create sheets service: %w", op, err)
	}

	return &Service{
		sheetsService: sheetsService,
		spreadsheetID: spreadsheetID,
		log:           logger.WithComponent("sheets"),
	}, nil
}

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// extractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL
func extractSpreadsheetID(url string) (string, error) {
	matches := spreadsheetIDPattern.FindStringSubmatch(url)
	if len(matches) < 2 {
		return "", fmt.Errorf("invalid Google Sheets URL format")
	}
	return matches[1], nil
}

// AppendCollections appends one row per day to sheetName. Days already present
// in column A are skipped so re-running an export does not duplicate rows.
func (s *Service) AppendCollections(ctx context.Context, days []collections.DaySummary, sheetName string) (int, error) {
	const op = "AppendCollections"

	if err := s.ensureSheetWithHeaders(ctx, sheetName); err != nil {
		return 0, fmt.Errorf("%s: failed to ensure sheet exists: %w", op, err)
	}

	existing, err := s.ReadRange(ctx, sheetName+"!A:A")
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	pending := skipExported(days, existing)
	if len(pending) == 0 {
		s.log.Info().Str("sheet", sheetName).Msg("All days already exported")
		return 0, nil
	}

	values := collectionRows(pending, time.Now().In(daterange.Location))

	_, err = s.sheetsService.Spreadsheets.Values.Append(
		s.spreadsheetID,
		sheetName+"!A:"+lastColumn,
		&sheets.ValueRange{Values: values},
	).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to append values to sheet: %w", op, err)
	}

	s.log.Info().
		Str("sheet", sheetName).
		Int("rows_written", len(values)).
		Int("skipped", len(days)-len(pending)).
		Msg("Collections exported to Google Sheet")

	return len(values), nil
}

// sheetsEpoch is day zero of spreadsheet date serials
var sheetsEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// skipExported drops the days already listed in column A, which may hold
// YYYY-MM-DD text or date serials from rows a user re-typed.
func skipExported(days []collections.DaySummary, columnA [][]interface{}) []collections.DaySummary {
	seen := make(map[string]bool, len(columnA))
	for _, row := range columnA {
		if len(row) == 0 {
			continue
		}
		switch v := row[0].(type) {
		case float64:
			seen[sheetsEpoch.AddDate(0, 0, int(v)).Format(daterange.DateLayout)] = true
		default:
			seen[strings.TrimPrefix(strings.TrimSpace(fmt.Sprint(v)), "'")] = true
		}
	}

	var pending []collections.DaySummary
	for _, day := range days {
		if !seen[day.Day] {
			pending = append(pending, day)
		}
	}
	return pending
}

// collectionRows converts day summaries to sheet rows
func collectionRows(days []collections.DaySummary, exportedAt time.Time) [][]interface{} {
	stamp := exportedAt.Format("2006-01-02 15:04:05")

	rows := make([][]interface{}, 0, len(days))
	for _, day := range days {
		s := day.Summary
		rows = append(rows, []interface{}{
			"'" + day.Day,                                   // A, kept as text
			s.OPDCash.InexactFloat64(),                      // B
			s.OPDOnline.InexactFloat64(),                    // C
			s.TotalOPD.InexactFloat64(),                     // D
			s.IPDCash.InexactFloat64(),                      // E
			s.IPDOnline.InexactFloat64(),                    // F
			s.IPDOnlineByMethod.UPI.InexactFloat64(),        // G
			s.IPDOnlineByMethod.Card.InexactFloat64(),       // H
			s.IPDOnlineByMethod.NetBanking.InexactFloat64(), // I
			s.IPDOnlineByMethod.Cheque.InexactFloat64(),     // J
			s.IPDOnlineByMethod.Other.InexactFloat64(),      // K
			s.OverallRefunds.InexactFloat64(),               // L
			s.TotalIPD.InexactFloat64(),                     // M
			s.TotalCash.InexactFloat64(),                    // N
			s.TotalOnline.InexactFloat64(),                  // O
			s.GrandTotal.InexactFloat64(),                   // P
			s.OPDCount,                                      // Q
			s.IPDCount,                                      // R
			stamp,                                           // S
		})
	}
	return rows
}

// ensureSheetWithHeaders ensures the sheet exists and has proper headers
func (s *Service) ensureSheetWithHeaders(ctx context.Context, sheetName string) error {
	const op = "ensureSheetWithHeaders"

	spreadsheet, err := s.sheetsService.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get spreadsheet: %w", op, err)
	}

	var sheetExists bool
	var sheetID int64
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == sheetName {
			sheetExists = true
			sheetID = sheet.Properties.SheetId
			break
		}
	}

	if !sheetExists {
		s.log.Info().Str("sheet", sheetName).Msg("Creating new sheet")

		batchUpdateReq := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{
				{AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: sheetName}}},
			},
		}

		resp, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, batchUpdateReq).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("%s: failed to create sheet: %w", op, err)
		}

		sheetID = resp.Replies[0].AddSheet.Properties.SheetId
	}

	headerRange := fmt.Sprintf("%s!A1:%s1", sheetName, lastColumn)
	resp, err := s.sheetsService.Spreadsheets.Values.Get(s.spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get headers: %w", op, err)
	}

	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		s.log.Info().Str("sheet", sheetName).Msg("Adding headers to sheet")

		_, err = s.sheetsService.Spreadsheets.Values.Update(
			s.spreadsheetID,
			headerRange,
			&sheets.ValueRange{Values: [][]interface{}{headers}},
		).ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("%s: failed to add headers: %w", op, err)
		}

		if err := s.formatHeaders(ctx, sheetID); err != nil {
			s.log.Warn().Err(err).Msg("Failed to format headers, continuing anyway")
		}
	}

	return nil
}

// formatHeaders makes the header row bold and auto-sizes the columns
func (s *Service) formatHeaders(ctx context.Context, sheetID int64) error {
	const op = "formatHeaders"

	columns := int64(len(headers))
	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   columns,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat:      &sheets.TextFormat{Bold: true},
						BackgroundColor: &sheets.Color{Red: 0.9, Green: 0.9, Blue: 0.9},
					},
				},
				Fields: "userEnteredFormat(textFormat,backgroundColor)",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   columns,
				},
			},
		},
	}

	batchUpdateReq := &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}
	if _, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, batchUpdateReq).Context(ctx).Do(); err != nil {
		return fmt.Errorf("%s: failed to format headers: %w", op, err)
	}

	return nil
}

// ReadRange reads unformatted values from a range. Dates come back as serial numbers.
func (s *Service) ReadRange(ctx context.Context, rangeSpec string) ([][]interface{}, error) {
	const op = "ReadRange"

	s.log.Debug().
		Str("range", rangeSpec).
		Msg("Reading range from spreadsheet")

	resp, err := s.sheetsService.Spreadsheets.Values.Get(s.spreadsheetID, rangeSpec).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("SERIAL_NUMBER").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read range %s: %w", op, rangeSpec, err)
	}

	s.log.Debug().
		Int("rows", len(resp.Values)).
		Str("range", rangeSpec).
		Msg("Successfully read range from spreadsheet")

	return resp.Values, nil
}
