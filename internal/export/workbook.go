// Package export renders collection summaries as an xlsx workbook.
package export

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"frontdesk/internal/collections"
)

const (
	collectionsSheet = "Collections"
	warningsSheet    = "Warnings"
)

type column struct {
	header string
	width  float64
	amount func(collections.Summary) decimal.Decimal
}

var amountColumns = []column{
	{"OPD Cash", 12, func(s collections.Summary) decimal.Decimal { return s.OPDCash }},
	{"OPD Online", 12, func(s collections.Summary) decimal.Decimal { return s.OPDOnline }},
	{"Total OPD", 12, func(s collections.Summary) decimal.Decimal { return s.TotalOPD }},
	{"IPD Cash", 12, func(s collections.Summary) decimal.Decimal { return s.IPDCash }},
	{"IPD Online", 12, func(s collections.Summary) decimal.Decimal { return s.IPDOnline }},
	{"UPI", 10, func(s collections.Summary) decimal.Decimal { return s.IPDOnlineByMethod.UPI }},
	{"Card", 10, func(s collections.Summary) decimal.Decimal { return s.IPDOnlineByMethod.Card }},
	{"Net Banking", 12, func(s collections.Summary) decimal.Decimal { return s.IPDOnlineByMethod.NetBanking }},
	{"Cheque", 10, func(s collections.Summary) decimal.Decimal { return s.IPDOnlineByMethod.Cheque }},
	{"Other", 10, func(s collections.Summary) decimal.Decimal { return s.IPDOnlineByMethod.Other }},
	{"Refunds", 10, func(s collections.Summary) decimal.Decimal { return s.OverallRefunds }},
	{"Total IPD", 12, func(s collections.Summary) decimal.Decimal { return s.TotalIPD }},
	{"Total Cash", 12, func(s collections.Summary) decimal.Decimal { return s.TotalCash }},
	{"Total Online", 12, func(s collections.Summary) decimal.Decimal { return s.TotalOnline }},
	{"Grand Total", 14, func(s collections.Summary) decimal.Decimal { return s.GrandTotal }},
}

// CollectionsWorkbook builds a workbook with one row per day, a totals row and,
// when any day carried data-quality warnings, a second sheet listing them.
func CollectionsWorkbook(days []collections.DaySummary) ([]byte, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", collectionsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	if err := writeCollections(f, days); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeWarnings(f, days); err != nil {
		f.Close()
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}

	return buf.Bytes(), nil
}

func writeCollections(f *excelize.File, days []collections.DaySummary) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border:    thinBorder(),
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	amountFmt := "#,##0.00"
	amountStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &amountFmt})
	if err != nil {
		return fmt.Errorf("failed to create amount style: %w", err)
	}
	totalStyle, err := f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true},
		Border:       thinBorder(),
		CustomNumFmt: &amountFmt,
	})
	if err != nil {
		return fmt.Errorf("failed to create totals style: %w", err)
	}

	headers := []string{"Date"}
	for _, c := range amountColumns {
		headers = append(headers, c.header)
	}
	headers = append(headers, "OPD Count", "IPD Count")
	lastCol := len(headers)

	for i, h := range headers {
		if err := setCell(f, collectionsSheet, i+1, 1, h); err != nil {
			return err
		}
	}
	if err := styleRow(f, collectionsSheet, 1, lastCol, headerStyle); err != nil {
		return err
	}

	totals := make([]decimal.Decimal, len(amountColumns))
	var opdCount, ipdCount int

	row := 2
	for _, day := range days {
		if err := setCell(f, collectionsSheet, 1, row, day.Day); err != nil {
			return err
		}
		for i, c := range amountColumns {
			v := c.amount(day.Summary)
			totals[i] = totals[i].Add(v)
			if err := setCell(f, collectionsSheet, i+2, row, v.InexactFloat64()); err != nil {
				return err
			}
		}
		if err := setCell(f, collectionsSheet, lastCol-1, row, day.Summary.OPDCount); err != nil {
			return err
		}
		if err := setCell(f, collectionsSheet, lastCol, row, day.Summary.IPDCount); err != nil {
			return err
		}
		if err := styleRange(f, collectionsSheet, 2, row, len(amountColumns)+1, row, amountStyle); err != nil {
			return err
		}
		opdCount += day.Summary.OPDCount
		ipdCount += day.Summary.IPDCount
		row++
	}

	if err := setCell(f, collectionsSheet, 1, row, "Total"); err != nil {
		return err
	}
	for i, total := range totals {
		if err := setCell(f, collectionsSheet, i+2, row, total.InexactFloat64()); err != nil {
			return err
		}
	}
	if err := setCell(f, collectionsSheet, lastCol-1, row, opdCount); err != nil {
		return err
	}
	if err := setCell(f, collectionsSheet, lastCol, row, ipdCount); err != nil {
		return err
	}
	if err := styleRow(f, collectionsSheet, row, lastCol, totalStyle); err != nil {
		return err
	}

	if err := f.SetColWidth(collectionsSheet, "A", "A", 12); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	for i, c := range amountColumns {
		name, err := excelize.ColumnNumberToName(i + 2)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(collectionsSheet, name, name, c.width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	if err := f.SetPanes(collectionsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze panes: %w", err)
	}

	return nil
}

// writeWarnings lists each distinct warning once, under the first day it was raised on.
func writeWarnings(f *excelize.File, days []collections.DaySummary) error {
	var rows [][]string
	seen := make(map[collections.Warning]bool)
	for _, day := range days {
		for _, w := range day.Summary.Warnings {
			if seen[w] {
				continue
			}
			seen[w] = true
			rows = append(rows, []string{day.Day, w.EncounterID, w.Reason})
		}
	}
	if len(rows) == 0 {
		return nil
	}

	if _, err := f.NewSheet(warningsSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	for i, h := range []string{"Date", "Encounter", "Reason"} {
		if err := setCell(f, warningsSheet, i+1, 1, h); err != nil {
			return err
		}
	}
	for r, values := range rows {
		for c, v := range values {
			if err := setCell(f, warningsSheet, c+1, r+2, v); err != nil {
				return err
			}
		}
	}
	return f.SetColWidth(warningsSheet, "C", "C", 60)
}

func thinBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
}

func setCell(f *excelize.File, sheet string, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("failed to set cell %s: %w", cell, err)
	}
	return nil
}

func styleRow(f *excelize.File, sheet string, row, lastCol, style int) error {
	return styleRange(f, sheet, 1, row, lastCol, row, style)
}

func styleRange(f *excelize.File, sheet string, fromCol, fromRow, toCol, toRow, style int) error {
	from, err := excelize.CoordinatesToCellName(fromCol, fromRow)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(toCol, toRow)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, from, to, style); err != nil {
		return fmt.Errorf("failed to set style %s:%s: %w", from, to, err)
	}
	return nil
}
