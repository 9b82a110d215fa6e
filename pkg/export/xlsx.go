package export

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the worksheet name used when a table has no title.
const DefaultSheet = "Sheet1"

// XLSXCodec writes and reads single-sheet workbooks.
type XLSXCodec struct {
	sheet string
}

// NewXLSXCodec builds a codec bound to the given worksheet name.
func NewXLSXCodec(sheet string) *XLSXCodec {
	if sheet == "" {
		sheet = DefaultSheet
	}
	return &XLSXCodec{sheet: sheet}
}

// Encode writes the table into the configured worksheet with a bold header row.
func (c *XLSXCodec) Encode(table Table) ([]byte, error) {
	if err := table.validate(); err != nil {
		return nil, err
	}
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	if c.sheet != DefaultSheet {
		if err := f.SetSheetName(DefaultSheet, c.sheet); err != nil {
			return nil, fmt.Errorf("rename sheet: %w", err)
		}
	}

	header := make([]interface{}, len(table.Headers))
	for i, h := range table.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(c.sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write xlsx headers: %w", err)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		lastCol, _ := excelize.ColumnNumberToName(len(table.Headers))
		_ = f.SetCellStyle(c.sheet, "A1", lastCol+"1", style)
	}

	for i, row := range table.Rows {
		values := make([]interface{}, len(table.Headers))
		for col, h := range table.Headers {
			values[col] = row[h]
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("resolve xlsx cell: %w", err)
		}
		if err := f.SetSheetRow(c.sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write xlsx row %d: %w", i+2, err)
		}
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reads the configured worksheet, falling back to the first sheet of the workbook.
func (c *XLSXCodec) Decode(r io.Reader) ([]string, []Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close() //nolint:errcheck

	sheet := c.sheet
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("read xlsx rows: %w", err)
	}
	if err := normalizeDates(f, sheet, rows); err != nil {
		return nil, nil, err
	}
	return recordsFromRows(rows)
}

// normalizeDates rewrites date and time cells as YYYY-MM-DD and HH:MM.
// Excel keeps a retyped date as a serial number and GetRows renders it in
// the cell's display format, which differs between locales.
func normalizeDates(f *excelize.File, sheet string, rows [][]string) error {
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return fmt.Errorf("read raw xlsx rows: %w", err)
	}
	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}
	kinds := map[int]dateKind{}
	for r := 1; r < len(rows) && r < len(raw); r++ {
		for col := 0; col < len(rows[r]) && col < len(raw[r]); col++ {
			if rows[r][col] == raw[r][col] {
				continue
			}
			serial, err := strconv.ParseFloat(raw[r][col], 64)
			if err != nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, r+1)
			if err != nil {
				return fmt.Errorf("resolve xlsx cell: %w", err)
			}
			styleID, err := f.GetCellStyle(sheet, cell)
			if err != nil {
				continue
			}
			kind, seen := kinds[styleID]
			if !seen {
				kind = styleDateKind(f, styleID)
				kinds[styleID] = kind
			}
			if kind == notDate {
				continue
			}
			if serial >= 0 && serial < 1 {
				minutes := int(math.Round(serial * 24 * 60))
				rows[r][col] = fmt.Sprintf("%02d:%02d", minutes/60%24, minutes%60)
				continue
			}
			t, err := excelize.ExcelDateToTime(serial, date1904)
			if err != nil {
				continue
			}
			switch kind {
			case dateTime:
				rows[r][col] = t.Format("2006-01-02 15:04")
			default:
				rows[r][col] = t.Format("2006-01-02")
			}
		}
	}
	return nil
}

type dateKind int

const (
	notDate dateKind = iota
	dateOnly
	dateTime
)

var numFmtLiteral = regexp.MustCompile(`"[^"]*"|\[[^\]]*\]|\\.`)

// styleDateKind classifies a cell style by its number format.
func styleDateKind(f *excelize.File, styleID int) dateKind {
	style, err := f.GetStyle(styleID)
	if err != nil || style == nil {
		return notDate
	}
	switch style.NumFmt {
	case 14, 15, 16, 17:
		return dateOnly
	case 18, 19, 20, 21, 22, 45, 46, 47:
		return dateTime
	}
	if style.CustomNumFmt == nil {
		return notDate
	}
	code := strings.ToLower(numFmtLiteral.ReplaceAllString(*style.CustomNumFmt, ""))
	hasDate := strings.ContainsAny(code, "yd")
	hasTime := strings.ContainsAny(code, "hs")
	switch {
	case hasTime:
		return dateTime
	case hasDate:
		return dateOnly
	}
	return notDate
}
