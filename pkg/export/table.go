package export

import (
	"fmt"
	"strings"
)

// Format identifies a rendering of a Table.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
)

// ParseFormat normalises a user supplied format, defaulting to xlsx.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	}
	return "", fmt.Errorf("unsupported format %q", raw)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string {
	return string(f)
}

// Table is tabular content keyed by header name.
type Table struct {
	Title   string
	Headers []string
	Rows    []map[string]string
}

// Record is one parsed data row together with its 1-based line in the source file.
type Record struct {
	Line   int
	Values map[string]string
}

// Encoder renders a Table to bytes.
type Encoder interface {
	Encode(table Table) ([]byte, error)
}

func (t Table) validate() error {
	if len(t.Headers) == 0 {
		return fmt.Errorf("table requires at least one header")
	}
	return nil
}

func recordsFromRows(rows [][]string) ([]string, []Record, error) {
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("file has no header row")
	}
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		values := make(map[string]string, len(headers))
		empty := true
		for col, header := range headers {
			if header == "" || col >= len(row) {
				continue
			}
			v := strings.TrimSpace(row[col])
			if v != "" {
				empty = false
			}
			values[header] = v
		}
		if empty {
			continue
		}
		records = append(records, Record{Line: i + 2, Values: values})
	}
	return headers, records, nil
}
