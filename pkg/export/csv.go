package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// CSVCodec writes and reads comma separated tables.
type CSVCodec struct{}

// NewCSVCodec builds a CSV codec.
func NewCSVCodec() *CSVCodec {
	return &CSVCodec{}
}

// Encode produces CSV encoded bytes for the table.
func (c *CSVCodec) Encode(table Table) ([]byte, error) {
	if err := table.validate(); err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(table.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range table.Rows {
		record := make([]string, len(table.Headers))
		for i, header := range table.Headers {
			record[i] = row[header]
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reads a header row followed by data rows. Blank rows are dropped.
func (c *CSVCodec) Decode(r io.Reader) ([]string, []Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	return recordsFromRows(rows)
}
