package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrMalformed = errors.New("malformed table")

// utf8BOM is written by some spreadsheet exports.
const utf8BOM = "\ufeff"

// ReadCSV decodes a comma-separated table whose first record is the header.
// An empty input yields a table with no columns.
func ReadCSV(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(records) == 0 {
		return Table{}, nil
	}
	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	seen := make(map[string]struct{}, len(header))
	for _, h := range header {
		if _, dup := seen[h]; dup {
			return Table{}, fmt.Errorf("%w: duplicate column %q", ErrMalformed, h)
		}
		seen[h] = struct{}{}
	}
	rows := records[1:]
	for i, row := range rows {
		if len(row) > len(header) {
			return Table{}, fmt.Errorf("%w: row %d has %d cells, header has %d", ErrMalformed, i+2, len(row), len(header))
		}
	}
	return Table{Columns: header, Rows: rows}, nil
}

// WriteCSV encodes the header and rows. Short rows are padded to the header width.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if len(row) < len(t.Columns) {
			padded := make([]string, len(t.Columns))
			copy(padded, row)
			row = padded
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalCSV is WriteCSV into a byte slice.
func MarshalCSV(t Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
