// Package table models persisted flat tables: a header of column names and
// ordered rows of string cells, plus the schema each table is expected to carry.
package table

import (
	"errors"
	"fmt"
	"slices"
)

// Table is a header row plus data rows. Rows may be ragged; missing trailing
// cells read as empty strings.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Column is a named schema column and the value used to backfill it.
type Column struct {
	Name    string
	Default string
}

// Schema is the ordered set of columns a table must carry.
type Schema struct {
	Name    string
	Columns []Column
}

var ErrUnknownColumn = errors.New("unknown column")

// ColumnNames returns the schema's column names in order.
func (s Schema) ColumnNames() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}

// Empty returns a table with the schema's header and no rows.
func (s Schema) Empty() Table {
	return Table{Columns: s.ColumnNames()}
}

// Index returns the position of a column, or -1.
func (t Table) Index(name string) int {
	return slices.Index(t.Columns, name)
}

// Cell returns the value at row i for the named column.
func (t Table) Cell(i int, name string) (string, error) {
	j := t.Index(name)
	if j < 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	row := t.Rows[i]
	if j >= len(row) {
		return "", nil
	}
	return row[j], nil
}

// Len returns the number of data rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// Equal reports whether two tables have identical headers and cells.
func (t Table) Equal(o Table) bool {
	if !slices.Equal(t.Columns, o.Columns) || len(t.Rows) != len(o.Rows) {
		return false
	}
	for i := range t.Rows {
		if !slices.Equal(t.Rows[i], o.Rows[i]) {
			return false
		}
	}
	return true
}

// Clone deep-copies the table.
func (t Table) Clone() Table {
	out := Table{Columns: slices.Clone(t.Columns), Rows: make([][]string, len(t.Rows))}
	for i, r := range t.Rows {
		out.Rows[i] = slices.Clone(r)
	}
	return out
}
