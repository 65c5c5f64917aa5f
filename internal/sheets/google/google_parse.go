package google

import (
	"fmt"
	"strings"

	"budget/internal/sheets"
	"budget/internal/table"
)

// quoteTab renders a tab title as an A1 range, escaping single quotes.
func quoteTab(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = fmt.Sprint(v)
	}
	return out
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// fromValues converts a values matrix into a table. Blank rows are skipped,
// trailing cells the API omits are left for Table.Cell to treat as empty.
func fromValues(values [][]interface{}) (table.Table, error) {
	var t table.Table
	header := true
	for _, raw := range values {
		row := toStrings(raw)
		if blank(row) {
			continue
		}
		if header {
			for len(row) > 0 && strings.TrimSpace(row[len(row)-1]) == "" {
				row = row[:len(row)-1]
			}
			t.Columns = row
			header = false
			continue
		}
		if len(row) > len(t.Columns) {
			return table.Table{}, fmt.Errorf("%w: row %d has %d cells, header has %d",
				sheets.ErrUnreadableStorage, len(t.Rows)+2, len(row), len(t.Columns))
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// toValues renders header and rows for a values update.
func toValues(t table.Table) [][]interface{} {
	out := make([][]interface{}, 0, len(t.Rows)+1)
	out = append(out, cells(t.Columns))
	for _, r := range t.Rows {
		out = append(out, cells(r))
	}
	return out
}

func cells(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}
