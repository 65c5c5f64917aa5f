package table

// Missing lists the schema columns absent from t, in schema order.
func Missing(t Table, s Schema) []string {
	var out []string
	for _, c := range s.Columns {
		if t.Index(c.Name) < 0 {
			out = append(out, c.Name)
		}
	}
	return out
}

// Normalize reshapes t to carry exactly the schema's columns in schema order.
//
// Existing values are kept, missing columns receive the column default on every
// row and columns unknown to the schema are dropped. When no schema column is
// missing t is returned as is and changed is false, so callers can skip the
// write-through.
func Normalize(t Table, s Schema) (out Table, changed bool) {
	if len(Missing(t, s)) == 0 {
		return t, false
	}

	src := make([]int, len(s.Columns))
	for i, c := range s.Columns {
		src[i] = t.Index(c.Name)
	}

	out = Table{Columns: s.ColumnNames(), Rows: make([][]string, len(t.Rows))}
	for r, row := range t.Rows {
		cells := make([]string, len(s.Columns))
		for i, c := range s.Columns {
			switch j := src[i]; {
			case j < 0:
				cells[i] = c.Default
			case j < len(row):
				cells[i] = row[j]
			}
		}
		out.Rows[r] = cells
	}
	return out, true
}
