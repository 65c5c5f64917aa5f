package store

import (
	"slices"

	"budget/internal/table"
)

// Table names. The csv backend appends ".csv".
const (
	TableFixed        = "depenses_fixes"
	TableVariable     = "depenses_variables"
	TableTransactions = "transactions_variables"
	TableConfig       = "config"
)

// Column headers of the stored tables.
const (
	ColCategory = "Catégorie"
	ColBudget   = "Budget fixé (€)"
	ColSpent    = "Dépensé (€)"
	ColDatetime = "Datetime"
	ColAmount   = "Montant (€)"
	ColNote     = "Note"
	ColKey      = "cle"
	ColValue    = "valeur"
)

// TableNames lists every table in bootstrap order.
var TableNames = []string{TableFixed, TableVariable, TableTransactions, TableConfig}

var expenseColumns = []string{ColCategory, ColBudget, ColSpent}

func columnsOf(name string) []string {
	switch name {
	case TableFixed, TableVariable:
		return slices.Clone(expenseColumns)
	case TableTransactions:
		return []string{ColDatetime, ColCategory, ColAmount, ColNote}
	case TableConfig:
		return []string{ColKey, ColValue}
	}
	return nil
}

// schemaFor derives a table's default schema from its seed. Each missing
// column is backfilled with the seed's first-row value; spent columns always
// get zero.
func schemaFor(name string, seed table.Table) table.Schema {
	cols := make([]table.Column, len(seed.Columns))
	for i, c := range seed.Columns {
		def := ""
		if len(seed.Rows) > 0 && i < len(seed.Rows[0]) {
			def = seed.Rows[0][i]
		}
		if c == ColSpent {
			def = "0"
		}
		cols[i] = table.Column{Name: c, Default: def}
	}
	return table.Schema{Name: name, Columns: cols}
}
