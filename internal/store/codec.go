package store

import (
	"fmt"

	"budget/internal/core"
	"budget/internal/sheets"
	"budget/internal/table"
)

// decoder reads typed cells out of one table, remembering the first failure.
type decoder struct {
	name string
	t    table.Table
	err  error
}

func (d *decoder) text(i int, col string) string {
	if d.err != nil {
		return ""
	}
	v, err := d.t.Cell(i, col)
	if err != nil {
		d.err = fmt.Errorf("%w: %s: %v", sheets.ErrUnreadableStorage, d.name, err)
	}
	return v
}

func (d *decoder) money(i int, col string) core.Money {
	v := d.text(i, col)
	if d.err != nil {
		return core.Money{}
	}
	m, err := core.ParseAmount(v)
	if err != nil {
		d.err = fmt.Errorf("%w: %s row %d column %q: %q is not a number", sheets.ErrUnreadableStorage, d.name, i+1, col, v)
	}
	return m
}

// DecodeFixed converts the fixed expenses table.
func DecodeFixed(t table.Table) ([]core.FixedExpense, error) {
	d := &decoder{name: TableFixed, t: t}
	out := make([]core.FixedExpense, 0, t.Len())
	for i := range t.Rows {
		out = append(out, core.FixedExpense{
			Category: d.text(i, ColCategory),
			Budget:   d.money(i, ColBudget),
			Spent:    d.money(i, ColSpent),
		})
	}
	return out, d.err
}

// DecodeVariable converts the variable expenses table.
func DecodeVariable(t table.Table) ([]core.VariableExpense, error) {
	d := &decoder{name: TableVariable, t: t}
	out := make([]core.VariableExpense, 0, t.Len())
	for i := range t.Rows {
		out = append(out, core.VariableExpense{
			Category: d.text(i, ColCategory),
			Budget:   d.money(i, ColBudget),
			Spent:    d.money(i, ColSpent),
		})
	}
	return out, d.err
}

// DecodeTransactions converts the ledger table.
func DecodeTransactions(t table.Table) ([]core.Transaction, error) {
	d := &decoder{name: TableTransactions, t: t}
	out := make([]core.Transaction, 0, t.Len())
	for i := range t.Rows {
		out = append(out, core.Transaction{
			Datetime: d.text(i, ColDatetime),
			Category: d.text(i, ColCategory),
			Amount:   d.money(i, ColAmount),
			Note:     d.text(i, ColNote),
		})
	}
	return out, d.err
}

// DecodeConfig converts the key/value config table.
func DecodeConfig(t table.Table) ([]core.ConfigEntry, error) {
	d := &decoder{name: TableConfig, t: t}
	out := make([]core.ConfigEntry, 0, t.Len())
	for i := range t.Rows {
		out = append(out, core.ConfigEntry{
			Key:   d.text(i, ColKey),
			Value: d.money(i, ColValue),
		})
	}
	return out, d.err
}

// EncodeFixed renders fixed expenses with the stored header.
func EncodeFixed(rows []core.FixedExpense) table.Table {
	t := table.Table{Columns: columnsOf(TableFixed), Rows: make([][]string, 0, len(rows))}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.Category, r.Budget.String(), r.Spent.String()})
	}
	return t
}

// EncodeVariable renders variable expenses with the stored header.
func EncodeVariable(rows []core.VariableExpense) table.Table {
	t := table.Table{Columns: columnsOf(TableVariable), Rows: make([][]string, 0, len(rows))}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.Category, r.Budget.String(), r.Spent.String()})
	}
	return t
}

// EncodeTransactions renders the ledger with the stored header.
func EncodeTransactions(rows []core.Transaction) table.Table {
	t := table.Table{Columns: columnsOf(TableTransactions), Rows: make([][]string, 0, len(rows))}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.Datetime, r.Category, r.Amount.String(), r.Note})
	}
	return t
}

// EncodeConfig renders the config table with the stored header.
func EncodeConfig(rows []core.ConfigEntry) table.Table {
	t := table.Table{Columns: columnsOf(TableConfig), Rows: make([][]string, 0, len(rows))}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.Key, r.Value.String()})
	}
	return t
}
