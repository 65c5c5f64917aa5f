// Package ledger derives variable-category spending from the transaction ledger.
package ledger

import (
	"sort"

	"budget/internal/core"
)

// Reconcile recomputes every variable category's spent amount from the ledger.
//
// Each row's Spent is reset to zero and then set to the sum of the transactions
// carrying exactly its category name. Transactions whose category has no row are
// ignored (see Orphans). The input slices are not modified.
func Reconcile(variable []core.VariableExpense, txs []core.Transaction) []core.VariableExpense {
	sums := Totals(txs)
	out := make([]core.VariableExpense, len(variable))
	for i, v := range variable {
		v.Spent = sums[v.Category]
		out[i] = v
	}
	return out
}

// Totals sums transaction amounts per category.
func Totals(txs []core.Transaction) map[string]core.Money {
	sums := make(map[string]core.Money)
	for _, t := range txs {
		sums[t.Category] = sums[t.Category].Add(t.Amount)
	}
	return sums
}

// Orphan is ledger spending whose category has no variable row.
type Orphan struct {
	Category string
	Total    core.Money
	Count    int
}

// Orphans lists the categories Reconcile drops, sorted by name.
func Orphans(variable []core.VariableExpense, txs []core.Transaction) []Orphan {
	known := make(map[string]struct{}, len(variable))
	for _, v := range variable {
		known[v.Category] = struct{}{}
	}
	byCat := map[string]*Orphan{}
	for _, t := range txs {
		if _, ok := known[t.Category]; ok {
			continue
		}
		o, ok := byCat[t.Category]
		if !ok {
			o = &Orphan{Category: t.Category}
			byCat[t.Category] = o
		}
		o.Total = o.Total.Add(t.Amount)
		o.Count++
	}
	out := make([]Orphan, 0, len(byCat))
	for _, o := range byCat {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// Consistent reports whether every variable row already matches the ledger.
func Consistent(variable []core.VariableExpense, txs []core.Transaction) bool {
	sums := Totals(txs)
	for _, v := range variable {
		if v.Spent != sums[v.Category] {
			return false
		}
	}
	return true
}
