package http

import (
	"github.com/shopspring/decimal"

	"budget/internal/core"
	"budget/internal/ledger"
)

// Amounts are encoded as decimal strings in euros ("306", "18.5").

type summaryView struct {
	Income        decimal.Decimal `json:"income"`
	FixedSpent    decimal.Decimal `json:"fixed_spent"`
	VariableSpent decimal.Decimal `json:"variable_spent"`
	TotalSpent    decimal.Decimal `json:"total_spent"`
	Remaining     decimal.Decimal `json:"remaining"`
	Pie           []sliceView     `json:"pie"`
}

type sliceView struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

type progressView struct {
	Category  string          `json:"category"`
	Budget    decimal.Decimal `json:"budget"`
	Spent     decimal.Decimal `json:"spent"`
	Remaining decimal.Decimal `json:"remaining"`
	Percent   int             `json:"percent"`
}

type globalRowView struct {
	Kind     string          `json:"kind"`
	Category string          `json:"category"`
	Budget   decimal.Decimal `json:"budget"`
	Spent    decimal.Decimal `json:"spent"`
}

type kindTotalView struct {
	Budget decimal.Decimal `json:"budget"`
	Spent  decimal.Decimal `json:"spent"`
}

type orphanView struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

type dashboardView struct {
	Summary    summaryView              `json:"summary"`
	Progress   []progressView           `json:"progress"`
	Global     []globalRowView          `json:"global"`
	Totals     map[string]kindTotalView `json:"totals"`
	Categories []string                 `json:"categories"`
	Unbudgeted []orphanView             `json:"unbudgeted,omitempty"`
}

type transactionView struct {
	Datetime string          `json:"datetime"`
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Note     string          `json:"note"`
}

type historyView struct {
	Category     string            `json:"category"`
	Total        decimal.Decimal   `json:"total"`
	Transactions []transactionView `json:"transactions"`
}

func newDashboardView(st core.State) dashboardView {
	sum := core.Summarize(st)
	v := dashboardView{
		Summary: summaryView{
			Income:        sum.Income.Decimal(),
			FixedSpent:    sum.FixedSpent.Decimal(),
			VariableSpent: sum.VariableSpent.Decimal(),
			TotalSpent:    sum.TotalSpent.Decimal(),
			Remaining:     sum.Remaining.Decimal(),
		},
		Progress:   []progressView{},
		Global:     []globalRowView{},
		Totals:     map[string]kindTotalView{},
		Categories: st.VariableNames(),
	}

	for _, s := range sum.Pie {
		v.Summary.Pie = append(v.Summary.Pie, sliceView{Label: s.Label, Amount: s.Amount.Decimal()})
	}
	for _, p := range core.Progress(st) {
		v.Progress = append(v.Progress, progressView{
			Category:  p.Category,
			Budget:    p.Budget.Decimal(),
			Spent:     p.Spent.Decimal(),
			Remaining: p.Remaining.Decimal(),
			Percent:   p.Percent,
		})
	}

	totals := map[string][2]core.Money{core.KindFixed: {}, core.KindVariable: {}}
	for _, r := range core.GlobalView(st) {
		v.Global = append(v.Global, globalRowView{
			Kind:     r.Kind,
			Category: r.Category,
			Budget:   r.Budget.Decimal(),
			Spent:    r.Spent.Decimal(),
		})
		t := totals[r.Kind]
		totals[r.Kind] = [2]core.Money{t[0].Add(r.Budget), t[1].Add(r.Spent)}
	}
	for kind, t := range totals {
		v.Totals[kind] = kindTotalView{Budget: t[0].Decimal(), Spent: t[1].Decimal()}
	}

	for _, o := range ledger.Orphans(st.Variable, st.Transactions) {
		v.Unbudgeted = append(v.Unbudgeted, orphanView{Category: o.Category, Total: o.Total.Decimal(), Count: o.Count})
	}
	return v
}

func newHistoryView(category string, txs []core.Transaction) historyView {
	v := historyView{Category: category, Transactions: make([]transactionView, 0, len(txs))}
	var total core.Money
	for _, t := range txs {
		total = total.Add(t.Amount)
		v.Transactions = append(v.Transactions, transactionView{
			Datetime: t.Datetime,
			Category: t.Category,
			Amount:   t.Amount.Decimal(),
			Note:     t.Note,
		})
	}
	v.Total = total.Decimal()
	return v
}
