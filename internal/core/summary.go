package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Slice is one wedge of a pie summary.
type Slice struct {
	Label  string
	Amount Money
}

// Summary is the global picture for the month.
type Summary struct {
	Income        Money
	FixedSpent    Money
	VariableSpent Money
	TotalSpent    Money
	// Remaining may be negative when spending exceeds income.
	Remaining Money
	Pie       []Slice
}

// CategoryProgress is the spent/remaining split of one variable category.
type CategoryProgress struct {
	Category  string
	Budget    Money
	Spent     Money
	Remaining Money
	// Percent of the budget consumed, rounded; 0 when the budget is 0.
	Percent int
}

// Pie labels.
const (
	SliceFixed     = "Fixes"
	SliceVariable  = "Variables"
	SliceRemaining = "Reste"
)

// Summarize totals spending against income. The pie clamps the remainder at zero.
func Summarize(s State) Summary {
	var fixed, variable Money
	for _, f := range s.Fixed {
		fixed = fixed.Add(f.Spent)
	}
	for _, v := range s.Variable {
		variable = variable.Add(v.Spent)
	}
	income := s.Income()
	total := fixed.Add(variable)
	remaining := income.Sub(total)
	return Summary{
		Income:        income,
		FixedSpent:    fixed,
		VariableSpent: variable,
		TotalSpent:    total,
		Remaining:     remaining,
		Pie: []Slice{
			{Label: SliceFixed, Amount: fixed},
			{Label: SliceVariable, Amount: variable},
			{Label: SliceRemaining, Amount: remaining.NonNegative()},
		},
	}
}

var hundred = decimal.NewFromInt(100)

// Progress returns one entry per variable category, in table order.
func Progress(s State) []CategoryProgress {
	out := make([]CategoryProgress, 0, len(s.Variable))
	for _, v := range s.Variable {
		p := CategoryProgress{
			Category:  v.Category,
			Budget:    v.Budget,
			Spent:     v.Spent,
			Remaining: v.Budget.Sub(v.Spent).NonNegative(),
		}
		if v.Budget.Cents > 0 {
			p.Percent = int(v.Spent.Decimal().Mul(hundred).Div(v.Budget.Decimal()).Round(0).IntPart())
		}
		out = append(out, p)
	}
	return out
}

// History returns the transactions of one category, newest first.
func History(s State, category string) []Transaction {
	var out []Transaction
	for _, t := range s.Transactions {
		if t.Category == category {
			out = append(out, t)
		}
	}
	// The datetime layout sorts lexically in chronological order.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Datetime > out[j].Datetime
	})
	return out
}

// GlobalView combines fixed and variable rows into one tagged table.
func GlobalView(s State) []GlobalRow {
	out := make([]GlobalRow, 0, len(s.Fixed)+len(s.Variable))
	for _, f := range s.Fixed {
		out = append(out, GlobalRow{Kind: KindFixed, Category: f.Category, Budget: f.Budget, Spent: f.Spent})
	}
	for _, v := range s.Variable {
		out = append(out, GlobalRow{Kind: KindVariable, Category: v.Category, Budget: v.Budget, Spent: v.Spent})
	}
	return out
}

// SplitGlobal separates an edited global view back into its two tables.
// Variable spent amounts are discarded; rows with an unknown tag are dropped.
func SplitGlobal(rows []GlobalRow) ([]FixedExpense, []VariableExpense) {
	var fixed []FixedExpense
	var variable []VariableExpense
	for _, r := range rows {
		switch r.Kind {
		case KindFixed:
			fixed = append(fixed, FixedExpense{Category: r.Category, Budget: r.Budget, Spent: r.Spent})
		case KindVariable:
			variable = append(variable, VariableExpense{Category: r.Category, Budget: r.Budget})
		}
	}
	return fixed, variable
}
