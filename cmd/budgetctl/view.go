package main

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"budget/internal/cli"
	"budget/internal/core"
	"budget/internal/ledger"
	"budget/internal/store"
)

// tableAliases maps short names to stored table names.
var tableAliases = map[string]string{
	"fixed":        store.TableFixed,
	"variable":     store.TableVariable,
	"transactions": store.TableTransactions,
	"config":       store.TableConfig,
}

func (a *app) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Income, spending and what is left this month",
		Args:  cobra.NoArgs,
		RunE:  a.runSummary,
	}
}

func (a *app) runSummary(cmd *cobra.Command, _ []string) error {
	svc, err := a.service(cmd.Context())
	if err != nil {
		return err
	}
	st, err := svc.Load(cmd.Context())
	if err != nil {
		return err
	}

	sum := core.Summarize(st)
	a.println()
	a.println(cli.RenderTitle("BUDGET"))
	a.println()
	fmt.Fprint(a.out, cli.RenderTable(cli.Table{
		Headers:    []string{"", "Amount"},
		RightAlign: []bool{false, true},
		Rows: [][]string{
			{"Income", sum.Income.Format()},
			{"Fixed spent", sum.FixedSpent.Format()},
			{"Variable spent", sum.VariableSpent.Format()},
			{"Total spent", sum.TotalSpent.Format()},
			{"Remaining", sum.Remaining.Format()},
		},
	}))

	rows := make([][]string, 0, len(sum.Pie))
	for _, s := range sum.Pie {
		rows = append(rows, []string{s.Label, s.Amount.Format(), share(s.Amount, sum.Pie)})
	}
	a.println()
	fmt.Fprint(a.out, cli.RenderTable(cli.Table{
		Title:      "Breakdown",
		Headers:    []string{"Slice", "Amount", "Share"},
		RightAlign: []bool{false, true, true},
		Rows:       rows,
	}))

	a.warnOrphans(st)
	return nil
}

// share is a slice's percentage of the whole pie.
func share(m core.Money, pie []core.Slice) string {
	var total int64
	for _, s := range pie {
		total += s.Amount.Cents
	}
	if total == 0 {
		return "0%"
	}
	return strconv.FormatInt((m.Cents*100+total/2)/total, 10) + "%"
}

func (a *app) progressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Spending against budget for each variable category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			st, err := svc.Load(cmd.Context())
			if err != nil {
				return err
			}

			var rows [][]string
			for _, p := range core.Progress(st) {
				rows = append(rows, []string{
					p.Category,
					p.Budget.Format(),
					p.Spent.Format(),
					p.Remaining.Format(),
					cli.RenderBar(p.Percent, 20) + " " + strconv.Itoa(p.Percent) + "%",
				})
			}
			fmt.Fprint(a.out, cli.RenderTable(cli.Table{
				Title:      "Variable expenses",
				Headers:    []string{"Category", "Budget", "Spent", "Remaining", "Used"},
				RightAlign: []bool{false, true, true, true, false},
				Rows:       rows,
			}))
			a.warnOrphans(st)
			return nil
		},
	}
}

func (a *app) tableCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "table <fixed|variable|transactions|config>",
		Short:     "Print one stored table as it is on disk",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"fixed", "variable", "transactions", "config"},
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if alias, ok := tableAliases[name]; ok {
				name = alias
			}
			if !slices.Contains(store.TableNames, name) {
				return fmt.Errorf("unknown table %q", args[0])
			}

			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := svc.Load(cmd.Context()); err != nil {
				return err
			}
			t, err := svc.Store().Ensure(cmd.Context(), name)
			if err != nil {
				return err
			}
			fmt.Fprint(a.out, cli.RenderTable(cli.Table{Title: name, Headers: t.Columns, Rows: t.Rows}))
			return nil
		},
	}
}

func (a *app) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <category>",
		Short: "Transactions of one category, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			st, err := svc.Load(cmd.Context())
			if err != nil {
				return err
			}

			txs := core.History(st, args[0])
			if len(txs) == 0 {
				a.println("No transactions for " + args[0])
				return nil
			}
			var total core.Money
			rows := make([][]string, 0, len(txs)+1)
			for _, t := range txs {
				total = total.Add(t.Amount)
				rows = append(rows, []string{t.Datetime, t.Amount.Format(), t.Note})
			}
			rows = append(rows, []string{"Total", total.Format(), ""})
			fmt.Fprint(a.out, cli.RenderTable(cli.Table{
				Title:      args[0],
				Headers:    []string{"Datetime", "Amount", "Note"},
				RightAlign: []bool{false, true, false},
				Rows:       rows,
			}))
			return nil
		},
	}
}

func (a *app) warnOrphans(st core.State) {
	for _, o := range ledger.Orphans(st.Variable, st.Transactions) {
		fmt.Fprintln(a.errOut, cli.RenderWarning("%s spent on %q, which has no variable budget", o.Total.Format(), o.Category))
	}
}
