package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"budget/internal/core"
	"budget/internal/services"
	"budget/internal/store"
	"budget/internal/table"
)

func (a *app) categoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage variable categories",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <name> <budget>",
		Short: "Add a variable category with zero spending",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			budget, err := core.ParseAmount(args[1])
			if err != nil {
				return fmt.Errorf("budget %q: %w", args[1], err)
			}
			if err := a.update(cmd, func(tx services.Tx, st core.State) (core.State, error) {
				return tx.AddVariableCategory(cmd.Context(), st, name, budget)
			}); err != nil {
				return err
			}
			a.println("Added " + name + " with a budget of " + budget.Format())
			return nil
		},
	})
	return cmd
}

func (a *app) txCmd() *cobra.Command {
	var note string
	add := &cobra.Command{
		Use:   "add <category> <amount>",
		Short: "Record a transaction stamped with the current time",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			category := strings.TrimSpace(args[0])
			amount, err := core.ParseAmount(args[1])
			if err != nil {
				return fmt.Errorf("amount %q: %w", args[1], err)
			}
			var spent core.Money
			if err := a.update(cmd, func(tx services.Tx, st core.State) (core.State, error) {
				next, err := tx.AddTransaction(cmd.Context(), st, category, amount, note)
				for _, v := range next.Variable {
					if v.Category == category {
						spent = v.Spent
					}
				}
				return next, err
			}); err != nil {
				return err
			}
			a.println(fmt.Sprintf("Recorded %s on %s (%s spent this month)", amount.Format(), category, spent.Format()))
			return nil
		},
	}
	add.Flags().StringVarP(&note, "note", "m", "", "Free-text note")

	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Manage ledger transactions",
	}
	cmd.AddCommand(add)
	return cmd
}

func (a *app) incomeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "income",
		Short: "Manage the monthly income",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <amount>",
		Short: "Overwrite the monthly income",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			income, err := core.ParseAmount(args[0])
			if err != nil {
				return fmt.Errorf("income %q: %w", args[0], err)
			}
			if err := a.update(cmd, func(tx services.Tx, st core.State) (core.State, error) {
				return tx.SetIncome(cmd.Context(), st, income)
			}); err != nil {
				return err
			}
			a.println("Income set to " + income.Format())
			return nil
		},
	})
	return cmd
}

func (a *app) normalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize",
		Short: "Backfill missing columns and reconcile variable spending",
		Long: "Creates absent tables from the seed, adds missing columns with their defaults, " +
			"and rewrites the variable table if its spent amounts disagree with the ledger.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			backend := svc.Store().Backend()

			// Snapshot first so the report can say what changed.
			before := map[string]table.Table{}
			for _, name := range store.TableNames {
				if t, err := backend.Read(cmd.Context(), name); err == nil {
					before[name] = t
				}
			}

			if _, err := svc.Load(cmd.Context()); err != nil {
				return err
			}

			for _, name := range store.TableNames {
				after, err := backend.Read(cmd.Context(), name)
				if err != nil {
					return err
				}
				prev, existed := before[name]
				switch {
				case !existed:
					a.println(fmt.Sprintf("%-24s created (%d rows)", name, after.Len()))
				case !prev.Equal(after):
					a.println(fmt.Sprintf("%-24s updated", name))
				default:
					a.println(fmt.Sprintf("%-24s ok", name))
				}
			}
			return nil
		},
	}
}

func (a *app) update(cmd *cobra.Command, fn func(tx services.Tx, st core.State) (core.State, error)) error {
	svc, err := a.service(cmd.Context())
	if err != nil {
		return err
	}
	_, err = svc.Update(cmd.Context(), fn)
	return err
}
