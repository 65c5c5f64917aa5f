package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"budget/internal/backend"
	"budget/internal/config"
	"budget/internal/log"
	"budget/internal/services"
	"budget/internal/sheets"
	"budget/internal/store"
)

// app holds the flags and the lazily opened service shared by all commands.
type app struct {
	out    io.Writer
	errOut io.Writer

	flagBackend  string
	flagDataDir  string
	flagLogLevel string

	// tables replaces the configured backend; tests set it.
	tables sheets.TableStore

	svc     *services.BudgetService
	cleanup func() error
}

func newApp(out, errOut io.Writer) *app {
	return &app{out: out, errOut: errOut}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "budgetctl",
		Short:         "Monthly budget from the command line",
		Long:          "Inspect and edit the fixed, variable, transaction and config tables of the monthly budget.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.runSummary,
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.PersistentFlags().StringVarP(&a.flagBackend, "backend", "b", "", "Data backend (csv, memory, sqlite, sheets); defaults to DATA_BACKEND")
	root.PersistentFlags().StringVarP(&a.flagDataDir, "data-dir", "d", "", "Directory of the csv tables; defaults to DATA_DIR")
	root.PersistentFlags().StringVar(&a.flagLogLevel, "log-level", "warn", "Log level written to stderr")

	root.AddCommand(
		a.summaryCmd(),
		a.progressCmd(),
		a.tableCmd(),
		a.historyCmd(),
		a.categoryCmd(),
		a.txCmd(),
		a.incomeCmd(),
		a.normalizeCmd(),
	)
	return root
}

func (a *app) logger() *log.Logger {
	return log.New(log.Config{Level: log.ParseLevel(a.flagLogLevel), Component: log.ComponentCLI, Output: a.errOut})
}

// service opens the backend on first use.
func (a *app) service(ctx context.Context) (*services.BudgetService, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	logger := a.logger()

	cfg := config.Load()
	if a.flagBackend != "" {
		cfg.DataBackend = a.flagBackend
	}
	if a.flagDataDir != "" {
		cfg.DataDir = a.flagDataDir
	}

	tables := a.tables
	if tables == nil {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		backendCfg, err := backend.FromAppConfig(cfg)
		if err != nil {
			return nil, err
		}
		result, err := backend.NewFactory(logger, nil).CreateBackend(ctx, backendCfg)
		if err != nil {
			return nil, err
		}
		tables = result.Store
		a.cleanup = result.Close
	}

	seed, err := store.LoadSeed(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	st := store.New(tables, seed, store.WithLogger(logger))
	a.svc = services.NewBudgetService(st, services.WithLogger(logger))
	return a.svc, nil
}

func (a *app) close() error {
	if a.cleanup == nil {
		return nil
	}
	err := a.cleanup()
	a.cleanup = nil
	return err
}

func (a *app) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}
