// Package store loads and saves the four budget tables through a sheets
// backend and converts them to and from the typed rows of package core.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/metrics"
	"budget/internal/sheets"
	"budget/internal/table"
)

// Notifier is told about every table the store rewrites.
type Notifier interface {
	TableChanged(ctx context.Context, name string, t table.Table)
}

// Store loads and saves the four budget tables. Every read goes through the
// normalizer, so a loaded table always carries its default columns.
type Store struct {
	backend  sheets.TableStore
	seeds    map[string]table.Table
	schemas  map[string]table.Schema
	logger   *log.Logger
	metrics  *metrics.Metrics
	notifier Notifier
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l.WithComponent(log.ComponentStorage) }
}

// WithMetrics records table writes and normalizations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithNotifier registers a listener for table rewrites.
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// New creates a store over backend, seeding absent tables from seed.
func New(backend sheets.TableStore, seed Seed, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		seeds:   seed.Tables(),
		schemas: seed.Schemas(),
		logger:  log.Default(log.ComponentStorage),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend returns the underlying table store.
func (s *Store) Backend() sheets.TableStore {
	return s.backend
}

// Schema returns the default schema of a table.
func (s *Store) Schema(name string) (table.Schema, bool) {
	sc, ok := s.schemas[name]
	return sc, ok
}

// Bootstrap normalizes all four tables. It fails on the first unreadable one.
func (s *Store) Bootstrap(ctx context.Context) error {
	for _, name := range TableNames {
		if _, err := s.Ensure(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// Ensure returns a table carrying its default columns. An absent table is
// created from the seed; a table missing columns is backfilled and written back.
func (s *Store) Ensure(ctx context.Context, name string) (table.Table, error) {
	schema, ok := s.schemas[name]
	if !ok {
		return table.Table{}, fmt.Errorf("unknown table %q", name)
	}

	t, err := s.backend.Read(ctx, name)
	if errors.Is(err, sheets.ErrNotExist) {
		seed := s.seeds[name].Clone()
		s.logger.InfoContext(ctx, "Seeding missing table", log.FieldTable, name, log.FieldRows, seed.Len())
		if err := s.write(ctx, name, seed); err != nil {
			return table.Table{}, err
		}
		return seed, nil
	}
	if err != nil {
		return table.Table{}, fmt.Errorf("read %s: %w", name, err)
	}

	missing := table.Missing(t, schema)
	out, changed := table.Normalize(t, schema)
	if !changed {
		return t, nil
	}
	s.logger.WarnContext(ctx, "Backfilling missing columns", log.FieldOperation, log.OpNormalize,
		log.FieldTable, name, log.FieldColumns, missing, log.FieldRows, out.Len())
	s.metrics.IncrNormalization(name)
	if err := s.write(ctx, name, out); err != nil {
		return table.Table{}, err
	}
	return out, nil
}

func (s *Store) write(ctx context.Context, name string, t table.Table) error {
	start := time.Now()
	err := s.backend.Write(ctx, name, t)
	s.metrics.ObserveTableWrite(name, time.Since(start), err)
	if err != nil {
		s.logger.ErrorContext(ctx, "Table write failed", log.NewFields().WithTable(name, t.Len()).WithOperation(log.OpSave).WithError(err).ToSlice()...)
		return fmt.Errorf("write %s: %w", name, err)
	}
	s.logger.DebugContext(ctx, "Table written", log.NewFields().WithTable(name, t.Len()).ToSlice()...)
	if s.notifier != nil {
		s.notifier.TableChanged(ctx, name, t)
	}
	return nil
}

// Load reads all four tables into a State.
func (s *Store) Load(ctx context.Context) (core.State, error) {
	var st core.State
	var err error
	if st.Fixed, err = s.LoadFixed(ctx); err != nil {
		return core.State{}, err
	}
	if st.Variable, err = s.LoadVariable(ctx); err != nil {
		return core.State{}, err
	}
	if st.Transactions, err = s.LoadTransactions(ctx); err != nil {
		return core.State{}, err
	}
	if st.Config, err = s.LoadConfig(ctx); err != nil {
		return core.State{}, err
	}
	return st, nil
}

// LoadFixed reads the fixed expenses.
func (s *Store) LoadFixed(ctx context.Context) ([]core.FixedExpense, error) {
	t, err := s.Ensure(ctx, TableFixed)
	if err != nil {
		return nil, err
	}
	return DecodeFixed(t)
}

// SaveFixed replaces the fixed expenses table.
func (s *Store) SaveFixed(ctx context.Context, rows []core.FixedExpense) error {
	return s.write(ctx, TableFixed, EncodeFixed(rows))
}

// LoadVariable reads the variable expenses.
func (s *Store) LoadVariable(ctx context.Context) ([]core.VariableExpense, error) {
	t, err := s.Ensure(ctx, TableVariable)
	if err != nil {
		return nil, err
	}
	return DecodeVariable(t)
}

// SaveVariable replaces the variable expenses table.
func (s *Store) SaveVariable(ctx context.Context, rows []core.VariableExpense) error {
	return s.write(ctx, TableVariable, EncodeVariable(rows))
}

// LoadTransactions reads the ledger.
func (s *Store) LoadTransactions(ctx context.Context) ([]core.Transaction, error) {
	t, err := s.Ensure(ctx, TableTransactions)
	if err != nil {
		return nil, err
	}
	return DecodeTransactions(t)
}

// SaveTransactions replaces the ledger table.
func (s *Store) SaveTransactions(ctx context.Context, rows []core.Transaction) error {
	return s.write(ctx, TableTransactions, EncodeTransactions(rows))
}

// LoadConfig reads the config table.
func (s *Store) LoadConfig(ctx context.Context) ([]core.ConfigEntry, error) {
	t, err := s.Ensure(ctx, TableConfig)
	if err != nil {
		return nil, err
	}
	return DecodeConfig(t)
}

// SaveConfig replaces the config table.
func (s *Store) SaveConfig(ctx context.Context, rows []core.ConfigEntry) error {
	return s.write(ctx, TableConfig, EncodeConfig(rows))
}
