package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"budget/internal/core"
	"budget/internal/ledger"
	"budget/internal/log"
	"budget/internal/metrics"
	"budget/internal/store"
)

// BudgetService runs the load, normalize, reconcile and persist cycle and
// applies user mutations. It keeps no state between calls: every mutation
// reloads the tables under the writer lock and returns the new State.
type BudgetService struct {
	store   *store.Store
	mu      sync.Mutex
	now     func() time.Time
	logger  *log.Logger
	metrics *metrics.Metrics
}

// Option configures a BudgetService.
type Option func(*BudgetService)

// WithClock replaces the wall clock used to stamp transactions.
func WithClock(now func() time.Time) Option {
	return func(s *BudgetService) { s.now = now }
}

// WithLogger sets the service logger.
func WithLogger(l *log.Logger) Option {
	return func(s *BudgetService) { s.logger = l.WithComponent(log.ComponentBudget) }
}

// WithMetrics records mutations and orphan categories.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *BudgetService) { s.metrics = m }
}

func NewBudgetService(st *store.Store, opts ...Option) *BudgetService {
	s := &BudgetService{
		store:  st,
		now:    time.Now,
		logger: log.Default(log.ComponentBudget),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying store.
func (s *BudgetService) Store() *store.Store {
	return s.store
}

// Load normalizes and reads all tables, then reconciles variable spending
// with the ledger, persisting the variable table if it was stale.
func (s *BudgetService) Load(ctx context.Context) (core.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *BudgetService) load(ctx context.Context) (core.State, error) {
	if err := s.store.Bootstrap(ctx); err != nil {
		return core.State{}, err
	}
	st, err := s.store.Load(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load budget", log.NewFields().WithOperation(log.OpLoad).WithError(err).ToSlice()...)
		return core.State{}, err
	}
	return s.reconcile(ctx, st, false)
}

// reconcile recomputes variable spending. The variable table is written when
// force is set or when the recomputed amounts differ from the stored ones.
func (s *BudgetService) reconcile(ctx context.Context, st core.State, force bool) (core.State, error) {
	next := st.Clone()
	next.Variable = ledger.Reconcile(st.Variable, st.Transactions)

	orphans := ledger.Orphans(next.Variable, next.Transactions)
	s.metrics.SetOrphans(len(orphans))
	for _, o := range orphans {
		s.logger.WarnContext(ctx, "Spending on a category without a variable budget is not counted",
			log.FieldOperation, log.OpReconcile, log.FieldCategory, o.Category, log.FieldAmountCents, o.Total.Cents, "transactions", o.Count)
	}

	if !force && ledger.Consistent(st.Variable, st.Transactions) {
		return next, nil
	}
	if err := s.store.SaveVariable(ctx, next.Variable); err != nil {
		return st, err
	}
	return next, nil
}

// Update loads the current state and applies fn while holding the writer
// lock, so concurrent callers cannot overwrite each other's tables.
func (s *BudgetService) Update(ctx context.Context, fn func(tx Tx, st core.State) (core.State, error)) (core.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load(ctx)
	if err != nil {
		return core.State{}, err
	}
	return fn(Tx{s: s}, st)
}

// AddVariableCategory appends a variable category with zero spending.
func (s *BudgetService) AddVariableCategory(ctx context.Context, name string, budget core.Money) (core.State, error) {
	return s.Update(ctx, func(tx Tx, st core.State) (core.State, error) {
		return tx.AddVariableCategory(ctx, st, name, budget)
	})
}

// AddTransaction appends a ledger entry stamped with the current time.
func (s *BudgetService) AddTransaction(ctx context.Context, category string, amount core.Money, note string) (core.State, error) {
	return s.Update(ctx, func(tx Tx, st core.State) (core.State, error) {
		return tx.AddTransaction(ctx, st, category, amount, note)
	})
}

// SetIncome overwrites the monthly income.
func (s *BudgetService) SetIncome(ctx context.Context, income core.Money) (core.State, error) {
	return s.Update(ctx, func(tx Tx, st core.State) (core.State, error) {
		return tx.SetIncome(ctx, st, income)
	})
}

// SaveGlobalEdit replaces both budget tables from the combined view.
func (s *BudgetService) SaveGlobalEdit(ctx context.Context, rows []core.GlobalRow) (core.State, error) {
	return s.Update(ctx, func(tx Tx, st core.State) (core.State, error) {
		return tx.SaveGlobalEdit(ctx, st, rows)
	})
}

// Tx applies mutations on behalf of a caller that already holds the writer
// lock. Obtain one through BudgetService.Update.
type Tx struct {
	s *BudgetService
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
}

func (t Tx) done(ctx context.Context, op string, err error) {
	t.s.metrics.IncrMutation(op, err)
	if err != nil {
		t.s.logger.WarnContext(ctx, "Mutation rejected", log.NewFields().WithOperation(op).WithError(err).ToSlice()...)
	}
}

// AddVariableCategory rejects blank and duplicate names, leaving st unchanged.
func (t Tx) AddVariableCategory(ctx context.Context, st core.State, name string, budget core.Money) (out core.State, err error) {
	defer func() { t.done(ctx, log.OpAddCategory, err) }()

	name = strings.TrimSpace(name)
	if err := core.ValidateCategoryName(name, st.VariableNames()); err != nil {
		return st, invalid(fmt.Errorf("category %q: %w", name, err))
	}
	if budget.Cents < 0 {
		return st, invalid(core.ErrNegativeAmount)
	}

	next := st.Clone()
	next.Variable = append(next.Variable, core.VariableExpense{Category: name, Budget: budget})
	next, err = t.s.reconcile(ctx, next, true)
	if err != nil {
		return st, err
	}
	t.s.logger.InfoContext(ctx, "Variable category added", log.FieldCategory, name, log.FieldAmountCents, budget.Cents)
	return next, nil
}

// AddTransaction rejects a non-positive amount or blank category without
// touching storage. Otherwise the ledger is written and spending reconciled.
func (t Tx) AddTransaction(ctx context.Context, st core.State, category string, amount core.Money, note string) (out core.State, err error) {
	defer func() { t.done(ctx, log.OpAddTx, err) }()

	tx := core.NewTransaction(t.s.now(), category, amount, strings.TrimSpace(note))
	if err := tx.Validate(); err != nil {
		return st, invalid(err)
	}

	next := st.Clone()
	next.Transactions = append(next.Transactions, tx)
	if err := t.s.store.SaveTransactions(ctx, next.Transactions); err != nil {
		return st, err
	}
	next, err = t.s.reconcile(ctx, next, true)
	if err != nil {
		return st, err
	}
	t.s.logger.InfoContext(ctx, "Transaction recorded", log.NewFields().WithTransaction(tx.Category, tx.Amount.Cents).ToSlice()...)
	return next, nil
}

// SetIncome stores the income under the salaire key. Negative values are rejected.
func (t Tx) SetIncome(ctx context.Context, st core.State, income core.Money) (out core.State, err error) {
	defer func() { t.done(ctx, log.OpSetIncome, err) }()

	if income.Cents < 0 {
		return st, invalid(core.ErrNegativeAmount)
	}
	next := st.WithIncome(income)
	if err := t.s.store.SaveConfig(ctx, next.Config); err != nil {
		return st, err
	}
	return next, nil
}

// SaveGlobalEdit splits rows by their type tag, drops rows with any other
// tag, persists fixed rows verbatim and variable rows without their spent
// amounts, then reconciles. Blank or duplicate names within one type reject
// the whole edit.
func (t Tx) SaveGlobalEdit(ctx context.Context, st core.State, rows []core.GlobalRow) (out core.State, err error) {
	defer func() { t.done(ctx, log.OpSaveGlobal, err) }()

	seen := map[string][]string{}
	kept := make([]core.GlobalRow, 0, len(rows))
	for _, r := range rows {
		if r.Kind != core.KindFixed && r.Kind != core.KindVariable {
			t.s.logger.WarnContext(ctx, "Dropping row with unknown type", "kind", r.Kind, log.FieldCategory, r.Category)
			continue
		}
		r.Category = strings.TrimSpace(r.Category)
		if err := core.ValidateCategoryName(r.Category, seen[r.Kind]); err != nil {
			return st, invalid(fmt.Errorf("%s category %q: %w", r.Kind, r.Category, err))
		}
		if r.Budget.Cents < 0 || (r.Kind == core.KindFixed && r.Spent.Cents < 0) {
			return st, invalid(fmt.Errorf("%s category %q: %w", r.Kind, r.Category, core.ErrNegativeAmount))
		}
		seen[r.Kind] = append(seen[r.Kind], r.Category)
		kept = append(kept, r)
	}

	fixed, variable := core.SplitGlobal(kept)
	next := st.Clone()
	next.Fixed = fixed
	next.Variable = variable
	if err := t.s.store.SaveFixed(ctx, next.Fixed); err != nil {
		return st, err
	}
	next, err = t.s.reconcile(ctx, next, true)
	if err != nil {
		return st, err
	}
	return next, nil
}
