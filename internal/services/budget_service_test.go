package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"budget/internal/core"
	"budget/internal/ledger"
	"budget/internal/log"
	"budget/internal/sheets/memory"
	"budget/internal/store"
	"budget/internal/table"
)

var fixedNow = time.Date(2024, 5, 3, 18, 4, 5, 0, time.Local)

func newService(t *testing.T, initial map[string]table.Table) (*BudgetService, *memory.Store) {
	t.Helper()
	backend := memory.New(initial)
	st := store.New(backend, store.DefaultSeed(), store.WithLogger(log.Discard()))
	svc := NewBudgetService(st, WithClock(func() time.Time { return fixedNow }), WithLogger(log.Discard()))
	return svc, backend
}

func mustLoad(t *testing.T, svc *BudgetService) core.State {
	t.Helper()
	st, err := svc.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return st
}

func TestLoadSeedsAndReconciles(t *testing.T) {
	svc, backend := newService(t, nil)
	st := mustLoad(t, svc)

	if len(st.Fixed) != 12 || len(st.Variable) != 2 {
		t.Fatalf("unexpected seed sizes: %d fixed, %d variable", len(st.Fixed), len(st.Variable))
	}
	if !ledger.Consistent(st.Variable, st.Transactions) {
		t.Fatal("loaded state is not reconciled")
	}
	if backend.Writes(store.TableVariable) != 1 {
		t.Fatalf("variable writes = %d, want only the seed write", backend.Writes(store.TableVariable))
	}
}

func TestLoadRepairsStaleSpending(t *testing.T) {
	initial := store.DefaultSeed().Tables()
	initial[store.TableVariable] = table.Table{
		Columns: []string{store.ColCategory, store.ColBudget, store.ColSpent},
		Rows:    [][]string{{"Bouffe", "200", "999"}},
	}
	initial[store.TableTransactions] = table.Table{
		Columns: []string{store.ColDatetime, store.ColCategory, store.ColAmount, store.ColNote},
		Rows: [][]string{
			{"2024-05-01 10:00:00", "Bouffe", "50", ""},
			{"2024-05-02 10:00:00", "Bouffe", "30", ""},
		},
	}
	svc, backend := newService(t, initial)
	st := mustLoad(t, svc)

	if got := st.Variable[0].Spent; got != core.Euros(80) {
		t.Fatalf("Bouffe spent = %v, want 80", got)
	}
	stored, _ := backend.Read(context.Background(), store.TableVariable)
	if v, _ := stored.Cell(0, store.ColSpent); v != "80" {
		t.Fatalf("stored spent = %q, want 80", v)
	}
}

func TestAddVariableCategory(t *testing.T) {
	ctx := context.Background()
	svc, backend := newService(t, nil)
	st := mustLoad(t, svc)

	next, err := svc.AddVariableCategory(ctx, "  Maquillage ", core.Euros(40))
	if err != nil {
		t.Fatalf("AddVariableCategory: %v", err)
	}
	want := core.VariableExpense{Category: "Maquillage", Budget: core.Euros(40)}
	if got := next.Variable[len(next.Variable)-1]; got != want {
		t.Fatalf("appended %+v, want %+v", got, want)
	}
	if len(st.Variable) != 2 {
		t.Fatal("input state must not be modified")
	}

	writes := backend.Writes(store.TableVariable)
	again, err := svc.AddVariableCategory(ctx, "Maquillage", core.Euros(10))
	if !errors.Is(err, core.ErrDuplicateCategory) || !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("expected duplicate category error, got %v", err)
	}
	if len(again.Variable) != len(next.Variable) {
		t.Fatal("duplicate must not append a row")
	}
	if backend.Writes(store.TableVariable) != writes {
		t.Fatal("duplicate must not write")
	}

	if _, err := svc.AddVariableCategory(ctx, "   ", core.Euros(10)); !errors.Is(err, core.ErrEmptyCategory) {
		t.Fatalf("expected empty category error, got %v", err)
	}
}

func TestAddVariableCategoryPicksUpEarlierSpending(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, nil)
	mustLoad(t, svc)

	_, err := svc.AddTransaction(ctx, "Sorties", core.Euros(25), "cinéma")
	if err != nil {
		t.Fatal(err)
	}
	st, err := svc.AddVariableCategory(ctx, "Sorties", core.Euros(60))
	if err != nil {
		t.Fatal(err)
	}
	if got := st.Variable[len(st.Variable)-1].Spent; got != core.Euros(25) {
		t.Fatalf("Sorties spent = %v, want 25", got)
	}
}

func TestAddTransaction(t *testing.T) {
	ctx := context.Background()
	svc, backend := newService(t, nil)
	mustLoad(t, svc)

	next, err := svc.AddTransaction(ctx, "Bouffe", core.Money{Cents: 5000}, " courses ")
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	want := core.Transaction{Datetime: "2024-05-03 18:04:05", Category: "Bouffe", Amount: core.Money{Cents: 5000}, Note: "courses"}
	if len(next.Transactions) != 1 || next.Transactions[0] != want {
		t.Fatalf("ledger = %+v", next.Transactions)
	}
	if next.Variable[0].Spent != core.Euros(50) {
		t.Fatalf("Bouffe spent = %v, want 50", next.Variable[0].Spent)
	}

	reloaded := mustLoad(t, svc)
	if len(reloaded.Transactions) != 1 || reloaded.Variable[0].Spent != core.Euros(50) {
		t.Fatalf("not persisted: %+v", reloaded)
	}
	if backend.Writes(store.TableTransactions) != 2 {
		t.Fatalf("transactions writes = %d", backend.Writes(store.TableTransactions))
	}
}

func TestAddTransactionRejectsNonPositiveAmount(t *testing.T) {
	ctx := context.Background()
	svc, backend := newService(t, nil)
	mustLoad(t, svc)
	txWrites := backend.Writes(store.TableTransactions)
	varWrites := backend.Writes(store.TableVariable)

	for _, amount := range []core.Money{{}, {Cents: -100}} {
		next, err := svc.AddTransaction(ctx, "Bouffe", amount, "")
		if !errors.Is(err, core.ErrInvalidAmount) {
			t.Fatalf("amount %v: expected ErrInvalidAmount, got %v", amount, err)
		}
		if len(next.Transactions) != 0 {
			t.Fatal("rejected transaction must not be appended")
		}
	}
	if _, err := svc.AddTransaction(ctx, " ", core.Euros(5), ""); !errors.Is(err, core.ErrEmptyCategory) {
		t.Fatalf("expected ErrEmptyCategory, got %v", err)
	}
	if backend.Writes(store.TableTransactions) != txWrites || backend.Writes(store.TableVariable) != varWrites {
		t.Fatal("rejected transactions must not write or reconcile")
	}
}

func TestSetIncome(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, nil)
	st := mustLoad(t, svc)

	next, err := svc.SetIncome(ctx, core.Euros(2500))
	if err != nil {
		t.Fatal(err)
	}
	if next.Income() != core.Euros(2500) || st.Income() != core.Euros(2056) {
		t.Fatalf("income next=%v input=%v", next.Income(), st.Income())
	}
	if mustLoad(t, svc).Income() != core.Euros(2500) {
		t.Fatal("income not persisted")
	}
	if _, err := svc.SetIncome(ctx, core.Money{Cents: -1}); !errors.Is(err, core.ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
}

func TestSaveGlobalEdit(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, nil)
	mustLoad(t, svc)
	if _, err := svc.AddTransaction(ctx, "Bouffe", core.Euros(30), ""); err != nil {
		t.Fatal(err)
	}

	rows := []core.GlobalRow{
		{Kind: core.KindFixed, Category: "Loyer", Budget: core.Euros(320), Spent: core.Euros(320)},
		{Kind: core.KindVariable, Category: "Bouffe", Budget: core.Euros(250), Spent: core.Euros(999)},
		{Kind: "Autre", Category: "Ignorée", Budget: core.Euros(1)},
		{Kind: core.KindVariable, Category: "Loyer", Budget: core.Euros(5)},
	}
	next, err := svc.SaveGlobalEdit(ctx, rows)
	if err != nil {
		t.Fatalf("SaveGlobalEdit: %v", err)
	}

	wantFixed := []core.FixedExpense{{Category: "Loyer", Budget: core.Euros(320), Spent: core.Euros(320)}}
	wantVar := []core.VariableExpense{
		{Category: "Bouffe", Budget: core.Euros(250), Spent: core.Euros(30)},
		{Category: "Loyer", Budget: core.Euros(5)},
	}
	reloaded := mustLoad(t, svc)
	for _, s := range []core.State{next, reloaded} {
		if len(s.Fixed) != 1 || s.Fixed[0] != wantFixed[0] {
			t.Fatalf("fixed = %+v", s.Fixed)
		}
		if len(s.Variable) != 2 || s.Variable[0] != wantVar[0] || s.Variable[1] != wantVar[1] {
			t.Fatalf("variable = %+v", s.Variable)
		}
	}
}

func TestSaveGlobalEditRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	svc, backend := newService(t, nil)
	mustLoad(t, svc)
	writes := backend.Writes(store.TableFixed)

	_, err := svc.SaveGlobalEdit(ctx, []core.GlobalRow{
		{Kind: core.KindFixed, Category: "Box", Budget: core.Euros(10)},
		{Kind: core.KindFixed, Category: " Box", Budget: core.Euros(20)},
	})
	if !errors.Is(err, core.ErrDuplicateCategory) {
		t.Fatalf("expected ErrDuplicateCategory, got %v", err)
	}
	if backend.Writes(store.TableFixed) != writes {
		t.Fatal("rejected edit must not write")
	}
}

func TestMutationsReloadTables(t *testing.T) {
	ctx := context.Background()
	svc, backend := newService(t, nil)
	mustLoad(t, svc)

	// Another writer records a transaction behind the service's back.
	external := table.Table{
		Columns: []string{store.ColDatetime, store.ColCategory, store.ColAmount, store.ColNote},
		Rows:    [][]string{{"2024-05-01 10:00:00", "Bouffe", "40", "marché"}},
	}
	if err := backend.Write(ctx, store.TableTransactions, external); err != nil {
		t.Fatal(err)
	}

	next, err := svc.AddTransaction(ctx, "Bouffe", core.Euros(10), "")
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if len(next.Transactions) != 2 || next.Transactions[0].Note != "marché" {
		t.Fatalf("earlier write lost: %+v", next.Transactions)
	}
	if next.Variable[0].Spent != core.Euros(50) {
		t.Fatalf("Bouffe spent = %v, want 50", next.Variable[0].Spent)
	}

	if _, err := svc.SetIncome(ctx, core.Euros(3000)); err != nil {
		t.Fatal(err)
	}
	if got := mustLoad(t, svc); len(got.Transactions) != 2 || got.Income() != core.Euros(3000) {
		t.Fatalf("reloaded state = %+v", got)
	}
}

func TestUpdateSerializesWriters(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, nil)
	mustLoad(t, svc)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Update(ctx, func(tx Tx, st core.State) (core.State, error) {
				return tx.AddTransaction(ctx, st, "Gazoil", core.Euros(1), "")
			})
			if err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	st := mustLoad(t, svc)
	if len(st.Transactions) != 20 {
		t.Fatalf("ledger has %d entries, want 20", len(st.Transactions))
	}
	if st.Variable[1].Spent != core.Euros(20) {
		t.Fatalf("Gazoil spent = %v, want 20", st.Variable[1].Spent)
	}
}

type fakePublisher struct {
	mu     sync.Mutex
	tables []string
	err    error
}

func (f *fakePublisher) PublishTableChanged(_ context.Context, table string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables = append(f.tables, table)
	return f.err
}

func TestChangeNotifierPublishesWrites(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	backend := memory.New(store.DefaultSeed().Tables())
	st := store.New(backend, store.DefaultSeed(),
		store.WithLogger(log.Discard()),
		store.WithNotifier(NewChangeNotifier(pub, log.Discard(), nil)))
	svc := NewBudgetService(st, WithLogger(log.Discard()))

	mustLoad(t, svc)
	if len(pub.tables) != 0 {
		t.Fatalf("clean load published %v", pub.tables)
	}
	if _, err := svc.SetIncome(ctx, core.Euros(1)); err != nil {
		t.Fatal(err)
	}
	if len(pub.tables) != 1 || pub.tables[0] != store.TableConfig {
		t.Fatalf("published %v", pub.tables)
	}

	pub.err = errors.New("broker down")
	if _, err := svc.SetIncome(ctx, core.Euros(2)); err != nil {
		t.Fatalf("publish failure must not fail the mutation: %v", err)
	}
}
