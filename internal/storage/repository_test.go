package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"budget/internal/sheets"
	"budget/internal/table"
)

func newRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "db", "budget.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	want := table.Table{
		Columns: []string{"Datetime", "Catégorie", "Montant (€)", "Note"},
		Rows: [][]string{
			{"2024-05-01 12:00:00", "Bouffe", "50", "courses, marché"},
			{"2024-05-02 08:30:00", "Bouffe", "30", ""},
		},
	}
	if err := repo.Write(ctx, "transactions_variables", want); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := repo.Read(ctx, "transactions_variables")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSQLiteWriteReplaces(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	long := table.Table{Columns: []string{"cle", "valeur"}, Rows: [][]string{{"salaire", "2056"}, {"old", "1"}}}
	short := table.Table{Columns: []string{"cle", "valeur"}, Rows: [][]string{{"salaire", "1900"}}}
	if err := repo.Write(ctx, "config", long); err != nil {
		t.Fatal(err)
	}
	if err := repo.Write(ctx, "config", short); err != nil {
		t.Fatal(err)
	}
	got, err := repo.Read(ctx, "config")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(short) {
		t.Fatalf("got %v, want %v", got, short)
	}
}

func TestSQLiteMissingTable(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	if _, err := repo.Read(ctx, "config"); !errors.Is(err, sheets.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
	ok, err := repo.Exists(ctx, "config")
	if err != nil || ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}
	if err := repo.Write(ctx, "config", table.Table{Columns: []string{"cle", "valeur"}}); err != nil {
		t.Fatal(err)
	}
	names, err := repo.Tables(ctx)
	if err != nil || len(names) != 1 || names[0] != "config" {
		t.Fatalf("Tables = %v, %v", names, err)
	}
}

func TestSQLiteReopenRunsMigrationsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budget.db")
	first, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	tbl := table.Table{Columns: []string{"cle", "valeur"}, Rows: [][]string{{"salaire", "2056"}}}
	if err := first.Write(ctx, "config", tbl); err != nil {
		t.Fatal(err)
	}
	first.Close()

	second, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	got, err := second.Read(ctx, "config")
	if err != nil || !got.Equal(tbl) {
		t.Fatalf("after reopen got %v, %v", got, err)
	}
}
