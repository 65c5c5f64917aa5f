package cached

import (
	"context"
	"errors"
	"testing"
	"time"

	"budget/internal/sheets"
	"budget/internal/sheets/memory"
	"budget/internal/table"
)

type countingStore struct {
	*memory.Store
	reads    int
	failNext bool
}

func (c *countingStore) Read(ctx context.Context, name string) (table.Table, error) {
	c.reads++
	return c.Store.Read(ctx, name)
}

func (c *countingStore) Write(ctx context.Context, name string, t table.Table) error {
	if c.failNext {
		c.failNext = false
		return errors.New("backend down")
	}
	return c.Store.Write(ctx, name, t)
}

func cfg(v string) table.Table {
	return table.Table{Columns: []string{"cle", "valeur"}, Rows: [][]string{{"salaire", v}}}
}

func TestReadThrough(t *testing.T) {
	ctx := context.Background()
	backend := &countingStore{Store: memory.New(map[string]table.Table{"config": cfg("2056")})}
	s := New(backend, 8, time.Minute, nil)

	for i := 0; i < 3; i++ {
		got, err := s.Read(ctx, "config")
		if err != nil {
			t.Fatal(err)
		}
		if got.Rows[0][1] != "2056" {
			t.Fatalf("got %v", got.Rows)
		}
		got.Rows[0][1] = "mutated"
	}
	if backend.reads != 1 {
		t.Fatalf("backend reads = %d, want 1", backend.reads)
	}
}

func TestMissingTableIsNotCached(t *testing.T) {
	ctx := context.Background()
	backend := &countingStore{Store: memory.New(nil)}
	s := New(backend, 8, time.Minute, nil)

	for i := 0; i < 2; i++ {
		if _, err := s.Read(ctx, "config"); !errors.Is(err, sheets.ErrNotExist) {
			t.Fatalf("expected ErrNotExist, got %v", err)
		}
	}
	if backend.reads != 2 {
		t.Fatalf("backend reads = %d, want 2", backend.reads)
	}
}

func TestWriteRefreshesAndFailureEvicts(t *testing.T) {
	ctx := context.Background()
	backend := &countingStore{Store: memory.New(map[string]table.Table{"config": cfg("2056")})}
	s := New(backend, 8, time.Minute, nil)

	if _, err := s.Read(ctx, "config"); err != nil {
		t.Fatal(err)
	}
	if err := s.Write(ctx, "config", cfg("2100")); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Read(ctx, "config")
	if got.Rows[0][1] != "2100" || backend.reads != 1 {
		t.Fatalf("got %v after %d backend reads", got.Rows, backend.reads)
	}

	backend.failNext = true
	if err := s.Write(ctx, "config", cfg("9999")); err == nil {
		t.Fatal("expected write error")
	}
	got, _ = s.Read(ctx, "config")
	if got.Rows[0][1] != "2100" || backend.reads != 2 {
		t.Fatalf("failed write should evict: got %v after %d reads", got.Rows, backend.reads)
	}
}
