package memory

import (
	"context"
	"sync"

	"budget/internal/sheets"
	"budget/internal/table"
)

var _ sheets.TableStore = (*Store)(nil)

// Store keeps tables in process. Reads and writes copy, so callers never
// share cells with the store.
type Store struct {
	mu     sync.Mutex
	tables map[string]table.Table
	writes map[string]int
}

// New returns an empty store, optionally pre-populated.
func New(initial map[string]table.Table) *Store {
	s := &Store{tables: map[string]table.Table{}, writes: map[string]int{}}
	for name, t := range initial {
		s.tables[name] = t.Clone()
	}
	return s
}

// Read returns a copy of the named table.
func (s *Store) Read(_ context.Context, name string) (table.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return table.Table{}, sheets.ErrNotExist
	}
	return t.Clone(), nil
}

// Write replaces the named table.
func (s *Store) Write(_ context.Context, name string, t table.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[name] = t.Clone()
	s.writes[name]++
	return nil
}

// Exists reports whether the table was ever written.
func (s *Store) Exists(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tables[name]
	return ok, nil
}

// Writes returns how many times a table was written. Tests use it to assert
// that no-op operations leave storage alone.
func (s *Store) Writes(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes[name]
}
