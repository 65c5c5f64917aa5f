// Package csvfile stores each table as a UTF-8 CSV file named <table>.csv
// in one directory.
package csvfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"budget/internal/sheets"
	"budget/internal/table"
)

var _ sheets.TableStore = (*Store)(nil)

// Store reads and writes CSV files under Dir.
type Store struct {
	dir string
	mu  sync.Mutex
}

// New returns a store rooted at dir. The directory is created on first write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the file backing a table.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+".csv")
}

// Read parses the table file. A missing file is sheets.ErrNotExist; a file
// that is not valid CSV is sheets.ErrUnreadableStorage.
func (s *Store) Read(_ context.Context, name string) (table.Table, error) {
	f, err := os.Open(s.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return table.Table{}, sheets.ErrNotExist
	}
	if err != nil {
		return table.Table{}, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	t, err := table.ReadCSV(f)
	if err != nil {
		return table.Table{}, fmt.Errorf("%w: %s: %v", sheets.ErrUnreadableStorage, s.Path(name), err)
	}
	return t, nil
}

// Write replaces the table file atomically through a temp file and rename.
func (s *Store) Write(_ context.Context, name string, t table.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, "."+name+"-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := table.WriteCSV(tmp, t); err != nil {
		tmp.Close()
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), s.Path(name)); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

// Exists reports whether the table file is present.
func (s *Store) Exists(_ context.Context, name string) (bool, error) {
	_, err := os.Stat(s.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
