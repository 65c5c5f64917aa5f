// Package storage keeps the budget tables in a SQLite database. Each table
// is one header record plus its rows in order, cells encoded as JSON arrays.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"budget/internal/sheets"
	"budget/internal/table"

	_ "modernc.org/sqlite"
)

var _ sheets.TableStore = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serializes anyway and this avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Read loads one table. Undecodable JSON is reported as unreadable storage.
func (r *SQLiteRepository) Read(ctx context.Context, name string) (table.Table, error) {
	var rawColumns string
	err := r.db.QueryRowContext(ctx, `SELECT columns FROM budget_tables WHERE name = ?`, name).Scan(&rawColumns)
	if errors.Is(err, sql.ErrNoRows) {
		return table.Table{}, sheets.ErrNotExist
	}
	if err != nil {
		return table.Table{}, fmt.Errorf("read table %s: %w", name, err)
	}

	var t table.Table
	if err := json.Unmarshal([]byte(rawColumns), &t.Columns); err != nil {
		return table.Table{}, fmt.Errorf("%w: %s header: %v", sheets.ErrUnreadableStorage, name, err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT cells FROM budget_rows WHERE table_name = ? ORDER BY position`, name)
	if err != nil {
		return table.Table{}, fmt.Errorf("read rows of %s: %w", name, err)
	}
	defer rows.Close()

	t.Rows = [][]string{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return table.Table{}, fmt.Errorf("scan row of %s: %w", name, err)
		}
		var cells []string
		if err := json.Unmarshal([]byte(raw), &cells); err != nil {
			return table.Table{}, fmt.Errorf("%w: %s row %d: %v", sheets.ErrUnreadableStorage, name, len(t.Rows)+1, err)
		}
		t.Rows = append(t.Rows, cells)
	}
	if err := rows.Err(); err != nil {
		return table.Table{}, fmt.Errorf("iterate rows of %s: %w", name, err)
	}
	return t, nil
}

// Write replaces the table header and all its rows in one transaction.
func (r *SQLiteRepository) Write(ctx context.Context, name string, t table.Table) error {
	columns, err := json.Marshal(nonNil(t.Columns))
	if err != nil {
		return fmt.Errorf("encode header of %s: %w", name, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO budget_tables (name, columns, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET columns = excluded.columns, updated_at = excluded.updated_at`,
		name, string(columns)); err != nil {
		return fmt.Errorf("upsert table %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM budget_rows WHERE table_name = ?`, name); err != nil {
		return fmt.Errorf("clear rows of %s: %w", name, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO budget_rows (table_name, position, cells) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare row insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range t.Rows {
		cells, err := json.Marshal(nonNil(row))
		if err != nil {
			return fmt.Errorf("encode row %d of %s: %w", i+1, name, err)
		}
		if _, err := stmt.ExecContext(ctx, name, i, string(cells)); err != nil {
			return fmt.Errorf("insert row %d of %s: %w", i+1, name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", name, err)
	}
	return nil
}

// Exists reports whether the table has been written.
func (r *SQLiteRepository) Exists(ctx context.Context, name string) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM budget_tables WHERE name = ?`, name).Scan(&n); err != nil {
		return false, fmt.Errorf("check table %s: %w", name, err)
	}
	return n > 0, nil
}

// Tables lists stored table names.
func (r *SQLiteRepository) Tables(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM budget_tables ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
