package backend

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"budget/internal/config"
	"budget/internal/log"
	"budget/internal/sheets"
	"budget/internal/table"
)

func TestCreateBackend(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "csv", config: Config{Type: CSVBackend, DataDirectory: dir}},
		{name: "memory", config: Config{Type: MemoryBackend}},
		{name: "sqlite", config: Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "budget.db")}},
		{name: "csv without directory", config: Config{Type: CSVBackend}, wantErr: true},
		{name: "sqlite without path", config: Config{Type: SQLiteBackend}, wantErr: true},
		{name: "sheets without spreadsheet", config: Config{Type: SheetsBackend}, wantErr: true},
		{name: "unknown type", config: Config{Type: "excel"}, wantErr: true},
	}

	factory := NewFactory(log.Discard(), nil)
	ctx := context.Background()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := factory.CreateBackend(ctx, tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateBackend() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			defer result.Close()

			if result.Type != tt.config.Type {
				t.Errorf("Type = %v, want %v", result.Type, tt.config.Type)
			}

			// Every backend must satisfy the same read/write contract.
			if _, err := result.Store.Read(ctx, "config"); !errors.Is(err, sheets.ErrNotExist) {
				t.Fatalf("Read() on empty backend error = %v, want ErrNotExist", err)
			}
			want := table.Table{Columns: []string{"cle", "valeur"}, Rows: [][]string{{"salaire", "2056"}}}
			if err := result.Store.Write(ctx, "config", want); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			got, err := result.Store.Read(ctx, "config")
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if len(got.Rows) != 1 || got.Rows[0][1] != "2056" {
				t.Errorf("Read() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestBackendResultCloseWithoutCleanup(t *testing.T) {
	var nilResult *BackendResult
	if err := nilResult.Close(); err != nil {
		t.Errorf("Close() on nil result = %v", err)
	}
	if err := (&BackendResult{}).Close(); err != nil {
		t.Errorf("Close() without cleanup = %v", err)
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("FromAppConfig(nil) should fail")
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "excel"}); err == nil {
		t.Error("FromAppConfig with unknown backend should fail")
	}

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:         "sheets",
		DataDir:             "/data",
		GoogleSpreadsheetID: "sheet-id",
		GoogleSheetPrefix:   "2026-",
		CacheSize:           4,
	})
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != SheetsBackend || cfg.GoogleSpreadsheetID != "sheet-id" || cfg.GoogleSheetPrefix != "2026-" {
		t.Errorf("FromAppConfig() = %+v", cfg)
	}
	if cfg.DataDirectory != "/data" || cfg.CacheSize != 4 {
		t.Errorf("FromAppConfig() = %+v", cfg)
	}
}

func TestBackendTypes(t *testing.T) {
	names := GetBackendTypeStrings()
	if len(names) != 4 {
		t.Fatalf("GetBackendTypeStrings() = %v", names)
	}
	for _, n := range names {
		if !BackendType(n).IsValid() {
			t.Errorf("%q should be valid", n)
		}
	}
	if !SheetsBackend.Remote() || CSVBackend.Remote() {
		t.Error("only the sheets backend is remote")
	}
}
