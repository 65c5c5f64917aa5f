//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"budget/internal/log"
	"budget/internal/table"
)

// Integration tests require real Google Sheets credentials
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_TableRoundTrip(t *testing.T) {
	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	c, err := New(ctx, Config{
		SpreadsheetID:   spreadsheetID,
		CredentialsJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		CredentialsFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
		TabPrefix:       "it ",
	}, log.Discard())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	want := table.Table{
		Columns: []string{"Datetime", "Catégorie", "Montant (€)", "Note"},
		Rows:    [][]string{{time.Now().Format("2006-01-02 15:04:05"), "Bouffe", "12.5", "integration"}},
	}
	if err := c.Write(ctx, "transactions_variables", want); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := c.Read(ctx, "transactions_variables")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
