package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"chatty":  slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Output: &buf, Level: slog.LevelDebug, Component: ComponentStorage})

	l.InfoContext(context.Background(), "Table written", FieldTable, "config", FieldRows, 1)
	l.WithComponent(ComponentLedger).Warn("Orphan spending", FieldCategory, "Ancienne")

	out := buf.String()
	for _, want := range []string{"component=storage", "table=config", "rows=1", "component=ledger", "category=Ancienne"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().WithComponent(ComponentBudget).WithOperation(OpAddTx).WithTransaction("Bouffe", 5000).WithError(nil)
	if f[FieldCategory] != "Bouffe" || f[FieldAmountCents] != int64(5000) {
		t.Fatalf("unexpected fields %v", f)
	}
	if _, ok := f[FieldError]; ok {
		t.Fatalf("nil error should not be recorded")
	}
	if len(f.ToSlice()) != 2*len(f) {
		t.Fatalf("ToSlice length mismatch")
	}
}
