package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"budget/internal/amqp"
	"budget/internal/log"
	"budget/internal/sheets/memory"
	"budget/internal/store"
	"budget/internal/table"
)

type failingWriter struct {
	mu    sync.Mutex
	calls int
}

func (f *failingWriter) Write(context.Context, string, table.Table) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return errors.New("sheets unavailable")
}

func seeded() *memory.Store {
	return memory.New(store.DefaultSeed().Tables())
}

func TestMirrorCopiesTable(t *testing.T) {
	ctx := context.Background()
	primary := seeded()
	mirror := memory.New(nil)
	w := NewMirrorWorker(primary, mirror, DefaultMirrorConfig(), log.Discard(), nil)

	if err := w.HandleTableChanged(ctx, amqp.NewTableChangedMessage(store.TableVariable, 2)); err != nil {
		t.Fatalf("HandleTableChanged: %v", err)
	}
	want, _ := primary.Read(ctx, store.TableVariable)
	got, err := mirror.Read(ctx, store.TableVariable)
	if err != nil || !got.Equal(want) {
		t.Fatalf("mirror got %v, %v", got, err)
	}
	if ok, _ := mirror.Exists(ctx, store.TableFixed); ok {
		t.Fatal("only the changed table should be mirrored")
	}
}

func TestMirrorSkipsMissingTable(t *testing.T) {
	mirror := memory.New(nil)
	w := NewMirrorWorker(memory.New(nil), mirror, DefaultMirrorConfig(), log.Discard(), nil)
	if err := w.Mirror(context.Background(), store.TableConfig); err != nil {
		t.Fatalf("Mirror: %v", err)
	}
	if mirror.Writes(store.TableConfig) != 0 {
		t.Fatal("nothing should be written")
	}
}

func TestMirrorAllReportsEveryFailure(t *testing.T) {
	mirror := &failingWriter{}
	w := NewMirrorWorker(seeded(), mirror, DefaultMirrorConfig(), log.Discard(), nil)

	err := w.MirrorAll(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if mirror.calls != len(store.TableNames) {
		t.Fatalf("writes attempted = %d, want %d", mirror.calls, len(store.TableNames))
	}
}

func TestStartMirrorsEverythingAndStops(t *testing.T) {
	ctx := context.Background()
	primary := seeded()
	mirror := memory.New(nil)
	w := NewMirrorWorker(primary, mirror, MirrorConfig{ResyncInterval: time.Hour}, log.Discard(), nil)

	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := w.Start(ctx); err == nil {
		t.Fatal("second Start should fail")
	}
	for _, name := range store.TableNames {
		if ok, _ := mirror.Exists(ctx, name); !ok {
			t.Errorf("%s not mirrored on startup", name)
		}
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := w.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if w.IsRunning() {
		t.Fatal("worker should be stopped")
	}
}

func TestConcurrentStop(t *testing.T) {
	ctx := context.Background()
	w := NewMirrorWorker(seeded(), memory.New(nil), MirrorConfig{}, log.Discard(), nil)
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.Stop(stopCtx); err != nil {
				t.Errorf("Stop: %v", err)
			}
		}()
	}
	wg.Wait()

	if w.IsRunning() {
		t.Fatal("worker should be stopped")
	}
	if err := w.Stop(stopCtx); err != nil {
		t.Fatalf("Stop after stop: %v", err)
	}
	if err := w.Start(ctx); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if err := w.Stop(stopCtx); err != nil {
		t.Fatalf("Stop after restart: %v", err)
	}
}
