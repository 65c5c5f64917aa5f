package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"budget/internal/amqp"
	"budget/internal/log"
	"budget/internal/metrics"
	"budget/internal/sheets"
	"budget/internal/store"
)

// MirrorConfig holds configuration for the mirror worker
type MirrorConfig struct {
	// ResyncInterval is how often every table is copied again (default: 15m).
	// Zero disables the periodic resync.
	ResyncInterval time.Duration

	// Tables lists the tables to mirror (default: all four).
	Tables []string
}

// DefaultMirrorConfig returns sensible defaults
func DefaultMirrorConfig() MirrorConfig {
	return MirrorConfig{
		ResyncInterval: 15 * time.Minute,
		Tables:         store.TableNames,
	}
}

// MirrorWorker copies tables from the primary backend to a mirror backend,
// typically Google Sheets. Change events trigger single-table copies; a
// startup pass and a periodic resync cover missed events.
type MirrorWorker struct {
	primary sheets.TableReader
	mirror  sheets.TableWriter
	config  MirrorConfig
	logger  *log.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	running  bool
	stopping bool
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewMirrorWorker(primary sheets.TableReader, mirror sheets.TableWriter, config MirrorConfig, logger *log.Logger, m *metrics.Metrics) *MirrorWorker {
	if len(config.Tables) == 0 {
		config.Tables = store.TableNames
	}
	if logger == nil {
		logger = log.Default(log.ComponentWorker)
	}
	return &MirrorWorker{
		primary: primary,
		mirror:  mirror,
		config:  config,
		logger:  logger.WithComponent(log.ComponentWorker),
		metrics: m,
	}
}

// Mirror copies one table. A table absent from the primary store is skipped.
func (w *MirrorWorker) Mirror(ctx context.Context, name string) (err error) {
	defer func() { w.metrics.IncrMirrored(err) }()

	t, err := w.primary.Read(ctx, name)
	if errors.Is(err, sheets.ErrNotExist) {
		w.logger.WarnContext(ctx, "Table missing from primary store, nothing to mirror", log.FieldTable, name)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := w.mirror.Write(ctx, name, t); err != nil {
		return fmt.Errorf("mirror %s: %w", name, err)
	}
	w.logger.InfoContext(ctx, "Table mirrored", log.NewFields().WithTable(name, t.Len()).WithOperation(log.OpMirror).ToSlice()...)
	return nil
}

// HandleTableChanged processes one change event from AMQP.
func (w *MirrorWorker) HandleTableChanged(ctx context.Context, msg *amqp.TableChangedMessage) error {
	w.logger.DebugContext(ctx, "Processing table change",
		log.FieldMessageID, msg.ID.String(), log.FieldTable, msg.Table, log.FieldRows, msg.Rows)
	return w.Mirror(ctx, msg.Table)
}

// MirrorAll copies every configured table concurrently and joins the errors.
func (w *MirrorWorker) MirrorAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	errs := make([]error, len(w.config.Tables))
	for i, name := range w.config.Tables {
		g.Go(func() error {
			errs[i] = w.Mirror(gctx, name)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Start runs the startup pass and, if configured, the periodic resync loop.
// It returns an error if the worker is already running.
func (w *MirrorWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("mirror worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	if err := w.MirrorAll(ctx); err != nil {
		w.logger.WarnContext(ctx, "Startup mirror incomplete", log.FieldError, err)
	} else {
		w.logger.InfoContext(ctx, "Startup mirror completed", "tables", len(w.config.Tables))
	}

	go w.runLoop(ctx)
	return nil
}

// Stop signals the resync loop and waits for it, or for ctx. Concurrent
// callers share a single signal.
func (w *MirrorWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	if !w.stopping {
		w.stopping = true
		close(w.stopCh)
	}
	done := w.doneCh
	w.mu.Unlock()

	select {
	case <-done:
		w.logger.InfoContext(ctx, "Mirror worker stopped gracefully")
	case <-ctx.Done():
		w.logger.WarnContext(ctx, "Mirror worker stop timed out")
		return ctx.Err()
	}

	w.mu.Lock()
	w.running = false
	w.stopping = false
	w.mu.Unlock()
	return nil
}

// IsRunning returns whether the worker is currently running
func (w *MirrorWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *MirrorWorker) runLoop(ctx context.Context) {
	defer close(w.doneCh)
	if w.config.ResyncInterval <= 0 {
		select {
		case <-w.stopCh:
		case <-ctx.Done():
		}
		return
	}

	ticker := time.NewTicker(w.config.ResyncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.MirrorAll(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic resync failed", log.FieldError, err)
			}
		}
	}
}
