package services

import (
	"context"

	"budget/internal/log"
	"budget/internal/metrics"
	"budget/internal/store"
	"budget/internal/table"
)

// Publisher announces table rewrites to other processes.
type Publisher interface {
	PublishTableChanged(ctx context.Context, table string, rows int) error
}

// ChangeNotifier forwards store writes to a Publisher. Publishing is best
// effort: the table is already saved, so failures are only logged.
type ChangeNotifier struct {
	pub     Publisher
	logger  *log.Logger
	metrics *metrics.Metrics
}

var _ store.Notifier = (*ChangeNotifier)(nil)

func NewChangeNotifier(pub Publisher, logger *log.Logger, m *metrics.Metrics) *ChangeNotifier {
	if logger == nil {
		logger = log.Default(log.ComponentAMQP)
	}
	return &ChangeNotifier{pub: pub, logger: logger.WithComponent(log.ComponentAMQP), metrics: m}
}

func (n *ChangeNotifier) TableChanged(ctx context.Context, name string, t table.Table) {
	if n.pub == nil {
		return
	}
	if err := n.pub.PublishTableChanged(ctx, name, t.Len()); err != nil {
		n.metrics.IncrPublishError()
		n.logger.ErrorContext(ctx, "Failed to publish table change",
			log.FieldTable, name, log.FieldError, err, log.FieldOperation, log.OpPublish)
	}
}
