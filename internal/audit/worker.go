package audit

import (
	"context"
	"log/slog"

	"unireg/internal/audit/metrics"
)

// Worker consumes published entries from the fanout channel and forwards them
// to a secondary sink. The durable store write already happened in the
// publisher, so a sink failure is logged and counted, never retried here.
type Worker struct {
	sink    Sink
	inbox   <-chan Entry
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type WorkerOption func(*Worker)

func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = logger
	}
}

func WithWorkerMetrics(m *metrics.Metrics) WorkerOption {
	return func(w *Worker) {
		w.metrics = m
	}
}

func NewWorker(sink Sink, inbox <-chan Entry, opts ...WorkerOption) *Worker {
	w := &Worker{sink: sink, inbox: inbox}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entry := <-w.inbox:
			if err := w.sink.Publish(ctx, entry); err != nil {
				w.metrics.IncrementFanoutFailures()
				if w.logger != nil {
					w.logger.ErrorContext(ctx, "audit fanout publish failed",
						"entity_type", entry.EntityType, "entity_id", entry.EntityID, "error", err)
				}
			}
		}
	}
}
