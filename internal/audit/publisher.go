package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"unireg/internal/audit/metrics"
	"unireg/pkg/requestcontext"
)

// Publisher appends audit entries to the durable history store and offers
// them to the async fanout worker. The store write is synchronous so an entry
// that Emit accepted is durable; fanout is lossy by design (a full inbox drops
// the copy, never blocks the request path).
type Publisher struct {
	store   HistoryStore
	fanout  chan Entry
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type PublisherOption func(*Publisher)

func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithPublisherMetrics(m *metrics.Metrics) PublisherOption {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithFanoutBuffer enables the fanout channel with the given capacity.
func WithFanoutBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		p.fanout = make(chan Entry, size)
	}
}

func NewPublisher(store HistoryStore, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit persists an entry, filling in ID and timestamp when unset.
func (p *Publisher) Emit(ctx context.Context, entry Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = requestcontext.Now(ctx)
	}

	if err := p.store.Append(ctx, entry); err != nil {
		p.metrics.IncrementAppendFailures()
		return err
	}
	p.metrics.IncrementEntriesAppended()

	if p.fanout != nil {
		select {
		case p.fanout <- entry:
		default:
			p.metrics.IncrementFanoutDropped()
			if p.logger != nil {
				p.logger.WarnContext(ctx, "audit fanout inbox full, entry dropped from fanout",
					"entity_type", entry.EntityType, "entity_id", entry.EntityID)
			}
		}
	}
	return nil
}

// Fanout exposes the entry stream for the worker. Returns nil when fanout is
// not configured.
func (p *Publisher) Fanout() <-chan Entry {
	return p.fanout
}
