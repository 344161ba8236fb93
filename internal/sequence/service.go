// Package sequence issues globally unique ledger coordinates (book/page/term)
// for legally binding registrations.
//
// The cursor lives in an externally persisted, atomically updated counter
// store rather than process memory: the service runs as multiple instances
// and an issued coordinate must never repeat, even across restarts. When the
// store is unreachable the allocator fails closed; callers must not register
// anything under a fabricated number.
package sequence

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"

	"unireg/internal/sequence/metrics"
	dErrors "unireg/pkg/domain-errors"
)

var tracer = otel.Tracer("unireg/internal/sequence")

// CounterStore is the durable, atomically updatable cursor store.
// Next returns the pre-increment cursor for series and persists the advanced
// one in the same atomic step; no two callers may observe the same cursor.
type CounterStore interface {
	Next(ctx context.Context, series string, pageCapacity int) (Cursor, error)
}

// Allocator hands out ledger coordinates for one numbering series.
type Allocator struct {
	counters     CounterStore
	series       string
	pageCapacity int
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

type Option func(*Allocator)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Allocator) {
		a.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Allocator) {
		a.metrics = m
	}
}

func WithSeries(series string) Option {
	return func(a *Allocator) {
		a.series = series
	}
}

func WithPageCapacity(capacity int) Option {
	return func(a *Allocator) {
		a.pageCapacity = capacity
	}
}

const (
	defaultSeries       = "declarations"
	defaultPageCapacity = 300
)

func New(counters CounterStore, opts ...Option) (*Allocator, error) {
	if counters == nil {
		return nil, fmt.Errorf("counter store is required")
	}

	a := &Allocator{
		counters:     counters,
		series:       defaultSeries,
		pageCapacity: defaultPageCapacity,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.pageCapacity < 1 {
		return nil, fmt.Errorf("page capacity must be positive, got %d", a.pageCapacity)
	}
	return a, nil
}

// Allocate returns the next free ledger coordinate. Results of concurrent
// calls are pairwise distinct in (book, page) and carry consecutive terms,
// though not necessarily in request arrival order.
func (a *Allocator) Allocate(ctx context.Context) (Coordinate, error) {
	ctx, span := tracer.Start(ctx, "sequence.Allocate")
	defer span.End()

	cur, err := a.counters.Next(ctx, a.series, a.pageCapacity)
	if err != nil {
		a.metrics.IncrementFailures()
		if a.logger != nil {
			a.logger.ErrorContext(ctx, "ledger coordinate allocation failed",
				"series", a.series, "error", err)
		}
		return Coordinate{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "counter store unavailable")
	}

	a.metrics.IncrementAllocations()
	if cur.Page >= a.pageCapacity {
		// This allocation filled the book; the store already advanced the
		// cursor into the next one.
		a.metrics.IncrementRollovers()
		if a.logger != nil {
			a.logger.InfoContext(ctx, "ledger book filled",
				"series", a.series, "book", cur.Book, "page", cur.Page)
		}
	}

	return cur.Format(), nil
}
