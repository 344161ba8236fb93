package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"unireg/internal/audit"
	"unireg/internal/ratelimit/models"
)

// WindowStore counts requests inside a sliding window. Increment records one
// request under the key and returns the count of requests still inside the
// window, including the one just recorded.
type WindowStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (int, error)
}

// BlacklistStore holds dynamic bans with a TTL.
type BlacklistStore interface {
	IsBanned(ctx context.Context, address string) (bool, error)
	Ban(ctx context.Context, address string, duration time.Duration) error
}

// StaticListStore holds the operator-managed permanent blacklist.
type StaticListStore interface {
	Contains(ctx context.Context, address string) (bool, error)
	Add(ctx context.Context, entry models.BlacklistEntry) error
	Remove(ctx context.Context, address string) (bool, error)
	List(ctx context.Context) ([]models.BlacklistEntry, error)
}

// AuditPublisher records blacklist administration in the audit trail.
type AuditPublisher interface {
	Emit(ctx context.Context, entry audit.Entry) error
}
