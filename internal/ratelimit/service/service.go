// Package service implements adaptive admission control: per-class sliding
// window quotas backed by a static (operator-managed) and a dynamic
// (self-applied, TTL-bound) blacklist.
//
// Checks run cheapest-rejection-first: static blacklist, then dynamic
// blacklist, then the window counter. The first quota violation inside a
// window bans the address dynamically; there is no second strike. When any
// protection store is unreachable the check fails closed and the request is
// denied, because admitting unmetered traffic during an outage is the worse
// failure mode for a public registry.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"

	"unireg/internal/audit"
	"unireg/internal/ratelimit/metrics"
	"unireg/internal/ratelimit/models"
	dErrors "unireg/pkg/domain-errors"
)

var tracer = otel.Tracer("unireg/internal/ratelimit")

// EntityTypeBlacklist is the audit entity type for static blacklist changes.
const EntityTypeBlacklist = "blacklist"

// Service decides whether a request is admitted.
type Service struct {
	windows WindowStore
	bans    BlacklistStore
	statics StaticListStore
	cfg     Config
	audit   AuditPublisher
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithAuditPublisher records static blacklist administration in the audit
// trail. Optional; admission checks themselves are never audited.
func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.audit = p
	}
}

func New(windows WindowStore, bans BlacklistStore, statics StaticListStore, cfg Config, opts ...Option) (*Service, error) {
	if windows == nil {
		return nil, fmt.Errorf("window store is required")
	}
	if bans == nil {
		return nil, fmt.Errorf("blacklist store is required")
	}
	if statics == nil {
		return nil, fmt.Errorf("static list store is required")
	}
	if cfg.Window <= 0 {
		return nil, fmt.Errorf("window must be positive, got %v", cfg.Window)
	}
	if cfg.BanDuration <= 0 {
		return nil, fmt.Errorf("ban duration must be positive, got %v", cfg.BanDuration)
	}
	for class, quota := range cfg.Quotas {
		if quota <= 0 {
			return nil, fmt.Errorf("quota for %s must be positive, got %d", class, quota)
		}
	}

	s := &Service{
		windows: windows,
		bans:    bans,
		statics: statics,
		cfg:     cfg,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Admit runs the admission checks for one request from address under the
// given traffic class.
func (s *Service) Admit(ctx context.Context, address string, class models.TrafficClass) (models.Decision, error) {
	ctx, span := tracer.Start(ctx, "ratelimit.Admit")
	defer span.End()

	if address == "" {
		return models.Decision{}, dErrors.New(dErrors.CodeInvalidInput, "caller address is required")
	}
	if !class.IsValid() {
		return models.Decision{}, dErrors.Newf(dErrors.CodeInvalidInput, "unknown traffic class %q", class)
	}

	quota := s.cfg.quotaFor(class)
	if s.cfg.Disabled {
		return models.Decision{Allowed: true, Limit: quota, Remaining: quota}, nil
	}

	listed, err := s.statics.Contains(ctx, address)
	if err != nil {
		return s.failClosed(ctx, address, "static blacklist check", err)
	}
	if listed {
		s.metrics.IncrementDenied(string(models.DenyStaticBlacklist))
		return models.Decision{Reason: models.DenyStaticBlacklist, Limit: quota}, nil
	}

	banned, err := s.bans.IsBanned(ctx, address)
	if err != nil {
		return s.failClosed(ctx, address, "dynamic blacklist check", err)
	}
	if banned {
		s.metrics.IncrementDenied(string(models.DenyDynamicBlacklist))
		return models.Decision{
			Reason:     models.DenyDynamicBlacklist,
			Limit:      quota,
			RetryAfter: s.cfg.BanDuration,
		}, nil
	}

	count, err := s.windows.Increment(ctx, models.WindowKey(class, address), s.cfg.Window)
	if err != nil {
		return s.failClosed(ctx, address, "window increment", err)
	}
	if count > quota {
		// Single strike: the violating request itself triggers the ban.
		if err := s.bans.Ban(ctx, address, s.cfg.BanDuration); err != nil {
			s.logger.ErrorContext(ctx, "dynamic ban not applied",
				"address", address, "class", class, "error", err)
		} else {
			s.metrics.IncrementBans()
			s.logger.WarnContext(ctx, "address banned for quota violation",
				"address", address, "class", class,
				"count", count, "quota", quota, "duration", s.cfg.BanDuration)
		}
		s.metrics.IncrementDenied(string(models.DenyQuotaExceeded))
		return models.Decision{
			Reason:     models.DenyQuotaExceeded,
			Limit:      quota,
			RetryAfter: s.cfg.BanDuration,
		}, nil
	}

	s.metrics.IncrementAllowed(string(class))
	return models.Decision{Allowed: true, Limit: quota, Remaining: quota - count}, nil
}

func (s *Service) failClosed(ctx context.Context, address, op string, err error) (models.Decision, error) {
	s.metrics.IncrementProtectionOutages()
	s.logger.ErrorContext(ctx, "admission check failed closed",
		"op", op, "address", address, "error", err)
	return models.Decision{}, dErrors.Wrap(err, dErrors.CodeUnavailable, op)
}

// AddStaticEntry places an address on the permanent blacklist. Idempotent:
// re-adding an address updates its reason.
func (s *Service) AddStaticEntry(ctx context.Context, address, reason string, actor audit.Actor) error {
	ctx, span := tracer.Start(ctx, "ratelimit.AddStaticEntry")
	defer span.End()

	if address == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "address is required")
	}

	entry := models.BlacklistEntry{Address: address, Reason: reason, CreatedBy: actor.ID}
	if err := s.statics.Add(ctx, entry); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "add static blacklist entry")
	}
	s.emitAudit(ctx, audit.OpCreate, address, actor, map[string]string{"reason": reason})
	return nil
}

// RemoveStaticEntry lifts a permanent ban. Removing an unknown address is a
// not-found error so operators notice typos.
func (s *Service) RemoveStaticEntry(ctx context.Context, address string, actor audit.Actor) error {
	ctx, span := tracer.Start(ctx, "ratelimit.RemoveStaticEntry")
	defer span.End()

	if address == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "address is required")
	}

	removed, err := s.statics.Remove(ctx, address)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "remove static blacklist entry")
	}
	if !removed {
		return dErrors.Newf(dErrors.CodeNotFound, "address %s is not blacklisted", address)
	}
	s.emitAudit(ctx, audit.OpDelete, address, actor, nil)
	return nil
}

// ListStatic returns the permanent blacklist.
func (s *Service) ListStatic(ctx context.Context) ([]models.BlacklistEntry, error) {
	entries, err := s.statics.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "list static blacklist")
	}
	return entries, nil
}

func (s *Service) emitAudit(ctx context.Context, op audit.Operation, address string, actor audit.Actor, metadata map[string]string) {
	if s.audit == nil {
		return
	}
	entry := audit.Entry{
		EntityType: EntityTypeBlacklist,
		EntityID:   address,
		Operation:  op,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		Metadata:   metadata,
	}
	if err := s.audit.Emit(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "blacklist change not audited",
			"address", address, "operation", op, "error", err)
	}
}
