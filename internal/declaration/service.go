package declaration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"unireg/internal/audit"
	"unireg/internal/sequence"
	dErrors "unireg/pkg/domain-errors"
	"unireg/pkg/platform/sentinel"
	"unireg/pkg/requestcontext"
)

var tracer = otel.Tracer("unireg/internal/declaration")

// Store persists declarations. Transact runs fn with a transaction carried in
// the context, so audit writes made inside fn commit atomically with the
// declaration row.
type Store interface {
	Transact(ctx context.Context, fn func(ctx context.Context) error) error
	Insert(ctx context.Context, d *Declaration) error
	Update(ctx context.Context, d *Declaration) error
	Get(ctx context.Context, id uuid.UUID) (*Declaration, error)
}

// Service ties the declarations vertical together: the allocator numbers new
// records, the store persists them, and the audit trail versions every change.
type Service struct {
	store     Store
	allocator *sequence.Allocator
	trail     *audit.Trail
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, allocator *sequence.Allocator, trail *audit.Trail, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if allocator == nil {
		return nil, fmt.Errorf("allocator is required")
	}
	if trail == nil {
		return nil, fmt.Errorf("audit trail is required")
	}

	s := &Service{
		store:     store,
		allocator: allocator,
		trail:     trail,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register numbers and persists a new declaration. The coordinate is allocated
// before the transaction opens; if the write then fails the coordinate stays
// burned, which is acceptable (gaps in the ledger are legal, duplicates are
// not). Version one and the CREATE entry commit with the row.
func (s *Service) Register(ctx context.Context, in RegisterInput, actor audit.Actor) (*Declaration, error) {
	ctx, span := tracer.Start(ctx, "declaration.Register")
	defer span.End()

	if err := in.Validate(); err != nil {
		return nil, err
	}

	coord, err := s.allocator.Allocate(ctx)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	d := &Declaration{
		ID:           uuid.New(),
		PartnerOne:   in.PartnerOne,
		PartnerTwo:   in.PartnerTwo,
		Place:        in.Place,
		RegisteredAt: in.RegisteredAt,
		Book:         coord.Book,
		Page:         coord.Page,
		Term:         coord.Term,
		Status:       StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.store.Transact(ctx, func(ctx context.Context) error {
		if err := s.store.Insert(ctx, d); err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "persist declaration")
		}
		if _, err := s.trail.CreateVersion(ctx, d.ID.String(), d.Snapshot(), actor); err != nil {
			return err
		}
		return s.trail.RecordCreate(ctx, EntityType, d.ID.String(), actor, map[string]string{
			"book": d.Book,
			"page": d.Page,
			"term": d.Term,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "declaration registered",
		"id", d.ID, "book", d.Book, "page", d.Page, "term", d.Term)
	return d, nil
}

// Update applies corrections. The new version commits with the row; the
// per-field UPDATE entries are written best-effort after the commit.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput, actor audit.Actor) (*Declaration, error) {
	ctx, span := tracer.Start(ctx, "declaration.Update")
	defer span.End()

	if err := in.Validate(); err != nil {
		return nil, err
	}

	d, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Status == StatusArchived {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "archived declarations cannot be corrected")
	}

	oldFields := d.Fields()
	in.apply(d)
	d.UpdatedAt = requestcontext.Now(ctx)

	err = s.store.Transact(ctx, func(ctx context.Context) error {
		if err := s.store.Update(ctx, d); err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "persist declaration update")
		}
		_, err := s.trail.CreateVersion(ctx, d.ID.String(), d.Snapshot(), actor)
		return err
	})
	if err != nil {
		return nil, err
	}

	_ = s.trail.RecordFieldChanges(ctx, EntityType, d.ID.String(), oldFields, d.Fields(), actor)
	return d, nil
}

// Archive retires a declaration: the status flips, every active version is
// archived, and the ARCHIVE entry commits with both.
func (s *Service) Archive(ctx context.Context, id uuid.UUID, actor audit.Actor) error {
	ctx, span := tracer.Start(ctx, "declaration.Archive")
	defer span.End()

	d, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if d.Status == StatusArchived {
		return dErrors.New(dErrors.CodeConflict, "declaration is already archived")
	}

	d.Status = StatusArchived
	d.UpdatedAt = requestcontext.Now(ctx)

	return s.store.Transact(ctx, func(ctx context.Context) error {
		if err := s.store.Update(ctx, d); err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "persist declaration archive")
		}
		return s.trail.Archive(ctx, EntityType, d.ID.String(), actor)
	})
}

// AttachDocument records a scan or certificate upload against the
// declaration. Blobs live in the object store fronting this service; the
// registry keeps the audit fact and the issued document id.
func (s *Service) AttachDocument(ctx context.Context, id uuid.UUID, filename string, actor audit.Actor) (uuid.UUID, error) {
	ctx, span := tracer.Start(ctx, "declaration.AttachDocument")
	defer span.End()

	if filename == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "filename is required")
	}
	d, err := s.get(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	if d.Status == StatusArchived {
		return uuid.Nil, dErrors.New(dErrors.CodeInvariantViolation, "archived declarations cannot take documents")
	}

	docID := uuid.New()
	err = s.trail.RecordCreate(ctx, DocumentEntityType, docID.String(), actor, map[string]string{
		"declaration_id": d.ID.String(),
		"filename":       filename,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return docID, nil
}

// Get loads one declaration.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Declaration, error) {
	return s.get(ctx, id)
}

// History returns the declaration's audit entries newest-first.
func (s *Service) History(ctx context.Context, id uuid.UUID) ([]audit.Entry, error) {
	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}
	return s.trail.History(ctx, EntityType, id.String())
}

// CurrentVersion returns the latest active snapshot of the declaration.
func (s *Service) CurrentVersion(ctx context.Context, id uuid.UUID) (*audit.VersionRecord, error) {
	return s.trail.CurrentVersion(ctx, id.String())
}

func (s *Service) get(ctx context.Context, id uuid.UUID) (*Declaration, error) {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "declaration %s not found", id)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "load declaration")
	}
	return d, nil
}
