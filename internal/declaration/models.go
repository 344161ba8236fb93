// Package declaration implements the civil-union declarations vertical: the
// records that the allocator numbers and the audit trail versions.
package declaration

import (
	"time"

	"github.com/google/uuid"

	dErrors "unireg/pkg/domain-errors"
)

// EntityType tags declarations in the audit trail.
const EntityType = "declaration"

// DocumentEntityType tags uploaded documents in the audit trail.
const DocumentEntityType = "document"

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusArchived Status = "ARCHIVED"
)

// Declaration is one registered civil union. The ledger coordinate is assigned
// at registration and never changes afterwards.
type Declaration struct {
	ID           uuid.UUID `json:"id"`
	PartnerOne   string    `json:"partner_one"`
	PartnerTwo   string    `json:"partner_two"`
	Place        string    `json:"place"`
	RegisteredAt time.Time `json:"registered_at"`
	Book         string    `json:"book"`
	Page         string    `json:"page"`
	Term         string    `json:"term"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fields returns the mutable fields in audit-diff form. Keys are stable and
// values are display strings, so diffing two calls yields the entries a clerk
// would expect to read.
func (d *Declaration) Fields() map[string]any {
	return map[string]any{
		"partner_one":   d.PartnerOne,
		"partner_two":   d.PartnerTwo,
		"place":         d.Place,
		"registered_at": d.RegisteredAt.Format("2006-01-02"),
	}
}

// Snapshot returns the full state for the version chain.
func (d *Declaration) Snapshot() map[string]any {
	return map[string]any{
		"id":            d.ID.String(),
		"partner_one":   d.PartnerOne,
		"partner_two":   d.PartnerTwo,
		"place":         d.Place,
		"registered_at": d.RegisteredAt.Format("2006-01-02"),
		"book":          d.Book,
		"page":          d.Page,
		"term":          d.Term,
		"status":        string(d.Status),
	}
}

// RegisterInput is the payload for registering a new declaration.
type RegisterInput struct {
	PartnerOne   string    `json:"partner_one"`
	PartnerTwo   string    `json:"partner_two"`
	Place        string    `json:"place"`
	RegisteredAt time.Time `json:"registered_at"`
}

func (in RegisterInput) Validate() error {
	if in.PartnerOne == "" || in.PartnerTwo == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "both partner names are required")
	}
	if in.Place == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "place of registration is required")
	}
	if in.RegisteredAt.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "registration date is required")
	}
	return nil
}

// UpdateInput carries corrections to a declaration. Nil fields are left
// untouched.
type UpdateInput struct {
	PartnerOne   *string    `json:"partner_one,omitempty"`
	PartnerTwo   *string    `json:"partner_two,omitempty"`
	Place        *string    `json:"place,omitempty"`
	RegisteredAt *time.Time `json:"registered_at,omitempty"`
}

func (in UpdateInput) Validate() error {
	if in.PartnerOne != nil && *in.PartnerOne == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "partner name cannot be blanked")
	}
	if in.PartnerTwo != nil && *in.PartnerTwo == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "partner name cannot be blanked")
	}
	if in.Place != nil && *in.Place == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "place cannot be blanked")
	}
	if in.RegisteredAt != nil && in.RegisteredAt.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "registration date cannot be blanked")
	}
	return nil
}

func (in UpdateInput) apply(d *Declaration) {
	if in.PartnerOne != nil {
		d.PartnerOne = *in.PartnerOne
	}
	if in.PartnerTwo != nil {
		d.PartnerTwo = *in.PartnerTwo
	}
	if in.Place != nil {
		d.Place = *in.Place
	}
	if in.RegisteredAt != nil {
		d.RegisteredAt = *in.RegisteredAt
	}
}
