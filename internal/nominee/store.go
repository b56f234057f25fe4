package nominee

import (
	"context"
	"errors"

	"heirloom/pkg/domain"
)

// Creation conflicts. Each one wraps a distinct cause so the service can map
// them to caller-facing errors without string matching.
var (
	ErrDuplicateEmail = errors.New("nominee email already registered for this owner")
	ErrDuplicateCode  = errors.New("reference code already in use")
	ErrOwnerLimit     = errors.New("owner already has the maximum number of nominees")
)

// maxNomineesPerOwner caps designations per owner.
const maxNomineesPerOwner = 2

//go:generate mockgen -source=store.go -destination=mocks/mocks.go -package=mocks Store

// Store persists nominee records.
//
// Swap is the only mutation after Create: it writes the full updated snapshot
// if and only if the stored status still equals expected. Implementations
// return sentinel.ErrStaleStatus when the guard fails and sentinel.ErrNotFound
// when no record exists, so concurrent transitions resolve to one winner.
type Store interface {
	Create(ctx context.Context, rec Record) error
	FindByID(ctx context.Context, id domain.NomineeID) (Record, error)
	FindByReferenceCode(ctx context.Context, code domain.ReferenceCode) (Record, error)
	ListByOwner(ctx context.Context, ownerID domain.OwnerID) ([]Record, error)
	Swap(ctx context.Context, expected domain.NomineeStatus, updated Record) error
	Health(ctx context.Context) error
}
