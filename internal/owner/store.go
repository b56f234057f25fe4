package owner

import (
	"context"
	"time"

	"heirloom/pkg/domain"
)

// Store is interface-driven to keep the domain logic testable and to allow
// swapping in-memory and PostgreSQL persistence without rewiring services.
type Store interface {
	Save(ctx context.Context, o Owner) error
	FindByID(ctx context.Context, id domain.OwnerID) (Owner, error)
	FindByEmail(ctx context.Context, email string) (Owner, error)
	// TriggerContinuity sets the one-way flag with a conditional write.
	// Returns false when the flag was already set (idempotent no-op) and
	// sentinel.ErrNotFound when the owner does not exist.
	TriggerContinuity(ctx context.Context, id domain.OwnerID, at time.Time) (bool, error)
}
