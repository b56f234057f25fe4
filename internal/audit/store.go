package audit

import (
	"context"

	"heirloom/pkg/domain"
)

// Store is the append-only persistence for audit entries. There are no
// update or delete operations on purpose.
type Store interface {
	Insert(ctx context.Context, e Entry) error
	ListByNominee(ctx context.Context, nomineeID domain.NomineeID, limit int) ([]Entry, error)
	ListByOwner(ctx context.Context, ownerID domain.OwnerID, limit int) ([]Entry, error)
	Health(ctx context.Context) error
}
