package continuity

import (
	"context"
	"time"

	"heirloom/pkg/domain"
)

// HeartbeatStore tracks when each owner was last seen alive. Beat is called
// on owner logins and explicit check-ins; Expired lists owners whose last
// beat is older than the cutoff; Forget removes an owner once the monitor
// has acted on the lapse.
type HeartbeatStore interface {
	Beat(ctx context.Context, ownerID domain.OwnerID, at time.Time) error
	LastBeat(ctx context.Context, ownerID domain.OwnerID) (time.Time, bool, error)
	Expired(ctx context.Context, cutoff time.Time) ([]domain.OwnerID, error)
	Forget(ctx context.Context, ownerID domain.OwnerID) error
}
