package vault

import (
	"context"
	"time"

	"heirloom/pkg/domain"
)

// Store persists assets and legacy notes.
//
// ReleaseAssets is a conditional bulk update: only LOCKED assets whose
// release condition matches the continuity event flip to RELEASED, and the
// returned count says how many did. Running it twice is harmless.
type Store interface {
	SaveAsset(ctx context.Context, a DigitalAsset) error
	ListAssetsByOwner(ctx context.Context, ownerID domain.OwnerID) ([]DigitalAsset, error)
	ListReleasedAssets(ctx context.Context, ownerID domain.OwnerID) ([]DigitalAsset, error)
	ReleaseAssets(ctx context.Context, ownerID domain.OwnerID, at time.Time) (int, error)

	SaveNote(ctx context.Context, n LegacyNote) error
	ListNotesByOwner(ctx context.Context, ownerID domain.OwnerID) ([]LegacyNote, error)
	ListNomineeVisibleNotes(ctx context.Context, ownerID domain.OwnerID) ([]LegacyNote, error)

	Health(ctx context.Context) error
}
