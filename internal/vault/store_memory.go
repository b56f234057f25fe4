package vault

import (
	"context"
	"sort"
	"sync"
	"time"

	"heirloom/pkg/domain"
)

// MemoryStore is an in-memory Store for tests and single-node development.
type MemoryStore struct {
	mu     sync.RWMutex
	assets []DigitalAsset
	notes  []LegacyNote
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) SaveAsset(ctx context.Context, a DigitalAsset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets = append(s.assets, a)
	return nil
}

func (s *MemoryStore) ListAssetsByOwner(ctx context.Context, ownerID domain.OwnerID) ([]DigitalAsset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterAssets(func(a DigitalAsset) bool { return a.OwnerID == ownerID }), nil
}

func (s *MemoryStore) ListReleasedAssets(ctx context.Context, ownerID domain.OwnerID) ([]DigitalAsset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterAssets(func(a DigitalAsset) bool {
		return a.OwnerID == ownerID && a.Status == AssetReleased
	}), nil
}

func (s *MemoryStore) ReleaseAssets(ctx context.Context, ownerID domain.OwnerID, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var released int
	for i := range s.assets {
		a := &s.assets[i]
		if a.OwnerID != ownerID || a.Status != AssetLocked {
			continue
		}
		if a.ReleaseCondition != ReleaseOnDeath && a.ReleaseCondition != ReleaseOnIncapacity {
			continue
		}
		a.Status = AssetReleased
		t := at
		a.ReleasedAt = &t
		released++
	}
	return released, nil
}

func (s *MemoryStore) SaveNote(ctx context.Context, n LegacyNote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, n)
	return nil
}

func (s *MemoryStore) ListNotesByOwner(ctx context.Context, ownerID domain.OwnerID) ([]LegacyNote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterNotes(func(n LegacyNote) bool { return n.OwnerID == ownerID }), nil
}

func (s *MemoryStore) ListNomineeVisibleNotes(ctx context.Context, ownerID domain.OwnerID) ([]LegacyNote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterNotes(func(n LegacyNote) bool {
		return n.OwnerID == ownerID && (n.Visibility == NoteNominee || n.Visibility == NotePublic)
	}), nil
}

func (s *MemoryStore) filterAssets(match func(DigitalAsset) bool) []DigitalAsset {
	var out []DigitalAsset
	for _, a := range s.assets {
		if match(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *MemoryStore) filterNotes(match func(LegacyNote) bool) []LegacyNote {
	var out []LegacyNote
	for _, n := range s.notes {
		if match(n) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *MemoryStore) Health(ctx context.Context) error { return nil }
