package audit

import (
	"context"
	"sync"

	"heirloom/pkg/domain"
)

// MemoryStore keeps entries in insertion order.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Insert(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

func (s *MemoryStore) ListByNominee(ctx context.Context, nomineeID domain.NomineeID, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(limit, func(e Entry) bool { return e.NomineeID == nomineeID }), nil
}

func (s *MemoryStore) ListByOwner(ctx context.Context, ownerID domain.OwnerID, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(limit, func(e Entry) bool { return e.OwnerID == ownerID }), nil
}

// filter returns matching entries newest first.
func (s *MemoryStore) filter(limit int, match func(Entry) bool) []Entry {
	var out []Entry
	for i := len(s.entries) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if match(s.entries[i]) {
			out = append(out, s.entries[i])
		}
	}
	return out
}

func (s *MemoryStore) Health(ctx context.Context) error { return nil }
