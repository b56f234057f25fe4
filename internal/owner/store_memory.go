package owner

import (
	"context"
	"strings"
	"sync"
	"time"

	"heirloom/pkg/domain"
	"heirloom/pkg/platform/sentinel"
)

// MemoryStore keeps the initial implementation lightweight and testable. It
// intentionally favors clarity over performance.
type MemoryStore struct {
	mu     sync.RWMutex
	owners map[domain.OwnerID]Owner
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{owners: make(map[domain.OwnerID]Owner)}
}

func (s *MemoryStore) Save(_ context.Context, o Owner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.owners {
		if id != o.ID && strings.EqualFold(existing.Email, o.Email) {
			return sentinel.ErrConflict
		}
	}
	s.owners[o.ID] = o
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id domain.OwnerID) (Owner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if o, ok := s.owners[id]; ok {
		return o, nil
	}
	return Owner{}, sentinel.ErrNotFound
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (Owner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.owners {
		if strings.EqualFold(o.Email, email) {
			return o, nil
		}
	}
	return Owner{}, sentinel.ErrNotFound
}

func (s *MemoryStore) TriggerContinuity(_ context.Context, id domain.OwnerID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.owners[id]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	if o.ContinuityTriggered {
		return false, nil
	}
	o.ContinuityTriggered = true
	o.TriggeredAt = &at
	s.owners[id] = o
	return true, nil
}
