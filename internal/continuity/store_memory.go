package continuity

import (
	"context"
	"sync"
	"time"

	"heirloom/pkg/domain"
)

// MemoryHeartbeatStore is an in-memory HeartbeatStore for tests and
// single-node development.
type MemoryHeartbeatStore struct {
	mu    sync.RWMutex
	beats map[domain.OwnerID]time.Time
}

func NewMemoryHeartbeatStore() *MemoryHeartbeatStore {
	return &MemoryHeartbeatStore{beats: make(map[domain.OwnerID]time.Time)}
}

func (s *MemoryHeartbeatStore) Beat(ctx context.Context, ownerID domain.OwnerID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beats[ownerID] = at
	return nil
}

func (s *MemoryHeartbeatStore) LastBeat(ctx context.Context, ownerID domain.OwnerID) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	at, ok := s.beats[ownerID]
	return at, ok, nil
}

func (s *MemoryHeartbeatStore) Expired(ctx context.Context, cutoff time.Time) ([]domain.OwnerID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.OwnerID
	for id, at := range s.beats {
		if at.Before(cutoff) {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *MemoryHeartbeatStore) Forget(ctx context.Context, ownerID domain.OwnerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.beats, ownerID)
	return nil
}
