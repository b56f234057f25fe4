package nominee

import (
	"context"
	"sort"
	"strings"
	"sync"

	"heirloom/pkg/domain"
	"heirloom/pkg/platform/sentinel"
)

// MemoryStore is an in-memory Store for tests and single-node development.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[domain.NomineeID]Record
	byCode map[domain.ReferenceCode]domain.NomineeID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[domain.NomineeID]Record),
		byCode: make(map[domain.ReferenceCode]domain.NomineeID),
	}
}

func (s *MemoryStore) Create(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byCode[rec.ReferenceCode]; ok {
		return ErrDuplicateCode
	}
	var count int
	for _, existing := range s.byID {
		if existing.OwnerID != rec.OwnerID {
			continue
		}
		count++
		if strings.EqualFold(existing.Email, rec.Email) {
			return ErrDuplicateEmail
		}
	}
	if count >= maxNomineesPerOwner {
		return ErrOwnerLimit
	}

	s.byID[rec.ID] = rec
	s.byCode[rec.ReferenceCode] = rec.ID
	return nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id domain.NomineeID) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return Record{}, sentinel.ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) FindByReferenceCode(ctx context.Context, code domain.ReferenceCode) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byCode[code]
	if !ok {
		return Record{}, sentinel.ErrNotFound
	}
	return s.byID[id], nil
}

func (s *MemoryStore) ListByOwner(ctx context.Context, ownerID domain.OwnerID) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for _, rec := range s.byID {
		if rec.OwnerID == ownerID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Swap(ctx context.Context, expected domain.NomineeStatus, updated Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[updated.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Status != expected {
		return sentinel.ErrStaleStatus
	}
	s.byID[updated.ID] = updated
	return nil
}

func (s *MemoryStore) Health(ctx context.Context) error { return nil }
