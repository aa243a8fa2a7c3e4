package store

import (
	"sort"
	"sync"
	"time"

	"github.com/carsch18/AI-OPS/internal/models"
	"github.com/google/uuid"
)

// MemoryStore is the volatile ActionStore backend used while the durable
// store is unreachable. Contents are lost on process restart.
type MemoryStore struct {
	mu      sync.RWMutex
	actions map[uuid.UUID]models.Action
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{actions: make(map[uuid.UUID]models.Action)}
}

func (s *MemoryStore) Create(a *models.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions[a.ID] = *a
	return nil
}

func (s *MemoryStore) Get(id uuid.UUID) (*models.Action, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.actions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (s *MemoryStore) ListByStatus(status models.ActionStatus) ([]models.Action, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Action
	for _, a := range s.actions {
		if a.Status == status {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Resolve(id uuid.UUID, to models.ActionStatus, resolvedBy, resolution string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actions[id]
	if !ok {
		return ErrNotFound
	}
	if a.Status != models.StatusPending {
		return ErrConflict
	}
	a.Status = to
	a.ResolvedAt = &at
	a.ResolvedBy = resolvedBy
	a.Resolution = resolution
	s.actions[id] = a
	return nil
}

func (s *MemoryStore) Finalize(id uuid.UUID, to models.ActionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actions[id]
	if !ok {
		return ErrNotFound
	}
	if a.Status != models.StatusExecuting {
		if a.Status == to {
			return nil
		}
		return ErrConflict
	}
	a.Status = to
	s.actions[id] = a
	return nil
}
