package dictionary

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MemoryStore is the in-process dictionary driver. A single mutex serializes
// mutations, which keeps them linearizable; reads take the same lock briefly
// to copy. The encoder snapshot is cached and rebuilt lazily after any
// mutation.
type MemoryStore struct {
	mu       sync.Mutex
	entities map[string]Entity
	snapshot *Index // nil after a mutation
	logger   *zap.Logger
}

// NewMemoryStore creates an empty in-memory dictionary.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{
		entities: make(map[string]Entity),
		logger:   logger,
	}
}

// List returns all entities ordered by creation time.
func (s *MemoryStore) List(ctx context.Context) ([]Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked(), nil
}

// Add creates a new entity, rejecting exact-name duplicates.
func (s *MemoryStore) Add(ctx context.Context, name, placeholder, category string) (Entity, error) {
	if err := validateFields(name, placeholder); err != nil {
		return Entity{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entities {
		if e.Name == name {
			return Entity{}, &DuplicateNameError{Name: name}
		}
	}

	now := time.Now().UTC()
	e := Entity{
		ID:          uuid.NewString(),
		Name:        name,
		Placeholder: placeholder,
		Category:    category,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.entities[e.ID] = e
	s.snapshot = nil

	s.logger.Debug("Dictionary entity added",
		zap.String("id", e.ID),
		zap.String("placeholder", e.Placeholder))

	return e, nil
}

// Update applies partial changes to an existing entity.
func (s *MemoryStore) Update(ctx context.Context, id string, upd Update) (Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entities[id]
	if !ok {
		return Entity{}, &NotFoundError{ID: id}
	}

	name := e.Name
	if upd.Name != nil {
		name = *upd.Name
	}
	placeholder := e.Placeholder
	if upd.Placeholder != nil {
		placeholder = *upd.Placeholder
	}
	if err := validateFields(name, placeholder); err != nil {
		return Entity{}, err
	}
	if name != e.Name {
		for _, other := range s.entities {
			if other.ID != id && other.Name == name {
				return Entity{}, &DuplicateNameError{Name: name}
			}
		}
	}

	e.Name = name
	e.Placeholder = placeholder
	if upd.Category != nil {
		e.Category = *upd.Category
	}
	e.UpdatedAt = time.Now().UTC()

	s.entities[id] = e
	s.snapshot = nil

	s.logger.Debug("Dictionary entity updated", zap.String("id", id))
	return e, nil
}

// Delete removes an entity; a repeat delete surfaces NotFoundError.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entities[id]; !ok {
		return &NotFoundError{ID: id}
	}
	delete(s.entities, id)
	s.snapshot = nil

	s.logger.Debug("Dictionary entity deleted", zap.String("id", id))
	return nil
}

// Snapshot returns the cached name index, rebuilding it after mutations.
func (s *MemoryStore) Snapshot(ctx context.Context) (*Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot == nil {
		s.snapshot = NewIndex(s.sortedLocked())
	}
	return s.snapshot, nil
}

// Close implements Store; the memory driver holds no resources.
func (s *MemoryStore) Close() error { return nil }

// sortedLocked returns entities ordered by creation time, then id for
// stability. Callers must hold the mutex.
func (s *MemoryStore) sortedLocked() []Entity {
	out := make([]Entity, 0, len(s.entities))
	for _, e := range s.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
