package whitelist

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store for tests and early development.
// WithinTx rolls back by restoring a snapshot when fn fails, matching the
// transactional contract of the postgres store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]Entry{}}
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (s *MemoryStore) GetByKey(ctx context.Context, personID, accessPointID, eventID string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.PersonID == personID && e.AccessPointID == accessPointID && e.EventID == eventID {
			return e, nil
		}
	}
	return Entry{}, ErrNotFound
}

func (s *MemoryStore) ListForPair(ctx context.Context, personID, accessPointID string) ([]Entry, error) {
	return s.List(ctx, Filter{PersonID: personID, AccessPointID: accessPointID})
}

func (s *MemoryStore) List(ctx context.Context, f Filter) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0)
	for _, e := range s.entries {
		if f.PersonID != "" && e.PersonID != f.PersonID {
			continue
		}
		if f.AccessPointID != "" && e.AccessPointID != f.AccessPointID {
			continue
		}
		if f.EventID != "" && e.EventID != f.EventID {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Insert(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.ID] = e
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[e.ID]; !ok {
		return ErrNotFound
	}
	s.entries[e.ID] = e
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	s.mu.Lock()
	snapshot := make(map[string]Entry, len(s.entries))
	for k, v := range s.entries {
		snapshot[k] = v
	}
	s.mu.Unlock()

	err := fn(ctx, s)

	if err != nil {
		s.mu.Lock()
		s.entries = snapshot
		s.mu.Unlock()
	}
	return err
}
