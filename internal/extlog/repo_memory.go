package extlog

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store for tests and early development.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[int64]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[int64]Entry{}}
}

func (s *MemoryStore) UpsertBatch(ctx context.Context, entries []Entry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.entries[e.ExternalID] = e
	}
	return len(entries), nil
}

func (s *MemoryStore) List(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.After(out[j].OccurredAt)
		}
		return out[i].ExternalID > out[j].ExternalID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
