package invitations

import (
	"context"
	"sort"
	"sync"

	"acs-platform/internal/directory"
)

// MemoryRepo is an in-memory Repository used in tests and local runs.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]directory.GuestInvitation
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]directory.GuestInvitation)}
}

func (r *MemoryRepo) GetByKey(ctx context.Context, personID, eventID string) (directory.GuestInvitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, inv := range r.byID {
		if inv.PersonID == personID && inv.EventID == eventID {
			return inv, nil
		}
	}
	return directory.GuestInvitation{}, ErrNotFound
}

func (r *MemoryRepo) Insert(ctx context.Context, inv directory.GuestInvitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[inv.ID] = inv
	return nil
}

func (r *MemoryRepo) ListByEvent(ctx context.Context, eventID string) ([]directory.GuestInvitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]directory.GuestInvitation, 0)
	for _, inv := range r.byID {
		if inv.EventID == eventID {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
