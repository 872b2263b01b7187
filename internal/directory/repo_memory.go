package directory

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory directory for tests and early development.
type MemoryRepo struct {
	mu sync.Mutex

	Persons      map[string]Person
	Sites        map[string]Site
	AccessPoints map[string]AccessPoint
	Events       map[string]Event
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		Persons:      map[string]Person{},
		Sites:        map[string]Site{},
		AccessPoints: map[string]AccessPoint{},
		Events:       map[string]Event{},
	}
}

func (r *MemoryRepo) GetPerson(ctx context.Context, id string) (Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.Persons[id]
	if !ok {
		return Person{}, ErrNotFound
	}
	return p, nil
}

func (r *MemoryRepo) GetAccessPoint(ctx context.Context, id string) (AccessPoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ap, ok := r.AccessPoints[id]
	if !ok {
		return AccessPoint{}, ErrNotFound
	}
	return ap, nil
}

func (r *MemoryRepo) GetEvent(ctx context.Context, id string) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.Events[id]
	if !ok {
		return Event{}, ErrNotFound
	}
	return e, nil
}

func (r *MemoryRepo) ListAccessPointsByIDs(ctx context.Context, ids []string) ([]AccessPoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]AccessPoint, 0, len(ids))
	for _, id := range ids {
		if ap, ok := r.AccessPoints[id]; ok {
			out = append(out, ap)
		}
	}
	return out, nil
}

func (r *MemoryRepo) ListAccessPointsBySite(ctx context.Context, siteID string) ([]AccessPoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]AccessPoint, 0)
	for _, ap := range r.AccessPoints {
		if ap.SiteID == siteID {
			out = append(out, ap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepo) ListPersons(ctx context.Context, f PersonFilter) ([]Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Person, 0)
	for _, p := range r.Persons {
		if f.matches(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].FirstName < out[j].FirstName
	})
	return out, nil
}
