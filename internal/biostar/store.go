package biostar

import (
	"context"
	"sort"
	"sync"
)

// Store persists the local mirror of vendor devices and users.
type Store interface {
	// UpsertDevice writes the device keyed by DeviceID and reports whether
	// the row was created.
	UpsertDevice(ctx context.Context, d Device) (bool, error)
	UpsertUser(ctx context.Context, u User) (bool, error)
	ListDevices(ctx context.Context) ([]Device, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// MemoryStore is an in-memory Store for tests and early development.
type MemoryStore struct {
	mu      sync.Mutex
	devices map[int64]Device
	users   map[int64]User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{devices: map[int64]Device{}, users: map[int64]User{}}
}

func (s *MemoryStore) UpsertDevice(ctx context.Context, d Device) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.devices[d.DeviceID]
	s.devices[d.DeviceID] = d
	return !exists, nil
}

func (s *MemoryStore) UpsertUser(ctx context.Context, u User) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.users[u.UserID]
	s.users[u.UserID] = u
	return !exists, nil
}

func (s *MemoryStore) ListDevices(ctx context.Context) ([]Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Device, 0, len(s.devices))
	for _, d := range s.devices {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeviceID < out[j].DeviceID })
	return out, nil
}

func (s *MemoryStore) ListUsers(ctx context.Context) ([]User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}
