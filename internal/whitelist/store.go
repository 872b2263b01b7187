package whitelist

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("whitelist: entry not found")
)

// Filter narrows entry listings.
type Filter struct {
	PersonID      string
	AccessPointID string
	EventID       string
}

// Store is the persistence contract for whitelist entries.
//
// WithinTx runs fn against a transactional view of the store; every write of
// the validation pipeline (read existing pair entries + insert/update) must
// happen inside one transaction so a failed validation never leaves partial
// state. Batch authorization reuses the same mechanism for its
// all-or-nothing guarantee.
type Store interface {
	GetByID(ctx context.Context, id string) (Entry, error)
	// GetByKey resolves the uniqueness triple; eventID may be empty.
	GetByKey(ctx context.Context, personID, accessPointID, eventID string) (Entry, error)
	// ListForPair returns every entry for (person, access_point) across all
	// events; overlap detection runs against this set.
	ListForPair(ctx context.Context, personID, accessPointID string) ([]Entry, error)
	List(ctx context.Context, f Filter) ([]Entry, error)

	Insert(ctx context.Context, e Entry) error
	Update(ctx context.Context, e Entry) error
	Delete(ctx context.Context, id string) error

	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
