package directory

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("directory: not found")

// PersonFilter narrows person lookups for the batch authorization builder.
// Empty slices mean "no filtering on that axis".
type PersonFilter struct {
	PersonTypes []PersonType
	GuestTypes  []GuestType
	ActiveOnly  *bool
}

func (f PersonFilter) matches(p Person) bool {
	if f.ActiveOnly != nil && p.IsActive != *f.ActiveOnly {
		return false
	}
	if len(f.PersonTypes) > 0 {
		found := false
		for _, t := range f.PersonTypes {
			if p.PersonType == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.GuestTypes) > 0 && p.PersonType == PersonTypeGuest {
		found := false
		for _, t := range f.GuestTypes {
			if p.GuestType == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Repository is the read surface the whitelist engine needs from the
// directory. Writes to directory entities go through generic CRUD elsewhere
// and carry no special invariants.
type Repository interface {
	GetPerson(ctx context.Context, id string) (Person, error)
	GetAccessPoint(ctx context.Context, id string) (AccessPoint, error)
	GetEvent(ctx context.Context, id string) (Event, error)

	ListAccessPointsByIDs(ctx context.Context, ids []string) ([]AccessPoint, error)
	ListAccessPointsBySite(ctx context.Context, siteID string) ([]AccessPoint, error)
	ListPersons(ctx context.Context, f PersonFilter) ([]Person, error)
}
