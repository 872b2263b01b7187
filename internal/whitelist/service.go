package whitelist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"acs-platform/internal/directory"

	"github.com/google/uuid"
)

// Service owns whitelist entry writes. Every create/update runs the full
// validation pipeline inside one store transaction while holding the
// per-(person, access_point) advisory lock.
type Service struct {
	store  Store
	dir    directory.Repository
	locker PairLocker
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(store Store, dir directory.Repository, locker PairLocker) *Service {
	if locker == nil {
		locker = NopPairLocker{}
	}
	return &Service{store: store, dir: dir, locker: locker, clock: time.Now}
}

// WriteRequest carries the caller-settable fields of an entry.
type WriteRequest struct {
	PersonID       string      `json:"person_id"`
	AccessPointID  string      `json:"access_point_id"`
	EventID        string      `json:"event_id,omitempty"`
	IsAllowed      *bool       `json:"is_allowed,omitempty"`
	ValidFrom      *time.Time  `json:"valid_from,omitempty"`
	ValidUntil     *time.Time  `json:"valid_until,omitempty"`
	StartTime      *TimeOfDay  `json:"start_time,omitempty"`
	EndTime        *TimeOfDay  `json:"end_time,omitempty"`
	Recurrence     *Recurrence `json:"recurrence,omitempty"`
	RecurrenceDays []int       `json:"recurrence_days,omitempty"`
}

func (r WriteRequest) toEntry() Entry {
	e := Entry{
		PersonID:       r.PersonID,
		AccessPointID:  r.AccessPointID,
		EventID:        r.EventID,
		IsAllowed:      true,
		ValidFrom:      r.ValidFrom,
		ValidUntil:     r.ValidUntil,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		Recurrence:     RecurrenceNone,
		RecurrenceDays: r.RecurrenceDays,
	}
	if r.IsAllowed != nil {
		e.IsAllowed = *r.IsAllowed
	}
	if r.Recurrence != nil {
		e.Recurrence = *r.Recurrence
	}
	return e
}

// Create validates and persists a new entry.
func (s *Service) Create(ctx context.Context, req WriteRequest) (Entry, error) {
	candidate := req.toEntry()
	now := s.clock().UTC()
	candidate.ID = uuid.NewString()
	candidate.CreatedAt = now
	candidate.UpdatedAt = now

	return s.writeLocked(ctx, candidate, false)
}

// Update re-validates an existing entry with the new fields, excluding
// itself from overlap detection.
func (s *Service) Update(ctx context.Context, id string, req WriteRequest) (Entry, error) {
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Entry{}, err
	}

	candidate := req.toEntry()
	candidate.ID = current.ID
	candidate.CreatedAt = current.CreatedAt
	candidate.UpdatedAt = s.clock().UTC()

	return s.writeLocked(ctx, candidate, true)
}

func (s *Service) writeLocked(ctx context.Context, candidate Entry, isUpdate bool) (Entry, error) {
	// Shape problems (including missing pair keys) fail before any locking.
	if errs := validateShape(candidate); errs != nil {
		return Entry{}, errs
	}

	unlock, err := s.locker.LockPair(ctx, candidate.PersonID, candidate.AccessPointID)
	if err != nil {
		return Entry{}, fmt.Errorf("acquire pair lock: %w", err)
	}
	defer unlock()

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx Store) error {
		if err := s.validate(ctx, tx, candidate); err != nil {
			return err
		}
		// Uniqueness on (person, access_point, event); NULL event is its own
		// key, not a wildcard. Updates re-check too, since changing the event
		// or pair keys can collide with another entry's triple; the candidate
		// may keep its own.
		if existing, err := tx.GetByKey(ctx, candidate.PersonID, candidate.AccessPointID, candidate.EventID); err == nil {
			if existing.ID != candidate.ID {
				return FieldErrors{NonFieldKey: "an authorization already exists for this person, access point and event"}
			}
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		if isUpdate {
			return tx.Update(ctx, candidate)
		}
		return tx.Insert(ctx, candidate)
	})
	if err != nil {
		return Entry{}, err
	}
	return candidate, nil
}

// validate resolves related entities and runs the pipeline against the
// transaction's view of existing entries.
func (s *Service) validate(ctx context.Context, tx Store, candidate Entry) error {
	if errs := validateShape(candidate); errs != nil {
		return errs
	}

	person, err := s.dir.GetPerson(ctx, candidate.PersonID)
	if errors.Is(err, directory.ErrNotFound) {
		return FieldErrors{"person_id": "person not found"}
	}
	if err != nil {
		return err
	}
	accessPoint, err := s.dir.GetAccessPoint(ctx, candidate.AccessPointID)
	if errors.Is(err, directory.ErrNotFound) {
		return FieldErrors{"access_point_id": "access point not found"}
	}
	if err != nil {
		return err
	}

	var event directory.Event
	if candidate.EventID != "" {
		event, err = s.dir.GetEvent(ctx, candidate.EventID)
		if errors.Is(err, directory.ErrNotFound) {
			return FieldErrors{"event_id": "event not found"}
		}
		if err != nil {
			return err
		}
	}

	existing, err := tx.ListForPair(ctx, candidate.PersonID, candidate.AccessPointID)
	if err != nil {
		return err
	}

	if errs := ValidateAndPrepare(candidate, person, accessPoint, event, existing); errs != nil {
		return errs
	}
	return nil
}

// Get returns a single entry.
func (s *Service) Get(ctx context.Context, id string) (Entry, error) {
	return s.store.GetByID(ctx, id)
}

// List returns entries matching the filter.
func (s *Service) List(ctx context.Context, f Filter) ([]Entry, error) {
	return s.store.List(ctx, f)
}

// Delete removes the grant immediately; there is no soft delete.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
