package whitelist

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"acs-platform/internal/directory"

	"github.com/google/uuid"
)

// BatchRequest selects a person x access-point cross product and the grant
// to apply to every pair. Exactly one of AccessPointIDs and SiteID must be
// set.
type BatchRequest struct {
	AccessPointIDs []string               `json:"access_point_ids,omitempty"`
	SiteID         string                 `json:"site_id,omitempty"`
	EventID        string                 `json:"event_id,omitempty"`
	PersonTypes    []directory.PersonType `json:"person_types,omitempty"`
	GuestTypes     []directory.GuestType  `json:"guest_types,omitempty"`
	ActiveOnly     *bool                  `json:"active_only,omitempty"`
	IsAllowed      *bool                  `json:"is_allowed,omitempty"`
	ValidFrom      *time.Time             `json:"valid_from,omitempty"`
	ValidUntil     *time.Time             `json:"valid_until,omitempty"`
	Preview        bool                   `json:"preview,omitempty"`
}

// PersonSummary is the preview projection of a resolved person.
type PersonSummary struct {
	ID         string               `json:"id"`
	FirstName  string               `json:"first_name"`
	LastName   string               `json:"last_name"`
	DNI        string               `json:"dni"`
	PersonType directory.PersonType `json:"person_type"`
	GuestType  directory.GuestType  `json:"guest_type,omitempty"`
}

// BatchResult reports either the preview people or the write counts.
type BatchResult struct {
	Preview        bool            `json:"preview"`
	People         []PersonSummary `json:"people,omitempty"`
	Created        int             `json:"created"`
	Updated        int             `json:"updated"`
	CreatedEntries []Entry         `json:"created_entries,omitempty"`
	UpdatedEntries []Entry         `json:"updated_entries,omitempty"`
}

func (r BatchRequest) validateSelectors() FieldErrors {
	errs := FieldErrors{}
	hasIDs := len(r.AccessPointIDs) > 0
	hasSite := r.SiteID != ""
	if hasIDs == hasSite {
		errs["access_point_ids"] = "provide either access_point_ids or site_id, not both"
	}
	if len(r.GuestTypes) > 0 {
		guestIncluded := false
		for _, t := range r.PersonTypes {
			if t == directory.PersonTypeGuest {
				guestIncluded = true
				break
			}
		}
		if !guestIncluded {
			errs["guest_types"] = "guest_types requires person_types to include guest"
		}
	}
	for _, t := range r.PersonTypes {
		if !t.Valid() {
			errs["person_types"] = fmt.Sprintf("unknown person type %q", t)
		}
	}
	for _, t := range r.GuestTypes {
		if !t.Valid() {
			errs["guest_types"] = fmt.Sprintf("unknown guest type %q", t)
		}
	}
	if r.ValidFrom != nil && r.ValidUntil != nil && r.ValidFrom.After(*r.ValidUntil) {
		errs["valid_until"] = "end date cannot precede the start date"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// BatchAuthorize resolves the selection and either previews the people or
// upserts one entry per (person, access_point) pair. Writes are
// all-or-nothing: the first validation failure aborts the whole batch.
func (s *Service) BatchAuthorize(ctx context.Context, req BatchRequest) (BatchResult, error) {
	if errs := req.validateSelectors(); errs != nil {
		return BatchResult{}, errs
	}

	var (
		event    directory.Event
		hasEvent bool
		err      error
	)
	if req.EventID != "" {
		event, err = s.dir.GetEvent(ctx, req.EventID)
		if errors.Is(err, directory.ErrNotFound) {
			return BatchResult{}, FieldErrors{"event_id": "event not found"}
		}
		if err != nil {
			return BatchResult{}, err
		}
		hasEvent = true
	}

	accessPoints, err := s.resolveAccessPoints(ctx, req, event, hasEvent)
	if err != nil {
		return BatchResult{}, err
	}
	if len(accessPoints) == 0 {
		return BatchResult{}, FieldErrors{"access_point_ids": "no matching access points"}
	}

	people, err := s.resolvePersons(ctx, req, event, hasEvent)
	if err != nil {
		return BatchResult{}, err
	}

	if req.Preview {
		summaries := make([]PersonSummary, 0, len(people))
		for _, p := range people {
			summaries = append(summaries, PersonSummary{
				ID:         p.ID,
				FirstName:  p.FirstName,
				LastName:   p.LastName,
				DNI:        p.DNI,
				PersonType: p.PersonType,
				GuestType:  p.GuestType,
			})
		}
		return BatchResult{Preview: true, People: summaries}, nil
	}

	return s.applyBatch(ctx, req, accessPoints, people)
}

func (s *Service) resolveAccessPoints(ctx context.Context, req BatchRequest, event directory.Event, hasEvent bool) ([]directory.AccessPoint, error) {
	var (
		aps []directory.AccessPoint
		err error
	)
	if len(req.AccessPointIDs) > 0 {
		aps, err = s.dir.ListAccessPointsByIDs(ctx, req.AccessPointIDs)
	} else {
		aps, err = s.dir.ListAccessPointsBySite(ctx, req.SiteID)
	}
	if err != nil {
		return nil, err
	}
	if !hasEvent {
		return aps, nil
	}
	filtered := aps[:0]
	for _, ap := range aps {
		if ap.SiteID == event.SiteID {
			filtered = append(filtered, ap)
		}
	}
	return filtered, nil
}

func (s *Service) resolvePersons(ctx context.Context, req BatchRequest, event directory.Event, hasEvent bool) ([]directory.Person, error) {
	people, err := s.dir.ListPersons(ctx, directory.PersonFilter{
		PersonTypes: req.PersonTypes,
		GuestTypes:  req.GuestTypes,
		ActiveOnly:  req.ActiveOnly,
	})
	if err != nil {
		return nil, err
	}
	if !hasEvent {
		return people, nil
	}
	// OR-combination of the event's category predicates: keep a person when
	// either the guest-type or the person-type allow-list admits them.
	filtered := people[:0]
	for _, p := range people {
		if event.AllowsPerson(p) {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func (s *Service) applyBatch(ctx context.Context, req BatchRequest, accessPoints []directory.AccessPoint, people []directory.Person) (BatchResult, error) {
	isAllowed := true
	if req.IsAllowed != nil {
		isAllowed = *req.IsAllowed
	}
	now := s.clock().UTC()

	// Lock every touched pair up front, in a stable order to avoid
	// deadlocking against a concurrent batch.
	type pair struct{ personID, accessPointID string }
	pairs := make([]pair, 0, len(people)*len(accessPoints))
	for _, p := range people {
		for _, ap := range accessPoints {
			pairs = append(pairs, pair{p.ID, ap.ID})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].personID != pairs[j].personID {
			return pairs[i].personID < pairs[j].personID
		}
		return pairs[i].accessPointID < pairs[j].accessPointID
	})
	unlocks := make([]func(), 0, len(pairs))
	defer func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}()
	for _, pr := range pairs {
		unlock, err := s.locker.LockPair(ctx, pr.personID, pr.accessPointID)
		if err != nil {
			return BatchResult{}, fmt.Errorf("acquire pair lock: %w", err)
		}
		unlocks = append(unlocks, unlock)
	}

	out := BatchResult{}
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Store) error {
		for _, p := range people {
			for _, ap := range accessPoints {
				existing, err := tx.GetByKey(ctx, p.ID, ap.ID, req.EventID)
				switch {
				case err == nil:
					existing.IsAllowed = isAllowed
					existing.ValidFrom = req.ValidFrom
					existing.ValidUntil = req.ValidUntil
					existing.UpdatedAt = now
					if err := s.validate(ctx, tx, existing); err != nil {
						return err
					}
					if err := tx.Update(ctx, existing); err != nil {
						return err
					}
					out.Updated++
					out.UpdatedEntries = append(out.UpdatedEntries, existing)
				case errors.Is(err, ErrNotFound):
					entry := Entry{
						ID:            uuid.NewString(),
						PersonID:      p.ID,
						AccessPointID: ap.ID,
						EventID:       req.EventID,
						IsAllowed:     isAllowed,
						ValidFrom:     req.ValidFrom,
						ValidUntil:    req.ValidUntil,
						Recurrence:    RecurrenceNone,
						CreatedAt:     now,
						UpdatedAt:     now,
					}
					if err := s.validate(ctx, tx, entry); err != nil {
						return err
					}
					if err := tx.Insert(ctx, entry); err != nil {
						return err
					}
					out.Created++
					out.CreatedEntries = append(out.CreatedEntries, entry)
				default:
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return BatchResult{}, err
	}
	return out, nil
}
