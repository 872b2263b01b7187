package invitations

import (
	"context"
	"errors"
	"time"

	"acs-platform/internal/directory"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("invitation not found")
	ErrAlreadyInvited = errors.New("guest is already invited to this event")
)

// Repository persists guest invitations.
type Repository interface {
	GetByKey(ctx context.Context, personID, eventID string) (directory.GuestInvitation, error)
	Insert(ctx context.Context, inv directory.GuestInvitation) error
	ListByEvent(ctx context.Context, eventID string) ([]directory.GuestInvitation, error)
}

// Service ties guests to events.
//
// Invariants enforced on Invite:
// - the person must exist and be of type guest
// - the event must exist and admit the guest's type
// - one invitation per (person, event)
type Service struct {
	repo Repository
	dir  directory.Repository
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(repo Repository, dir directory.Repository) *Service {
	return &Service{repo: repo, dir: dir, clock: time.Now}
}

// Invite validates and records a guest invitation.
func (s *Service) Invite(ctx context.Context, personID, eventID string) (directory.GuestInvitation, error) {
	person, err := s.dir.GetPerson(ctx, personID)
	if errors.Is(err, directory.ErrNotFound) {
		return directory.GuestInvitation{}, FieldErrors{"person_id": "person not found"}
	}
	if err != nil {
		return directory.GuestInvitation{}, err
	}
	if person.PersonType != directory.PersonTypeGuest {
		return directory.GuestInvitation{}, FieldErrors{"person_id": "only guests can be invited"}
	}

	event, err := s.dir.GetEvent(ctx, eventID)
	if errors.Is(err, directory.ErrNotFound) {
		return directory.GuestInvitation{}, FieldErrors{"event_id": "event not found"}
	}
	if err != nil {
		return directory.GuestInvitation{}, err
	}
	if !event.AllowsPerson(person) {
		return directory.GuestInvitation{}, FieldErrors{"event_id": "guest type is not admitted by the event"}
	}

	if _, err := s.repo.GetByKey(ctx, personID, eventID); err == nil {
		return directory.GuestInvitation{}, ErrAlreadyInvited
	} else if !errors.Is(err, ErrNotFound) {
		return directory.GuestInvitation{}, err
	}

	inv := directory.GuestInvitation{
		ID:        uuid.NewString(),
		PersonID:  personID,
		EventID:   eventID,
		GuestType: person.GuestType,
		CreatedAt: s.clock().UTC(),
	}
	if err := s.repo.Insert(ctx, inv); err != nil {
		return directory.GuestInvitation{}, err
	}
	return inv, nil
}

// ListByEvent returns all invitations for an event.
func (s *Service) ListByEvent(ctx context.Context, eventID string) ([]directory.GuestInvitation, error) {
	return s.repo.ListByEvent(ctx, eventID)
}

// FieldErrors mirrors the whitelist validation shape so handlers can surface
// invitation problems the same way.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	for k, v := range fe {
		return "validation failed: " + k + ": " + v
	}
	return "validation failed"
}
