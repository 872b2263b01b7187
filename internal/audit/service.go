package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
// No Update/Delete methods are provided.

type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service logs internal audit information.
//
// IMPORTANT:
// - Audit is internal-only. Do not expose these records to API consumers by default.
// - Callers should treat audit logging as best-effort.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// LogWhitelistWrite records a create, update or delete of a whitelist entry.
func (s *Service) LogWhitelistWrite(ctx context.Context, t EventType, actorUserID, actorRole, ip, entryID, personID, accessPointID string) error {
	return s.Append(ctx, Event{
		Type:          t,
		ActorUserID:   actorUserID,
		ActorRole:     actorRole,
		IPAddress:     ip,
		EntryID:       entryID,
		PersonID:      personID,
		AccessPointID: accessPointID,
	})
}

// LogBatch records one batch authorization run.
func (s *Service) LogBatch(ctx context.Context, actorUserID, actorRole, ip, eventRefID, metadata string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeBatchAuthorize,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		IPAddress:   ip,
		EventRefID:  eventRefID,
		Message:     "batch authorization applied",
		Metadata:    metadata,
	})
}

// LogSync records a manually triggered synchronization.
func (s *Service) LogSync(ctx context.Context, t EventType, actorUserID, actorRole, ip, metadata string) error {
	return s.Append(ctx, Event{
		Type:        t,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		IPAddress:   ip,
		Message:     "manual sync triggered",
		Metadata:    metadata,
	})
}
