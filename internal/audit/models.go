package audit

import "time"

// Event is an immutable, append-only audit log record.
//
// Invariants:
// - Events are never updated or deleted.
// - Actor and ip capture are best-effort; do not block critical flows on audit failures.
//
// Storage recommendation (Postgres):
// - Table audit_events with an INSERT-only policy.
// - Optional: trigger to prevent UPDATE/DELETE.

type Event struct {
	ID string `json:"id" db:"id"`

	// Type indicates the business category of the audit record.
	Type EventType `json:"type" db:"type"`

	// ActorUserID is the authenticated user causing the event (if applicable).
	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`
	ActorRole   string `json:"actor_role,omitempty" db:"actor_role"`

	// IPAddress should capture the original client IP when available.
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	// Target identifiers (optional, depending on the event type).
	EntryID       string `json:"entry_id,omitempty" db:"entry_id"`
	PersonID      string `json:"person_id,omitempty" db:"person_id"`
	AccessPointID string `json:"access_point_id,omitempty" db:"access_point_id"`
	EventRefID    string `json:"event_ref_id,omitempty" db:"event_ref_id"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeWhitelistCreate EventType = "whitelist_create"
	EventTypeWhitelistUpdate EventType = "whitelist_update"
	EventTypeWhitelistDelete EventType = "whitelist_delete"
	EventTypeBatchAuthorize  EventType = "batch_authorize"
	EventTypeExtlogSync      EventType = "extlog_sync"
	EventTypeBioStarSync     EventType = "biostar_sync"
)
