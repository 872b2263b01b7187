package extlog

import (
	"strings"
	"time"
)

// Entry is the local mirror of one movement row from the external controller
// database. ExternalID is the idempotency key: each sync cycle inserts or
// overwrites the row carrying it, and nothing in this subsystem deletes rows.
type Entry struct {
	ExternalID       int64      `json:"external_id" db:"external_id"`
	MovementType     string     `json:"movement_type" db:"movement_type"`
	Origin           string     `json:"origin" db:"origin"`
	CardID           string     `json:"card_id" db:"card_id"`
	ClientID         *int64     `json:"client_id,omitempty" db:"client_id"`
	OccurredAt       time.Time  `json:"occurred_at" db:"occurred_at"`
	Result           string     `json:"result" db:"result"`
	ControllerID     *int64     `json:"controller_id,omitempty" db:"controller_id"`
	AccessID         *int64     `json:"access_id,omitempty" db:"access_id"`
	Observation      string     `json:"observation" db:"observation"`
	RecordKind       string     `json:"record_kind" db:"record_kind"`
	ReasonCode       *int64     `json:"reason_code,omitempty" db:"reason_code"`
	PassFlag         string     `json:"pass_flag" db:"pass_flag"`
	PassPermittedAt  *time.Time `json:"pass_permitted_at,omitempty" db:"pass_permitted_at"`
	PassControllerID *int64     `json:"pass_controller_id,omitempty" db:"pass_controller_id"`
	SyncedAt         time.Time  `json:"synced_at" db:"synced_at"`
}

// Record is one raw row as returned by the fetcher. Timestamps are carried as
// RFC 3339 text so the record stays portable regardless of the source's native
// datetime type; ExternalID is nil when the source row lacks an identifier.
type Record struct {
	ExternalID       *int64 `json:"external_id"`
	MovementType     string `json:"movement_type"`
	Origin           string `json:"origin"`
	CardID           string `json:"card_id"`
	ClientID         *int64 `json:"client_id"`
	OccurredAt       string `json:"occurred_at"`
	Result           string `json:"result"`
	ControllerID     *int64 `json:"controller_id"`
	AccessID         *int64 `json:"access_id"`
	Observation      string `json:"observation"`
	RecordKind       string `json:"record_kind"`
	ReasonCode       *int64 `json:"reason_code"`
	PassFlag         string `json:"pass_flag"`
	PassPermittedAt  string `json:"pass_permitted_at"`
	PassControllerID *int64 `json:"pass_controller_id"`
}

// toEntry converts the raw record into the local entity. The caller must have
// checked ExternalID != nil. Unparseable movement timestamps fall back to now
// so the row is never silently dropped for a malformed date alone.
func (r Record) toEntry(now time.Time) Entry {
	occurred := now
	if t, err := time.Parse(time.RFC3339, r.OccurredAt); err == nil {
		occurred = t
	}
	var passAt *time.Time
	if t, err := time.Parse(time.RFC3339, r.PassPermittedAt); err == nil {
		passAt = &t
	}
	return Entry{
		ExternalID:       *r.ExternalID,
		MovementType:     strings.TrimSpace(r.MovementType),
		Origin:           strings.TrimSpace(r.Origin),
		CardID:           strings.TrimSpace(r.CardID),
		ClientID:         r.ClientID,
		OccurredAt:       occurred,
		Result:           strings.TrimSpace(r.Result),
		ControllerID:     r.ControllerID,
		AccessID:         r.AccessID,
		Observation:      strings.TrimSpace(r.Observation),
		RecordKind:       strings.TrimSpace(r.RecordKind),
		ReasonCode:       r.ReasonCode,
		PassFlag:         strings.TrimSpace(r.PassFlag),
		PassPermittedAt:  passAt,
		PassControllerID: r.PassControllerID,
		SyncedAt:         now,
	}
}
