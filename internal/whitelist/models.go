package whitelist

import (
	"encoding/json"
	"fmt"
	"time"
)

// Recurrence describes how an entry repeats over its date range.
type Recurrence string

const (
	RecurrenceNone   Recurrence = "none"
	RecurrenceDaily  Recurrence = "daily"
	RecurrenceWeekly Recurrence = "weekly"
)

func (r Recurrence) Valid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly:
		return true
	default:
		return false
	}
}

// TimeOfDay is minutes since midnight. It serializes as "HH:MM".
type TimeOfDay int

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("time of day must be HH:MM, got %q", s)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Entry is an access grant or explicit denial for a person at an access
// point, optionally scoped to an event and bounded in dates, time of day and
// weekly recurrence.
//
// Invariants (enforced by the validation pipeline, not storage constraints):
// - valid_from <= valid_until when both are set
// - start_time/end_time are both set or both absent; start_time < end_time
// - weekly recurrence requires weekdays 0-6; other recurrences forbid them
// - event-scoped entries must match the access point's site and the event's
//   allowed categories
// - no contradictory entry (different is_allowed) may overlap in time for
//   the same (person, access_point)
//
// Uniqueness: one entry per (person, access_point, event); entries without
// an event are keyed separately from event-scoped ones.
type Entry struct {
	ID            string `json:"id" db:"id"`
	PersonID      string `json:"person_id" db:"person_id"`
	AccessPointID string `json:"access_point_id" db:"access_point_id"`

	// EventID is empty for standing authorizations.
	EventID string `json:"event_id,omitempty" db:"event_id"`

	// IsAllowed false is an explicit deny, which beats nothing: it exists to
	// contradict would-be grants and must never silently coexist with one.
	IsAllowed bool `json:"is_allowed" db:"is_allowed"`

	// Calendar bounds, inclusive. Nil means unbounded on that side.
	// Stored at UTC midnight.
	ValidFrom  *time.Time `json:"valid_from,omitempty" db:"valid_from"`
	ValidUntil *time.Time `json:"valid_until,omitempty" db:"valid_until"`

	// Daily window. Both set or both nil.
	StartTime *TimeOfDay `json:"start_time,omitempty" db:"start_time"`
	EndTime   *TimeOfDay `json:"end_time,omitempty" db:"end_time"`

	Recurrence Recurrence `json:"recurrence" db:"recurrence"`

	// RecurrenceDays holds weekdays 0=Monday .. 6=Sunday; only for weekly.
	RecurrenceDays []int `json:"recurrence_days,omitempty" db:"recurrence_days"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasTimeWindow reports whether the entry restricts time of day.
func (e Entry) HasTimeWindow() bool {
	return e.StartTime != nil && e.EndTime != nil
}

// Date normalizes t to a UTC calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD, got %q", s)
	}
	return d, nil
}
