package whitelist

import (
	"fmt"
	"sort"
	"strings"

	"acs-platform/internal/directory"
)

// NonFieldKey carries errors that do not belong to a single field, such as
// the contradiction error from overlap detection.
const NonFieldKey = "non_field"

// FieldErrors maps field names to a human-readable problem. It implements
// error so services can return it through normal error paths; handlers
// surface it as a 422 body.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, fe[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// validateShape checks the entry's own fields (invariants 1-3).
func validateShape(e Entry) FieldErrors {
	errs := FieldErrors{}

	if e.PersonID == "" {
		errs["person_id"] = "person is required"
	}
	if e.AccessPointID == "" {
		errs["access_point_id"] = "access point is required"
	}

	if e.ValidFrom != nil && e.ValidUntil != nil && e.ValidFrom.After(*e.ValidUntil) {
		errs["valid_until"] = "end date cannot precede the start date"
	}

	if (e.StartTime == nil) != (e.EndTime == nil) {
		errs["start_time"] = "a complete time window (start and end) is required"
	}
	if e.StartTime != nil && e.EndTime != nil && *e.StartTime >= *e.EndTime {
		errs["end_time"] = "end time must be after the start time"
	}

	if !e.Recurrence.Valid() {
		errs["recurrence"] = "recurrence must be one of none, daily, weekly"
	}
	if e.Recurrence == RecurrenceWeekly {
		if len(e.RecurrenceDays) == 0 {
			errs["recurrence_days"] = "weekly recurrence requires at least one weekday"
		} else {
			for _, d := range e.RecurrenceDays {
				if d < 0 || d > 6 {
					errs["recurrence_days"] = "weekdays must be integers between 0 and 6"
					break
				}
			}
		}
	} else if len(e.RecurrenceDays) > 0 {
		errs["recurrence_days"] = "weekdays are only allowed with weekly recurrence"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// validateEventScope checks invariant 4: the event must belong to the access
// point's site and the person's category must be admitted by the event.
func validateEventScope(person directory.Person, accessPoint directory.AccessPoint, event directory.Event) FieldErrors {
	if event.SiteID != accessPoint.SiteID {
		return FieldErrors{"event_id": "event must belong to the access point's site"}
	}
	if !event.AllowsPerson(person) {
		if person.PersonType == directory.PersonTypeGuest {
			return FieldErrors{"event_id": "guest type is not admitted by the event"}
		}
		return FieldErrors{"event_id": "person category is not admitted by the event"}
	}
	return nil
}

// ValidateAndPrepare runs the full pipeline against the candidate: shape
// checks, event-scope check when scoped, then overlap detection against the
// pair's existing entries (the candidate's own id is skipped on update).
// event is ignored when the candidate carries no EventID.
//
// The result is nil when the candidate may be persisted. The caller is
// responsible for running this inside the same transaction as the write.
func ValidateAndPrepare(candidate Entry, person directory.Person, accessPoint directory.AccessPoint, event directory.Event, existing []Entry) FieldErrors {
	if errs := validateShape(candidate); errs != nil {
		return errs
	}
	if candidate.EventID != "" {
		if errs := validateEventScope(person, accessPoint, event); errs != nil {
			return errs
		}
	}
	if conflicts := FindConflicts(candidate, existing); len(conflicts) > 0 {
		return FieldErrors{NonFieldKey: "a contradictory authorization exists for the same date/time range"}
	}
	return nil
}
