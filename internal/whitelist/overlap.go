package whitelist

import "time"

// Conflict detection for contradictory entries.
//
// Two entries contradict when they target the same (person, access_point),
// differ in is_allowed, and their effective times overlap on all three axes:
// calendar dates, time of day and weekday. Entries with the same is_allowed
// are never compared; duplicate grants are tolerated.

// datesOverlap reports whether two inclusive date ranges intersect.
// A nil bound is open on that side, so an entry with no bounds overlaps
// everything on the date axis.
func datesOverlap(aFrom, aUntil, bFrom, bUntil *time.Time) bool {
	if aFrom != nil && bUntil != nil && aFrom.After(*bUntil) {
		return false
	}
	if bFrom != nil && aUntil != nil && bFrom.After(*aUntil) {
		return false
	}
	return true
}

// timesOverlap reports whether two daily windows intersect. A missing window
// applies all day and overlaps anything. Windows compare half-open:
// [09:00, 12:00) and [12:00, 15:00) do not conflict.
func timesOverlap(a, b Entry) bool {
	if !a.HasTimeWindow() || !b.HasTimeWindow() {
		return true
	}
	return *a.StartTime < *b.EndTime && *b.StartTime < *a.EndTime
}

// weekdaysOverlap applies the weekday axis.
//
// Rule (see DESIGN.md): a weekly candidate conflicts with any non-weekly
// entry unconditionally (the other entry applies every day), and with
// another weekly entry only when their weekday sets intersect. A non-weekly
// candidate applies every day itself, so the weekday axis never saves it.
func weekdaysOverlap(candidate, other Entry) bool {
	if candidate.Recurrence != RecurrenceWeekly {
		return true
	}
	if other.Recurrence != RecurrenceWeekly {
		return true
	}
	set := make(map[int]struct{}, len(candidate.RecurrenceDays))
	for _, d := range candidate.RecurrenceDays {
		set[d] = struct{}{}
	}
	for _, d := range other.RecurrenceDays {
		if _, ok := set[d]; ok {
			return true
		}
	}
	return false
}

// conflictsWith reports whether other contradicts candidate.
func conflictsWith(candidate, other Entry) bool {
	if other.IsAllowed == candidate.IsAllowed {
		return false
	}
	if !datesOverlap(candidate.ValidFrom, candidate.ValidUntil, other.ValidFrom, other.ValidUntil) {
		return false
	}
	if !timesOverlap(candidate, other) {
		return false
	}
	return weekdaysOverlap(candidate, other)
}

// FindConflicts returns the subset of existing entries that contradict the
// candidate. Callers must pre-filter existing to the candidate's
// (person, access_point) pair and exclude the candidate itself on update.
func FindConflicts(candidate Entry, existing []Entry) []Entry {
	var out []Entry
	for _, e := range existing {
		if e.ID != "" && e.ID == candidate.ID {
			continue
		}
		if conflictsWith(candidate, e) {
			out = append(out, e)
		}
	}
	return out
}
