package whitelist

import (
	"testing"

	"acs-platform/internal/directory"
)

func TestValidateShape(t *testing.T) {
	valid := Entry{
		PersonID:      "p1",
		AccessPointID: "ap1",
		IsAllowed:     true,
		Recurrence:    RecurrenceNone,
	}

	cases := []struct {
		name      string
		mutate    func(e *Entry)
		wantField string
	}{
		{"valid entry", func(e *Entry) {}, ""},
		{"missing person", func(e *Entry) { e.PersonID = "" }, "person_id"},
		{"missing access point", func(e *Entry) { e.AccessPointID = "" }, "access_point_id"},
		{"dates out of order", func(e *Entry) {
			e.ValidFrom = datePtr(2024, 3, 1)
			e.ValidUntil = datePtr(2024, 2, 1)
		}, "valid_until"},
		{"start without end", func(e *Entry) { e.StartTime = todPtr("08:00") }, "start_time"},
		{"end without start", func(e *Entry) { e.EndTime = todPtr("18:00") }, "start_time"},
		{"inverted time window", func(e *Entry) {
			e.StartTime = todPtr("18:00")
			e.EndTime = todPtr("08:00")
		}, "end_time"},
		{"equal time window", func(e *Entry) {
			e.StartTime = todPtr("08:00")
			e.EndTime = todPtr("08:00")
		}, "end_time"},
		{"unknown recurrence", func(e *Entry) { e.Recurrence = "monthly" }, "recurrence"},
		{"weekly without days", func(e *Entry) { e.Recurrence = RecurrenceWeekly }, "recurrence_days"},
		{"weekly with out-of-range day", func(e *Entry) {
			e.Recurrence = RecurrenceWeekly
			e.RecurrenceDays = []int{7}
		}, "recurrence_days"},
		{"days without weekly", func(e *Entry) { e.RecurrenceDays = []int{1} }, "recurrence_days"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := valid
			tc.mutate(&e)
			errs := validateShape(e)
			if tc.wantField == "" {
				if errs != nil {
					t.Fatalf("unexpected errors: %v", errs)
				}
				return
			}
			if errs == nil {
				t.Fatalf("expected error on %s, got none", tc.wantField)
			}
			if _, ok := errs[tc.wantField]; !ok {
				t.Fatalf("expected error keyed %s, got %v", tc.wantField, errs)
			}
		})
	}
}

func TestValidateShapeCollectsMultipleErrors(t *testing.T) {
	errs := validateShape(Entry{Recurrence: "bogus"})
	for _, field := range []string{"person_id", "access_point_id", "recurrence"} {
		if _, ok := errs[field]; !ok {
			t.Errorf("missing error for %s: %v", field, errs)
		}
	}
}

func TestValidateEventScope(t *testing.T) {
	site := directory.Site{ID: "s1"}
	ap := directory.AccessPoint{ID: "ap1", SiteID: site.ID}
	member := directory.Person{ID: "p1", PersonType: directory.PersonTypeMember}
	visitor := directory.Person{
		ID:         "p2",
		PersonType: directory.PersonTypeGuest,
		GuestType:  directory.GuestTypeEventVisitor,
	}
	event := directory.Event{
		ID:                 "e1",
		SiteID:             site.ID,
		AllowedPersonTypes: []directory.PersonType{directory.PersonTypeMember},
		AllowedGuestTypes:  []directory.GuestType{directory.GuestTypeMemberGuest},
	}

	if errs := validateEventScope(member, ap, event); errs != nil {
		t.Fatalf("member admitted by event must pass, got %v", errs)
	}

	otherSite := event
	otherSite.SiteID = "s2"
	if errs := validateEventScope(member, ap, otherSite); errs == nil {
		t.Fatal("event from another site must be rejected")
	}

	employee := directory.Person{ID: "p3", PersonType: directory.PersonTypeEmployee}
	if errs := validateEventScope(employee, ap, event); errs == nil {
		t.Fatal("person type outside the allow-list must be rejected")
	}

	errs := validateEventScope(visitor, ap, event)
	if errs == nil {
		t.Fatal("guest type outside the allow-list must be rejected")
	}
	if errs["event_id"] != "guest type is not admitted by the event" {
		t.Fatalf("wrong guest message: %v", errs)
	}
}

func TestValidateAndPrepareConflictMessage(t *testing.T) {
	person := directory.Person{ID: "p1", PersonType: directory.PersonTypeMember}
	ap := directory.AccessPoint{ID: "ap1", SiteID: "s1"}

	existing := allowed(Entry{
		ID:            "old",
		PersonID:      person.ID,
		AccessPointID: ap.ID,
		Recurrence:    RecurrenceNone,
	})
	candidate := denied(Entry{
		ID:            "new",
		PersonID:      person.ID,
		AccessPointID: ap.ID,
		Recurrence:    RecurrenceNone,
	})

	errs := ValidateAndPrepare(candidate, person, ap, directory.Event{}, []Entry{existing})
	if errs == nil {
		t.Fatal("overlapping contradiction must fail validation")
	}
	if errs[NonFieldKey] == "" {
		t.Fatalf("conflict must be reported under %q, got %v", NonFieldKey, errs)
	}
}
