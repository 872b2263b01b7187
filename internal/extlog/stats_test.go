package extlog

import (
	"testing"
	"time"
)

func TestSummarize(t *testing.T) {
	day1 := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)

	entries := []Entry{
		{ExternalID: 1, MovementType: "IN", Result: "OK", OccurredAt: day1},
		{ExternalID: 2, MovementType: "OUT", Result: "OK", OccurredAt: day1.Add(time.Hour)},
		{ExternalID: 3, MovementType: "IN", Result: "DENIED", OccurredAt: day2},
		{ExternalID: 4, OccurredAt: day2},
	}

	s := Summarize(entries)
	if s.Total != 4 {
		t.Fatalf("total = %d", s.Total)
	}
	if s.ByMovementType["IN"] != 2 || s.ByMovementType["OUT"] != 1 {
		t.Fatalf("by movement type = %v", s.ByMovementType)
	}
	if _, ok := s.ByMovementType[""]; ok {
		t.Fatal("empty movement type should not be counted")
	}
	if s.ByResult["OK"] != 2 || s.ByResult["DENIED"] != 1 {
		t.Fatalf("by result = %v", s.ByResult)
	}
	if len(s.Days) != 2 || s.Days[0].Day != "2024-05-01" || s.Days[0].Count != 2 {
		t.Fatalf("days = %v", s.Days)
	}
	if s.Days[1].Day != "2024-05-02" || s.Days[1].Count != 2 {
		t.Fatalf("days = %v", s.Days)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.Total != 0 || len(s.Days) != 0 {
		t.Fatalf("summary = %+v", s)
	}
	if s.ByMovementType == nil || s.ByResult == nil {
		t.Fatal("maps should be initialized")
	}
}
