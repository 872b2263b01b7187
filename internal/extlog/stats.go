package extlog

import "sort"

// DayCount is the number of movements recorded on one calendar day (UTC).
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// Summary aggregates synchronized movements for reporting.
type Summary struct {
	Total          int            `json:"total"`
	ByMovementType map[string]int `json:"by_movement_type"`
	ByResult       map[string]int `json:"by_result"`
	Days           []DayCount     `json:"days"`
}

// Summarize builds a Summary over a set of entries. Days come back in
// ascending calendar order.
func Summarize(entries []Entry) Summary {
	s := Summary{
		ByMovementType: map[string]int{},
		ByResult:       map[string]int{},
	}
	byDay := map[string]int{}
	for _, e := range entries {
		s.Total++
		if e.MovementType != "" {
			s.ByMovementType[e.MovementType]++
		}
		if e.Result != "" {
			s.ByResult[e.Result]++
		}
		byDay[e.OccurredAt.UTC().Format("2006-01-02")]++
	}

	s.Days = make([]DayCount, 0, len(byDay))
	for day, n := range byDay {
		s.Days = append(s.Days, DayCount{Day: day, Count: n})
	}
	sort.Slice(s.Days, func(i, j int) bool { return s.Days[i].Day < s.Days[j].Day })
	return s
}
