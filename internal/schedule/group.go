package schedule

import (
	"sort"

	"github.com/alexanderramin/fieldops/internal/domain"
)

// DayGroup holds the entries of one service day. Day is 0 and Label is ""
// for the group collecting entries with an out-of-range day.
type DayGroup struct {
	Day     int
	Label   string
	Entries []domain.ScheduleEntry
}

// Group buckets entries by service day, Monday to Sunday, skipping empty
// days. Within a day entries are ordered by start time, then id. Entries
// with an invalid day land in one trailing group.
func Group(entries []domain.ScheduleEntry) []DayGroup {
	buckets := make(map[int][]domain.ScheduleEntry)
	var stray []domain.ScheduleEntry
	for _, e := range entries {
		if WeekdayLabel(e.ServiceDay) == "" {
			stray = append(stray, e)
			continue
		}
		buckets[e.ServiceDay] = append(buckets[e.ServiceDay], e)
	}

	var out []DayGroup
	for day := 1; day <= 7; day++ {
		if len(buckets[day]) == 0 {
			continue
		}
		out = append(out, DayGroup{Day: day, Label: WeekdayLabel(day), Entries: sorted(buckets[day])})
	}
	if len(stray) > 0 {
		out = append(out, DayGroup{Entries: sorted(stray)})
	}
	return out
}

func sorted(entries []domain.ScheduleEntry) []domain.ScheduleEntry {
	out := append([]domain.ScheduleEntry{}, entries...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ServiceStart != b.ServiceStart {
			return a.ServiceStart.Before(b.ServiceStart)
		}
		return lessID(a.ID, b.ID)
	})
	return out
}

// lessID orders numeric ids by value and everything else lexically.
func lessID(a, b string) bool {
	if len(a) != len(b) && numeric(a) && numeric(b) {
		return len(a) < len(b)
	}
	return a < b
}

func numeric(s string) bool {
	if s == "" || s[0] == '0' {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Counts tallies badges across a schedule.
type Counts struct {
	Pending      int
	Completed    int
	NotCompleted int
	// DataQuality counts entries with at least one data issue.
	DataQuality int
}

func (c Counts) Total() int {
	return c.Pending + c.Completed + c.NotCompleted
}

func Tally(entries []domain.ScheduleEntry) Counts {
	var c Counts
	for _, e := range entries {
		switch DeriveBadge(e).State {
		case StateCompleted:
			c.Completed++
		case StateNotCompleted:
			c.NotCompleted++
		default:
			c.Pending++
		}
		if len(e.Issues()) > 0 {
			c.DataQuality++
		}
	}
	return c
}

// Issues collects the data-quality findings of every entry in order.
func Issues(entries []domain.ScheduleEntry) []domain.DataIssue {
	var out []domain.DataIssue
	for _, e := range entries {
		out = append(out, e.Issues()...)
	}
	return out
}
