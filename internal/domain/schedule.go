package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time with minute resolution plus seconds.
type TimeOfDay struct {
	Seconds int
}

// ParseTimeOfDay accepts HH:MM or HH:MM:SS.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
	}
	limits := []int{24, 60, 60}
	total := 0
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n >= limits[i] {
			return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
		}
		switch i {
		case 0:
			total += n * 3600
		case 1:
			total += n * 60
		default:
			total += n
		}
	}
	return TimeOfDay{Seconds: total}, nil
}

// String renders HH:MM, adding seconds only when present.
func (t TimeOfDay) String() string {
	h, m, s := t.Seconds/3600, (t.Seconds%3600)/60, t.Seconds%60
	if s != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

func (t TimeOfDay) Before(o TimeOfDay) bool { return t.Seconds < o.Seconds }

// ScheduleEntry is one recurring weekly service slot. Entries are created
// upstream; only the supervisor fields ever change.
type ScheduleEntry struct {
	ID               string
	ServiceDay       int // 1..7, Monday=1
	ServiceStart     TimeOfDay
	ServiceEnd       TimeOfDay
	ZoneID           *string
	VehiclePlate     string
	DriverUsername   string
	AssignedManpower []string

	SupervisorStatus    SupervisorStatus
	SupervisorReason    *string
	SupervisorDecidedAt *time.Time
	// UnknownStatus keeps a supervisor_status value that was degraded to
	// pending.
	UnknownStatus string
}

// DataIssue describes a record that violates a schedule invariant but is
// still displayable.
type DataIssue struct {
	EntryID string
	Message string
}

// Issues returns data-quality problems with the entry. It never fails; the
// caller decides whether to surface them.
func (e *ScheduleEntry) Issues() []DataIssue {
	var out []DataIssue
	add := func(format string, args ...any) {
		out = append(out, DataIssue{EntryID: e.ID, Message: fmt.Sprintf(format, args...)})
	}
	if e.ServiceDay < 1 || e.ServiceDay > 7 {
		add("service day %d is outside 1..7", e.ServiceDay)
	}
	if !e.ServiceStart.Before(e.ServiceEnd) {
		add("service end %s is not after start %s", e.ServiceEnd, e.ServiceStart)
	}
	if e.UnknownStatus != "" {
		add("unknown supervisor_status %q shown as pending", e.UnknownStatus)
	}
	hasReason := strings.TrimSpace(StrOrEmpty(e.SupervisorReason)) != ""
	switch e.SupervisorStatus {
	case StatusNotComplete:
		if !hasReason {
			add("not_complete without a reason")
		}
	default:
		if hasReason {
			add("reason present on a %s entry", statusName(e.SupervisorStatus))
		}
	}
	return out
}

func statusName(s SupervisorStatus) string {
	if s == StatusPending {
		return "pending"
	}
	return string(s)
}
