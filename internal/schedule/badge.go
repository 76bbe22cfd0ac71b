// Package schedule derives display state for weekly service slots.
package schedule

import (
	"strings"

	"github.com/alexanderramin/fieldops/internal/domain"
)

type State string

const (
	StatePending      State = "pending"
	StateCompleted    State = "completed"
	StateNotCompleted State = "not_completed"
)

// Style classes map onto the formatter palette.
const (
	StyleAmber = "amber"
	StyleGreen = "green"
	StyleRed   = "red"
)

// Badge is the verification badge shown next to an entry.
type Badge struct {
	State      State
	Label      string
	StyleClass string
	// Reason is set only for not-completed entries that carry one.
	Reason string
	// MissingReason flags a not-completed entry without a reason. The badge
	// still renders; the gap is a data-quality finding.
	MissingReason bool
}

// DeriveBadge maps the supervisor fields of an entry onto exactly one of
// three badges. Unknown statuses were degraded to pending at the boundary.
func DeriveBadge(e domain.ScheduleEntry) Badge {
	switch e.SupervisorStatus {
	case domain.StatusComplete:
		return Badge{State: StateCompleted, Label: "Completed", StyleClass: StyleGreen}
	case domain.StatusNotComplete:
		reason := strings.TrimSpace(domain.StrOrEmpty(e.SupervisorReason))
		return Badge{
			State:         StateNotCompleted,
			Label:         "Not Completed",
			StyleClass:    StyleRed,
			Reason:        reason,
			MissingReason: reason == "",
		}
	default:
		return Badge{State: StatePending, Label: "Pending", StyleClass: StyleAmber}
	}
}

var weekdays = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// WeekdayLabel names service day 1..7, Monday first. Any other value yields
// "".
func WeekdayLabel(day int) string {
	if day < 1 || day > len(weekdays) {
		return ""
	}
	return weekdays[day-1]
}
