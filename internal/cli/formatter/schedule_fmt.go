package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/alexanderramin/fieldops/internal/schedule"
)

// FormatSchedule renders entries grouped by service day, followed by a tally.
func FormatSchedule(entries []domain.ScheduleEntry) string {
	if len(entries) == 0 {
		return Dim("No schedule entries.") + "\n"
	}

	var b strings.Builder
	for _, group := range schedule.Group(entries) {
		label := group.Label
		if label == "" {
			label = "Unscheduled"
		}
		b.WriteString(Header(label) + "\n")

		rows := make([][]string, 0, len(group.Entries))
		for _, e := range group.Entries {
			badge := schedule.DeriveBadge(e)
			status := BadgeIndicator(badge)
			if badge.Reason != "" {
				status += Dim(" · " + badge.Reason)
			}
			if badge.MissingReason {
				status += StyleYellow.Render(" · no reason given")
			}
			rows = append(rows, []string{
				fmt.Sprintf("%s–%s", e.ServiceStart, e.ServiceEnd),
				OrDash(e.VehiclePlate),
				OrDash(e.DriverUsername),
				OrDash(strings.Join(e.AssignedManpower, ", ")),
				status,
			})
		}
		b.WriteString(RenderTable([]string{"TIME", "VEHICLE", "DRIVER", "CREW", "STATUS"}, rows))
		b.WriteString("\n")
	}

	c := schedule.Tally(entries)
	fmt.Fprintf(&b, "%s  %s  %s",
		StyleYellow.Render(fmt.Sprintf("%d Pending", c.Pending)),
		StyleGreen.Render(fmt.Sprintf("%d Completed", c.Completed)),
		StyleRed.Render(fmt.Sprintf("%d Not Completed", c.NotCompleted)),
	)
	if c.DataQuality > 0 {
		b.WriteString("  " + Dim(Count(c.DataQuality, "data issue", "data issues")))
	}
	b.WriteString("\n")
	return b.String()
}

// FormatIssues lists schedule data-quality findings.
func FormatIssues(issues []domain.DataIssue) string {
	if len(issues) == 0 {
		return StyleGreen.Render("✔ Schedule data is clean.") + "\n"
	}
	rows := make([][]string, 0, len(issues))
	for _, i := range issues {
		rows = append(rows, []string{Dim(i.EntryID), StyleYellow.Render(i.Message)})
	}
	return RenderTable([]string{"ENTRY", "ISSUE"}, rows)
}

// RejectedNotice reports records the server sent that failed validation and
// were left out.
func RejectedNotice(n int, singular, plural string) string {
	return StyleYellow.Render(fmt.Sprintf("! %s rejected as malformed", Count(n, singular, plural)))
}
