package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/fieldops/internal/journal"
	"github.com/alexanderramin/fieldops/internal/orchestrator"
)

// FormatOutcome summarizes a finished batch: a status line, then the
// failed and skipped steps, then planner warnings.
func FormatOutcome(out *orchestrator.Outcome) string {
	var b strings.Builder
	status := out.Status()

	switch {
	case status == orchestrator.StatusOK && out.Issued == 0:
		b.WriteString(Dim("Nothing to change.") + "\n")
	case status == orchestrator.StatusOK:
		fmt.Fprintf(&b, "%s %s\n", RunStatusPill(string(status)), Count(out.Succeeded, "change applied", "changes applied"))
	default:
		fmt.Fprintf(&b, "%s %d of %d calls succeeded\n", RunStatusPill(string(status)), out.Succeeded, out.Issued)
	}

	for _, r := range out.Results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(&b, "  %s %s: %s\n", StyleRed.Render("✖"), stepName(r.Step), r.Err)
		case !r.Attempted:
			fmt.Fprintf(&b, "  %s %s\n", Dim("⊘"), Dim(stepName(r.Step)+" not attempted"))
		}
	}
	if out.Plan != nil {
		for _, s := range out.Plan.Skipped {
			fmt.Fprintf(&b, "  %s\n", Dim("· "+s.EntityKey+": "+s.Reason))
		}
		for _, w := range out.Plan.Warnings {
			fmt.Fprintf(&b, "  %s\n", StyleYellow.Render("! "+w))
		}
	}
	if status == orchestrator.StatusPartial {
		b.WriteString(Dim("Earlier changes were kept. Reloaded state reflects the server.") + "\n")
	}
	return b.String()
}

// BatchProgress is the spinner line for a running batch, naming the
// entities whose calls are outstanding.
func BatchProgress(subject string, inflight []string) string {
	if len(inflight) == 0 {
		return "Applying " + subject
	}
	return fmt.Sprintf("Applying %s · %s", subject, strings.Join(inflight, ", "))
}

func stepName(s orchestrator.Step) string {
	if s.Label != "" {
		return s.Label
	}
	return string(s.Op) + " " + s.EntityKey()
}

func FormatHistory(runs []*journal.Run) string {
	return FormatHistoryAt(runs, time.Now())
}

// FormatHistoryAt renders journal runs relative to now.
func FormatHistoryAt(runs []*journal.Run, now time.Time) string {
	if len(runs) == 0 {
		return Dim("No batches recorded.") + "\n"
	}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		calls := fmt.Sprintf("%d/%d", r.Succeeded, r.Issued)
		rows = append(rows, []string{
			TruncID(r.ID),
			HumanTimestampFrom(r.StartedAt, now),
			r.Intent,
			OrDash(r.Subject),
			RunStatusPill(r.Status),
			calls,
			OrDash(r.Error),
		})
	}
	return RenderTable([]string{"ID", "WHEN", "INTENT", "SUBJECT", "STATUS", "CALLS", "ERROR"}, rows)
}

// FormatRun renders one journal run with every planned step.
func FormatRun(r *journal.Run) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", Dim("Intent "), r.Intent)
	fmt.Fprintf(&b, "%s  %s\n", Dim("Subject"), OrDash(r.Subject))
	fmt.Fprintf(&b, "%s  %s\n", Dim("Status "), RunStatusPill(r.Status))
	fmt.Fprintf(&b, "%s  %s (%s)\n", Dim("Started"), r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Duration().Round(time.Millisecond))
	if r.Error != "" {
		fmt.Fprintf(&b, "%s  %s\n", Dim("Error  "), StyleRed.Render(r.Error))
	}
	if r.CreatedVehicleID != "" {
		fmt.Fprintf(&b, "%s  %s\n", Dim("Created"), r.CreatedVehicleID)
	}
	for _, w := range r.Warnings {
		b.WriteString(StyleYellow.Render("! "+w) + "\n")
	}

	if len(r.Steps) > 0 {
		rows := make([][]string, 0, len(r.Steps))
		for _, s := range r.Steps {
			result := StyleGreen.Render("ok")
			switch {
			case s.Error != "":
				result = StyleRed.Render(s.Error)
			case !s.Attempted:
				result = Dim("not attempted")
			}
			rows = append(rows, []string{
				fmt.Sprintf("%d", s.Seq),
				s.Kind,
				s.Op,
				s.Entity,
				result,
			})
		}
		b.WriteString("\n" + RenderTable([]string{"#", "KIND", "OP", "ENTITY", "RESULT"}, rows))
	}
	return RenderBox("Batch "+r.ID, strings.TrimRight(b.String(), "\n"))
}
