package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/fieldops/internal/cli/formatter"
	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/alexanderramin/fieldops/internal/schedule"
	"github.com/spf13/cobra"
)

func newCheckCmd(app *App) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report assignment and schedule data problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			g, err := loadGraph(ctx, app)
			if err != nil {
				return err
			}
			violations := g.Violations()

			// Both audiences can see the same entry; report it once.
			var issues []domain.DataIssue
			seen := make(map[domain.DataIssue]bool)
			rejected := 0
			for _, load := range []scheduleSource{app.driverSchedule, app.manpowerSchedule} {
				entries, meta, err := load(ctx, app.Credential)
				if err != nil {
					return err
				}
				// Counted per audience; a dropped entry has no id to match on.
				rejected += meta.Rejected
				for _, issue := range schedule.Issues(entries) {
					if !seen[issue] {
						seen[issue] = true
						issues = append(issues, issue)
					}
				}
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, formatter.Header("Assignments"))
			fmt.Fprint(w, formatter.FormatViolations(violations))
			fmt.Fprintln(w)
			fmt.Fprintln(w, formatter.Header("Schedule"))
			fmt.Fprint(w, formatter.FormatIssues(issues))
			if rejected > 0 {
				fmt.Fprintln(w, formatter.RejectedNotice(rejected, "schedule entry", "schedule entries"))
			}

			if n := len(violations) + len(issues) + rejected; strict && n > 0 {
				return fmt.Errorf("%s found", formatter.Count(n, "problem", "problems"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with an error when any problem is found")

	return cmd
}
