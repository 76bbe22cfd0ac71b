package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/fieldops/internal/apiclient"
	"github.com/alexanderramin/fieldops/internal/cli/formatter"
	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/spf13/cobra"
)

type scheduleSource func(ctx context.Context, cred apiclient.Credential) ([]domain.ScheduleEntry, apiclient.ListMeta, error)

func newScheduleCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Show the weekly service schedule with verification status",
	}
	cmd.AddCommand(
		newScheduleAudienceCmd(app, "driver", "Show the schedule as seen by drivers", app.driverSchedule),
		newScheduleAudienceCmd(app, "manpower", "Show the schedule as seen by manpower", app.manpowerSchedule),
	)
	return cmd
}

func (a *App) driverSchedule(ctx context.Context, cred apiclient.Credential) ([]domain.ScheduleEntry, apiclient.ListMeta, error) {
	return a.API.DriverSchedule(ctx, cred)
}

func (a *App) manpowerSchedule(ctx context.Context, cred apiclient.Credential) ([]domain.ScheduleEntry, apiclient.ListMeta, error) {
	return a.API.ManpowerSchedule(ctx, cred)
}

func newScheduleAudienceCmd(app *App, use, short string, load scheduleSource) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, meta, err := load(context.Background(), app.Credential)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSchedule(entries))
			if meta.Rejected > 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), formatter.RejectedNotice(meta.Rejected, "schedule entry", "schedule entries"))
			}
			return nil
		},
	}
}
