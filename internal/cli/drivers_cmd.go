package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/fieldops/internal/cli/formatter"
	"github.com/alexanderramin/fieldops/internal/orchestrator"
	"github.com/spf13/cobra"
)

func newDriversCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drivers",
		Short: "Manage drivers, their vehicles and crews",
	}
	cmd.AddCommand(
		newDriversListCmd(app),
		newDriversAssignCmd(app),
		newDriversUnassignCmd(app),
		newDriversCrewCmd(app),
	)
	return cmd
}

func newDriversListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List drivers with vehicle, crew and zones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGraph(context.Background(), app)
			if err != nil {
				return err
			}
			if len(g.Drivers()) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No drivers found.")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatDrivers(g))
			return nil
		},
	}
}

func newDriversAssignCmd(app *App) *cobra.Command {
	var crew []string
	var release bool

	cmd := &cobra.Command{
		Use:   "assign [driver vehicle]",
		Short: "Give a driver a vehicle, optionally replacing its crew",
		Long: `Links the driver to the vehicle, then replaces the vehicle's crew when
--crew is given. Drivers and vehicles may be named by id, username or plate.
A vehicle held by another driver is only taken with --release. On a
terminal, leaving both out opens a picker.`,
		Args: cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			if len(args) == 0 && canPick(app) {
				driverID, vehicleID, err := pickAssignment(ctx, app)
				if err != nil {
					return err
				}
				args = []string{driverID, vehicleID}
			}
			if len(args) != 2 {
				return fmt.Errorf("accepts 2 arg(s), received %d", len(args))
			}
			g, err := loadGraph(ctx, app)
			if err != nil {
				return err
			}
			intent := orchestrator.AssignVehicle{
				DriverID:           resolveDriver(g, args[0]),
				VehicleID:          resolveVehicle(g, args[1]),
				ReleaseFromCurrent: release,
			}
			if cmd.Flags().Changed("crew") {
				ids := resolveManpower(g, crew)
				intent.Crew = &ids
			}
			_, err = runBatch(cmd, app, intent)
			return err
		},
	}

	cmd.Flags().StringSliceVar(&crew, "crew", nil, "Crew members in order (ids or usernames)")
	cmd.Flags().BoolVar(&release, "release", false, "Take the vehicle from its current driver")

	return cmd
}

func newDriversUnassignCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "unassign <driver>",
		Short: "Take a driver's vehicle away",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGraph(context.Background(), app)
			if err != nil {
				return err
			}
			_, err = runBatch(cmd, app, orchestrator.UnassignVehicle{DriverID: resolveDriver(g, args[0])})
			return err
		},
	}
}

func newDriversCrewCmd(app *App) *cobra.Command {
	var clearCrew bool

	cmd := &cobra.Command{
		Use:   "crew [driver [manpower...]]",
		Short: "Replace the crew of a driver's vehicle",
		Long: `Replaces the crew in the order given. On a terminal, leaving the driver
out opens a picker with the current crew preselected; unticking everyone
empties the crew.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			if len(args) == 0 && !clearCrew {
				if !canPick(app) {
					return fmt.Errorf("requires at least 1 arg(s), only received 0")
				}
				driverID, members, err := pickCrew(ctx, app)
				if err != nil {
					return err
				}
				args = append([]string{driverID}, members...)
				clearCrew = len(members) == 0
			}
			if len(args) == 0 {
				return fmt.Errorf("requires at least 1 arg(s), only received 0")
			}
			members := args[1:]
			if len(members) == 0 && !clearCrew {
				return fmt.Errorf("name at least one crew member, or pass --clear to empty the crew")
			}
			if len(members) > 0 && clearCrew {
				return fmt.Errorf("--clear cannot be combined with crew members")
			}
			g, err := loadGraph(ctx, app)
			if err != nil {
				return err
			}
			_, err = runBatch(cmd, app, orchestrator.SetCrew{
				DriverID:    resolveDriver(g, args[0]),
				ManpowerIDs: resolveManpower(g, members),
			})
			return err
		},
	}

	cmd.Flags().BoolVar(&clearCrew, "clear", false, "Remove every crew member")

	return cmd
}
