package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/fieldops/internal/cli/formatter"
	"github.com/alexanderramin/fieldops/internal/orchestrator"
	"github.com/spf13/cobra"
)

func newVehiclesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vehicles",
		Short: "Browse and register vehicles",
	}
	cmd.AddCommand(
		newVehiclesListCmd(app),
		newVehiclesRegisterCmd(app),
	)
	return cmd
}

func newVehiclesListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List vehicles with their driver and crew size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGraph(context.Background(), app)
			if err != nil {
				return err
			}
			if len(g.Vehicles()) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No vehicles found.")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatVehicles(g))
			return nil
		},
	}
}

func newVehiclesRegisterCmd(app *App) *cobra.Command {
	var plate, vehicleMake, model string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new vehicle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := runBatch(cmd, app, orchestrator.RegisterVehicle{Plate: plate, Make: vehicleMake, Model: model})
			if err != nil {
				return err
			}
			if v, ok := out.Created(); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "Registered vehicle %s [%s]\n", v.Plate, v.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&plate, "plate", "", "Number plate, e.g. RAD123A")
	cmd.Flags().StringVar(&vehicleMake, "make", "", "Manufacturer")
	cmd.Flags().StringVar(&model, "model", "", "Model")
	_ = cmd.MarkFlagRequired("plate")

	return cmd
}
