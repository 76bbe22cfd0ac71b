package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/fieldops/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newZonesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zones",
		Short: "Browse service zones",
	}
	cmd.AddCommand(
		newZonesListCmd(app),
		newZonesShowCmd(app),
		newZonesMembersCmd(app),
	)
	return cmd
}

func newZonesListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List zones with their manpower counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGraph(context.Background(), app)
			if err != nil {
				return err
			}
			if len(g.Zones()) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No zones found.")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatZones(g))
			return nil
		},
	}
}

func newZonesShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <zone>",
		Short: "Show a zone with its payment figures",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			g, err := loadGraph(ctx, app)
			if err != nil {
				return err
			}
			detail, err := app.API.GetZone(ctx, app.Credential, resolveZone(g, args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatZoneDetail(detail))
			return nil
		},
	}
}

func newZonesMembersCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "members <zone>",
		Short: "List the manpower assigned to a zone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			g, err := loadGraph(ctx, app)
			if err != nil {
				return err
			}
			zoneID := resolveZone(g, args[0])
			members, err := app.API.ListManpowerByZone(ctx, app.Credential, zoneID)
			if err != nil {
				return err
			}
			name := zoneID
			if z, ok := g.Zone(zoneID); ok {
				name = z.Name
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatMembers(name, members))
			return nil
		},
	}
}
