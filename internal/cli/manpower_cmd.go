package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/fieldops/internal/cli/formatter"
	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/alexanderramin/fieldops/internal/orchestrator"
	"github.com/spf13/cobra"
)

func newManpowerCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manpower",
		Short: "Manage field workers and their zones",
	}
	cmd.AddCommand(
		newManpowerListCmd(app),
		newManpowerMoveCmd(app),
		newManpowerUnassignZoneCmd(app),
	)
	return cmd
}

func newManpowerListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List manpower with zone and vehicle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGraph(context.Background(), app)
			if err != nil {
				return err
			}
			if len(g.AllManpower()) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No manpower found.")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatManpower(g))
			return nil
		},
	}
}

func newManpowerMoveCmd(app *App) *cobra.Command {
	var zone string

	cmd := &cobra.Command{
		Use:   "move [manpower...] --zone <zone>",
		Short: "Move workers into a zone",
		Long: `Moves each worker independently. When one move fails the others still
complete; the first failure is reported and the rest stay applied. On a
terminal, a missing zone or worker list opens a picker.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			if zone == "" {
				if !canPick(app) {
					return fmt.Errorf(`required flag(s) "zone" not set`)
				}
				picked, err := pickOne(ctx, app, domain.KindZones, "Move to which zone?", "")
				if err != nil {
					return err
				}
				zone = picked
			}
			if len(args) == 0 {
				if !canPick(app) {
					return fmt.Errorf("requires at least 1 arg(s), only received 0")
				}
				picked, err := pickMany(ctx, app, domain.KindManpower, zoneTitle(app, zone), nil, nil)
				if err != nil {
					return err
				}
				if len(picked) == 0 {
					return errNothingChosen
				}
				args = picked
			}
			g, err := loadGraph(ctx, app)
			if err != nil {
				return err
			}
			_, err = runBatch(cmd, app, orchestrator.MoveManpowerToZone{
				ManpowerIDs: resolveManpower(g, args),
				ZoneID:      resolveZone(g, zone),
			})
			return err
		},
	}

	cmd.Flags().StringVar(&zone, "zone", "", "Target zone (id or name)")

	return cmd
}

func newManpowerUnassignZoneCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "unassign-zone <manpower...>",
		Short: "Remove workers from their zone",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGraph(context.Background(), app)
			if err != nil {
				return err
			}
			_, err = runBatch(cmd, app, orchestrator.UnassignManpowerZones{ManpowerIDs: resolveManpower(g, args)})
			return err
		},
	}
}
