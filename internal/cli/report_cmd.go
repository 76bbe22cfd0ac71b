package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/alexanderramin/fieldops/internal/cli/formatter"
	"github.com/alexanderramin/fieldops/internal/report"
	"github.com/spf13/cobra"
)

func newReportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Payment and completion reports",
	}
	cmd.AddCommand(newReportZonesCmd(app))
	return cmd
}

func newReportZonesCmd(app *App) *cobra.Command {
	var xlsxPath string

	cmd := &cobra.Command{
		Use:   "zones",
		Short: "Per-zone payments with totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			figs, meta, err := app.API.ZoneReport(context.Background(), app.Credential)
			if err != nil {
				return err
			}
			if meta.Rejected > 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), formatter.RejectedNotice(meta.Rejected, "zone row", "zone rows"))
			}
			if err := report.Validate(figs); err != nil {
				return err
			}
			summary := report.Aggregate(figs)
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatZoneReport(summary))

			if xlsxPath == "" {
				return nil
			}
			if err := writeXLSXFile(xlsxPath, summary); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", xlsxPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Also write the report to this .xlsx file")

	return cmd
}

func writeXLSXFile(path string, s report.Summary) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()
	return report.WriteXLSX(f, s)
}

func newSummaryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show system-wide user and client counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.API.SuperuserSummary(context.Background(), app.Credential)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatSystemSummary(s))
			return nil
		},
	}
}
