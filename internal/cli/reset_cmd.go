package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexanderramin/fieldops/internal/apiclient"
	"github.com/alexanderramin/fieldops/internal/cli/formatter"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var errNotConfirmed = errors.New("reset cancelled")

type resetFunc func(ctx context.Context, cred apiclient.Credential) error

func newResetCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Destructive superuser resets",
	}
	cmd.AddCommand(
		newResetTargetCmd(app, "manager", "Reset manager data",
			func(ctx context.Context, cred apiclient.Credential) error { return app.API.ResetManager(ctx, cred) }),
		newResetTargetCmd(app, "supervisors", "Reset supervisor decisions",
			func(ctx context.Context, cred apiclient.Credential) error { return app.API.ResetSupervisors(ctx, cred) }),
	)
	return cmd
}

func newResetTargetCmd(app *App, target, short string, reset resetFunc) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   target,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := confirmReset(app, target, yes); err != nil {
				return err
			}
			if err := reset(context.Background(), app.Credential); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s reset.\n", formatter.StyleGreen.Render("✔"), target)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

// confirmReset requires --yes when there is no terminal to ask on.
func confirmReset(app *App, target string, yes bool) error {
	if yes {
		return nil
	}
	if !app.interactive() || app.Confirm == nil {
		return fmt.Errorf("reset %s is destructive: pass --yes to confirm", target)
	}
	ok, err := app.Confirm(fmt.Sprintf("Reset %s? This cannot be undone.", target))
	if err != nil {
		return err
	}
	if !ok {
		return errNotConfirmed
	}
	return nil
}

// HuhConfirm asks a yes/no question on the terminal.
func HuhConfirm(title string) (bool, error) {
	var result bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes").
				Negative("No").
				Value(&result),
		),
	).WithTheme(fieldopsHuhTheme()).WithShowHelp(false)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return result, nil
}

func fieldopsHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorRed).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}
