package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/alexanderramin/fieldops/internal/assignment"
	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/alexanderramin/fieldops/internal/refcache"
	"github.com/charmbracelet/huh"
)

var (
	errNothingChosen   = errors.New("nothing selected")
	errChoiceCancelled = errors.New("selection cancelled")
)

// canPick reports whether missing arguments may be asked for.
func canPick(app *App) bool {
	return app.interactive() && app.Choose != nil
}

// pickOne asks for a single id of kind, preselecting current when set.
func pickOne(ctx context.Context, app *App, kind domain.EntityKind, title, current string) (string, error) {
	opts, err := app.Reference.Load(ctx, app.Credential, kind)
	if err != nil {
		return "", err
	}
	if len(opts) == 0 {
		return "", fmt.Errorf("no %s to choose from", kind)
	}
	var selected []string
	if current != "" {
		selected = []string{current}
	}
	ids, err := app.Choose(title, opts, selected, false)
	if err != nil {
		return "", err
	}
	if len(ids) == 0 || ids[0] == "" {
		return "", errNothingChosen
	}
	return ids[0], nil
}

// pickMany asks for a set of ids of kind. label, when given, rewrites each
// option's label before it is shown.
func pickMany(ctx context.Context, app *App, kind domain.EntityKind, title string, selected []string, label func(refcache.Option) string) ([]string, error) {
	opts, err := app.Reference.Load(ctx, app.Credential, kind)
	if err != nil {
		return nil, err
	}
	if len(opts) == 0 {
		return nil, fmt.Errorf("no %s to choose from", kind)
	}
	if label != nil {
		for i := range opts {
			opts[i].Label = label(opts[i])
		}
	}
	return app.Choose(title, opts, selected, true)
}

// pickAssignment asks for a driver, then for the vehicle to give them.
func pickAssignment(ctx context.Context, app *App) (driverID, vehicleID string, err error) {
	driverID, err = pickOne(ctx, app, domain.KindDrivers, "Which driver?", "")
	if err != nil {
		return "", "", err
	}
	title, current := "Which vehicle?", ""
	if d, ok := app.Reference.Driver(driverID); ok {
		title = "Vehicle for " + d.Username
		if d.VehicleID != nil {
			current = *d.VehicleID
		}
	}
	vehicleID, err = pickOne(ctx, app, domain.KindVehicles, title, current)
	if err != nil {
		return "", "", err
	}
	return driverID, vehicleID, nil
}

// pickCrew asks for a driver, then for the members of their crew. The
// current crew is preselected and members riding elsewhere are marked.
func pickCrew(ctx context.Context, app *App) (driverID string, members []string, err error) {
	driverID, err = pickOne(ctx, app, domain.KindDrivers, "Whose crew?", "")
	if err != nil {
		return "", nil, err
	}
	d, _ := app.Reference.Driver(driverID)
	g, err := loadGraph(ctx, app)
	if err != nil {
		return "", nil, err
	}
	members, err = pickMany(ctx, app, domain.KindManpower, "Crew for "+d.Username, d.CrewIDs,
		func(o refcache.Option) string { return crewLabel(g, d, o) })
	if err != nil {
		return "", nil, err
	}
	return driverID, members, nil
}

func crewLabel(g *assignment.Graph, d domain.Driver, o refcache.Option) string {
	vehicleID, ok := g.CrewVehicleOf(o.ID)
	if !ok || (d.VehicleID != nil && *d.VehicleID == vehicleID) {
		return o.Label
	}
	v, _ := g.Vehicle(vehicleID)
	return fmt.Sprintf("%s · crew of %s", o.Label, v.Plate)
}

// zoneTitle names the move target by its cached name when known.
func zoneTitle(app *App, zone string) string {
	if z, ok := app.Reference.Zone(zone); ok {
		return "Move to " + z.Name
	}
	return "Move to " + zone
}

// HuhChoose shows a themed select, or a multi-select when multiple is set.
func HuhChoose(title string, options []refcache.Option, selected []string, multiple bool) ([]string, error) {
	opts := make([]huh.Option[string], 0, len(options))
	for _, o := range options {
		opts = append(opts, huh.NewOption(o.Label, o.ID).Selected(slices.Contains(selected, o.ID)))
	}

	var one string
	var many []string
	var field huh.Field
	if multiple {
		field = huh.NewMultiSelect[string]().
			Title(title).
			Options(opts...).
			Value(&many)
	} else {
		if len(selected) > 0 {
			one = selected[0]
		}
		field = huh.NewSelect[string]().
			Title(title).
			Options(opts...).
			Value(&one)
	}

	form := huh.NewForm(huh.NewGroup(field)).WithTheme(fieldopsHuhTheme()).WithShowHelp(false)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil, errChoiceCancelled
		}
		return nil, err
	}
	if multiple {
		return many, nil
	}
	return []string{one}, nil
}
