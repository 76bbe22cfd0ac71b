package cli

import (
	"context"

	"github.com/alexanderramin/fieldops/internal/assignment"
)

// loadGraph snapshots the reference collections.
func loadGraph(ctx context.Context, app *App) (*assignment.Graph, error) {
	snap, err := app.Reference.Snapshot(ctx, app.Credential)
	if err != nil {
		return nil, err
	}
	return assignment.Build(snap), nil
}

// The resolvers accept an id or a human key. Unknown input is returned
// unchanged so the planner reports it like any other bad id.

func resolveDriver(g *assignment.Graph, input string) string {
	if _, ok := g.Driver(input); ok {
		return input
	}
	if d, ok := g.DriverByUsername(input); ok {
		return d.ID
	}
	return input
}

func resolveVehicle(g *assignment.Graph, input string) string {
	if _, ok := g.Vehicle(input); ok {
		return input
	}
	if v, ok := g.VehicleByPlate(input); ok {
		return v.ID
	}
	return input
}

func resolveZone(g *assignment.Graph, input string) string {
	if _, ok := g.Zone(input); ok {
		return input
	}
	if z, ok := g.ZoneByName(input); ok {
		return z.ID
	}
	return input
}

func resolveManpower(g *assignment.Graph, inputs []string) []string {
	out := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if _, ok := g.Manpower(in); ok {
			out = append(out, in)
			continue
		}
		if m, ok := g.ManpowerByUsername(in); ok {
			out = append(out, m.ID)
			continue
		}
		out = append(out, in)
	}
	return out
}
