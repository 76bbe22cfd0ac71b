package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/fieldops/internal/apiclient"
	"github.com/alexanderramin/fieldops/internal/assignment"
	"github.com/alexanderramin/fieldops/internal/domain"
)

func FormatZones(g *assignment.Graph) string {
	zones := g.Zones()
	rows := make([][]string, 0, len(zones))
	for _, z := range zones {
		rows = append(rows, []string{
			Dim(z.ID),
			Bold(z.Name),
			OrDash(z.Cell),
			OrDash(z.Village),
			fmt.Sprintf("%d", len(g.ZoneMembers(z.ID))),
		})
	}
	return RenderTable([]string{"ID", "ZONE", "CELL", "VILLAGE", "MANPOWER"}, rows)
}

// FormatZoneDetail renders a zone with its payment block.
func FormatZoneDetail(d *apiclient.ZoneDetail) string {
	z := d.Zone
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", Dim("Cell"), OrDash(z.Cell))
	fmt.Fprintf(&b, "%s  %s\n", Dim("Village"), OrDash(z.Village))
	if z.Description != "" {
		fmt.Fprintf(&b, "%s  %s\n", Dim("About"), z.Description)
	}
	fmt.Fprintf(&b, "%s  %s\n", Dim("Chief"), OrDash(domain.StrOrEmpty(z.ChiefID)))
	b.WriteString("\n")
	b.WriteString(RenderTable(
		[]string{"TO BE PAID", "PAID THIS MONTH", "PAID TODAY", "OUTSTANDING"},
		[][]string{{
			Money(d.Payments.AmountToBePaid),
			Money(d.Payments.CurrentMonthPaid),
			Money(d.Payments.TodayPaid),
			Money(d.Payments.Outstanding()),
		}},
	))
	return RenderBox(z.Name, strings.TrimRight(b.String(), "\n"))
}

func FormatMembers(zone string, members []domain.UserRef) string {
	if len(members) == 0 {
		return Dim(fmt.Sprintf("No manpower in %s.", zone)) + "\n"
	}
	rows := make([][]string, 0, len(members))
	for _, m := range members {
		rows = append(rows, []string{Dim(m.ID), m.Username})
	}
	return Header(zone+" · "+Count(len(members), "worker", "workers")) + "\n" +
		RenderTable([]string{"ID", "USERNAME"}, rows)
}

func FormatVehicles(g *assignment.Graph) string {
	vehicles := g.Vehicles()
	rows := make([][]string, 0, len(vehicles))
	for _, v := range vehicles {
		driver := Dim("unassigned")
		if d, ok := g.DriverOfVehicle(v.ID); ok {
			driver = d.Username
		}
		rows = append(rows, []string{
			Dim(v.ID),
			Bold(v.Plate),
			OrDash(strings.TrimSpace(v.Make + " " + v.Model)),
			driver,
			fmt.Sprintf("%d", len(g.CrewIDs(v.ID))),
		})
	}
	return RenderTable([]string{"ID", "PLATE", "VEHICLE", "DRIVER", "CREW"}, rows)
}

func FormatDrivers(g *assignment.Graph) string {
	drivers := g.Drivers()
	rows := make([][]string, 0, len(drivers))
	for _, d := range drivers {
		plate := Dim("--")
		crew := Dim("--")
		if v, ok := g.VehicleOfDriver(d.ID); ok {
			plate = Bold(v.Plate)
			names := make([]string, 0)
			for _, m := range g.Crew(v.ID) {
				names = append(names, m.Username)
			}
			if len(names) > 0 {
				crew = strings.Join(names, ", ")
			}
		}
		zones := make([]string, 0)
		for _, z := range g.ZonesForDriver(d.ID) {
			zones = append(zones, domain.CoalesceStr(z.Name, z.ID))
		}
		rows = append(rows, []string{Dim(d.ID), d.Username, plate, crew, OrDash(strings.Join(zones, ", "))})
	}
	return RenderTable([]string{"ID", "DRIVER", "VEHICLE", "CREW", "ZONES"}, rows)
}

func FormatManpower(g *assignment.Graph) string {
	all := g.AllManpower()
	rows := make([][]string, 0, len(all))
	for _, m := range all {
		zone := Dim("--")
		if m.ZoneID != nil {
			zone = *m.ZoneID
			if z, ok := g.Zone(*m.ZoneID); ok {
				zone = z.Name
			}
		}
		vehicle := Dim("--")
		if m.VehicleID != nil {
			vehicle = *m.VehicleID
			if v, ok := g.Vehicle(*m.VehicleID); ok {
				vehicle = v.Plate
			}
		}
		salary := Dim("--")
		if m.Salary != nil {
			salary = Money(*m.Salary)
		}
		rows = append(rows, []string{Dim(m.ID), m.Username, zone, vehicle, salary})
	}
	return RenderTable([]string{"ID", "USERNAME", "ZONE", "VEHICLE", "SALARY"}, rows)
}

// FormatViolations lists assignment inconsistencies found in a snapshot.
func FormatViolations(vs []assignment.Violation) string {
	if len(vs) == 0 {
		return StyleGreen.Render("✔ Assignments are consistent.") + "\n"
	}
	rows := make([][]string, 0, len(vs))
	for _, v := range vs {
		rows = append(rows, []string{StyleRed.Render(string(v.Code)), strings.Join(v.EntityIDs, ", "), v.Message})
	}
	return RenderTable([]string{"CODE", "ENTITIES", "PROBLEM"}, rows)
}
