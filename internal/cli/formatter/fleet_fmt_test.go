package formatter

import (
	"testing"

	"github.com/alexanderramin/fieldops/internal/apiclient"
	"github.com/alexanderramin/fieldops/internal/assignment"
	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/alexanderramin/fieldops/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func fleetGraph() *assignment.Graph {
	zone := testutil.NewTestZone("z1", "Kicukiro", testutil.WithLocation("Niboye", "Gatare"))
	truck := testutil.NewTestVehicle("v1", "RAD123A")
	van := testutil.NewTestVehicle("v2", "RAB777C")
	alice := testutil.NewTestManpower("m1", "alice", testutil.InZone(zone), testutil.WithSalary(120000))
	bob := testutil.NewTestManpower("m2", "bob")
	jdoe := testutil.NewTestDriver("d1", "jdoe", testutil.WithVehicle(truck), testutil.WithCrew(alice, bob))
	mary := testutil.NewTestDriver("d2", "mary")
	return assignment.Build(testutil.NewSnapshot().
		Zones(zone).
		Vehicles(truck, van).
		Drivers(jdoe, mary).
		Manpower(alice, bob).
		Build())
}

func TestFormatDrivers(t *testing.T) {
	out := stripANSI(FormatDrivers(fleetGraph()))

	assert.Contains(t, out, "RAD123A")
	assert.Contains(t, out, "alice, bob")
	assert.Contains(t, out, "Kicukiro")
	assert.Contains(t, out, "mary")
}

func TestFormatVehicles_ShowsDriverAndCrewSize(t *testing.T) {
	out := stripANSI(FormatVehicles(fleetGraph()))

	assert.Contains(t, out, "jdoe")
	assert.Contains(t, out, "unassigned")
	assert.Regexp(t, `RAD123A\s+.*jdoe\s+2`, out)
}

func TestFormatManpower_DerivesVehicleFromCrew(t *testing.T) {
	out := stripANSI(FormatManpower(fleetGraph()))

	assert.Regexp(t, `alice\s+Kicukiro\s+RAD123A\s+120000.00`, out)
	assert.Regexp(t, `bob\s+--\s+RAD123A`, out)
}

func TestFormatZones_CountsMembers(t *testing.T) {
	out := stripANSI(FormatZones(fleetGraph()))
	assert.Regexp(t, `Kicukiro\s+Niboye\s+Gatare\s+1`, out)
}

func TestFormatZoneDetail_OutstandingCanBeNegative(t *testing.T) {
	out := stripANSI(FormatZoneDetail(&apiclient.ZoneDetail{
		Zone: domain.Zone{ID: "z1", Name: "Kicukiro"},
		Payments: domain.ZonePayments{
			AmountToBePaid:   decimal.NewFromInt(100),
			CurrentMonthPaid: decimal.NewFromInt(115),
			TodayPaid:        decimal.NewFromInt(15),
		},
	}))
	assert.Contains(t, out, "KICUKIRO")
	assert.Contains(t, out, "-15.00")
}

func TestFormatMembers(t *testing.T) {
	assert.Contains(t, stripANSI(FormatMembers("Kicukiro", nil)), "No manpower in Kicukiro")

	out := stripANSI(FormatMembers("Kicukiro", []domain.UserRef{{ID: "m1", Username: "alice"}}))
	assert.Contains(t, out, "KICUKIRO · 1 WORKER")
	assert.Contains(t, out, "alice")
}

func TestFormatViolations(t *testing.T) {
	assert.Contains(t, stripANSI(FormatViolations(nil)), "consistent")

	out := stripANSI(FormatViolations([]assignment.Violation{{
		Code:      assignment.ViolationVehicleShared,
		EntityIDs: []string{"v1", "d1", "d2"},
		Message:   "vehicle RAD123A is claimed by 2 drivers",
	}}))
	assert.Contains(t, out, "VEHICLE_SHARED")
	assert.Contains(t, out, "v1, d1, d2")
}
