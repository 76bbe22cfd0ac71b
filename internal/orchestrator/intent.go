// Package orchestrator turns one user-intended change into remote calls,
// runs them, and reports a single outcome.
//
// A batch has no server transaction behind it. When a step fails, steps
// that already ran stay applied and nothing is rolled back; callers must
// reload from the server before showing state again. Every write goes
// through here, and so does every cache invalidation.
package orchestrator

import "github.com/alexanderramin/fieldops/internal/domain"

type IntentKind string

const (
	IntentAssignVehicle         IntentKind = "assign_vehicle"
	IntentUnassignVehicle       IntentKind = "unassign_vehicle"
	IntentSetCrew               IntentKind = "set_crew"
	IntentMoveManpowerToZone    IntentKind = "move_manpower_to_zone"
	IntentUnassignManpowerZones IntentKind = "unassign_manpower_zones"
	IntentRegisterVehicle       IntentKind = "register_vehicle"
)

// Intent is a change the user asked for.
type Intent interface {
	Kind() IntentKind
	// Subject is a short human description used in logs and the journal.
	Subject() string
}

// AssignVehicle links a driver to a vehicle and, when Crew is set, replaces
// the vehicle's crew afterwards. ReleaseFromCurrent permits taking the
// vehicle away from the driver who holds it.
type AssignVehicle struct {
	DriverID           string
	VehicleID          string
	Crew               *[]string
	ReleaseFromCurrent bool
}

func (AssignVehicle) Kind() IntentKind { return IntentAssignVehicle }

func (i AssignVehicle) Subject() string {
	return "driver " + i.DriverID + " -> vehicle " + i.VehicleID
}

type UnassignVehicle struct {
	DriverID string
}

func (UnassignVehicle) Kind() IntentKind { return IntentUnassignVehicle }

func (i UnassignVehicle) Subject() string { return "driver " + i.DriverID }

// SetCrew replaces the crew of the driver's current vehicle.
type SetCrew struct {
	DriverID    string
	ManpowerIDs []string
}

func (SetCrew) Kind() IntentKind { return IntentSetCrew }

func (i SetCrew) Subject() string { return "crew of driver " + i.DriverID }

type MoveManpowerToZone struct {
	ManpowerIDs []string
	ZoneID      string
}

func (MoveManpowerToZone) Kind() IntentKind { return IntentMoveManpowerToZone }

func (i MoveManpowerToZone) Subject() string { return "manpower -> zone " + i.ZoneID }

type UnassignManpowerZones struct {
	ManpowerIDs []string
}

func (UnassignManpowerZones) Kind() IntentKind { return IntentUnassignManpowerZones }

func (UnassignManpowerZones) Subject() string { return "manpower zone membership" }

type RegisterVehicle struct {
	Plate string
	Make  string
	Model string
}

func (RegisterVehicle) Kind() IntentKind { return IntentRegisterVehicle }

func (i RegisterVehicle) Subject() string { return "vehicle " + domain.NormalizePlate(i.Plate) }

// affected lists the cache collections a successful call for the intent
// can change.
func affected(k IntentKind) []domain.EntityKind {
	switch k {
	case IntentAssignVehicle, IntentUnassignVehicle:
		return []domain.EntityKind{domain.KindDrivers, domain.KindVehicles, domain.KindManpower}
	case IntentSetCrew:
		return []domain.EntityKind{domain.KindDrivers, domain.KindManpower}
	case IntentMoveManpowerToZone, IntentUnassignManpowerZones:
		return []domain.EntityKind{domain.KindManpower, domain.KindZones, domain.KindDrivers}
	case IntentRegisterVehicle:
		return []domain.EntityKind{domain.KindVehicles}
	}
	return nil
}
