package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Vehicle struct {
	ID    string
	Plate string
	Make  string
	Model string
}

// NormalizePlate upper-cases a plate and strips all whitespace.
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.Join(strings.Fields(plate), ""))
}

// ValidatePlate checks that a plate is non-empty once normalized.
func ValidatePlate(plate string) error {
	if NormalizePlate(plate) == "" {
		return Invalid("plate", "is required")
	}
	return nil
}

// Driver is a driver together with the read projection of their vehicle's
// crew and the zones reachable through it.
type Driver struct {
	ID           string
	Username     string
	VehicleID    *string
	VehiclePlate string
	CrewIDs      []string
	Crew         []UserRef
	Zones        []ZoneRef
}

// HasVehicle reports whether the driver currently holds a vehicle.
func (d *Driver) HasVehicle() bool {
	return d.VehicleID != nil
}

// Manpower is an auxiliary field worker. Zone membership and crew membership
// are independent relations.
type Manpower struct {
	ID        string
	Username  string
	ZoneID    *string
	VehicleID *string
	Salary    *decimal.Decimal
}
