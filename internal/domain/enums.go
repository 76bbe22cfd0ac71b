package domain

import "slices"

// EntityKind names one of the reference collections the console caches.
type EntityKind string

const (
	KindZones    EntityKind = "zones"
	KindVehicles EntityKind = "vehicles"
	KindDrivers  EntityKind = "drivers"
	KindManpower EntityKind = "manpower"
)

// AllKinds lists every cacheable collection in load order.
var AllKinds = []EntityKind{KindZones, KindVehicles, KindDrivers, KindManpower}

// Valid reports whether k is one of the known collections.
func (k EntityKind) Valid() bool {
	return slices.Contains(AllKinds, k)
}

// SupervisorStatus is the verification outcome recorded by a supervisor.
// The zero value means no decision has been made yet.
type SupervisorStatus string

const (
	StatusPending     SupervisorStatus = ""
	StatusComplete    SupervisorStatus = "complete"
	StatusNotComplete SupervisorStatus = "not_complete"
)

// ParseSupervisorStatus maps a raw wire value onto a SupervisorStatus.
// Unknown values report ok=false and degrade to pending.
func ParseSupervisorStatus(raw string) (SupervisorStatus, bool) {
	switch SupervisorStatus(raw) {
	case StatusPending, StatusComplete, StatusNotComplete:
		return SupervisorStatus(raw), true
	}
	return StatusPending, false
}
