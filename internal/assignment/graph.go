// Package assignment answers consistency questions about the current
// driver, vehicle, crew and zone links. A Graph is built from one cache
// snapshot and has no mutators; rebuild it to see newer data.
package assignment

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/alexanderramin/fieldops/internal/refcache"
)

type ViolationCode string

const (
	ViolationVehicleShared  ViolationCode = "VEHICLE_SHARED"
	ViolationCrewOverlap    ViolationCode = "CREW_OVERLAP"
	ViolationUnknownMember  ViolationCode = "UNKNOWN_CREW_MEMBER"
	ViolationUnknownVehicle ViolationCode = "UNKNOWN_VEHICLE"
	ViolationUnknownZone    ViolationCode = "UNKNOWN_ZONE"
	ViolationDuplicatePlate ViolationCode = "DUPLICATE_PLATE"
)

// Violation is a data-quality finding in the server's current state.
type Violation struct {
	Code      ViolationCode
	EntityIDs []string
	Message   string
}

// CrewRef places a manpower member in a vehicle crew.
type CrewRef struct {
	ManpowerID string
	Username   string
	VehicleID  string
	Plate      string
	DriverID   string
}

type Graph struct {
	zones    map[string]domain.Zone
	vehicles map[string]domain.Vehicle
	drivers  map[string]domain.Driver
	manpower map[string]domain.Manpower

	zoneOrder     []string
	vehicleOrder  []string
	driverOrder   []string
	manpowerOrder []string

	// vehicle id -> ids of drivers claiming it, in listing order
	claims map[string][]string
	// manpower id -> vehicle ids whose crew lists it
	memberOf map[string][]string
	// manpower id -> username as reported in crew listings
	crewNames map[string]string

	violations []Violation
}

// Build indexes a snapshot. It never fails; inconsistencies become
// violations.
func Build(s *refcache.Snapshot) *Graph {
	g := &Graph{
		zones:     make(map[string]domain.Zone),
		vehicles:  make(map[string]domain.Vehicle),
		drivers:   make(map[string]domain.Driver),
		manpower:  make(map[string]domain.Manpower),
		claims:    make(map[string][]string),
		memberOf:  make(map[string][]string),
		crewNames: make(map[string]string),
	}
	if s == nil {
		return g
	}

	for _, z := range s.Zones {
		if _, dup := g.zones[z.ID]; !dup {
			g.zoneOrder = append(g.zoneOrder, z.ID)
		}
		g.zones[z.ID] = z
	}
	plates := make(map[string]string)
	for _, v := range s.Vehicles {
		if _, dup := g.vehicles[v.ID]; !dup {
			g.vehicleOrder = append(g.vehicleOrder, v.ID)
		}
		g.vehicles[v.ID] = v
		if other, ok := plates[v.Plate]; ok && other != v.ID {
			g.violate(ViolationDuplicatePlate, []string{other, v.ID}, "plate %s is used by vehicles %s and %s", v.Plate, other, v.ID)
		}
		plates[v.Plate] = v.ID
	}
	for _, d := range s.Drivers {
		if _, dup := g.drivers[d.ID]; !dup {
			g.driverOrder = append(g.driverOrder, d.ID)
		}
		g.drivers[d.ID] = d
	}
	for _, m := range s.Manpower {
		if _, dup := g.manpower[m.ID]; !dup {
			g.manpowerOrder = append(g.manpowerOrder, m.ID)
		}
		m.VehicleID = nil
		g.manpower[m.ID] = m
	}

	for _, id := range g.driverOrder {
		d := g.drivers[id]
		if d.VehicleID == nil {
			continue
		}
		vid := *d.VehicleID
		g.claims[vid] = append(g.claims[vid], d.ID)
		if _, ok := g.vehicles[vid]; !ok {
			g.violate(ViolationUnknownVehicle, []string{d.ID, vid}, "driver %s is linked to unknown vehicle %s", d.Username, vid)
		}
		for _, u := range d.Crew {
			g.crewNames[u.ID] = u.Username
		}
		for _, mid := range d.CrewIDs {
			g.memberOf[mid] = appendUnique(g.memberOf[mid], vid)
			if _, ok := g.manpower[mid]; !ok {
				g.violate(ViolationUnknownMember, []string{vid, mid}, "crew of vehicle %s lists unknown manpower %s", g.plate(vid), mid)
			}
		}
	}

	for _, vid := range sortedKeys(g.claims) {
		if ds := g.claims[vid]; len(ds) > 1 {
			g.violate(ViolationVehicleShared, append([]string{vid}, ds...),
				"vehicle %s is linked to %d drivers", g.plate(vid), len(ds))
		}
	}
	for _, mid := range sortedKeys(g.memberOf) {
		vs := g.memberOf[mid]
		if len(vs) > 1 {
			g.violate(ViolationCrewOverlap, append([]string{mid}, vs...),
				"manpower %s sits in %d crews", g.username(mid), len(vs))
		}
		if m, ok := g.manpower[mid]; ok {
			vid := vs[0]
			m.VehicleID = &vid
			g.manpower[mid] = m
		}
	}
	for _, mid := range g.manpowerOrder {
		m := g.manpower[mid]
		if m.ZoneID == nil {
			continue
		}
		if _, ok := g.zones[*m.ZoneID]; !ok {
			g.violate(ViolationUnknownZone, []string{mid, *m.ZoneID}, "manpower %s belongs to unknown zone %s", m.Username, *m.ZoneID)
		}
	}
	return g
}

func (g *Graph) violate(code ViolationCode, ids []string, format string, args ...any) {
	g.violations = append(g.violations, Violation{Code: code, EntityIDs: ids, Message: fmt.Sprintf(format, args...)})
}

// Violations lists data-quality findings in deterministic order.
func (g *Graph) Violations() []Violation {
	out := make([]Violation, len(g.violations))
	copy(out, g.violations)
	return out
}

// --- lookups ---

func (g *Graph) Zone(id string) (domain.Zone, bool) {
	z, ok := g.zones[id]
	return z, ok
}

func (g *Graph) Vehicle(id string) (domain.Vehicle, bool) {
	v, ok := g.vehicles[id]
	return v, ok
}

func (g *Graph) Driver(id string) (domain.Driver, bool) {
	d, ok := g.drivers[id]
	return d, ok
}

func (g *Graph) Manpower(id string) (domain.Manpower, bool) {
	m, ok := g.manpower[id]
	return m, ok
}

func (g *Graph) Zones() []domain.Zone {
	return collect(g.zoneOrder, g.zones)
}

func (g *Graph) Vehicles() []domain.Vehicle {
	return collect(g.vehicleOrder, g.vehicles)
}

func (g *Graph) Drivers() []domain.Driver {
	return collect(g.driverOrder, g.drivers)
}

func (g *Graph) AllManpower() []domain.Manpower {
	return collect(g.manpowerOrder, g.manpower)
}

// --- relations ---

// DriverOfVehicle returns the driver holding vehicleID.
func (g *Graph) DriverOfVehicle(vehicleID string) (domain.Driver, bool) {
	ds := g.claims[vehicleID]
	if len(ds) == 0 {
		return domain.Driver{}, false
	}
	return g.drivers[ds[0]], true
}

// VehicleOfDriver returns the vehicle driverID holds. A link to a vehicle
// missing from the vehicle listing still reports the id.
func (g *Graph) VehicleOfDriver(driverID string) (domain.Vehicle, bool) {
	d, ok := g.drivers[driverID]
	if !ok || d.VehicleID == nil {
		return domain.Vehicle{}, false
	}
	if v, ok := g.vehicles[*d.VehicleID]; ok {
		return v, true
	}
	return domain.Vehicle{ID: *d.VehicleID, Plate: d.VehiclePlate}, true
}

// VehicleTakenByOther reports the driver other than driverID that holds
// vehicleID, if any.
func (g *Graph) VehicleTakenByOther(vehicleID, driverID string) (domain.Driver, bool) {
	for _, id := range g.claims[vehicleID] {
		if id != driverID {
			return g.drivers[id], true
		}
	}
	return domain.Driver{}, false
}

// Crew returns the members of vehicleID's crew in submitted order. Members
// missing from the manpower listing are returned with what the crew listing
// knows about them.
func (g *Graph) Crew(vehicleID string) []domain.Manpower {
	out := []domain.Manpower{}
	d, ok := g.DriverOfVehicle(vehicleID)
	if !ok {
		return out
	}
	for _, mid := range d.CrewIDs {
		if m, ok := g.manpower[mid]; ok {
			out = append(out, m)
			continue
		}
		vid := vehicleID
		out = append(out, domain.Manpower{ID: mid, Username: g.username(mid), VehicleID: &vid})
	}
	return out
}

// CrewIDs returns the ids in vehicleID's crew.
func (g *Graph) CrewIDs(vehicleID string) []string {
	d, ok := g.DriverOfVehicle(vehicleID)
	if !ok {
		return []string{}
	}
	return append([]string{}, d.CrewIDs...)
}

// CrewVehicleOf returns the vehicle whose crew lists manpowerID.
func (g *Graph) CrewVehicleOf(manpowerID string) (string, bool) {
	vs := g.memberOf[manpowerID]
	if len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// ZoneMembers returns the manpower whose zone is zoneID.
func (g *Graph) ZoneMembers(zoneID string) []domain.Manpower {
	out := []domain.Manpower{}
	for _, id := range g.manpowerOrder {
		m := g.manpower[id]
		if m.ZoneID != nil && *m.ZoneID == zoneID {
			out = append(out, m)
		}
	}
	return out
}

// OrphanedCrewRefs lists which of manpowerIDs still sit in a vehicle crew.
// Clearing their zone leaves those crew references pointing at workers
// with no zone.
func (g *Graph) OrphanedCrewRefs(manpowerIDs []string) []CrewRef {
	var out []CrewRef
	for _, mid := range domain.UniqueOrdered(manpowerIDs) {
		for _, vid := range g.memberOf[mid] {
			ref := CrewRef{ManpowerID: mid, Username: g.username(mid), VehicleID: vid, Plate: g.plate(vid)}
			if d, ok := g.DriverOfVehicle(vid); ok {
				ref.DriverID = d.ID
			}
			out = append(out, ref)
		}
	}
	return out
}

// ZonesForDriver is the display projection of zones reachable through the
// driver's vehicle: the zones the server reports first, then the zones of
// crew members.
func (g *Graph) ZonesForDriver(driverID string) []domain.ZoneRef {
	out := []domain.ZoneRef{}
	d, ok := g.drivers[driverID]
	if !ok {
		return out
	}
	seen := make(map[string]bool)
	for _, z := range d.Zones {
		if !seen[z.ID] {
			seen[z.ID] = true
			out = append(out, z)
		}
	}
	if d.VehicleID == nil {
		return out
	}
	for _, m := range g.Crew(*d.VehicleID) {
		if m.ZoneID == nil || seen[*m.ZoneID] {
			continue
		}
		seen[*m.ZoneID] = true
		ref := domain.ZoneRef{ID: *m.ZoneID}
		if z, ok := g.zones[*m.ZoneID]; ok {
			ref.Name = z.Name
		}
		out = append(out, ref)
	}
	return out
}

// --- resolution by human key ---

func (g *Graph) VehicleByPlate(plate string) (domain.Vehicle, bool) {
	plate = domain.NormalizePlate(plate)
	for _, id := range g.vehicleOrder {
		if v := g.vehicles[id]; v.Plate == plate {
			return v, true
		}
	}
	return domain.Vehicle{}, false
}

func (g *Graph) DriverByUsername(username string) (domain.Driver, bool) {
	for _, id := range g.driverOrder {
		if d := g.drivers[id]; strings.EqualFold(d.Username, username) {
			return d, true
		}
	}
	return domain.Driver{}, false
}

func (g *Graph) ManpowerByUsername(username string) (domain.Manpower, bool) {
	for _, id := range g.manpowerOrder {
		if m := g.manpower[id]; strings.EqualFold(m.Username, username) {
			return m, true
		}
	}
	return domain.Manpower{}, false
}

func (g *Graph) ZoneByName(name string) (domain.Zone, bool) {
	for _, id := range g.zoneOrder {
		if z := g.zones[id]; strings.EqualFold(z.Name, name) {
			return z, true
		}
	}
	return domain.Zone{}, false
}

// --- helpers ---

func (g *Graph) plate(vehicleID string) string {
	if v, ok := g.vehicles[vehicleID]; ok {
		return v.Plate
	}
	for _, did := range g.claims[vehicleID] {
		if p := g.drivers[did].VehiclePlate; p != "" {
			return p
		}
	}
	return vehicleID
}

func (g *Graph) username(manpowerID string) string {
	if m, ok := g.manpower[manpowerID]; ok {
		return m.Username
	}
	return domain.CoalesceStr(g.crewNames[manpowerID], manpowerID)
}

func collect[T any](order []string, m map[string]T) []T {
	out := make([]T, 0, len(order))
	for _, id := range order {
		out = append(out, m[id])
	}
	return out
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
