package testutil

import (
	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/alexanderramin/fieldops/internal/refcache"
	"github.com/shopspring/decimal"
)

// Zone options
type ZoneOption func(*domain.Zone)

func WithChief(id string) ZoneOption {
	return func(z *domain.Zone) {
		z.ChiefID = &id
	}
}

func WithLocation(cell, village string) ZoneOption {
	return func(z *domain.Zone) {
		z.Cell = cell
		z.Village = village
	}
}

func NewTestZone(id, name string, opts ...ZoneOption) domain.Zone {
	z := domain.Zone{ID: id, Name: name}
	for _, opt := range opts {
		opt(&z)
	}
	return z
}

func NewTestVehicle(id, plate string) domain.Vehicle {
	return domain.Vehicle{ID: id, Plate: domain.NormalizePlate(plate)}
}

// Driver options
type DriverOption func(*domain.Driver)

// WithVehicle links the driver to a vehicle.
func WithVehicle(v domain.Vehicle) DriverOption {
	return func(d *domain.Driver) {
		id := v.ID
		d.VehicleID = &id
		d.VehiclePlate = v.Plate
	}
}

// WithCrew sets the crew of the driver's vehicle in the given order.
func WithCrew(members ...domain.Manpower) DriverOption {
	return func(d *domain.Driver) {
		d.CrewIDs = []string{}
		d.Crew = []domain.UserRef{}
		for _, m := range members {
			d.CrewIDs = append(d.CrewIDs, m.ID)
			d.Crew = append(d.Crew, domain.UserRef{ID: m.ID, Username: m.Username})
		}
	}
}

func WithDriverZones(zones ...domain.Zone) DriverOption {
	return func(d *domain.Driver) {
		for _, z := range zones {
			d.Zones = append(d.Zones, domain.ZoneRef{ID: z.ID, Name: z.Name})
		}
	}
}

func NewTestDriver(id, username string, opts ...DriverOption) domain.Driver {
	d := domain.Driver{
		ID:       id,
		Username: username,
		CrewIDs:  []string{},
		Crew:     []domain.UserRef{},
		Zones:    []domain.ZoneRef{},
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// Manpower options
type ManpowerOption func(*domain.Manpower)

func InZone(z domain.Zone) ManpowerOption {
	return func(m *domain.Manpower) {
		id := z.ID
		m.ZoneID = &id
	}
}

func WithSalary(amount int64) ManpowerOption {
	return func(m *domain.Manpower) {
		s := decimal.NewFromInt(amount)
		m.Salary = &s
	}
}

func NewTestManpower(id, username string, opts ...ManpowerOption) domain.Manpower {
	m := domain.Manpower{ID: id, Username: username}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// SnapshotBuilder assembles a refcache.Snapshot for graph and planner tests.
type SnapshotBuilder struct {
	s refcache.Snapshot
}

func NewSnapshot() *SnapshotBuilder {
	return &SnapshotBuilder{s: refcache.Snapshot{
		Zones:    []domain.Zone{},
		Vehicles: []domain.Vehicle{},
		Drivers:  []domain.Driver{},
		Manpower: []domain.Manpower{},
	}}
}

func (b *SnapshotBuilder) Zones(zs ...domain.Zone) *SnapshotBuilder {
	b.s.Zones = append(b.s.Zones, zs...)
	return b
}

func (b *SnapshotBuilder) Vehicles(vs ...domain.Vehicle) *SnapshotBuilder {
	b.s.Vehicles = append(b.s.Vehicles, vs...)
	return b
}

func (b *SnapshotBuilder) Drivers(ds ...domain.Driver) *SnapshotBuilder {
	b.s.Drivers = append(b.s.Drivers, ds...)
	return b
}

func (b *SnapshotBuilder) Manpower(ms ...domain.Manpower) *SnapshotBuilder {
	b.s.Manpower = append(b.s.Manpower, ms...)
	return b
}

func (b *SnapshotBuilder) Build() *refcache.Snapshot {
	s := b.s
	return &s
}
