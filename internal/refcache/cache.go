// Package refcache holds the last-fetched snapshot of each reference
// collection. It never patches entries in place: a collection is either
// fully loaded from the server or absent.
package refcache

import (
	"context"
	"fmt"
	"sync"

	"github.com/alexanderramin/fieldops/internal/apiclient"
	"github.com/alexanderramin/fieldops/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Source is the subset of the API the cache reads from.
type Source interface {
	ListZones(ctx context.Context, cred apiclient.Credential) ([]domain.Zone, error)
	ListVehicles(ctx context.Context, cred apiclient.Credential) ([]domain.Vehicle, error)
	ListDriversWithAssignments(ctx context.Context, cred apiclient.Credential) ([]domain.Driver, error)
	ListManpower(ctx context.Context, cred apiclient.Credential) ([]domain.Manpower, error)
}

// Option is a picker entry: an id with a human label.
type Option struct {
	Kind  domain.EntityKind
	ID    string
	Label string
}

// collection is one cached listing, indexed by id.
type collection[T any] struct {
	items []T
	byID  map[string]int
}

func newCollection[T any](items []T, id func(T) string) *collection[T] {
	c := &collection[T]{items: items, byID: make(map[string]int, len(items))}
	for i, it := range items {
		c.byID[id(it)] = i
	}
	return c
}

func (c *collection[T]) get(id string) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	i, ok := c.byID[id]
	if !ok {
		return zero, false
	}
	return c.items[i], true
}

func (c *collection[T]) list() []T {
	if c == nil {
		return []T{}
	}
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Cache is safe for concurrent use. Concurrent loads of one kind are not
// coalesced: whichever response arrives last is kept.
type Cache struct {
	src Source

	mu       sync.RWMutex
	zones    *collection[domain.Zone]
	vehicles *collection[domain.Vehicle]
	drivers  *collection[domain.Driver]
	manpower *collection[domain.Manpower]
}

func New(src Source) *Cache {
	return &Cache{src: src}
}

// Zones returns the cached zones, fetching them when absent. On failure the
// result is an empty list together with the error.
func (c *Cache) Zones(ctx context.Context, cred apiclient.Credential) ([]domain.Zone, error) {
	return load(c, &c.zones, func() ([]domain.Zone, error) { return c.src.ListZones(ctx, cred) },
		func(z domain.Zone) string { return z.ID })
}

func (c *Cache) Vehicles(ctx context.Context, cred apiclient.Credential) ([]domain.Vehicle, error) {
	return load(c, &c.vehicles, func() ([]domain.Vehicle, error) { return c.src.ListVehicles(ctx, cred) },
		func(v domain.Vehicle) string { return v.ID })
}

func (c *Cache) Drivers(ctx context.Context, cred apiclient.Credential) ([]domain.Driver, error) {
	return load(c, &c.drivers, func() ([]domain.Driver, error) { return c.src.ListDriversWithAssignments(ctx, cred) },
		func(d domain.Driver) string { return d.ID })
}

func (c *Cache) Manpower(ctx context.Context, cred apiclient.Credential) ([]domain.Manpower, error) {
	return load(c, &c.manpower, func() ([]domain.Manpower, error) { return c.src.ListManpower(ctx, cred) },
		func(m domain.Manpower) string { return m.ID })
}

func load[T any](c *Cache, slot **collection[T], fetch func() ([]T, error), id func(T) string) ([]T, error) {
	c.mu.RLock()
	cached := *slot
	c.mu.RUnlock()
	if cached != nil {
		return cached.list(), nil
	}

	items, err := fetch()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		*slot = nil
		return []T{}, err
	}
	if items == nil {
		items = []T{}
	}
	fresh := newCollection(items, id)
	*slot = fresh
	return fresh.list(), nil
}

// Load returns picker options for kind.
func (c *Cache) Load(ctx context.Context, cred apiclient.Credential, kind domain.EntityKind) ([]Option, error) {
	if !kind.Valid() {
		return []Option{}, domain.Invalid("kind", "unknown entity kind %q", kind)
	}
	switch kind {
	case domain.KindZones:
		zones, err := c.Zones(ctx, cred)
		return options(kind, zones, func(z domain.Zone) (string, string) { return z.ID, z.Name }), err
	case domain.KindVehicles:
		vehicles, err := c.Vehicles(ctx, cred)
		return options(kind, vehicles, func(v domain.Vehicle) (string, string) { return v.ID, v.Plate }), err
	case domain.KindDrivers:
		drivers, err := c.Drivers(ctx, cred)
		return options(kind, drivers, func(d domain.Driver) (string, string) { return d.ID, d.Username }), err
	case domain.KindManpower:
		members, err := c.Manpower(ctx, cred)
		return options(kind, members, func(m domain.Manpower) (string, string) { return m.ID, m.Username }), err
	}
	return []Option{}, nil
}

func options[T any](kind domain.EntityKind, items []T, f func(T) (string, string)) []Option {
	out := make([]Option, 0, len(items))
	for _, it := range items {
		id, label := f(it)
		out = append(out, Option{Kind: kind, ID: id, Label: label})
	}
	return out
}

// Invalidate drops the given collections; the next read reloads them.
func (c *Cache) Invalidate(kinds ...domain.EntityKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range kinds {
		switch k {
		case domain.KindZones:
			c.zones = nil
		case domain.KindVehicles:
			c.vehicles = nil
		case domain.KindDrivers:
			c.drivers = nil
		case domain.KindManpower:
			c.manpower = nil
		}
	}
}

// Lookups answer from whatever is cached and never fetch.

func (c *Cache) Zone(id string) (domain.Zone, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.zones.get(id)
}

func (c *Cache) Driver(id string) (domain.Driver, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.drivers.get(id)
}

// Snapshot is an immutable copy of all four collections.
type Snapshot struct {
	Zones    []domain.Zone
	Vehicles []domain.Vehicle
	Drivers  []domain.Driver
	Manpower []domain.Manpower
}

// Snapshot loads every collection concurrently. Any failure fails the
// snapshot; collections that did load stay cached.
func (c *Cache) Snapshot(ctx context.Context, cred apiclient.Credential) (*Snapshot, error) {
	var s Snapshot
	var g errgroup.Group
	g.Go(func() (err error) { s.Zones, err = c.Zones(ctx, cred); return wrapKind(domain.KindZones, err) })
	g.Go(func() (err error) { s.Vehicles, err = c.Vehicles(ctx, cred); return wrapKind(domain.KindVehicles, err) })
	g.Go(func() (err error) { s.Drivers, err = c.Drivers(ctx, cred); return wrapKind(domain.KindDrivers, err) })
	g.Go(func() (err error) { s.Manpower, err = c.Manpower(ctx, cred); return wrapKind(domain.KindManpower, err) })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadError names the collection whose load failed.
type LoadError struct {
	Kind domain.EntityKind
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func wrapKind(kind domain.EntityKind, err error) error {
	if err == nil {
		return nil
	}
	return &LoadError{Kind: kind, Err: err}
}
