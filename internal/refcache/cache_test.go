package refcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alexanderramin/fieldops/internal/apiclient"
	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cred = apiclient.Credential("tok")

type fakeSource struct {
	zoneCalls atomic.Int32
	zonesFn   func(n int32) ([]domain.Zone, error)

	vehicles []domain.Vehicle
	drivers  []domain.Driver
	manpower []domain.Manpower
	failKind domain.EntityKind
}

func (f *fakeSource) ListZones(ctx context.Context, _ apiclient.Credential) ([]domain.Zone, error) {
	n := f.zoneCalls.Add(1)
	if f.zonesFn != nil {
		return f.zonesFn(n)
	}
	if f.failKind == domain.KindZones {
		return nil, errors.New("boom")
	}
	return []domain.Zone{{ID: "z1", Name: "Kicukiro"}, {ID: "z2", Name: "Gasabo"}}, nil
}

func (f *fakeSource) ListVehicles(ctx context.Context, _ apiclient.Credential) ([]domain.Vehicle, error) {
	if f.failKind == domain.KindVehicles {
		return nil, errors.New("vehicles down")
	}
	return f.vehicles, nil
}

func (f *fakeSource) ListDriversWithAssignments(ctx context.Context, _ apiclient.Credential) ([]domain.Driver, error) {
	return f.drivers, nil
}

func (f *fakeSource) ListManpower(ctx context.Context, _ apiclient.Credential) ([]domain.Manpower, error) {
	return f.manpower, nil
}

func TestCache_LoadsOnceUntilInvalidated(t *testing.T) {
	src := &fakeSource{}
	c := New(src)
	ctx := context.Background()

	zones, err := c.Zones(ctx, cred)
	require.NoError(t, err)
	assert.Len(t, zones, 2)

	_, err = c.Zones(ctx, cred)
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.zoneCalls.Load())

	c.Invalidate(domain.KindZones)
	_, ok := c.Zone("z1")
	assert.False(t, ok, "invalidated collections are not served")

	_, err = c.Zones(ctx, cred)
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.zoneCalls.Load())
}

func TestCache_LookupByID(t *testing.T) {
	c := New(&fakeSource{})

	_, ok := c.Zone("z2")
	assert.False(t, ok, "lookups never fetch")

	_, err := c.Zones(context.Background(), cred)
	require.NoError(t, err)

	z, ok := c.Zone("z2")
	require.True(t, ok)
	assert.Equal(t, "Gasabo", z.Name)

	_, ok = c.Zone("nope")
	assert.False(t, ok)
}

func TestCache_FailureIsEmptyPlusError(t *testing.T) {
	src := &fakeSource{failKind: domain.KindZones}
	c := New(src)

	zones, err := c.Zones(context.Background(), cred)

	require.Error(t, err)
	assert.NotNil(t, zones)
	assert.Empty(t, zones)

	src.failKind = ""
	_, err = c.Zones(context.Background(), cred)
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.zoneCalls.Load(), "a failed load is retried on the next read")
}

func TestCache_EmptyListIsNotAnError(t *testing.T) {
	c := New(&fakeSource{})

	vehicles, err := c.Vehicles(context.Background(), cred)

	require.NoError(t, err)
	assert.NotNil(t, vehicles)
	assert.Empty(t, vehicles)

	opts, err := c.Load(context.Background(), cred, domain.KindVehicles)
	require.NoError(t, err)
	assert.Empty(t, opts)
}

func TestCache_ReturnedSliceIsACopy(t *testing.T) {
	c := New(&fakeSource{})
	zones, err := c.Zones(context.Background(), cred)
	require.NoError(t, err)

	zones[0].Name = "mutated"

	z, _ := c.Zone("z1")
	assert.Equal(t, "Kicukiro", z.Name)
}

func TestCache_ConcurrentLoadsLastResponseWins(t *testing.T) {
	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})
	src := &fakeSource{
		zonesFn: func(n int32) ([]domain.Zone, error) {
			if n == 1 {
				close(firstStarted)
				<-releaseFirst
				return []domain.Zone{{ID: "z1", Name: "late"}}, nil
			}
			return []domain.Zone{{ID: "z1", Name: "early"}}, nil
		},
	}
	c := New(src)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = c.Zones(ctx, cred)
	}()
	<-firstStarted

	zones, err := c.Zones(ctx, cred)
	require.NoError(t, err)
	assert.Equal(t, "early", zones[0].Name)

	close(releaseFirst)
	wg.Wait()

	z, ok := c.Zone("z1")
	require.True(t, ok)
	assert.Equal(t, "late", z.Name)
}

func TestCache_LoadOptions(t *testing.T) {
	vid := "v1"
	src := &fakeSource{
		vehicles: []domain.Vehicle{{ID: "v1", Plate: "RAD123A"}},
		drivers:  []domain.Driver{{ID: "d1", Username: "jdoe", VehicleID: &vid}},
		manpower: []domain.Manpower{{ID: "m1", Username: "alice"}},
	}
	c := New(src)
	ctx := context.Background()

	opts, err := c.Load(ctx, cred, domain.KindVehicles)
	require.NoError(t, err)
	assert.Equal(t, []Option{{Kind: domain.KindVehicles, ID: "v1", Label: "RAD123A"}}, opts)

	opts, err = c.Load(ctx, cred, domain.KindManpower)
	require.NoError(t, err)
	assert.Equal(t, "alice", opts[0].Label)

	opts, err = c.Load(ctx, cred, domain.EntityKind("clients"))
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "kind", verr.Field)
	assert.Empty(t, opts)
}

func TestCache_Snapshot(t *testing.T) {
	src := &fakeSource{
		vehicles: []domain.Vehicle{{ID: "v1", Plate: "RAD123A"}},
		manpower: []domain.Manpower{{ID: "m1", Username: "alice"}},
	}
	c := New(src)

	snap, err := c.Snapshot(context.Background(), cred)
	require.NoError(t, err)
	assert.Len(t, snap.Zones, 2)
	assert.Len(t, snap.Vehicles, 1)
	assert.Empty(t, snap.Drivers)
	assert.Len(t, snap.Manpower, 1)
}

func TestCache_SnapshotFailureNamesKind(t *testing.T) {
	c := New(&fakeSource{failKind: domain.KindVehicles})

	_, err := c.Snapshot(context.Background(), cred)

	var lerr *LoadError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, domain.KindVehicles, lerr.Kind)
	_, ok := c.Zone("z1")
	assert.True(t, ok, "successful collections stay cached")
}
