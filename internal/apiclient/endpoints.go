package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/alexanderramin/fieldops/internal/domain"
)

// Route templates, also used as metric labels.
const (
	RouteZones            = "/zones"
	RouteZone             = "/zones/:id"
	RouteVehicles         = "/manager/vehicles"
	RouteDrivers          = "/manager/drivers/with-assignments"
	RouteDriverVehicle    = "/manager/drivers/:id/vehicle"
	RouteDriverCrew       = "/manager/drivers/:id/vehicle/manpowers"
	RouteManpower         = "/manager/manpower"
	RouteManpowerByZone   = "/manager/manpower/by-zone/:id"
	RouteManpowerZone     = "/manager/manpower/:id/zone"
	RouteZoneReport       = "/manager/reports/zones"
	RouteDriverSchedule   = "/driver/schedule"
	RouteManpowerSchedule = "/manpower/schedule"
	RouteSummary          = "/superuser/summary"
	RouteResetManager     = "/superuser/reset-manager"
	RouteResetSupervisors = "/superuser/reset-supervisors"
)

// listing decodes the array under key record by record into out. A null or
// missing-but-present array is an empty listing; a missing key is not.
func listing[W any, T any, PW interface {
	*W
	record[T]
}](key string, out *[]T) decoder {
	return func(body []byte) (int, error) {
		var env map[string]json.RawMessage
		if err := json.Unmarshal(body, &env); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		raw, ok := env[key]
		if !ok {
			return 0, fmt.Errorf("%w: missing %q", ErrInvalidPayload, key)
		}
		*out = []T{}
		if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return 0, nil
		}
		var raws []json.RawMessage
		if err := json.Unmarshal(raw, &raws); err != nil {
			return 0, fmt.Errorf("%w: %q is not a list", ErrInvalidPayload, key)
		}
		items, rejected := decodeList[W, T, PW](raws)
		*out = items
		return rejected, nil
	}
}

func (c *Client) ListZones(ctx context.Context, cred Credential) ([]domain.Zone, error) {
	var zones []domain.Zone
	err := c.do(ctx, cred, newCall(http.MethodGet, RouteZones), listing[wireZone]("zones", &zones))
	return zones, err
}

// ZoneDetail is a zone together with its payment block.
type ZoneDetail struct {
	Zone     domain.Zone
	Payments domain.ZonePayments
}

func (c *Client) GetZone(ctx context.Context, cred Credential, zoneID string) (*ZoneDetail, error) {
	var env struct {
		Zone     json.RawMessage `json:"zone"`
		Payments wirePayments    `json:"payments"`
	}
	if err := c.do(ctx, cred, newCall(http.MethodGet, RouteZone, zoneID), into(&env)); err != nil {
		return nil, err
	}
	zone, err := decodeOne[wireZone, domain.Zone](env.Zone)
	if err != nil {
		return nil, err
	}
	return &ZoneDetail{Zone: zone, Payments: env.Payments.toDomain()}, nil
}

func (c *Client) ListVehicles(ctx context.Context, cred Credential) ([]domain.Vehicle, error) {
	var vehicles []domain.Vehicle
	err := c.do(ctx, cred, newCall(http.MethodGet, RouteVehicles), listing[wireVehicle]("vehicles", &vehicles))
	return vehicles, err
}

// RegisterVehicle validates the input locally before creating the vehicle.
func (c *Client) RegisterVehicle(ctx context.Context, cred Credential, in VehicleInput) (*domain.Vehicle, error) {
	in.Plate = domain.NormalizePlate(in.Plate)
	if err := validate.Struct(in); err != nil {
		return nil, domain.Invalid("plate", "is required")
	}
	var env struct {
		Vehicle json.RawMessage `json:"vehicle"`
	}
	if err := c.do(ctx, cred, newCall(http.MethodPost, RouteVehicles).with(in), into(&env)); err != nil {
		return nil, err
	}
	v, err := decodeOne[wireVehicle, domain.Vehicle](env.Vehicle)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Client) ListDriversWithAssignments(ctx context.Context, cred Credential) ([]domain.Driver, error) {
	var drivers []domain.Driver
	err := c.do(ctx, cred, newCall(http.MethodGet, RouteDrivers), listing[wireDriver]("drivers", &drivers))
	return drivers, err
}

// SetDriverVehicle links driverID to vehicleID. The server keeps both sides
// of the link consistent.
func (c *Client) SetDriverVehicle(ctx context.Context, cred Credential, driverID, vehicleID string) error {
	req := newCall(http.MethodPatch, RouteDriverVehicle, driverID).with(setVehicleBody{VehicleID: vehicleID})
	return c.do(ctx, cred, req, nil)
}

func (c *Client) ClearDriverVehicle(ctx context.Context, cred Credential, driverID string) error {
	return c.do(ctx, cred, newCall(http.MethodDelete, RouteDriverVehicle, driverID), nil)
}

// SetVehicleCrew replaces the crew of driverID's vehicle with manpowerIDs.
// It is a full replacement, so repeating it is safe.
func (c *Client) SetVehicleCrew(ctx context.Context, cred Credential, driverID string, manpowerIDs []string) error {
	ids := domain.UniqueOrdered(manpowerIDs)
	req := newCall(http.MethodPatch, RouteDriverCrew, driverID).with(setCrewBody{ManpowerIDs: ids})
	return c.do(ctx, cred, req, nil)
}

func (c *Client) ListManpower(ctx context.Context, cred Credential) ([]domain.Manpower, error) {
	var members []domain.Manpower
	err := c.do(ctx, cred, newCall(http.MethodGet, RouteManpower), listing[wireManpower]("manpower", &members))
	return members, err
}

func (c *Client) ListManpowerByZone(ctx context.Context, cred Credential, zoneID string) ([]domain.UserRef, error) {
	var members []domain.UserRef
	req := newCall(http.MethodGet, RouteManpowerByZone, zoneID)
	err := c.do(ctx, cred, req, listing[wireMember]("manpower", &members))
	return members, err
}

func (c *Client) SetManpowerZone(ctx context.Context, cred Credential, manpowerID, zoneID string) error {
	req := newCall(http.MethodPatch, RouteManpowerZone, manpowerID).with(setZoneBody{ZoneID: zoneID})
	return c.do(ctx, cred, req, nil)
}

func (c *Client) ClearManpowerZone(ctx context.Context, cred Credential, manpowerID string) error {
	return c.do(ctx, cred, newCall(http.MethodDelete, RouteManpowerZone, manpowerID), nil)
}

// DriverSchedule and ManpowerSchedule report dropped entries in ListMeta so
// that data checks can count them.
func (c *Client) DriverSchedule(ctx context.Context, cred Credential) ([]domain.ScheduleEntry, ListMeta, error) {
	return c.schedule(ctx, cred, RouteDriverSchedule)
}

func (c *Client) ManpowerSchedule(ctx context.Context, cred Credential) ([]domain.ScheduleEntry, ListMeta, error) {
	return c.schedule(ctx, cred, RouteManpowerSchedule)
}

func (c *Client) schedule(ctx context.Context, cred Credential, route string) ([]domain.ScheduleEntry, ListMeta, error) {
	var entries []domain.ScheduleEntry
	meta, err := c.list(ctx, cred, newCall(http.MethodGet, route), listing[wireScheduleEntry]("schedule", &entries))
	return entries, meta, err
}

// ZoneReport drops invalid rows; meta.Rejected says how many, since the
// totals then undercount.
func (c *Client) ZoneReport(ctx context.Context, cred Credential) ([]domain.ZoneFigures, ListMeta, error) {
	var figs []domain.ZoneFigures
	meta, err := c.list(ctx, cred, newCall(http.MethodGet, RouteZoneReport), listing[wireZoneFigures]("zones", &figs))
	return figs, meta, err
}

func (c *Client) SuperuserSummary(ctx context.Context, cred Credential) (*domain.SystemSummary, error) {
	var s wireSummary
	if err := c.do(ctx, cred, newCall(http.MethodGet, RouteSummary), into(&s)); err != nil {
		return nil, err
	}
	return &domain.SystemSummary{
		Users:   int(s.Users),
		Clients: int(s.Clients),
		Total:   s.Total.Decimal,
	}, nil
}

// ResetManager and ResetSupervisors are destructive but idempotent.
func (c *Client) ResetManager(ctx context.Context, cred Credential) error {
	return c.do(ctx, cred, newCall(http.MethodPost, RouteResetManager), nil)
}

func (c *Client) ResetSupervisors(ctx context.Context, cred Credential) error {
	return c.do(ctx, cred, newCall(http.MethodPost, RouteResetSupervisors), nil)
}
