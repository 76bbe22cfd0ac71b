package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// wireID accepts ids sent either as JSON strings or numbers. null and blank
// strings both decode to "".
type wireID string

func (id *wireID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = wireID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number, got %s", b)
	}
	*id = wireID(n.String())
	return nil
}

func (id wireID) ptr() *string {
	return domain.NonEmptyPtr(string(id))
}

// wireCount accepts either a number or an array, counting the array.
type wireCount int

func (c *wireCount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*c = 0
	case len(b) > 0 && b[0] == '[':
		var items []json.RawMessage
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*c = wireCount(len(items))
	default:
		var n int
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("count must be a number or array, got %s", b)
		}
		*c = wireCount(n)
	}
	return nil
}

// record is implemented by every wire shape decoded from a listing.
type record[T any] interface {
	normalize()
	toDomain() (T, error)
}

// decodeRecord unmarshals, normalizes, validates and converts one record.
func decodeRecord[W any, T any, PW interface {
	*W
	record[T]
}](raw json.RawMessage) (T, error) {
	var zero T
	w := PW(new(W))
	if err := json.Unmarshal(raw, w); err != nil {
		return zero, err
	}
	w.normalize()
	if err := validate.Struct(w); err != nil {
		return zero, err
	}
	return w.toDomain()
}

// decodeList decodes each record independently so one malformed row cannot
// poison the whole listing. Rejected rows are counted, not returned.
func decodeList[W any, T any, PW interface {
	*W
	record[T]
}](raws []json.RawMessage) ([]T, int) {
	out := make([]T, 0, len(raws))
	rejected := 0
	for _, raw := range raws {
		v, err := decodeRecord[W, T, PW](raw)
		if err != nil {
			rejected++
			continue
		}
		out = append(out, v)
	}
	return out, rejected
}

func decodeOne[W any, T any, PW interface {
	*W
	record[T]
}](raw json.RawMessage) (T, error) {
	var zero T
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return zero, fmt.Errorf("%w: missing object", ErrInvalidPayload)
	}
	v, err := decodeRecord[W, T, PW](raw)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return v, nil
}

// --- zones ---

type wireZone struct {
	ID          wireID `json:"id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Cell        string `json:"cell"`
	Village     string `json:"village"`
	Description string `json:"description"`
	ChiefID     wireID `json:"chief_id"`
}

func (w *wireZone) normalize() {
	w.Name = strings.TrimSpace(w.Name)
	w.Cell = strings.TrimSpace(w.Cell)
	w.Village = strings.TrimSpace(w.Village)
}

func (w *wireZone) toDomain() (domain.Zone, error) {
	return domain.Zone{
		ID:          string(w.ID),
		Name:        w.Name,
		Cell:        w.Cell,
		Village:     w.Village,
		Description: w.Description,
		ChiefID:     w.ChiefID.ptr(),
	}, nil
}

type wirePayments struct {
	AmountToBePaid   decimal.NullDecimal `json:"amountToBePaid"`
	CurrentMonthPaid decimal.NullDecimal `json:"currentMonthPaid"`
	TodayPaid        decimal.NullDecimal `json:"todayPaid"`
}

func (w wirePayments) toDomain() domain.ZonePayments {
	return domain.ZonePayments{
		AmountToBePaid:   w.AmountToBePaid.Decimal,
		CurrentMonthPaid: w.CurrentMonthPaid.Decimal,
		TodayPaid:        w.TodayPaid.Decimal,
	}
}

// --- vehicles ---

type wireVehicle struct {
	ID    wireID `json:"id" validate:"required"`
	Plate string `json:"plate" validate:"required"`
	Make  string `json:"make"`
	Model string `json:"model"`
}

func (w *wireVehicle) normalize() {
	w.Plate = domain.NormalizePlate(w.Plate)
	w.Make = strings.TrimSpace(w.Make)
	w.Model = strings.TrimSpace(w.Model)
}

func (w *wireVehicle) toDomain() (domain.Vehicle, error) {
	return domain.Vehicle{ID: string(w.ID), Plate: w.Plate, Make: w.Make, Model: w.Model}, nil
}

// --- drivers ---

type wireUserRef struct {
	ID       wireID `json:"id"`
	Username string `json:"username"`
}

type wireZoneRef struct {
	ID   wireID `json:"id"`
	Name string `json:"name"`
}

type wireDriver struct {
	ID                    wireID        `json:"id" validate:"required"`
	Username              string        `json:"username" validate:"required"`
	VehicleID             wireID        `json:"vehicle_id"`
	VehiclePlate          string        `json:"vehicle_plate"`
	AssignedManpowers     []wireID      `json:"assigned_manpowers"`
	AssignedManpowerUsers []wireUserRef `json:"assigned_manpower_users"`
	Zones                 []wireZoneRef `json:"zones"`
}

func (w *wireDriver) normalize() {
	w.Username = strings.TrimSpace(w.Username)
	w.VehiclePlate = domain.NormalizePlate(w.VehiclePlate)
}

func (w *wireDriver) toDomain() (domain.Driver, error) {
	d := domain.Driver{
		ID:           string(w.ID),
		Username:     w.Username,
		VehicleID:    w.VehicleID.ptr(),
		VehiclePlate: w.VehiclePlate,
		Crew:         []domain.UserRef{},
		Zones:        []domain.ZoneRef{},
	}

	ids := make([]string, 0, len(w.AssignedManpowers))
	for _, id := range w.AssignedManpowers {
		ids = append(ids, string(id))
	}
	for _, u := range w.AssignedManpowerUsers {
		if u.ID == "" {
			continue
		}
		d.Crew = append(d.Crew, domain.UserRef{
			ID:       string(u.ID),
			Username: domain.CoalesceStr(strings.TrimSpace(u.Username), string(u.ID)),
		})
		ids = append(ids, string(u.ID))
	}
	d.CrewIDs = domain.UniqueOrdered(ids)

	for _, z := range w.Zones {
		if z.ID == "" {
			continue
		}
		d.Zones = append(d.Zones, domain.ZoneRef{ID: string(z.ID), Name: strings.TrimSpace(z.Name)})
	}

	// A crew without a vehicle cannot exist; the listing is a projection of
	// the vehicle link.
	if d.VehicleID == nil {
		d.VehiclePlate = ""
		d.CrewIDs = []string{}
		d.Crew = []domain.UserRef{}
	}
	return d, nil
}

// --- manpower ---

type wireManpower struct {
	ID       wireID              `json:"id" validate:"required"`
	Username string              `json:"username" validate:"required"`
	ZoneID   wireID              `json:"zone_id"`
	Salary   decimal.NullDecimal `json:"salary"`
}

func (w *wireManpower) normalize() {
	w.Username = strings.TrimSpace(w.Username)
}

func (w *wireManpower) toDomain() (domain.Manpower, error) {
	m := domain.Manpower{ID: string(w.ID), Username: w.Username, ZoneID: w.ZoneID.ptr()}
	if w.Salary.Valid {
		if w.Salary.Decimal.IsNegative() {
			return m, fmt.Errorf("negative salary for manpower %s", w.ID)
		}
		s := w.Salary.Decimal
		m.Salary = &s
	}
	return m, nil
}

type wireMember struct {
	ID       wireID `json:"id" validate:"required"`
	Username string `json:"username"`
}

func (w *wireMember) normalize() {
	w.Username = strings.TrimSpace(w.Username)
}

func (w *wireMember) toDomain() (domain.UserRef, error) {
	return domain.UserRef{ID: string(w.ID), Username: domain.CoalesceStr(w.Username, string(w.ID))}, nil
}

// --- schedule ---

type wireScheduleEntry struct {
	ID                        wireID   `json:"id" validate:"required"`
	ServiceDay                int      `json:"service_day"`
	ServiceStart              string   `json:"service_start" validate:"required"`
	ServiceEnd                string   `json:"service_end" validate:"required"`
	ZoneID                    wireID   `json:"zone_id"`
	VehiclePlate              string   `json:"vehicle_plate"`
	DriverUsername            string   `json:"driver_username"`
	AssignedManpowerUsernames []string `json:"assigned_manpower_usernames"`
	SupervisorStatus          *string  `json:"supervisor_status"`
	SupervisorReason          *string  `json:"supervisor_reason"`
	SupervisorDecidedAt       *string  `json:"supervisor_decided_at"`
}

func (w *wireScheduleEntry) normalize() {
	w.VehiclePlate = domain.NormalizePlate(w.VehiclePlate)
	w.DriverUsername = strings.TrimSpace(w.DriverUsername)
}

func (w *wireScheduleEntry) toDomain() (domain.ScheduleEntry, error) {
	start, err := domain.ParseTimeOfDay(w.ServiceStart)
	if err != nil {
		return domain.ScheduleEntry{}, err
	}
	end, err := domain.ParseTimeOfDay(w.ServiceEnd)
	if err != nil {
		return domain.ScheduleEntry{}, err
	}

	e := domain.ScheduleEntry{
		ID:               string(w.ID),
		ServiceDay:       w.ServiceDay,
		ServiceStart:     start,
		ServiceEnd:       end,
		ZoneID:           w.ZoneID.ptr(),
		VehiclePlate:     w.VehiclePlate,
		DriverUsername:   w.DriverUsername,
		AssignedManpower: []string{},
	}
	for _, u := range w.AssignedManpowerUsernames {
		if u = strings.TrimSpace(u); u != "" {
			e.AssignedManpower = append(e.AssignedManpower, u)
		}
	}
	if w.SupervisorStatus != nil {
		raw := strings.TrimSpace(*w.SupervisorStatus)
		status, ok := domain.ParseSupervisorStatus(raw)
		e.SupervisorStatus = status
		if !ok {
			e.UnknownStatus = raw
		}
	}
	if w.SupervisorReason != nil {
		e.SupervisorReason = domain.NonEmptyPtr(*w.SupervisorReason)
	}
	if w.SupervisorDecidedAt != nil {
		if ts, err := time.Parse(time.RFC3339, *w.SupervisorDecidedAt); err == nil {
			e.SupervisorDecidedAt = &ts
		}
	}
	return e, nil
}

// --- reports ---

type wireZoneFigures struct {
	ZoneID        wireID              `json:"zone_id" validate:"required"`
	ZoneName      string              `json:"zone_name"`
	TotalAmount   decimal.NullDecimal `json:"total_amount"`
	TotalPaid     decimal.NullDecimal `json:"total_paid"`
	ClientCount   int                 `json:"client_count" validate:"gte=0"`
	FinishedCount int                 `json:"finished_count" validate:"gte=0"`
}

func (w *wireZoneFigures) normalize() {
	w.ZoneName = strings.TrimSpace(w.ZoneName)
}

func (w *wireZoneFigures) toDomain() (domain.ZoneFigures, error) {
	f := domain.ZoneFigures{
		ZoneID:        string(w.ZoneID),
		ZoneName:      domain.CoalesceStr(w.ZoneName, string(w.ZoneID)),
		TotalAmount:   w.TotalAmount.Decimal,
		TotalPaid:     w.TotalPaid.Decimal,
		ClientCount:   w.ClientCount,
		FinishedCount: w.FinishedCount,
	}
	if f.TotalAmount.IsNegative() || f.TotalPaid.IsNegative() {
		return f, fmt.Errorf("negative amount for zone %s", w.ZoneID)
	}
	return f, nil
}

type wireSummary struct {
	Users   wireCount           `json:"users"`
	Clients wireCount           `json:"clients"`
	Total   decimal.NullDecimal `json:"total"`
}

// --- request bodies ---

type setVehicleBody struct {
	VehicleID string `json:"vehicleId"`
}

type setCrewBody struct {
	ManpowerIDs []string `json:"manpowerIds"`
}

type setZoneBody struct {
	ZoneID string `json:"zoneId"`
}

// VehicleInput is the registration payload for a new vehicle.
type VehicleInput struct {
	Plate string `json:"plate" validate:"required"`
	Make  string `json:"make,omitempty"`
	Model string `json:"model,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}
