package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/alexanderramin/fieldops/internal/domain"
)

// FakeToken is the only bearer credential FakeAPI accepts.
const FakeToken = "test-token"

type fakeDriver struct {
	id        string
	username  string
	vehicleID string
}

type fakeManpower struct {
	id       string
	username string
	zoneID   string
	salary   string
}

type failure struct {
	status  int
	message string
}

// FakeAPI is an in-memory stand-in for the remote API. It keeps the
// driver-vehicle link one-to-one and replaces crews wholesale.
type FakeAPI struct {
	Server *httptest.Server

	mu       sync.Mutex
	zones    []domain.Zone
	vehicles []domain.Vehicle
	drivers  []*fakeDriver
	manpower []*fakeManpower
	// vehicle id -> crew in submitted order
	crews    map[string][]string
	schedule map[string][]map[string]any
	reports  []map[string]any
	payments map[string]map[string]any
	clients  int
	resets   map[string]int
	failures map[string]failure
	requests []string
	nextID   int
	// closed to let held writes through
	gate chan struct{}
}

// NewFakeAPI starts a fake server that is closed when t finishes.
func NewFakeAPI(t testing.TB) *FakeAPI {
	t.Helper()
	f := &FakeAPI{
		crews:    make(map[string][]string),
		schedule: make(map[string][]map[string]any),
		payments: make(map[string]map[string]any),
		resets:   make(map[string]int),
		failures: make(map[string]failure),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /zones", f.listZones)
	mux.HandleFunc("GET /zones/{id}", f.getZone)
	mux.HandleFunc("GET /manager/vehicles", f.listVehicles)
	mux.HandleFunc("POST /manager/vehicles", f.registerVehicle)
	mux.HandleFunc("GET /manager/drivers/with-assignments", f.listDrivers)
	mux.HandleFunc("PATCH /manager/drivers/{id}/vehicle", f.setDriverVehicle)
	mux.HandleFunc("DELETE /manager/drivers/{id}/vehicle", f.clearDriverVehicle)
	mux.HandleFunc("PATCH /manager/drivers/{id}/vehicle/manpowers", f.setCrew)
	mux.HandleFunc("GET /manager/manpower", f.listManpower)
	mux.HandleFunc("GET /manager/manpower/by-zone/{id}", f.manpowerByZone)
	mux.HandleFunc("PATCH /manager/manpower/{id}/zone", f.setManpowerZone)
	mux.HandleFunc("DELETE /manager/manpower/{id}/zone", f.clearManpowerZone)
	mux.HandleFunc("GET /manager/reports/zones", f.zoneReport)
	mux.HandleFunc("GET /driver/schedule", f.getSchedule("driver"))
	mux.HandleFunc("GET /manpower/schedule", f.getSchedule("manpower"))
	mux.HandleFunc("GET /superuser/summary", f.summary)
	mux.HandleFunc("POST /superuser/reset-manager", f.reset("manager"))
	mux.HandleFunc("POST /superuser/reset-supervisors", f.reset("supervisors"))

	f.Server = httptest.NewServer(f.authorize(mux))
	t.Cleanup(f.Server.Close)
	return f
}

// URL is the base URL to configure the API client with.
func (f *FakeAPI) URL() string { return f.Server.URL }

// --- seeding ---

func (f *FakeAPI) AddZone(z domain.Zone) *FakeAPI {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.zones = append(f.zones, z)
	return f
}

func (f *FakeAPI) AddVehicle(v domain.Vehicle) *FakeAPI {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vehicles = append(f.vehicles, v)
	return f
}

func (f *FakeAPI) AddDriver(id, username string) *FakeAPI {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drivers = append(f.drivers, &fakeDriver{id: id, username: username})
	return f
}

func (f *FakeAPI) AddManpower(id, username, zoneID string) *FakeAPI {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.manpower = append(f.manpower, &fakeManpower{id: id, username: username, zoneID: zoneID})
	return f
}

// Link sets the driver-vehicle link and crew directly, bypassing checks.
func (f *FakeAPI) Link(driverID, vehicleID string, crew ...string) *FakeAPI {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.driver(driverID).vehicleID = vehicleID
	f.crews[vehicleID] = append([]string{}, crew...)
	return f
}

func (f *FakeAPI) AddScheduleEntry(audience string, entry map[string]any) *FakeAPI {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.schedule[audience] = append(f.schedule[audience], entry)
	return f
}

func (f *FakeAPI) AddZoneFigures(row map[string]any) *FakeAPI {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, row)
	return f
}

func (f *FakeAPI) SetPayments(zoneID string, payments map[string]any) *FakeAPI {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments[zoneID] = payments
	return f
}

func (f *FakeAPI) SetClients(n int) *FakeAPI {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients = n
	return f
}

// Fail makes every request to "METHOD /path" answer status with message.
// An empty message sends a body without an error field.
func (f *FakeAPI) Fail(method, path string, status int, message string) *FakeAPI {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method+" "+path] = failure{status: status, message: message}
	return f
}

// Recover undoes a Fail for "METHOD /path".
func (f *FakeAPI) Recover(method, path string) *FakeAPI {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.failures, method+" "+path)
	return f
}

// HoldWrites parks every mutating request until release is called. Reads
// still answer.
func (f *FakeAPI) HoldWrites() (release func()) {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gate = gate
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			f.gate = nil
			f.mu.Unlock()
			close(gate)
		})
	}
}

// --- inspection ---

// Requests lists "METHOD /path" for every authorized request received.
func (f *FakeAPI) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.requests...)
}

// Writes lists the mutating requests received.
func (f *FakeAPI) Writes() []string {
	var out []string
	for _, r := range f.Requests() {
		if !strings.HasPrefix(r, http.MethodGet+" ") {
			out = append(out, r)
		}
	}
	return out
}

func (f *FakeAPI) ZoneOf(manpowerID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m := f.member(manpowerID); m != nil {
		return m.zoneID
	}
	return ""
}

func (f *FakeAPI) VehicleOf(driverID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d := f.driver(driverID); d != nil {
		return d.vehicleID
	}
	return ""
}

func (f *FakeAPI) CrewOf(vehicleID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.crews[vehicleID]...)
}

func (f *FakeAPI) Resets(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resets[kind]
}

// --- handlers ---

func (f *FakeAPI) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+FakeToken {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
			return
		}
		key := r.Method + " " + r.URL.Path
		f.mu.Lock()
		f.requests = append(f.requests, key)
		fail, failing := f.failures[key]
		gate := f.gate
		f.mu.Unlock()

		if r.Method != http.MethodGet && gate != nil {
			<-gate
		}
		if failing {
			body := map[string]any{}
			if fail.message != "" {
				body["error"] = fail.message
			}
			writeJSON(w, fail.status, body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) listZones(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, 0, len(f.zones))
	for _, z := range f.zones {
		out = append(out, zoneJSON(z))
	}
	writeJSON(w, http.StatusOK, map[string]any{"zones": out})
}

func (f *FakeAPI) getZone(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := r.PathValue("id")
	for _, z := range f.zones {
		if z.ID == id {
			payments := f.payments[id]
			if payments == nil {
				payments = map[string]any{"amountToBePaid": 0, "currentMonthPaid": 0, "todayPaid": 0}
			}
			writeJSON(w, http.StatusOK, map[string]any{"zone": zoneJSON(z), "payments": payments})
			return
		}
	}
	writeError(w, http.StatusNotFound, "zone not found")
}

func (f *FakeAPI) listVehicles(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, 0, len(f.vehicles))
	for _, v := range f.vehicles {
		out = append(out, vehicleJSON(v))
	}
	writeJSON(w, http.StatusOK, map[string]any{"vehicles": out})
}

func (f *FakeAPI) registerVehicle(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Plate string `json:"plate"`
		Make  string `json:"make"`
		Model string `json:"model"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Plate) == "" {
		writeError(w, http.StatusBadRequest, "plate is required")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.vehicles {
		if v.Plate == body.Plate {
			writeError(w, http.StatusConflict, "plate already registered")
			return
		}
	}
	f.nextID++
	v := domain.Vehicle{ID: fmt.Sprintf("v-%d", f.nextID), Plate: body.Plate, Make: body.Make, Model: body.Model}
	f.vehicles = append(f.vehicles, v)
	writeJSON(w, http.StatusCreated, map[string]any{"vehicle": vehicleJSON(v)})
}

func (f *FakeAPI) listDrivers(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, 0, len(f.drivers))
	for _, d := range f.drivers {
		row := map[string]any{
			"id":                      d.id,
			"username":                d.username,
			"vehicle_id":              nil,
			"vehicle_plate":           nil,
			"assigned_manpowers":      []string{},
			"assigned_manpower_users": []map[string]any{},
			"zones":                   []map[string]any{},
		}
		if d.vehicleID != "" {
			row["vehicle_id"] = d.vehicleID
			row["vehicle_plate"] = f.plate(d.vehicleID)
			ids := f.crews[d.vehicleID]
			users := make([]map[string]any, 0, len(ids))
			zones := []map[string]any{}
			seen := map[string]bool{}
			for _, id := range ids {
				m := f.member(id)
				if m == nil {
					continue
				}
				users = append(users, map[string]any{"id": m.id, "username": m.username})
				if m.zoneID != "" && !seen[m.zoneID] {
					seen[m.zoneID] = true
					zones = append(zones, map[string]any{"id": m.zoneID, "name": f.zoneName(m.zoneID)})
				}
			}
			row["assigned_manpowers"] = append([]string{}, ids...)
			row["assigned_manpower_users"] = users
			row["zones"] = zones
		}
		out = append(out, row)
	}
	writeJSON(w, http.StatusOK, map[string]any{"drivers": out})
}

func (f *FakeAPI) setDriverVehicle(w http.ResponseWriter, r *http.Request) {
	var body struct {
		VehicleID string `json:"vehicleId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.VehicleID == "" {
		writeError(w, http.StatusBadRequest, "vehicleId is required")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.driver(r.PathValue("id"))
	if d == nil {
		writeError(w, http.StatusNotFound, "driver not found")
		return
	}
	if f.plate(body.VehicleID) == "" {
		writeError(w, http.StatusNotFound, "vehicle not found")
		return
	}
	for _, other := range f.drivers {
		if other != d && other.vehicleID == body.VehicleID {
			writeError(w, http.StatusConflict, "vehicle already assigned to another driver")
			return
		}
	}
	d.vehicleID = body.VehicleID
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (f *FakeAPI) clearDriverVehicle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.driver(r.PathValue("id"))
	if d == nil {
		writeError(w, http.StatusNotFound, "driver not found")
		return
	}
	d.vehicleID = ""
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeAPI) setCrew(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ManpowerIDs []string `json:"manpowerIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ManpowerIDs == nil {
		writeError(w, http.StatusBadRequest, "manpowerIds must be a list")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.driver(r.PathValue("id"))
	if d == nil {
		writeError(w, http.StatusNotFound, "driver not found")
		return
	}
	if d.vehicleID == "" {
		writeError(w, http.StatusBadRequest, "driver has no vehicle")
		return
	}
	for _, id := range body.ManpowerIDs {
		if f.member(id) == nil {
			writeError(w, http.StatusBadRequest, "unknown manpower "+id)
			return
		}
	}
	for vid, crew := range f.crews {
		if vid == d.vehicleID {
			continue
		}
		f.crews[vid] = slices.DeleteFunc(crew, func(id string) bool {
			return slices.Contains(body.ManpowerIDs, id)
		})
	}
	f.crews[d.vehicleID] = append([]string{}, body.ManpowerIDs...)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (f *FakeAPI) listManpower(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, 0, len(f.manpower))
	for _, m := range f.manpower {
		row := map[string]any{"id": m.id, "username": m.username, "zone_id": nil, "salary": nil}
		if m.zoneID != "" {
			row["zone_id"] = m.zoneID
		}
		if m.salary != "" {
			row["salary"] = m.salary
		}
		out = append(out, row)
	}
	writeJSON(w, http.StatusOK, map[string]any{"manpower": out})
}

func (f *FakeAPI) manpowerByZone(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	zoneID := r.PathValue("id")
	out := []map[string]any{}
	for _, m := range f.manpower {
		if m.zoneID == zoneID {
			out = append(out, map[string]any{"id": m.id, "username": m.username})
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"manpower": out})
}

func (f *FakeAPI) setManpowerZone(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ZoneID string `json:"zoneId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ZoneID == "" {
		writeError(w, http.StatusBadRequest, "zoneId is required")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	m := f.member(r.PathValue("id"))
	if m == nil {
		writeError(w, http.StatusNotFound, "manpower not found")
		return
	}
	if f.zoneName(body.ZoneID) == "" {
		writeError(w, http.StatusNotFound, "zone not found")
		return
	}
	m.zoneID = body.ZoneID
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (f *FakeAPI) clearManpowerZone(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := f.member(r.PathValue("id"))
	if m == nil {
		writeError(w, http.StatusNotFound, "manpower not found")
		return
	}
	m.zoneID = ""
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeAPI) zoneReport(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]map[string]any{}, f.reports...)
	writeJSON(w, http.StatusOK, map[string]any{"zones": out})
}

func (f *FakeAPI) getSchedule(audience string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		out := append([]map[string]any{}, f.schedule[audience]...)
		writeJSON(w, http.StatusOK, map[string]any{"schedule": out})
	}
}

func (f *FakeAPI) summary(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"users":   len(f.drivers) + len(f.manpower),
		"clients": f.clients,
		"total":   "0",
	})
}

func (f *FakeAPI) reset(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.resets[kind]++
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

// --- helpers; callers hold f.mu ---

func (f *FakeAPI) driver(id string) *fakeDriver {
	for _, d := range f.drivers {
		if d.id == id {
			return d
		}
	}
	return nil
}

func (f *FakeAPI) member(id string) *fakeManpower {
	for _, m := range f.manpower {
		if m.id == id {
			return m
		}
	}
	return nil
}

func (f *FakeAPI) plate(vehicleID string) string {
	for _, v := range f.vehicles {
		if v.ID == vehicleID {
			return v.Plate
		}
	}
	return ""
}

func (f *FakeAPI) zoneName(zoneID string) string {
	for _, z := range f.zones {
		if z.ID == zoneID {
			return z.Name
		}
	}
	return ""
}

func zoneJSON(z domain.Zone) map[string]any {
	row := map[string]any{
		"id":          z.ID,
		"name":        z.Name,
		"cell":        z.Cell,
		"village":     z.Village,
		"description": z.Description,
		"chief_id":    nil,
	}
	if z.ChiefID != nil {
		row["chief_id"] = *z.ChiefID
	}
	return row
}

func vehicleJSON(v domain.Vehicle) map[string]any {
	return map[string]any{"id": v.ID, "plate": v.Plate, "make": v.Make, "model": v.Model}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
