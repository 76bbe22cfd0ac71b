package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/alexanderramin/fieldops/internal/apiclient"
	"github.com/alexanderramin/fieldops/internal/journal"
	"github.com/alexanderramin/fieldops/internal/orchestrator"
	"github.com/alexanderramin/fieldops/internal/refcache"
	"github.com/alexanderramin/fieldops/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// testApp wires a full App against a fake API server and an in-memory
// journal. jdoe drives RAD123A with alice as crew; mary, the van, bob and
// carl are free.
func testApp(t *testing.T) (*App, *testutil.FakeAPI) {
	t.Helper()
	api := testutil.NewFakeAPI(t).
		AddZone(testutil.NewTestZone("z1", "Kicukiro")).
		AddVehicle(testutil.NewTestVehicle("v1", "RAD123A")).
		AddVehicle(testutil.NewTestVehicle("v2", "RAB777C")).
		AddDriver("d1", "jdoe").
		AddDriver("d2", "mary").
		AddManpower("m1", "alice", "z1").
		AddManpower("m2", "bob", "").
		AddManpower("m3", "carl", "").
		Link("d1", "v1", "m1")

	client := apiclient.NewClient(apiclient.Config{BaseURL: api.URL(), Timeout: 5 * time.Second}, nil)
	cache := refcache.New(client)
	j := journal.NewSQLiteJournal(testutil.NewJournalDB(t))

	return &App{
		Credential: apiclient.Credential(testutil.FakeToken),
		API:        client,
		Reference:  cache,
		Batches:    orchestrator.New(cache, client, orchestrator.WithJournal(j)),
		History:    j,
	}, api
}

// executeCmd runs a cobra command and captures stdout/stderr with styling
// stripped.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return ansiPattern.ReplaceAllString(buf.String(), ""), err
}

// --- listings ---

func TestDriversList(t *testing.T) {
	app, _ := testApp(t)

	out, err := executeCmd(t, app, "drivers", "list")
	require.NoError(t, err)
	assert.Regexp(t, `jdoe\s+RAD123A\s+alice\s+Kicukiro`, out)
	assert.Contains(t, out, "mary")
}

func TestVehiclesAndManpowerList(t *testing.T) {
	app, _ := testApp(t)

	out, err := executeCmd(t, app, "vehicles", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "RAB777C")
	assert.Contains(t, out, "unassigned")

	out, err = executeCmd(t, app, "manpower", "list")
	require.NoError(t, err)
	assert.Regexp(t, `alice\s+Kicukiro\s+RAD123A`, out)
}

func TestZonesCommands(t *testing.T) {
	app, api := testApp(t)
	api.SetPayments("z1", map[string]any{"amountToBePaid": "100", "currentMonthPaid": "115", "todayPaid": "15"})

	out, err := executeCmd(t, app, "zones", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Kicukiro")

	out, err = executeCmd(t, app, "zones", "show", "kicukiro")
	require.NoError(t, err)
	assert.Contains(t, out, "-15.00", "overpayment is shown, not clamped")

	out, err = executeCmd(t, app, "zones", "members", "z1")
	require.NoError(t, err)
	assert.Contains(t, out, "alice")
}

// --- batches ---

func TestDriversAssign_WithCrewByName(t *testing.T) {
	app, api := testApp(t)

	out, err := executeCmd(t, app, "drivers", "assign", "mary", "rab 777c", "--crew", "carl,bob")
	require.NoError(t, err)
	assert.Contains(t, out, "2 changes applied")
	assert.Equal(t, "v2", api.VehicleOf("d2"))
	assert.Equal(t, []string{"m3", "m2"}, api.CrewOf("v2"))
}

func TestDriversAssign_TakenVehicleIsRejectedBeforeAnyCall(t *testing.T) {
	app, api := testApp(t)

	_, err := executeCmd(t, app, "drivers", "assign", "mary", "RAD123A")
	require.Error(t, err)
	assert.Contains(t, UserMessage(err), "jdoe")
	assert.Empty(t, api.Writes())

	_, err = executeCmd(t, app, "drivers", "assign", "mary", "RAD123A", "--release")
	require.NoError(t, err)
	assert.Equal(t, "v1", api.VehicleOf("d2"))
	assert.Empty(t, api.VehicleOf("d1"))
}

func TestDriversCrew(t *testing.T) {
	app, api := testApp(t)

	_, err := executeCmd(t, app, "drivers", "crew", "jdoe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--clear")

	out, err := executeCmd(t, app, "drivers", "crew", "jdoe", "--clear")
	require.NoError(t, err)
	assert.Contains(t, out, "1 change applied")
	assert.Empty(t, api.CrewOf("v1"))

	out, err = executeCmd(t, app, "drivers", "crew", "jdoe", "--clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to change.")
}

func TestDriversUnassign(t *testing.T) {
	app, api := testApp(t)

	_, err := executeCmd(t, app, "drivers", "unassign", "d1")
	require.NoError(t, err)
	assert.Empty(t, api.VehicleOf("d1"))
}

func TestManpowerMove_PartialFailureSurfacesFirstError(t *testing.T) {
	app, api := testApp(t)
	api.Fail("PATCH", "/manager/manpower/m2/zone", 400, "bob is on leave")

	out, err := executeCmd(t, app, "manpower", "move", "bob", "carl", "--zone", "Kicukiro")
	require.Error(t, err)
	assert.Equal(t, "bob is on leave", UserMessage(err))
	assert.Contains(t, out, "partial 1 of 2 calls succeeded")
	assert.Equal(t, "z1", api.ZoneOf("m3"))
	assert.Empty(t, api.ZoneOf("m2"))

	out, err = executeCmd(t, app, "history")
	require.NoError(t, err)
	assert.Regexp(t, `move_manpower_to_zone.*partial\s+1/2\s+bob is on leave`, out)
}

func TestManpowerUnassignZone_WarnsAboutCrew(t *testing.T) {
	app, api := testApp(t)

	out, err := executeCmd(t, app, "manpower", "unassign-zone", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "RAD123A")
	assert.Empty(t, api.ZoneOf("m1"))
}

func TestVehiclesRegister(t *testing.T) {
	app, _ := testApp(t)

	out, err := executeCmd(t, app, "vehicles", "register", "--plate", "rae 001b", "--make", "Isuzu")
	require.NoError(t, err)
	assert.Contains(t, out, "Registered vehicle RAE001B")

	_, err = executeCmd(t, app, "vehicles", "register", "--plate", "RAD123A")
	require.Error(t, err)
	assert.Contains(t, UserMessage(err), "plate")

	out, err = executeCmd(t, app, "vehicles", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "RAE001B")
}

// --- reports ---

func TestReportZones_WritesXLSX(t *testing.T) {
	app, api := testApp(t)
	api.AddZoneFigures(map[string]any{
		"zone_id": "z1", "zone_name": "Kicukiro",
		"total_amount": "100", "total_paid": "60", "client_count": 4, "finished_count": 2,
	})
	path := filepath.Join(t.TempDir(), "zones.xlsx")

	out, err := executeCmd(t, app, "report", "zones", "--xlsx", path)
	require.NoError(t, err)
	assert.Regexp(t, `Total\s+4\s+2\s+100.00\s+60.00\s+40.00`, out)
	assert.Contains(t, out, "Wrote "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Zones")
	require.NoError(t, err)
	assert.Equal(t, "Kicukiro", rows[1][0])
}

func TestReportZones_InconsistentFiguresAreRejected(t *testing.T) {
	app, api := testApp(t)
	api.AddZoneFigures(map[string]any{
		"zone_id": "z1", "zone_name": "Kicukiro",
		"total_amount": "100", "total_paid": "60", "client_count": 1, "finished_count": 2,
	})

	_, err := executeCmd(t, app, "report", "zones")
	require.Error(t, err)
	assert.Contains(t, UserMessage(err), "finished 2 of 1")
}

func TestSummary(t *testing.T) {
	app, api := testApp(t)
	api.SetClients(42)

	out, err := executeCmd(t, app, "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "42")
}

func TestScheduleAndCheck(t *testing.T) {
	app, api := testApp(t)
	api.AddScheduleEntry("driver", map[string]any{
		"id": 1, "service_day": 1, "service_start": "08:00", "service_end": "10:00",
		"vehicle_plate": "RAD123A", "driver_username": "jdoe", "supervisor_status": "complete",
	})
	entry := map[string]any{
		"id": 2, "service_day": 2, "service_start": "08:00", "service_end": "10:00",
		"supervisor_status": "not_complete",
	}
	api.AddScheduleEntry("driver", entry)
	api.AddScheduleEntry("manpower", entry)

	out, err := executeCmd(t, app, "schedule", "driver")
	require.NoError(t, err)
	assert.Contains(t, out, "MONDAY")
	assert.Contains(t, out, "✔ Completed")
	assert.Contains(t, out, "✖ Not Completed")

	out, err = executeCmd(t, app, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "Assignments are consistent")
	assert.Equal(t, 1, bytes.Count([]byte(out), []byte("not_complete without a reason")))

	_, err = executeCmd(t, app, "check", "--strict")
	assert.EqualError(t, err, "1 problem found")
}

func TestCheck_CountsRejectedAndUnknownStatusEntries(t *testing.T) {
	app, api := testApp(t)
	api.AddScheduleEntry("driver", map[string]any{
		"id": 7, "service_day": 3, "service_start": "07:00", "service_end": "08:00",
		"supervisor_status": "verified",
	})
	api.AddScheduleEntry("driver", map[string]any{
		"id": 8, "service_day": 3, "service_start": "sometime", "service_end": "08:00",
	})

	out, err := executeCmd(t, app, "check")
	require.NoError(t, err)
	assert.Contains(t, out, `unknown supervisor_status "verified" shown as pending`)
	assert.Contains(t, out, "1 schedule entry rejected as malformed")

	_, err = executeCmd(t, app, "check", "--strict")
	assert.EqualError(t, err, "2 problems found")

	out, err = executeCmd(t, app, "schedule", "driver")
	require.NoError(t, err)
	assert.Contains(t, out, "Pending")
	assert.Contains(t, out, "1 schedule entry rejected as malformed")
}

// --- resets ---

func TestReset_RequiresConfirmation(t *testing.T) {
	app, api := testApp(t)

	_, err := executeCmd(t, app, "reset", "manager")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
	assert.Zero(t, api.Resets("manager"))

	out, err := executeCmd(t, app, "reset", "manager", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "manager reset")
	assert.Equal(t, 1, api.Resets("manager"))
}

func TestReset_InteractiveConfirm(t *testing.T) {
	app, api := testApp(t)
	app.IsInteractive = func() bool { return true }
	var asked string
	app.Confirm = func(title string) (bool, error) {
		asked = title
		return false, nil
	}

	_, err := executeCmd(t, app, "reset", "supervisors")
	assert.ErrorIs(t, err, errNotConfirmed)
	assert.Contains(t, asked, "supervisors")
	assert.Zero(t, api.Resets("supervisors"))

	app.Confirm = func(string) (bool, error) { return true, nil }
	_, err = executeCmd(t, app, "reset", "supervisors")
	require.NoError(t, err)
	assert.Equal(t, 1, api.Resets("supervisors"))
}

// --- history ---

func TestHistoryShowAndPrune(t *testing.T) {
	app, _ := testApp(t)

	_, err := executeCmd(t, app, "drivers", "unassign", "jdoe")
	require.NoError(t, err)

	runs, err := app.History.List(t.Context(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	out, err := executeCmd(t, app, "history", "show", runs[0].ID[:8])
	require.NoError(t, err)
	assert.Contains(t, out, "unassign_vehicle")
	assert.Contains(t, out, "clear_driver_vehicle")

	out, err = executeCmd(t, app, "history", "prune", "--older-than", "1h")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 0 batches.")
}

func TestHistory_WithoutJournal(t *testing.T) {
	app, _ := testApp(t)
	app.History = nil

	_, err := executeCmd(t, app, "history")
	assert.EqualError(t, err, "no journal is configured")
}

// --- errors ---

func TestMissingCredential_AsksToLogIn(t *testing.T) {
	app, api := testApp(t)
	app.Credential = ""

	_, err := executeCmd(t, app, "drivers", "list")
	require.Error(t, err)
	assert.Equal(t, msgLogin, UserMessage(err))
	assert.Empty(t, api.Requests())
}

func TestRefusedCredential_AsksToLogIn(t *testing.T) {
	app, _ := testApp(t)
	app.Credential = "stale"

	_, err := executeCmd(t, app, "manpower", "move", "bob", "--zone", "z1")
	require.Error(t, err)
	assert.Equal(t, msgLogin, UserMessage(err))
}

func TestUnknownZone_IsAValidationError(t *testing.T) {
	app, api := testApp(t)

	_, err := executeCmd(t, app, "manpower", "move", "bob", "--zone", "Nyarugenge")
	require.Error(t, err)
	assert.Contains(t, UserMessage(err), "zone")
	assert.Empty(t, api.Writes())
	assert.False(t, errors.Is(err, apiclient.ErrTransport))
}
