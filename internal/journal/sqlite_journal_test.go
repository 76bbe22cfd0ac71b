package journal

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alexanderramin/fieldops/internal/apiclient"
	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/alexanderramin/fieldops/internal/orchestrator"
	"github.com/alexanderramin/fieldops/internal/refcache"
	"github.com/alexanderramin/fieldops/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func newJournal(t *testing.T) *SQLiteJournal {
	t.Helper()
	j := NewSQLiteJournal(testutil.NewJournalDB(t))
	n := 0
	j.newID = func() string {
		n++
		return fmt.Sprintf("run-%02d", n)
	}
	return j
}

// zoneMove is a two-worker zone move where the second call failed.
func zoneMove(started time.Time) *orchestrator.Outcome {
	ok := orchestrator.Step{Seq: 0, Kind: orchestrator.Membership, Op: orchestrator.OpSetManpowerZone, ManpowerID: "m2", ZoneID: "z1", Label: "bob -> Kicukiro"}
	bad := orchestrator.Step{Seq: 1, Kind: orchestrator.Membership, Op: orchestrator.OpSetManpowerZone, ManpowerID: "m3", ZoneID: "z1", Label: "carl -> Kicukiro"}
	failure := &apiclient.RemoteError{Status: 400, Message: "carl is on leave"}
	return &orchestrator.Outcome{
		Plan: &orchestrator.Plan{
			Intent:   orchestrator.MoveManpowerToZone{ManpowerIDs: []string{"m1", "m2", "m3"}, ZoneID: "z1"},
			Chains:   []orchestrator.Chain{{Parent: "manpower:m2", Steps: []orchestrator.Step{ok}}, {Parent: "manpower:m3", Steps: []orchestrator.Step{bad}}},
			Skipped:  []orchestrator.Skip{{EntityKey: "manpower:m1", Reason: "already in zone"}},
			Warnings: []string{"first warning", "second warning"},
		},
		Results: []orchestrator.StepResult{
			{Step: ok, Attempted: true, Duration: 120 * time.Millisecond},
			{Step: bad, Attempted: true, Err: failure, Duration: 80 * time.Millisecond},
		},
		Err:        &orchestrator.StepError{Step: bad, Err: failure},
		Partial:    true,
		Issued:     2,
		Succeeded:  1,
		StartedAt:  started,
		FinishedAt: started.Add(200 * time.Millisecond),
	}
}

func rejected(started time.Time) *orchestrator.Outcome {
	return &orchestrator.Outcome{
		Plan:       &orchestrator.Plan{Intent: orchestrator.SetCrew{DriverID: "d2"}},
		Err:        domain.Invalid("driver", "mary has no vehicle"),
		StartedAt:  started,
		FinishedAt: started,
	}
}

func TestRecord_StoresRunAndSteps(t *testing.T) {
	j := newJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Record(ctx, zoneMove(t0)))

	run, err := j.Get(ctx, "run-01")
	require.NoError(t, err)
	assert.Equal(t, "move_manpower_to_zone", run.Intent)
	assert.Equal(t, "manpower -> zone z1", run.Subject)
	assert.Equal(t, "partial", run.Status)
	assert.Equal(t, 2, run.Issued)
	assert.Equal(t, 1, run.Succeeded)
	assert.Equal(t, 1, run.Skipped)
	assert.Equal(t, "carl is on leave", run.Error)
	assert.Equal(t, []string{"first warning", "second warning"}, run.Warnings)
	assert.True(t, run.StartedAt.Equal(t0))
	assert.Equal(t, 200*time.Millisecond, run.Duration())

	require.Len(t, run.Steps, 2)
	assert.Equal(t, StepRecord{
		Seq: 0, Kind: "membership", Op: "set_manpower_zone", Entity: "manpower:m2",
		Label: "bob -> Kicukiro", Attempted: true, Duration: 120 * time.Millisecond,
	}, run.Steps[0])

	failed := run.FailedSteps()
	require.Len(t, failed, 1)
	assert.Equal(t, "manpower:m3", failed[0].Entity)
	assert.Equal(t, "carl is on leave", failed[0].Error)
}

func TestRecord_UnattemptedStepsAreKept(t *testing.T) {
	j := newJournal(t)
	ctx := context.Background()

	set := orchestrator.Step{Seq: 0, Kind: orchestrator.Structural, Op: orchestrator.OpSetDriverVehicle, DriverID: "d2", VehicleID: "v2"}
	crew := orchestrator.Step{Seq: 1, Kind: orchestrator.Membership, Op: orchestrator.OpSetCrew, DriverID: "d2", ManpowerIDs: []string{"m3"}}
	failure := errors.New("vehicle busy")
	out := &orchestrator.Outcome{
		Plan: &orchestrator.Plan{
			Intent: orchestrator.AssignVehicle{DriverID: "d2", VehicleID: "v2"},
			Chains: []orchestrator.Chain{{Parent: "vehicle:v2", Steps: []orchestrator.Step{set, crew}}},
		},
		Results:    []orchestrator.StepResult{{Step: set, Attempted: true, Err: failure}, {Step: crew}},
		Err:        &orchestrator.StepError{Step: set, Err: failure},
		Issued:     1,
		StartedAt:  t0,
		FinishedAt: t0,
	}
	require.NoError(t, j.Record(ctx, out))

	run, err := j.Get(ctx, "run-01")
	require.NoError(t, err)
	assert.Equal(t, "failed", run.Status)
	require.Len(t, run.Steps, 2)
	assert.Equal(t, "structural", run.Steps[0].Kind)
	assert.False(t, run.Steps[1].Attempted)
	assert.Empty(t, run.Steps[1].Error)
}

func TestRecord_RejectedRunHasNoSteps(t *testing.T) {
	j := newJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Record(ctx, rejected(t0)))

	run, err := j.Get(ctx, "run-01")
	require.NoError(t, err)
	assert.Equal(t, "rejected", run.Status)
	assert.Equal(t, "driver: mary has no vehicle", run.Error, "stored as the user sees it")
	assert.Empty(t, run.Steps)
	assert.Nil(t, run.Warnings)
}

func TestRecord_CreatedVehicle(t *testing.T) {
	j := newJournal(t)
	ctx := context.Background()

	step := orchestrator.Step{Seq: 0, Kind: orchestrator.Structural, Op: orchestrator.OpRegisterVehicle,
		Vehicle: &apiclient.VehicleInput{Plate: "RAE001B"}}
	out := &orchestrator.Outcome{
		Plan: &orchestrator.Plan{
			Intent: orchestrator.RegisterVehicle{Plate: "RAE001B"},
			Chains: []orchestrator.Chain{{Parent: "vehicle:RAE001B", Steps: []orchestrator.Step{step}}},
		},
		Results:    []orchestrator.StepResult{{Step: step, Attempted: true, Vehicle: &domain.Vehicle{ID: "v-7", Plate: "RAE001B"}}},
		Issued:     1,
		Succeeded:  1,
		StartedAt:  t0,
		FinishedAt: t0,
	}
	require.NoError(t, j.Record(ctx, out))

	run, err := j.Get(ctx, "run-01")
	require.NoError(t, err)
	assert.Equal(t, "v-7", run.CreatedVehicleID)
	assert.Equal(t, "vehicle:RAE001B", run.Steps[0].Entity)
}

func TestRecord_NoIntent(t *testing.T) {
	j := newJournal(t)
	assert.Error(t, j.Record(context.Background(), &orchestrator.Outcome{}))
	assert.Error(t, j.Record(context.Background(), nil))
}

func TestRecord_RollsBackWhenAStepFails(t *testing.T) {
	database, w := testutil.NewJournalDB(t)
	j := NewSQLiteJournal(database, &testutil.FailingWriter{Writer: w, Table: "batch_steps", Nth: 2, Err: errors.New("disk full")})

	err := j.Record(context.Background(), zoneMove(t0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	runs, err := j.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, runs, "the run row is rolled back with its steps")
}

func TestList_NewestFirstWithLimit(t *testing.T) {
	j := newJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Record(ctx, zoneMove(t0)))
	require.NoError(t, j.Record(ctx, rejected(t0.Add(1500*time.Millisecond))))
	require.NoError(t, j.Record(ctx, zoneMove(t0.Add(time.Second))))

	runs, err := j.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-02", runs[0].ID)
	assert.Equal(t, "run-03", runs[1].ID)
	assert.Len(t, runs[1].Steps, 2)

	all, err := j.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestGet_ByPrefix(t *testing.T) {
	j := newJournal(t)
	ctx := context.Background()
	require.NoError(t, j.Record(ctx, rejected(t0)))
	require.NoError(t, j.Record(ctx, rejected(t0)))

	_, err := j.Get(ctx, "run-0")
	assert.ErrorContains(t, err, "ambiguous")

	run, err := j.Get(ctx, "run-02")
	require.NoError(t, err)
	assert.Equal(t, "run-02", run.ID)

	_, err = j.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = j.Get(ctx, "  ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPrune_RemovesOlderRuns(t *testing.T) {
	j := newJournal(t)
	ctx := context.Background()
	require.NoError(t, j.Record(ctx, zoneMove(t0)))
	require.NoError(t, j.Record(ctx, zoneMove(t0.Add(48*time.Hour))))

	n, err := j.Prune(ctx, t0.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	runs, err := j.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-02", runs[0].ID)

	var steps int
	require.NoError(t, j.db.QueryRow(`SELECT COUNT(*) FROM batch_steps`).Scan(&steps))
	assert.Equal(t, 2, steps)
}

func TestRecord_ThroughOrchestrator(t *testing.T) {
	api := testutil.NewFakeAPI(t).
		AddZone(testutil.NewTestZone("z1", "Kicukiro")).
		AddManpower("m1", "alice", "")
	client := apiclient.NewClient(apiclient.Config{BaseURL: api.URL(), Timeout: 5 * time.Second}, nil)
	j := newJournal(t)
	orch := orchestrator.New(refcache.New(client), client, orchestrator.WithJournal(j))

	_, err := orch.Run(context.Background(), apiclient.Credential(testutil.FakeToken),
		orchestrator.MoveManpowerToZone{ManpowerIDs: []string{"m1"}, ZoneID: "z1"})
	require.NoError(t, err)

	runs, err := j.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "ok", runs[0].Status)
	assert.Equal(t, "manpower:m1", runs[0].Steps[0].Entity)
}
