package formatter

import (
	"errors"
	"testing"
	"time"

	"github.com/alexanderramin/fieldops/internal/journal"
	"github.com/alexanderramin/fieldops/internal/orchestrator"
	"github.com/stretchr/testify/assert"
)

func TestFormatOutcome_Partial(t *testing.T) {
	ok := orchestrator.Step{Seq: 0, Op: orchestrator.OpSetManpowerZone, ManpowerID: "m1", Label: "alice -> Kicukiro"}
	bad := orchestrator.Step{Seq: 1, Op: orchestrator.OpSetManpowerZone, ManpowerID: "m2", Label: "bob -> Kicukiro"}
	out := &orchestrator.Outcome{
		Plan: &orchestrator.Plan{
			Skipped:  []orchestrator.Skip{{EntityKey: "manpower:m3", Reason: "already in zone"}},
			Warnings: []string{"bob stays in the crew of RAD123A"},
		},
		Results: []orchestrator.StepResult{
			{Step: ok, Attempted: true},
			{Step: bad, Attempted: true, Err: errors.New("bob is on leave")},
		},
		Err:       errors.New("bob is on leave"),
		Partial:   true,
		Issued:    2,
		Succeeded: 1,
	}

	text := stripANSI(FormatOutcome(out))
	assert.Contains(t, text, "◐ partial 1 of 2 calls succeeded")
	assert.Contains(t, text, "✖ bob -> Kicukiro: bob is on leave")
	assert.Contains(t, text, "manpower:m3: already in zone")
	assert.Contains(t, text, "! bob stays in the crew of RAD123A")
	assert.Contains(t, text, "Earlier changes were kept")
}

func TestFormatOutcome_NothingToChange(t *testing.T) {
	text := stripANSI(FormatOutcome(&orchestrator.Outcome{Plan: &orchestrator.Plan{}}))
	assert.Contains(t, text, "Nothing to change.")
}

func TestFormatOutcome_NotAttemptedStep(t *testing.T) {
	set := orchestrator.Step{Seq: 0, Op: orchestrator.OpSetDriverVehicle, DriverID: "d2", VehicleID: "v2"}
	crew := orchestrator.Step{Seq: 1, Op: orchestrator.OpSetCrew, DriverID: "d2"}
	text := stripANSI(FormatOutcome(&orchestrator.Outcome{
		Plan:    &orchestrator.Plan{},
		Results: []orchestrator.StepResult{{Step: set, Attempted: true, Err: errors.New("vehicle busy")}, {Step: crew}},
		Err:     errors.New("vehicle busy"),
		Issued:  1,
	}))
	assert.Contains(t, text, "✖ failed 0 of 1 calls succeeded")
	assert.Contains(t, text, "set_crew driver:d2 not attempted")
}

func TestFormatHistoryAt(t *testing.T) {
	now := time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC)
	text := stripANSI(FormatHistoryAt([]*journal.Run{
		{ID: "7f1c2d3e-aaaa", Intent: "set_crew", Subject: "crew of driver d1", Status: "ok", Issued: 1, Succeeded: 1, StartedAt: now.Add(-2 * time.Minute)},
		{ID: "0a0b0c0d-bbbb", Intent: "move_manpower_to_zone", Status: "partial", Issued: 3, Succeeded: 2, Error: "bob is on leave", StartedAt: now.Add(-3 * time.Hour)},
	}, now))

	assert.Regexp(t, `7f1c2d3e\s+2m ago\s+set_crew\s+crew of driver d1\s+● ok\s+1/1`, text)
	assert.Regexp(t, `◐ partial\s+2/3\s+bob is on leave`, text)
	assert.NotContains(t, text, "aaaa")
}

func TestFormatRun(t *testing.T) {
	start := time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC)
	text := stripANSI(FormatRun(&journal.Run{
		ID: "run-1", Intent: "assign_vehicle", Status: "failed", Error: "vehicle busy",
		StartedAt: start, FinishedAt: start.Add(250 * time.Millisecond),
		Steps: []journal.StepRecord{
			{Seq: 0, Kind: "structural", Op: "set_driver_vehicle", Entity: "vehicle:v2", Attempted: true, Error: "vehicle busy"},
			{Seq: 1, Kind: "membership", Op: "set_crew", Entity: "vehicle:v2"},
		},
	}))
	assert.Contains(t, text, "BATCH RUN-1")
	assert.Contains(t, text, "250ms")
	assert.Regexp(t, `set_crew\s+vehicle:v2\s+not attempted`, text)
}

func TestBatchProgress(t *testing.T) {
	assert.Equal(t, "Applying move of 2 workers", BatchProgress("move of 2 workers", nil))
	assert.Equal(t, "Applying move of 2 workers · manpower:m2, manpower:m3",
		BatchProgress("move of 2 workers", []string{"manpower:m2", "manpower:m3"}))
}
