// Package journal keeps a local audit trail of batch runs in SQLite.
// Nothing in it is read back into the reference cache.
package journal

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a run id is not in the journal.
var ErrNotFound = errors.New("not found")

// Run is one recorded batch.
type Run struct {
	ID               string
	Intent           string
	Subject          string
	Status           string
	Issued           int
	Succeeded        int
	Skipped          int
	Error            string
	Warnings         []string
	CreatedVehicleID string
	StartedAt        time.Time
	FinishedAt       time.Time
	Steps            []StepRecord
}

func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// FailedSteps returns the steps that returned an error, in plan order.
func (r *Run) FailedSteps() []StepRecord {
	var out []StepRecord
	for _, s := range r.Steps {
		if s.Error != "" {
			out = append(out, s)
		}
	}
	return out
}

// StepRecord is one planned call of a run. Attempted is false for steps
// skipped because an earlier step of the same chain failed.
type StepRecord struct {
	Seq       int
	Kind      string
	Op        string
	Entity    string
	Label     string
	Attempted bool
	Error     string
	Duration  time.Duration
}
