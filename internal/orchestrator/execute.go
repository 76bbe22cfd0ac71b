package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/alexanderramin/fieldops/internal/apiclient"
	"github.com/alexanderramin/fieldops/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Mutator is the set of remote writes a batch can issue.
type Mutator interface {
	SetDriverVehicle(ctx context.Context, cred apiclient.Credential, driverID, vehicleID string) error
	ClearDriverVehicle(ctx context.Context, cred apiclient.Credential, driverID string) error
	SetVehicleCrew(ctx context.Context, cred apiclient.Credential, driverID string, manpowerIDs []string) error
	SetManpowerZone(ctx context.Context, cred apiclient.Credential, manpowerID, zoneID string) error
	ClearManpowerZone(ctx context.Context, cred apiclient.Credential, manpowerID string) error
	RegisterVehicle(ctx context.Context, cred apiclient.Credential, in apiclient.VehicleInput) (*domain.Vehicle, error)
}

type StepResult struct {
	Step      Step
	Attempted bool
	Err       error
	Duration  time.Duration
	// Vehicle is set by a successful registration step.
	Vehicle *domain.Vehicle
}

// Outcome is the aggregate result of one batch.
type Outcome struct {
	Plan       *Plan
	Results    []StepResult
	Err        error
	Partial    bool
	Issued     int
	Succeeded  int
	StartedAt  time.Time
	FinishedAt time.Time
}

type RunStatus string

const (
	StatusOK       RunStatus = "ok"
	StatusPartial  RunStatus = "partial"
	StatusFailed   RunStatus = "failed"
	StatusRejected RunStatus = "rejected"
)

func (o *Outcome) Status() RunStatus {
	switch {
	case o == nil:
		return StatusRejected
	case o.Err == nil:
		return StatusOK
	case o.Issued == 0:
		return StatusRejected
	case o.Partial:
		return StatusPartial
	default:
		return StatusFailed
	}
}

// Failed returns the results of steps that returned an error, in plan order.
func (o *Outcome) Failed() []StepResult {
	var out []StepResult
	for _, r := range o.Results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// Created returns the vehicle registered by the batch, if any.
func (o *Outcome) Created() (*domain.Vehicle, bool) {
	for _, r := range o.Results {
		if r.Vehicle != nil {
			return r.Vehicle, true
		}
	}
	return nil, false
}

// StepError identifies which step of a batch failed.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return e.Err.Error()
}

func (e *StepError) Unwrap() error { return e.Err }

// Executor runs plans against a Mutator.
type Executor struct {
	mut      Mutator
	limit    int
	inflight *inflight
	now      func() time.Time
}

func NewExecutor(mut Mutator, concurrency int) *Executor {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Executor{mut: mut, limit: concurrency, inflight: newInflight(), now: time.Now}
}

// Execute issues every step of the plan. Chains run concurrently; steps in a
// chain run in order and a failure skips the rest of that chain. Calls
// already issued are not cancelled when ctx is, and nothing is rolled back.
// Outcome.Err is the first failure in plan order.
func (e *Executor) Execute(ctx context.Context, cred apiclient.Credential, plan *Plan) *Outcome {
	out := &Outcome{Plan: plan, StartedAt: e.now()}
	steps := plan.Steps()
	out.Results = make([]StepResult, len(steps))

	index := make(map[int]int, len(steps))
	for i, s := range steps {
		index[s.Seq] = i
		out.Results[i].Step = s
	}

	callCtx := context.WithoutCancel(ctx)
	var g errgroup.Group
	g.SetLimit(e.limit)
	for _, chain := range plan.Chains {
		g.Go(func() error {
			for _, s := range chain.Steps {
				r := &out.Results[index[s.Seq]]
				r.Attempted = true
				started := e.now()
				r.Vehicle, r.Err = e.run(callCtx, cred, s)
				r.Duration = e.now().Sub(started)
				if r.Err != nil {
					return nil
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range out.Results {
		if !r.Attempted {
			continue
		}
		out.Issued++
		if r.Err == nil {
			out.Succeeded++
		} else if out.Err == nil {
			out.Err = &StepError{Step: r.Step, Err: r.Err}
		}
	}
	out.Partial = out.Err != nil && out.Succeeded > 0
	out.FinishedAt = e.now()
	return out
}

func (e *Executor) run(ctx context.Context, cred apiclient.Credential, s Step) (*domain.Vehicle, error) {
	key := s.EntityKey()
	e.inflight.add(key)
	defer e.inflight.done(key)

	switch s.Op {
	case OpSetDriverVehicle:
		return nil, e.mut.SetDriverVehicle(ctx, cred, s.DriverID, s.VehicleID)
	case OpClearDriverVehicle:
		return nil, e.mut.ClearDriverVehicle(ctx, cred, s.DriverID)
	case OpSetCrew:
		return nil, e.mut.SetVehicleCrew(ctx, cred, s.DriverID, s.ManpowerIDs)
	case OpSetManpowerZone:
		return nil, e.mut.SetManpowerZone(ctx, cred, s.ManpowerID, s.ZoneID)
	case OpClearManpowerZone:
		return nil, e.mut.ClearManpowerZone(ctx, cred, s.ManpowerID)
	case OpRegisterVehicle:
		return e.mut.RegisterVehicle(ctx, cred, *s.Vehicle)
	}
	return nil, fmt.Errorf("unknown step %q", s.Op)
}

// InFlight lists the entities with a call outstanding.
func (e *Executor) InFlight() []string {
	return e.inflight.keys()
}

type inflight struct {
	mu     sync.Mutex
	counts map[string]int
}

func newInflight() *inflight {
	return &inflight{counts: make(map[string]int)}
}

func (f *inflight) add(key string) {
	f.mu.Lock()
	f.counts[key]++
	f.mu.Unlock()
}

func (f *inflight) done(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts[key] <= 1 {
		delete(f.counts, key)
		return
	}
	f.counts[key]--
}

func (f *inflight) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.counts))
	for k := range f.counts {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
