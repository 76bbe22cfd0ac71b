package orchestrator

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/alexanderramin/fieldops/internal/apiclient"
	"github.com/alexanderramin/fieldops/internal/assignment"
	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/alexanderramin/fieldops/internal/refcache"
	"github.com/sirupsen/logrus"
)

// Cache is the reference cache as seen by the orchestrator, which is its
// only invalidating writer.
type Cache interface {
	Snapshot(ctx context.Context, cred apiclient.Credential) (*refcache.Snapshot, error)
	Invalidate(kinds ...domain.EntityKind)
}

// Journal stores finished batches.
type Journal interface {
	Record(ctx context.Context, out *Outcome) error
}

type Orchestrator struct {
	cache    Cache
	exec     *Executor
	journal  Journal
	observer RunObserver
	log      logrus.FieldLogger
	now      func() time.Time
}

type Option func(*Orchestrator)

func WithJournal(j Journal) Option {
	return func(o *Orchestrator) { o.journal = j }
}

func WithObserver(obs RunObserver) Option {
	return func(o *Orchestrator) {
		if obs != nil {
			o.observer = obs
		}
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(o *Orchestrator) {
		if log != nil {
			o.log = log
		}
	}
}

// WithConcurrency bounds how many chains run at once.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) { o.exec.limit = max(n, 1) }
}

func New(cache Cache, mut Mutator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cache:    cache,
		exec:     NewExecutor(mut, 4),
		observer: NoopRunObserver{},
		log:      discardLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run plans intent against fresh server state and executes it. The returned
// error is the validation, credential or load failure that stopped planning,
// or the batch's first failing step. Outcome is nil only when nothing was
// planned or recorded.
func (o *Orchestrator) Run(ctx context.Context, cred apiclient.Credential, intent Intent) (*Outcome, error) {
	started := o.now()
	if intent == nil {
		return nil, domain.Invalid("", "nothing to do")
	}
	if cred.Empty() {
		return nil, apiclient.ErrUnauthenticated
	}
	snap, err := o.cache.Snapshot(ctx, cred)
	if err != nil {
		return nil, err
	}

	plan, err := NewPlan(assignment.Build(snap), intent)
	if err != nil {
		var verr *domain.ValidationError
		if !errors.As(err, &verr) {
			return nil, err
		}
		out := &Outcome{Plan: &Plan{Intent: intent}, Err: err, StartedAt: started, FinishedAt: o.now()}
		o.finish(ctx, out)
		return out, err
	}

	var out *Outcome
	if plan.Empty() {
		out = &Outcome{Plan: plan, StartedAt: started, FinishedAt: o.now()}
	} else {
		out = o.exec.Execute(ctx, cred, plan)
		out.StartedAt = started
	}
	if out.Issued > 0 {
		o.cache.Invalidate(plan.Affected...)
	}
	o.finish(ctx, out)
	return out, out.Err
}

func (o *Orchestrator) finish(ctx context.Context, out *Outcome) {
	o.observer.ObserveRun(ctx, RunEvent{
		Intent:    out.Plan.Intent.Kind(),
		Subject:   out.Plan.Intent.Subject(),
		Status:    out.Status(),
		Duration:  out.FinishedAt.Sub(out.StartedAt),
		Issued:    out.Issued,
		Succeeded: out.Succeeded,
		Skipped:   len(out.Plan.Skipped),
		Err:       out.Err,
		StartedAt: out.StartedAt,
	})
	if o.journal == nil {
		return
	}
	if err := o.journal.Record(context.WithoutCancel(ctx), out); err != nil {
		o.log.WithError(err).WithField("intent", string(out.Plan.Intent.Kind())).Warn("journal write failed")
	}
}

// InFlight lists the entities with a call outstanding, such as
// "driver:42" or "manpower:7".
func (o *Orchestrator) InFlight() []string {
	return o.exec.InFlight()
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
