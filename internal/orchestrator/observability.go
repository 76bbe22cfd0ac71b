package orchestrator

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// RunEvent captures telemetry for one batch.
type RunEvent struct {
	Intent    IntentKind
	Subject   string
	Status    RunStatus
	Duration  time.Duration
	Issued    int
	Succeeded int
	Skipped   int
	Err       error
	StartedAt time.Time
}

// RunObserver receives batch events.
type RunObserver interface {
	ObserveRun(ctx context.Context, event RunEvent)
}

// NoopRunObserver ignores all events.
type NoopRunObserver struct{}

func (NoopRunObserver) ObserveRun(context.Context, RunEvent) {}

type logRunObserver struct {
	log logrus.FieldLogger
}

// NewLogRunObserver logs batch events through log.
func NewLogRunObserver(log logrus.FieldLogger) RunObserver {
	if log == nil {
		return NoopRunObserver{}
	}
	return &logRunObserver{log: log}
}

func (o *logRunObserver) ObserveRun(_ context.Context, event RunEvent) {
	entry := o.log.WithFields(logrus.Fields{
		"intent":      string(event.Intent),
		"subject":     event.Subject,
		"status":      string(event.Status),
		"duration_ms": event.Duration.Milliseconds(),
		"issued":      event.Issued,
		"succeeded":   event.Succeeded,
		"skipped":     event.Skipped,
	})
	switch event.Status {
	case StatusPartial, StatusFailed:
		entry.WithError(event.Err).Error("batch_run")
	case StatusRejected:
		entry.WithError(event.Err).Warn("batch_run")
	default:
		entry.Info("batch_run")
	}
}
