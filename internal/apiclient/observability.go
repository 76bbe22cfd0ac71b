package apiclient

import (
	"github.com/sirupsen/logrus"
)

// CallEvent records metadata about a single API call.
type CallEvent struct {
	Method    string
	Route     string
	Status    int
	LatencyMs int64
	Success   bool
	ErrorCode string
	// Rejected counts listing records dropped by payload validation.
	Rejected int
}

// Observer receives events about API calls for logging and metrics.
type Observer interface {
	OnCallComplete(event CallEvent)
}

// LogObserver writes call events through a logrus logger.
type LogObserver struct {
	log logrus.FieldLogger
}

// NewLogObserver creates an Observer that logs events to log.
func NewLogObserver(log logrus.FieldLogger) *LogObserver {
	return &LogObserver{log: log}
}

func (o *LogObserver) OnCallComplete(event CallEvent) {
	entry := o.log.WithFields(logrus.Fields{
		"method":     event.Method,
		"route":      event.Route,
		"status":     event.Status,
		"latency_ms": event.LatencyMs,
	})
	if event.Rejected > 0 {
		entry.WithField("rejected", event.Rejected).Warn("api_call dropped invalid records")
	}
	if !event.Success {
		entry.WithField("error_code", event.ErrorCode).Error("api_call")
		return
	}
	entry.Info("api_call")
}

// NoopObserver discards all events. Useful for tests.
type NoopObserver struct{}

func (NoopObserver) OnCallComplete(CallEvent) {}

// MultiObserver fans an event out to several observers.
type MultiObserver []Observer

func (m MultiObserver) OnCallComplete(event CallEvent) {
	for _, o := range m {
		if o != nil {
			o.OnCallComplete(event)
		}
	}
}
