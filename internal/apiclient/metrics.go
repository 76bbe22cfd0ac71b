package apiclient

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsObserver records call counts and latencies in Prometheus collectors.
type MetricsObserver struct {
	calls    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	rejected *prometheus.CounterVec
}

// NewMetricsObserver registers the fieldops API collectors on reg.
func NewMetricsObserver(reg prometheus.Registerer) (*MetricsObserver, error) {
	m := &MetricsObserver{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fieldops",
			Subsystem: "api",
			Name:      "calls_total",
			Help:      "Remote API calls by method, route and outcome.",
		}, []string{"method", "route", "outcome", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fieldops",
			Subsystem: "api",
			Name:      "call_duration_seconds",
			Help:      "Remote API call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fieldops",
			Subsystem: "api",
			Name:      "rejected_records_total",
			Help:      "Listing records dropped by payload validation.",
		}, []string{"route"}),
	}
	for _, c := range []prometheus.Collector{m.calls, m.latency, m.rejected} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *MetricsObserver) OnCallComplete(event CallEvent) {
	outcome := "ok"
	if !event.Success {
		outcome = event.ErrorCode
	}
	m.calls.WithLabelValues(event.Method, event.Route, outcome, strconv.Itoa(event.Status)).Inc()
	m.latency.WithLabelValues(event.Method, event.Route).Observe(float64(event.LatencyMs) / 1000)
	if event.Rejected > 0 {
		m.rejected.WithLabelValues(event.Route).Add(float64(event.Rejected))
	}
}
