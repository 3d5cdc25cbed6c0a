// Package metrics registers the Prometheus collectors shared by the
// monitoring service. Exposed on /metrics by the monitor HTTP mux.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReadingsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "greengrain_readings_ingested_total",
		Help: "Readings recorded into an active session, by ingestion source.",
	}, []string{"source"})

	ReadingsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "greengrain_readings_dropped_total",
		Help: "Readings dropped because no session was active or the payload was unusable.",
	}, []string{"source", "reason"})

	SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "greengrain_sessions_started_total",
		Help: "Monitoring sessions started (restarts included).",
	})

	SessionsStopped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "greengrain_sessions_stopped_total",
		Help: "Monitoring sessions stopped with a persisted summary.",
	})

	PersistenceFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "greengrain_persistence_failures_total",
		Help: "Summary writes that failed at the persistence gateway.",
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "greengrain_active_sessions",
		Help: "Sessions currently running.",
	})
)
