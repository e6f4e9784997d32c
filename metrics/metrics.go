// Package metrics holds the prometheus collectors for the projection server.
// The projection package stays pure; the api layer records into these.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	SourceCache  = "cache"
	SourceEngine = "engine"

	OpPush = "push"
	OpUndo = "undo"
	OpRedo = "redo"
)

var (
	// Projections counts ledgers served, by whether the cache answered.
	Projections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wheelplan_projections_total",
			Help: "Ledgers served, by source",
		},
		[]string{"source"},
	)

	// ValidationFailures counts configurations rejected by the validator.
	ValidationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wheelplan_validation_failures_total",
			Help: "Configurations rejected by validation",
		},
	)

	// HistoryOps counts undo stack operations.
	HistoryOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wheelplan_history_ops_total",
			Help: "Edit history operations",
		},
		[]string{"op"},
	)

	// ProjectionDuration observes the time to produce a ledger from the engine.
	ProjectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wheelplan_projection_duration_seconds",
			Help:    "Engine projection latency",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
	)

	// ActiveSessions is the number of open editing sessions.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wheelplan_active_sessions",
			Help: "Open editing sessions",
		},
	)

	// RemindersSent counts contribution reminders handed to the notifier.
	RemindersSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wheelplan_reminders_sent_total",
			Help: "Contribution reminders delivered to the notifier",
		},
	)
)
