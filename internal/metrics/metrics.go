// Package metrics exposes prometheus counters for the annotation pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsAccepted counts change notifications applied to the record store.
	EventsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "annosync",
		Subsystem: "pipeline",
		Name:      "events_accepted_total",
		Help:      "Change notifications applied to the record store",
	})

	// EventsDeduped counts notifications dropped as in-batch duplicates.
	EventsDeduped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "annosync",
		Subsystem: "pipeline",
		Name:      "events_deduped_total",
		Help:      "Change notifications collapsed by the deduplicator",
	})

	// MutationsBlocked counts mutations refused because the scope was sealed.
	MutationsBlocked = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "annosync",
		Subsystem: "pipeline",
		Name:      "mutations_blocked_total",
		Help:      "Record mutations refused by the completion lock",
	})

	// Evaluations counts settled debounce evaluations.
	Evaluations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "annosync",
		Subsystem: "pipeline",
		Name:      "evaluations_total",
		Help:      "Pipeline evaluations after the settle window",
	})

	// SnapshotsEmitted counts outbound synchronized snapshots.
	SnapshotsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "annosync",
		Subsystem: "pipeline",
		Name:      "snapshots_emitted_total",
		Help:      "Synchronized snapshots published to the consumer",
	})

	// AlertsFired counts warnings surfaced to the user.
	AlertsFired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "annosync",
		Subsystem: "alerts",
		Name:      "fired_total",
		Help:      "Validation warnings surfaced to the user",
	})

	// AlertsSuppressed counts warnings suppressed as unchanged.
	AlertsSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "annosync",
		Subsystem: "alerts",
		Name:      "suppressed_total",
		Help:      "Validation warnings suppressed by the throttle",
	})

	// StaleResultsDropped counts async results discarded by the scope guard.
	StaleResultsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "annosync",
		Subsystem: "completion",
		Name:      "stale_results_dropped_total",
		Help:      "Async validity results discarded after the scope moved on",
	})
)
