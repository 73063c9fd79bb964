// Package metrics holds the prometheus collectors for team sync work.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	// SyncWrites counts per-row writes issued by a fan-out, by operation and outcome.
	SyncWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kp",
		Name:      "sync_writes_total",
		Help:      "Per-row writes issued while propagating team proposal changes.",
	}, []string{"operation", "outcome"})

	// ReconcileCreated counts proposals created to repair team fan-out.
	ReconcileCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kp",
		Name:      "reconcile_created_total",
		Help:      "Proposals created for team members that were missing one.",
	})

	// WorkflowOperations counts approval workflow calls by operation and result.
	WorkflowOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kp",
		Name:      "workflow_operations_total",
		Help:      "Approval workflow operations by result (success, partial, failure).",
	}, []string{"operation", "result"})

	// SyncDuration observes the wall time of one fan-out.
	SyncDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "kp",
		Name:      "sync_duration_seconds",
		Help:      "Duration of one team fan-out operation.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
)

// RecordWrite counts one row write
func RecordWrite(operation string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	SyncWrites.WithLabelValues(operation, outcome).Inc()
}
