package controller

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	// Reconciliation metrics
	reconcileTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stellar_operator",
			Name:      "reconcile_total",
			Help:      "Total number of reconciliations by result",
		},
		[]string{"node", "result"},
	)

	reconcileDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stellar_operator",
			Name:      "reconcile_duration_seconds",
			Help:      "Duration of reconciliation in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~10s
		},
		[]string{"node"},
	)

	// Child resource metrics
	childOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stellar_operator",
			Name:      "child_operations_total",
			Help:      "Total number of child resource writes by kind, operation and result",
		},
		[]string{"kind", "operation", "result"},
	)

	cleanupFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stellar_operator",
			Name:      "cleanup_failures_total",
			Help:      "Total number of failed cleanup steps by child kind",
		},
		[]string{"kind"},
	)

	// Node metrics
	nodeReadyReplicas = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "stellar_operator",
			Name:      "node_ready_replicas",
			Help:      "Ready replicas of the node's workload as of the last reconcile",
		},
		[]string{"node"},
	)
)

func init() {
	// Register metrics with controller-runtime's registry
	metrics.Registry.MustRegister(
		reconcileTotal,
		reconcileDuration,
		childOperationsTotal,
		cleanupFailuresTotal,
		nodeReadyReplicas,
	)
}

// recordReconcileMetric records a reconciliation result.
func recordReconcileMetric(node, result string, duration float64) {
	reconcileTotal.WithLabelValues(node, result).Inc()
	reconcileDuration.WithLabelValues(node).Observe(duration)
}

// recordChildOperationMetric records one child write.
func recordChildOperationMetric(kind, operation string, err error) {
	result := resultSuccess
	if err != nil {
		result = "error"
	}
	childOperationsTotal.WithLabelValues(kind, operation, result).Inc()
}

// recordCleanupFailureMetric records a failed cleanup step.
func recordCleanupFailureMetric(kind string) {
	cleanupFailuresTotal.WithLabelValues(kind).Inc()
}

// recordReadyReplicasMetric records the observed ready replicas of a node.
func recordReadyReplicasMetric(node string, ready int32) {
	nodeReadyReplicas.WithLabelValues(node).Set(float64(ready))
}

// Metrics helper methods that check enableMetrics before recording.

func (r *StellarNodeReconciler) recordReconcile(node, result string, duration float64) {
	if r.enableMetrics {
		recordReconcileMetric(node, result, duration)
	}
}

func (r *StellarNodeReconciler) recordChildOperation(kind, operation string, err error) {
	if r.enableMetrics {
		recordChildOperationMetric(kind, operation, err)
	}
}

func (r *StellarNodeReconciler) recordCleanupFailure(kind string) {
	if r.enableMetrics {
		recordCleanupFailureMetric(kind)
	}
}

func (r *StellarNodeReconciler) recordReadyReplicas(node string, ready int32) {
	if r.enableMetrics {
		recordReadyReplicasMetric(node, ready)
	}
}
