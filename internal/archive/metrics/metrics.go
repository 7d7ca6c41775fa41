// Package metrics provides observability for the archive module.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects archive lifecycle, reconciliation, and checksum queue
// measurements. All helper methods are nil-safe so wiring stays optional.
type Metrics struct {
	// Facade operations by name and result
	Operations *prometheus.CounterVec

	// Status transitions by target status
	Transitions *prometheus.CounterVec

	// Policy gate refusals
	PolicyBlocks prometheus.Counter

	// Checksum computations deferred to the work queue
	ChecksumDeferrals prometheus.Counter

	// Deferred digests written by consumers
	ChecksumsComputed prometheus.Counter

	// Work queue claim attempts by result
	QueueClaims *prometheus.CounterVec

	// Work queue backlog size
	QueueDepth prometheus.Gauge

	// Reconciliation runs by surface (read, sweep)
	ReconcileRuns *prometheus.CounterVec

	// Issues found during reconciliation by kind
	ReconcileIssues *prometheus.CounterVec

	// Full sweep duration
	SweepDuration prometheus.Histogram
}

// New creates a Metrics instance with all archive metrics registered.
func New() *Metrics {
	return &Metrics{
		Operations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_archive_operations_total",
			Help: "Total archive facade operations by operation and result",
		}, []string{"operation", "result"}),

		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_archive_transitions_total",
			Help: "Total record status transitions by target status",
		}, []string{"to"}),

		PolicyBlocks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_archive_policy_blocks_total",
			Help: "Total operations refused by the reference policy gate",
		}),

		ChecksumDeferrals: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_archive_checksum_deferrals_total",
			Help: "Total checksum computations deferred to the work queue",
		}),

		ChecksumsComputed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_archive_checksums_computed_total",
			Help: "Total deferred checksums computed and recorded",
		}),

		QueueClaims: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_archive_queue_claims_total",
			Help: "Total work queue claim attempts by result",
		}, []string{"result"}), // result: "claimed", "empty", "error"

		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "custodia_archive_checksum_queue_depth",
			Help: "Checksum work items currently queued or leased",
		}),

		ReconcileRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_archive_reconcile_runs_total",
			Help: "Total reconciliation invocations by surface",
		}, []string{"surface"}), // surface: "read", "sweep"

		ReconcileIssues: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_archive_reconcile_issues_total",
			Help: "Total reconciliation findings by kind",
		}, []string{"kind"}),

		SweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "custodia_archive_sweep_duration_seconds",
			Help:    "Duration of full reconciliation sweeps",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

// IncrementOperation records one facade operation outcome.
func (m *Metrics) IncrementOperation(operation, result string) {
	if m != nil {
		m.Operations.WithLabelValues(operation, result).Inc()
	}
}

// IncrementTransition records a status transition.
func (m *Metrics) IncrementTransition(to string) {
	if m != nil {
		m.Transitions.WithLabelValues(to).Inc()
	}
}

// IncrementPolicyBlock records a policy gate refusal.
func (m *Metrics) IncrementPolicyBlock() {
	if m != nil {
		m.PolicyBlocks.Inc()
	}
}

// IncrementChecksumDeferral records a hash deferred to the queue.
func (m *Metrics) IncrementChecksumDeferral() {
	if m != nil {
		m.ChecksumDeferrals.Inc()
	}
}

// IncrementChecksumComputed records a deferred digest written by a consumer.
func (m *Metrics) IncrementChecksumComputed() {
	if m != nil {
		m.ChecksumsComputed.Inc()
	}
}

// IncrementQueueClaim records a claim attempt outcome.
func (m *Metrics) IncrementQueueClaim(result string) {
	if m != nil {
		m.QueueClaims.WithLabelValues(result).Inc()
	}
}

// SetQueueDepth records the current work queue backlog.
func (m *Metrics) SetQueueDepth(depth int) {
	if m != nil {
		m.QueueDepth.Set(float64(depth))
	}
}

// IncrementReconcileRun records a reconciliation invocation.
func (m *Metrics) IncrementReconcileRun(surface string) {
	if m != nil {
		m.ReconcileRuns.WithLabelValues(surface).Inc()
	}
}

// IncrementReconcileIssue records a reconciliation finding.
func (m *Metrics) IncrementReconcileIssue(kind string) {
	if m != nil {
		m.ReconcileIssues.WithLabelValues(kind).Inc()
	}
}

// ObserveSweepDuration records how long a full sweep took.
func (m *Metrics) ObserveSweepDuration(d time.Duration) {
	if m != nil {
		m.SweepDuration.Observe(d.Seconds())
	}
}
