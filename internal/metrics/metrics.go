// Package metrics exposes Prometheus collectors for wallet operations and the
// admission pool.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "walletops"

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	// Operation metrics
	OperationsTotal  *prometheus.CounterVec
	OperationLatency *prometheus.HistogramVec

	// Pool metrics
	PoolWorkers     prometheus.Gauge
	PoolActive      prometheus.Gauge
	PoolQueued      prometheus.Gauge
	PoolCallerRuns  prometheus.Counter
	PoolRejected    prometheus.Counter
	PoolTaskPanics  prometheus.Counter
	PoolWaitLatency prometheus.Histogram

	// Lock registry
	LockEntries prometheus.Gauge
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests
// to avoid duplicate registration on the default registry.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		OperationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Wallet operations by type and outcome",
		}, []string{"type", "outcome"}),
		OperationLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_latency_seconds",
			Help:      "Wallet operation latency including admission and lock wait",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"type"}),

		PoolWorkers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_workers",
			Help:      "Number of live pool workers",
		}),
		PoolActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_active",
			Help:      "Number of tasks currently executing",
		}),
		PoolQueued: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_queued",
			Help:      "Number of tasks waiting for a worker",
		}),
		PoolCallerRuns: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_caller_runs_total",
			Help:      "Tasks executed on the submitting goroutine because the pool was saturated",
		}),
		PoolRejected: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_rejected_total",
			Help:      "Tasks rejected because the pool was saturated",
		}),
		PoolTaskPanics: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_task_panics_total",
			Help:      "Tasks that panicked during execution",
		}),
		PoolWaitLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pool_queue_wait_seconds",
			Help:      "Time between submission and start of execution",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}),

		LockEntries: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lock_entries",
			Help:      "Wallet lock entries currently held or awaited",
		}),
	}
}

// RecordOperation records one finished wallet operation.
func (m *Metrics) RecordOperation(opType, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(opType, outcome).Inc()
	m.OperationLatency.WithLabelValues(opType).Observe(duration.Seconds())
}

// UpdatePool updates pool gauges.
func (m *Metrics) UpdatePool(workers, active, queued int) {
	if m == nil {
		return
	}
	m.PoolWorkers.Set(float64(workers))
	m.PoolActive.Set(float64(active))
	m.PoolQueued.Set(float64(queued))
}

// SetPoolActive updates the executing-task gauge.
func (m *Metrics) SetPoolActive(n int64) {
	if m == nil {
		return
	}
	m.PoolActive.Set(float64(n))
}

// ObserveQueueWait records how long a task waited before it started.
func (m *Metrics) ObserveQueueWait(d time.Duration) {
	if m == nil {
		return
	}
	m.PoolWaitLatency.Observe(d.Seconds())
}

// IncCallerRuns counts a caller-executed task.
func (m *Metrics) IncCallerRuns() {
	if m == nil {
		return
	}
	m.PoolCallerRuns.Inc()
}

// IncRejected counts a rejected task.
func (m *Metrics) IncRejected() {
	if m == nil {
		return
	}
	m.PoolRejected.Inc()
}

// IncPanics counts a panicking task.
func (m *Metrics) IncPanics() {
	if m == nil {
		return
	}
	m.PoolTaskPanics.Inc()
}

// SetLockEntries updates the lock registry gauge.
func (m *Metrics) SetLockEntries(n int) {
	if m == nil {
		return
	}
	m.LockEntries.Set(float64(n))
}
