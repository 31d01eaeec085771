// Package metrics exposes the worker's Prometheus instrumentation:
// job and queue-pop counts, verdict counts, execution-time/memory
// histograms, and worker health. Trimmed from the ancestor service's HTTP-surface
// metrics, since this worker has no public API beyond /healthz and
// /metrics themselves.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the worker's metric collectors behind one
// prometheus.Registry, mirroring the ancestor's PrometheusService shape.
type Registry struct {
	registry *prometheus.Registry

	JobsClaimedTotal    prometheus.Counter
	JobsSucceededTotal  prometheus.Counter
	JobsFailedTotal     prometheus.Counter
	VerdictTotal        *prometheus.CounterVec
	ExecutionTimeMs     prometheus.Histogram
	ExecutionMemoryByte prometheus.Histogram
	ActiveWorkersGauge  prometheus.Gauge
	WorkerHealthGauge   prometheus.Gauge
	QueuePopFailures    prometheus.Counter
	StoreSaveFailures   prometheus.Counter
	FetchFailuresTotal  prometheus.Counter
}

// New builds and registers the worker's metric collectors.
func New() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		JobsClaimedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "judge_jobs_claimed_total",
			Help: "Total number of jobs popped from the queue.",
		}),
		JobsSucceededTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "judge_jobs_succeeded_total",
			Help: "Total number of jobs that reached status=success.",
		}),
		JobsFailedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "judge_jobs_failed_total",
			Help: "Total number of jobs that reached status=failed.",
		}),
		VerdictTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "judge_test_verdicts_total",
			Help: "Total number of test-case verdicts, labeled by verdict.",
		}, []string{"verdict"}),
		ExecutionTimeMs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "judge_execution_time_ms",
			Help:    "Per-test sandbox execution wall time in milliseconds.",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2000, 5000, 10000},
		}),
		ExecutionMemoryByte: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "judge_execution_memory_bytes",
			Help:    "Per-test peak RSS observed by the sandbox monitor.",
			Buckets: prometheus.ExponentialBuckets(1<<20, 2, 12),
		}),
		ActiveWorkersGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "judge_active_workers",
			Help: "Number of worker loop instances currently running.",
		}),
		WorkerHealthGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "judge_worker_health",
			Help: "1 if the worker loop's last heartbeat is recent, 0 otherwise.",
		}),
		QueuePopFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "judge_queue_pop_failures_total",
			Help: "Total number of blocking queue pop failures.",
		}),
		StoreSaveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "judge_store_save_failures_total",
			Help: "Total number of submission store save failures.",
		}),
		FetchFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "judge_testcase_fetch_failures_total",
			Help: "Total number of test-case fetch failures.",
		}),
	}

	reg.MustRegister(
		r.JobsClaimedTotal,
		r.JobsSucceededTotal,
		r.JobsFailedTotal,
		r.VerdictTotal,
		r.ExecutionTimeMs,
		r.ExecutionMemoryByte,
		r.ActiveWorkersGauge,
		r.WorkerHealthGauge,
		r.QueuePopFailures,
		r.StoreSaveFailures,
		r.FetchFailuresTotal,
	)

	return r
}

// Handler returns the HTTP handler to mount at /metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
