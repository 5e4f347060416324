package provisioning

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Phase metric names recorded into Metrics.
const (
	MetricInstanceReadyTime     = "instance_ready_time"
	MetricInstanceVolumesTime   = "instance_volumes_time"
	MetricInstanceElasticIPTime = "instance_elastic_ip_time"
	MetricInstanceSSHTime       = "instance_ssh_time"
)

// Metrics accumulates phase durations for one attempt. Every recorded value
// is also observed by the process-wide phase histogram.
type Metrics struct {
	mu     sync.Mutex
	values map[string]time.Duration
}

// NewMetrics returns an empty Metrics.
func NewMetrics() *Metrics {
	return &Metrics{values: make(map[string]time.Duration)}
}

// Record stores the duration of a phase.
func (m *Metrics) Record(name string, d time.Duration) {
	m.mu.Lock()
	m.values[name] = d
	m.mu.Unlock()
	phaseDuration.WithLabelValues(name).Observe(d.Seconds())
}

// Get returns the recorded duration of a phase.
func (m *Metrics) Get(name string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.values[name]
	return d, ok
}

// Snapshot returns a copy of all recorded durations.
func (m *Metrics) Snapshot() map[string]time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]time.Duration, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// Attempt results.
const (
	ResultReady       = "ready"
	ResultFailed      = "failed"
	ResultInterrupted = "interrupted"
)

var (
	registry = prometheus.NewRegistry()

	phaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vagrant_aws",
			Subsystem: "provision",
			Name:      "phase_duration_seconds",
			Help:      "Duration of provisioning phases in seconds",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10), // 1s to ~8.5min
		},
		[]string{"phase"},
	)

	attemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vagrant_aws",
			Subsystem: "provision",
			Name:      "attempts_total",
			Help:      "Total number of provisioning attempts by result",
		},
		[]string{"result"},
	)

	rollbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vagrant_aws",
			Subsystem: "provision",
			Name:      "rollbacks_total",
			Help:      "Total number of dispatched rollbacks by reason",
		},
		[]string{"reason"},
	)
)

func init() {
	registry.MustRegister(phaseDuration, attemptsTotal, rollbacksTotal)
}

// Registry returns the registry holding the provisioning metrics.
func Registry() *prometheus.Registry {
	return registry
}

// RecordAttempt counts a finished attempt.
func RecordAttempt(result string) {
	attemptsTotal.WithLabelValues(result).Inc()
}

// RecordRollback counts a dispatched rollback.
func RecordRollback(reason string) {
	rollbacksTotal.WithLabelValues(reason).Inc()
}

// WriteMetricsFile writes the current metrics in the Prometheus text format,
// for collection by node_exporter's textfile collector.
func WriteMetricsFile(path string) error {
	return prometheus.WriteToTextfile(path, registry)
}
