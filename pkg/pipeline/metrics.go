package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iacexport/iacexport/internal/build"
)

// Metrics holds the counters of export runs in their own registry.
type Metrics struct {
	registry *prometheus.Registry

	objects           *prometheus.CounterVec
	processorFailures *prometheus.CounterVec
	sharedVariables   prometheus.Gauge
	runDuration       prometheus.Histogram
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		objects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: build.ProjectName,
			Name:      "objects_total",
			Help:      "The total number of processed objects by resource type and status.",
		}, []string{"resource", "status"}),
		processorFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: build.ProjectName,
			Name:      "processor_failures_total",
			Help:      "The total number of skipped objects by failure kind.",
		}, []string{"kind"}),
		sharedVariables: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: build.ProjectName,
			Name:      "shared_variables_total",
			Help:      "The number of shared variables written by the last run.",
		}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: build.ProjectName,
			Name:      "run_duration_seconds",
			Help:      "The duration of export runs.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 4, 8),
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes every metric to path in the text exposition format,
// for the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) observeObject(result ObjectResult) {
	if m == nil {
		return
	}
	m.objects.WithLabelValues(result.Resource, string(result.Status)).Inc()
	if result.Status == StatusSkipped {
		m.processorFailures.WithLabelValues(result.Kind).Inc()
	}
}

func (m *Metrics) observeRun(r *Report) {
	if m == nil {
		return
	}
	m.sharedVariables.Set(float64(r.SharedVariables))
	m.runDuration.Observe(r.Duration().Seconds())
}
