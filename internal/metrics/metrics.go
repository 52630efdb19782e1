// Package metrics exposes Prometheus counters and histograms for the
// analysis pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pagescope"

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	FetchesTotal             *prometheus.CounterVec
	ProbesTotal              *prometheus.CounterVec
	ScoreTotal               prometheus.Histogram
	GradesTotal              *prometheus.CounterVec
	PersistenceFailuresTotal *prometheus.CounterVec
	RequestDuration          *prometheus.HistogramVec
}

// New registers the metrics on reg. A nil reg registers nothing, which
// suits one-shot CLI runs.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FetchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Page fetches by result kind (direct, fallback, failed).",
		}, []string{"kind"}),
		ProbesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probes_total",
			Help:      "Protocol and discovery probes by probe and outcome.",
		}, []string{"probe", "outcome"}),
		ScoreTotal: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "score_total",
			Help:      "Distribution of total scores.",
			Buckets:   []float64{20, 40, 60, 80, 95, 100},
		}),
		GradesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grades_total",
			Help:      "Scored pages by grade.",
		}, []string{"grade"}),
		PersistenceFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_failures_total",
			Help:      "Results that could not be stored, by operation.",
		}, []string{"operation"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Duration of analyze and score requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

// ObserveFetch counts a fetch result.
func (m *Metrics) ObserveFetch(kind string) {
	m.FetchesTotal.WithLabelValues(kind).Inc()
}

// ObserveProbe counts a probe outcome. Its signature matches protocol.Observer.
func (m *Metrics) ObserveProbe(probe, outcome string) {
	m.ProbesTotal.WithLabelValues(probe, outcome).Inc()
}

// ObserveScore records a total score and its grade.
func (m *Metrics) ObserveScore(total int, grade string) {
	m.ScoreTotal.Observe(float64(total))
	m.GradesTotal.WithLabelValues(grade).Inc()
}

// IncPersistenceFailures counts a failed store operation.
func (m *Metrics) IncPersistenceFailures(operation string) {
	m.PersistenceFailuresTotal.WithLabelValues(operation).Inc()
}

// ObserveDuration records how long an operation took, in seconds.
func (m *Metrics) ObserveDuration(operation string, seconds float64) {
	m.RequestDuration.WithLabelValues(operation).Observe(seconds)
}
