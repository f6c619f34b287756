// Package telemetry exports tracker diagnostics to Prometheus. A nil
// *Metrics is valid and records nothing.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "poitrack"

type Metrics struct {
	tracked  prometheus.Gauge
	pending  prometheus.Gauge
	active   prometheus.Gauge
	updating prometheus.Gauge
	tier     *prometheus.GaugeVec

	projectionFailures prometheus.Counter
	taskIterations     prometheus.Counter
	recordErrors       *prometheus.CounterVec
	refused            prometheus.Counter
	emergencies        prometheus.Counter
	sweepSeconds       prometheus.Histogram
}

// New registers the tracker metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		tracked: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "tracked_entities",
			Help: "Confirmed records in the live set.",
		}),
		pending: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "pending_registrations",
			Help: "Registrations waiting for the settle delay.",
		}),
		active: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "active_entities",
			Help: "Records in the active index.",
		}),
		updating: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "updating_entities",
			Help: "Records with a running update task.",
		}),
		tier: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "tier_entities",
			Help: "Active records per proximity tier.",
		}, []string{"tier"}),
		projectionFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "projection_failures_total",
			Help: "World to map projections that failed or had no surface.",
		}),
		taskIterations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "task_updates_total",
			Help: "Tiered update passes applied by per-entity tasks.",
		}),
		recordErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "record_errors_total",
			Help: "Recovered per-record failures.",
		}, []string{"stage"}),
		refused: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "refused_registrations_total",
			Help: "Registrations refused for missing capabilities.",
		}),
		emergencies: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "emergency_cleanups_total",
			Help: "Times every task was cancelled because the sweep could not run.",
		}),
		sweepSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "sweep_duration_seconds",
			Help:    "Wall time of one global sweep.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12),
		}),
	}
}

// Population is one sample of the tracked population.
type Population struct {
	Tracked  int
	Pending  int
	Active   int
	Updating int
	PerTier  map[string]int
}

func (m *Metrics) ObservePopulation(p Population) {
	if m == nil {
		return
	}
	m.tracked.Set(float64(p.Tracked))
	m.pending.Set(float64(p.Pending))
	m.active.Set(float64(p.Active))
	m.updating.Set(float64(p.Updating))
	m.tier.Reset()
	for name, n := range p.PerTier {
		m.tier.WithLabelValues(name).Set(float64(n))
	}
}

func (m *Metrics) ProjectionFailed() {
	if m != nil {
		m.projectionFailures.Inc()
	}
}

func (m *Metrics) TaskUpdated() {
	if m != nil {
		m.taskIterations.Inc()
	}
}

func (m *Metrics) RecordError(stage string) {
	if m != nil {
		m.recordErrors.WithLabelValues(stage).Inc()
	}
}

func (m *Metrics) Refused() {
	if m != nil {
		m.refused.Inc()
	}
}

func (m *Metrics) Emergency() {
	if m != nil {
		m.emergencies.Inc()
	}
}

func (m *Metrics) ObserveSweep(seconds float64) {
	if m != nil {
		m.sweepSeconds.Observe(seconds)
	}
}
