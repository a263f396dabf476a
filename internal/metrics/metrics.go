// Package metrics exposes Prometheus collectors for benchmark runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ayusman/gesturebench/internal/gesture"
	"github.com/ayusman/gesturebench/internal/workflow"
)

const namespace = "gesturebench"

// Metrics holds the collectors for one process on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	ticksTotal    *prometheus.CounterVec
	acceptedTotal *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	actionsTotal  *prometheus.CounterVec
	runsTotal     *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	tickTimeouts  prometheus.Counter
	runsActive    prometheus.Gauge
	currentStep   prometheus.Gauge
}

// New creates the collectors and registers them, along with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		ticksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ticks_total",
				Help:      "Total number of classified ticks by raw label",
			},
			[]string{"profile", "label"},
		),
		acceptedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "accepted_total",
				Help:      "Total number of labels emitted by the debouncer",
			},
			[]string{"label"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of step errors by kind",
			},
			[]string{"kind"}, // MISCLASSIFICATION, FALSE_NEGATIVE
		),
		actionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "actions_total",
				Help:      "Total number of executed actions",
			},
			[]string{"label", "status"}, // status: success, error
		),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of workflow runs by outcome",
			},
			[]string{"family", "outcome"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Histogram of completed workflow durations in seconds",
				Buckets:   []float64{5, 10, 20, 30, 45, 60, 90, 120, 180, 300},
			},
			[]string{"family"},
		),
		tickTimeouts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tick_timeouts_total",
				Help:      "Total number of pose source ticks that timed out",
			},
		),
		runsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "runs_active",
				Help:      "Number of workflow runs in progress",
			},
		),
		currentStep: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "current_step",
				Help:      "Step index of the workflow in progress",
			},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ticksTotal,
		m.acceptedTotal,
		m.errorsTotal,
		m.actionsTotal,
		m.runsTotal,
		m.runDuration,
		m.tickTimeouts,
		m.runsActive,
		m.currentStep,
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordTick counts one classified tick.
func (m *Metrics) RecordTick(profile gesture.Profile, raw gesture.Label) {
	m.ticksTotal.WithLabelValues(profile.String(), raw.String()).Inc()
}

// RecordAccepted counts one label that passed the debouncer.
func (m *Metrics) RecordAccepted(label gesture.Label) {
	m.acceptedTotal.WithLabelValues(label.String()).Inc()
}

// RecordError counts one step error.
func (m *Metrics) RecordError(kind workflow.ErrorKind) {
	m.errorsTotal.WithLabelValues(string(kind)).Inc()
}

// RecordAction counts one action execution.
func (m *Metrics) RecordAction(label gesture.Label, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.actionsTotal.WithLabelValues(label.String(), status).Inc()
}

// RecordTickTimeout counts one stalled tick.
func (m *Metrics) RecordTickTimeout() {
	m.tickTimeouts.Inc()
}

// RunStarted marks a run as in progress.
func (m *Metrics) RunStarted() {
	m.runsActive.Inc()
	m.currentStep.Set(0)
}

// SetStep records the step index of the run in progress.
func (m *Metrics) SetStep(step int) {
	m.currentStep.Set(float64(step))
}

// RunFinished records the outcome of a run. Only completed runs contribute
// to the duration histogram.
func (m *Metrics) RunFinished(family string, outcome workflow.Outcome, elapsed time.Duration) {
	m.runsActive.Dec()
	m.runsTotal.WithLabelValues(family, string(outcome)).Inc()
	if outcome == workflow.OutcomeCompleted {
		m.runDuration.WithLabelValues(family).Observe(elapsed.Seconds())
	}
}
