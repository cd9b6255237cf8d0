package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Step outcomes used as metric labels.
const (
	outcomeOK      = "ok"
	outcomeSkipped = "skipped"
	outcomeFailed  = "failed"
)

// actionUnknown labels intents with an unrecognized action.
const actionUnknown = "unknown"

// Metrics counts and times orchestrator steps. A nil *Metrics records
// nothing.
type Metrics struct {
	stepsTotal   *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	runsTotal    *prometheus.CounterVec
	intentsTotal *prometheus.CounterVec
}

// NewMetrics registers the service metrics on reg under namespace.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		stepsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "service",
				Name:      "steps_total",
				Help:      "Total number of service steps by outcome",
			},
			[]string{"step", "outcome"},
		),
		stepDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "service",
				Name:      "step_duration_seconds",
				Help:      "Wall-clock duration of service steps in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"step"},
		),
		runsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "service",
				Name:      "runs_total",
				Help:      "Total number of damper service runs by outcome",
			},
			[]string{"outcome"},
		),
		intentsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "service",
				Name:      "intents_total",
				Help:      "Total number of dispatched intents by action",
			},
			[]string{"action"},
		),
	}
}

func (m *Metrics) observeStep(step Step, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.stepsTotal.WithLabelValues(string(step), outcome).Inc()
	m.stepDuration.WithLabelValues(string(step)).Observe(d.Seconds())
}

func (m *Metrics) observeRun(outcome string) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeIntent(action string) {
	if m == nil {
		return
	}
	m.intentsTotal.WithLabelValues(intentLabel(action)).Inc()
}

// intentLabel keeps the action label bounded: unrecognized actions share
// one value.
func intentLabel(action string) string {
	switch action {
	case ActionOpen, ActionClose, ActionAssembleService:
		return action
	}
	return actionUnknown
}
