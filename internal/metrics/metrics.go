// Package metrics exports agent loop telemetry to Prometheus.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mfateev/tradvisor-agent/internal/agent"
	"github.com/mfateev/tradvisor-agent/internal/models"
)

// Metrics implements agent.Observer on Prometheus collectors.
type Metrics struct {
	gatherer prometheus.Gatherer

	// turnsTotal counts turns by outcome.
	// Labels: "ok", "retried", or the lower-cased TurnError type
	turnsTotal    *prometheus.CounterVec
	turnRetries   prometheus.Counter
	turnDuration  prometheus.Histogram
	runsTotal     *prometheus.CounterVec
	runIterations prometheus.Histogram
	eventsTotal   *prometheus.CounterVec
}

var _ agent.Observer = (*Metrics)(nil)

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the collectors on reg and serves them from g.
func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gatherer: g,
		turnsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tradvisor_turns_total",
			Help: "Turns against the remote model by outcome",
		}, []string{"outcome"}),
		turnRetries: f.NewCounter(prometheus.CounterOpts{
			Name: "tradvisor_turn_retries_total",
			Help: "Turns that needed the media_type retry",
		}),
		turnDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "tradvisor_turn_duration_seconds",
			Help:    "Wall time of one turn including the retry",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}),
		runsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tradvisor_runs_total",
			Help: "Agent runs by outcome",
		}, []string{"outcome"}),
		runIterations: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "tradvisor_run_iterations",
			Help:    "Iterations per agent run",
			Buckets: []float64{1, 2, 3, 5, 8, 12, 15, 20},
		}),
		eventsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tradvisor_events_total",
			Help: "Events emitted to sinks by type",
		}, []string{"type"}),
	}
}

func (m *Metrics) TurnFinished(err error, retried bool, elapsed time.Duration) {
	m.turnDuration.Observe(elapsed.Seconds())
	if retried {
		m.turnRetries.Inc()
	}
	m.turnsTotal.WithLabelValues(turnOutcome(err, retried)).Inc()
}

func (m *Metrics) EventEmitted(t agent.EventType) {
	m.eventsTotal.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) RunFinished(outcome agent.Outcome, iterations int) {
	m.runsTotal.WithLabelValues(string(outcome)).Inc()
	m.runIterations.Observe(float64(iterations))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func turnOutcome(err error, retried bool) string {
	if err == nil {
		if retried {
			return "retried"
		}
		return "ok"
	}
	var turnErr *models.TurnError
	if !errors.As(err, &turnErr) {
		return "other"
	}
	switch turnErr.Type {
	case models.ErrorTypeTransient:
		return "transient"
	case models.ErrorTypeContextOverflow:
		return "context_overflow"
	case models.ErrorTypeAPILimit:
		return "api_limit"
	case models.ErrorTypeMediaType:
		return "media_type"
	case models.ErrorTypeCanceled:
		return "canceled"
	default:
		return "fatal"
	}
}
