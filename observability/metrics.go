package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects agenthive metrics on a dedicated registry.
//
// Usage:
//
//	metrics := observability.NewMetrics(nil)
//	dispatcher := tool.NewDispatcher(reg, func(o *tool.Options) { o.Metrics = metrics })
//	http.Handle("/metrics", metrics.Handler())
type Metrics struct {
	registry *prometheus.Registry

	// PassCounter counts finished passes.
	// Labels: outcome (ok|decision|summary|persist)
	PassCounter *prometheus.CounterVec

	// PassDuration measures wall time of a pass in seconds.
	// Labels: outcome
	PassDuration *prometheus.HistogramVec

	// ModelCallCounter counts model calls.
	// Labels: provider, stage (decision|summary|persona), kind (ok or a TransportError kind)
	ModelCallCounter *prometheus.CounterVec

	// ModelCallDuration measures model latency in seconds.
	// Labels: provider, stage
	ModelCallDuration *prometheus.HistogramVec

	// ToolCallCounter counts dispatched tool calls.
	// Labels: toolset_id, tool, kind (result kind)
	ToolCallCounter *prometheus.CounterVec

	// ToolCallDuration measures dispatch time in seconds.
	// Labels: toolset_id
	ToolCallDuration *prometheus.HistogramVec

	// SweepCounter counts completed orchestrator sweeps.
	SweepCounter prometheus.Counter

	// SweepDuration measures a full sweep in seconds.
	SweepDuration prometheus.Histogram

	// AgentsRunning is the number of agents still running.
	AgentsRunning prometheus.Gauge
}

// NewMetrics creates and registers all metrics on reg. A nil reg gets a fresh
// registry, so multiple instances never collide.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		PassCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agenthive_passes_total",
				Help: "Total number of agent passes by outcome",
			},
			[]string{"outcome"},
		),

		PassDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agenthive_pass_duration_seconds",
				Help:    "Duration of agent passes in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
			[]string{"outcome"},
		),

		ModelCallCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agenthive_model_calls_total",
				Help: "Total number of model calls by provider, stage and outcome kind",
			},
			[]string{"provider", "stage", "kind"},
		),

		ModelCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agenthive_model_call_duration_seconds",
				Help:    "Duration of model calls in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"provider", "stage"},
		),

		ToolCallCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agenthive_tool_calls_total",
				Help: "Total number of tool calls by toolset, tool and result kind",
			},
			[]string{"toolset_id", "tool", "kind"},
		),

		ToolCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agenthive_tool_call_duration_seconds",
				Help:    "Duration of tool calls in seconds",
				Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			},
			[]string{"toolset_id"},
		),

		SweepCounter: factory.NewCounter(prometheus.CounterOpts{
			Name: "agenthive_sweeps_total",
			Help: "Total number of completed orchestrator sweeps",
		}),

		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "agenthive_sweep_duration_seconds",
			Help:    "Duration of orchestrator sweeps in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 300, 600, 1800},
		}),

		AgentsRunning: factory.NewGauge(prometheus.GaugeOpts{
			Name: "agenthive_agents_running",
			Help: "Number of agents that have not stopped",
		}),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveToolCall records one dispatched tool call.
func (m *Metrics) ObserveToolCall(toolsetID, tool, kind string, dur time.Duration) {
	m.ToolCallCounter.WithLabelValues(toolsetID, tool, kind).Inc()
	m.ToolCallDuration.WithLabelValues(toolsetID).Observe(dur.Seconds())
}

// ObservePass records one finished pass.
func (m *Metrics) ObservePass(outcome string, dur time.Duration) {
	m.PassCounter.WithLabelValues(outcome).Inc()
	m.PassDuration.WithLabelValues(outcome).Observe(dur.Seconds())
}

// ObserveModelCall records one model call.
func (m *Metrics) ObserveModelCall(provider, stage, kind string, dur time.Duration) {
	m.ModelCallCounter.WithLabelValues(provider, stage, kind).Inc()
	m.ModelCallDuration.WithLabelValues(provider, stage).Observe(dur.Seconds())
}

// ObserveSweep records one completed sweep.
func (m *Metrics) ObserveSweep(dur time.Duration) {
	m.SweepCounter.Inc()
	m.SweepDuration.Observe(dur.Seconds())
}

// SetAgentsRunning updates the running agents gauge.
func (m *Metrics) SetAgentsRunning(n int) { m.AgentsRunning.Set(float64(n)) }
