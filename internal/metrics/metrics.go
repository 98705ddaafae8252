// Package metrics records per-run counters and writes them in the Prometheus
// text format for node_exporter's textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

// Recorder holds the agent's metrics in its own registry
type Recorder struct {
	registry *prometheus.Registry

	runs       *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	files      *prometheus.CounterVec
	modelCalls *prometheus.CounterVec
	demoRuns   *prometheus.CounterVec
}

// New creates a Recorder with a fresh registry
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "code_agent_runs_total",
				Help: "Total number of agent runs by command and result",
			},
			[]string{"command", "result"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "code_agent_run_duration_seconds",
				Help:    "Wall time of agent runs",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"command"},
		),
		files: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "code_agent_files_modified_total",
				Help: "Files written by the agent",
			},
			[]string{"command"},
		),
		modelCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "code_agent_model_calls_total",
				Help: "Model backend calls by provider and result",
			},
			[]string{"provider", "result"},
		),
		demoRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "code_agent_demo_fallbacks_total",
				Help: "Runs that fell back to local demo artifacts",
			},
			[]string{"stage"},
		),
	}
}

// ObserveRun records the end of one command
func (r *Recorder) ObserveRun(command string, success bool, elapsed time.Duration, filesModified int) {
	r.runs.WithLabelValues(command, result(success)).Inc()
	r.duration.WithLabelValues(command).Observe(elapsed.Seconds())
	if filesModified > 0 {
		r.files.WithLabelValues(command).Add(float64(filesModified))
	}
}

// ObserveDemoFallback records a demo-mode fallback at stage (push, create_pr)
func (r *Recorder) ObserveDemoFallback(stage string) {
	r.demoRuns.WithLabelValues(stage).Inc()
}

// ObserveModelCall has the shape of llm.Observer
func (r *Recorder) ObserveModelCall(provider string, err error) {
	r.modelCalls.WithLabelValues(provider, result(err == nil)).Inc()
}

// Gatherer exposes the registry, mostly for tests
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes all metrics to path atomically. An empty path is a
// no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}

func result(success bool) string {
	if success {
		return resultSuccess
	}
	return resultFailure
}
