// Package metrics provides Prometheus metric collectors for the feedback
// pipeline and publication lifecycle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics contains Prometheus metrics for feedback generation runs.
type PipelineMetrics struct {
	runsTotal        *prometheus.CounterVec
	stageFallbacks   *prometheus.CounterVec
	remediationTotal prometheus.Counter
	runDuration      prometheus.Histogram
}

// NewPipelineMetrics creates and registers pipeline metrics with the registry.
func NewPipelineMetrics(registry *prometheus.Registry) (*PipelineMetrics, error) {
	m := &PipelineMetrics{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vocalis_pipeline_runs_total",
			Help: "Total feedback pipeline runs by outcome",
		}, []string{"outcome"}),
		stageFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vocalis_pipeline_stage_fallbacks_total",
			Help: "Stage executions that degraded to a fallback value",
		}, []string{"stage"}),
		remediationTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vocalis_pipeline_remediations_total",
			Help: "Bias remediation rewrites performed",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vocalis_pipeline_run_duration_seconds",
			Help:    "End to end duration of a pipeline run",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}

	for _, c := range []prometheus.Collector{
		m.runsTotal, m.stageFallbacks, m.remediationTotal, m.runDuration,
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordRun counts one pipeline run with the given outcome ("ok", "degraded", "error").
func (m *PipelineMetrics) RecordRun(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(seconds)
}

// RecordFallback counts a stage that degraded to its fallback value.
func (m *PipelineMetrics) RecordFallback(stage string) {
	if m == nil {
		return
	}
	m.stageFallbacks.WithLabelValues(stage).Inc()
}

// RecordRemediation counts one bias remediation rewrite.
func (m *PipelineMetrics) RecordRemediation() {
	if m == nil {
		return
	}
	m.remediationTotal.Inc()
}
