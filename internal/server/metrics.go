package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/KaramelBytes/salesprep-cli/internal/cleaning"
)

// Metrics counts stage outcomes. It implements pipeline.Observer.
type Metrics struct {
	registry      *prometheus.Registry
	stages        *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	rowsCorrected *prometheus.CounterVec
	uploads       *prometheus.CounterVec
}

// NewMetrics registers the salesprep collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		stages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salesprep_stage_total",
			Help: "Pipeline stages executed, by stage and outcome.",
		}, []string{"stage", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "salesprep_stage_duration_seconds",
			Help:    "Wall time of each pipeline stage.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"stage"}),
		rowsCorrected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salesprep_rows_corrected_total",
			Help: "Rows changed by each pipeline stage.",
		}, []string{"stage"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salesprep_uploads_total",
			Help: "Uploaded files, by HTTP status returned.",
		}, []string{"code"}),
	}
	m.registry.MustRegister(
		m.stages, m.duration, m.rowsCorrected, m.uploads,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// StageDone records one finished stage.
func (m *Metrics) StageDone(res cleaning.StageResult, elapsed time.Duration) {
	stage := string(res.Stage)
	m.stages.WithLabelValues(stage, string(res.Outcome)).Inc()
	m.duration.WithLabelValues(stage).Observe(elapsed.Seconds())
	if res.RowsChanged > 0 {
		m.rowsCorrected.WithLabelValues(stage).Add(float64(res.RowsChanged))
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
