// Package metrics counts analyses with Prometheus collectors on a private
// registry. graha is a batch CLI, so the registry is written to a
// node_exporter textfile at the end of a run instead of being scraped.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/papapumpkin/graha/internal/report"
)

// Metrics holds the analysis collectors. It satisfies report.Observer and
// is safe for concurrent use. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// analyses counts finished analyses by outcome (ok, failed).
	analyses *prometheus.CounterVec
	// stageDuration tracks the time spent reaching each stage.
	stageDuration *prometheus.HistogramVec
	// failures counts failed analyses by the stage that could not be reached.
	failures *prometheus.CounterVec
	// results counts report entries by kind.
	results *prometheus.CounterVec
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		analyses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "graha_analyses_total",
			Help: "Total analyses by outcome",
		}, []string{"outcome"}),
		stageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "graha_stage_duration_seconds",
			Help:    "Time spent reaching each analysis stage",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10), // 10µs to ~2.6s
		}, []string{"stage"}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "graha_analysis_failures_total",
			Help: "Failed analyses by the stage that failed",
		}, []string{"stage"}),
		results: f.NewCounterVec(prometheus.CounterOpts{
			Name: "graha_report_entries_total",
			Help: "Report entries produced, by kind",
		}, []string{"kind"}),
	}
}

// Registry exposes the registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// StageEntered records the stage duration and counts completed analyses.
func (m *Metrics) StageEntered(_, to report.Stage, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(to.String()).Observe(elapsed.Seconds())
	if to == report.StageFinalized {
		m.analyses.WithLabelValues("ok").Inc()
	}
}

// Failed counts a failed analysis.
func (m *Metrics) Failed(stage report.Stage, _ error) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(stage.String()).Inc()
	m.analyses.WithLabelValues("failed").Inc()
}

// RecordReport counts the entries of a finished report.
func (m *Metrics) RecordReport(r *report.Report) {
	if m == nil || r == nil {
		return
	}
	m.results.WithLabelValues("aspect").Add(float64(len(r.Aspects)))
	m.results.WithLabelValues("cross_aspect").Add(float64(len(r.CrossAspects)))
	m.results.WithLabelValues("pattern").Add(float64(len(r.Patterns)))
	m.results.WithLabelValues("point").Add(float64(len(r.Points)))
	m.results.WithLabelValues("return").Add(float64(len(r.Returns)))
}

// WriteTextfile writes the registry in the Prometheus text format to path,
// atomically replacing any previous file.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	return nil
}
