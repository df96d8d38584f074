package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/papapumpkin/graha/internal/aspect"
	"github.com/papapumpkin/graha/internal/report"
	"github.com/papapumpkin/graha/internal/yoga"
)

func TestMetrics_Observer(t *testing.T) {
	t.Parallel()

	m := New()
	var _ report.Observer = m

	m.StageEntered(report.StageCreated, report.StagePositionsLoaded, time.Millisecond)
	m.StageEntered(report.StageDerivedPointsComputed, report.StageFinalized, time.Millisecond)
	m.Failed(report.StageDerivedPointsComputed, errors.New("missing Jupiter"))
	m.Failed(report.StageDerivedPointsComputed, errors.New("missing Jupiter"))

	if got := testutil.ToFloat64(m.analyses.WithLabelValues("ok")); got != 1 {
		t.Errorf("ok analyses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.analyses.WithLabelValues("failed")); got != 2 {
		t.Errorf("failed analyses = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.failures.WithLabelValues("derived_points_computed")); got != 2 {
		t.Errorf("failures = %v, want 2", got)
	}
	if got := testutil.CollectAndCount(m.stageDuration); got != 2 {
		t.Errorf("stage duration series = %d, want 2", got)
	}
}

func TestMetrics_RecordReport(t *testing.T) {
	t.Parallel()

	m := New()
	m.RecordReport(&report.Report{
		Aspects:  make([]aspect.Match, 3),
		Patterns: make([]yoga.Match, 1),
	})
	m.RecordReport(nil)

	tests := []struct {
		kind string
		want float64
	}{
		{"aspect", 3},
		{"pattern", 1},
		{"point", 0},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(m.results.WithLabelValues(tt.kind)); got != tt.want {
			t.Errorf("%s entries = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestMetrics_WriteTextfile(t *testing.T) {
	t.Parallel()

	m := New()
	m.Failed(report.StagePatternsComputed, errors.New("boom"))

	path := filepath.Join(t.TempDir(), "graha.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`graha_analyses_total{outcome="failed"} 1`,
		`graha_analysis_failures_total{stage="patterns_computed"} 1`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("textfile lacks %q:\n%s", want, data)
		}
	}
}

func TestMetrics_NilIsNoOp(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.StageEntered(report.StageCreated, report.StagePositionsLoaded, time.Millisecond)
	m.Failed(report.StageFinalized, errors.New("boom"))
	m.RecordReport(&report.Report{})
	if err := m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")); err != nil {
		t.Errorf("WriteTextfile on nil: %v", err)
	}
}
