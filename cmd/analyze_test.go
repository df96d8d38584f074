package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"

	"github.com/papapumpkin/graha/internal/aspect"
	"github.com/papapumpkin/graha/internal/catalog"
	"github.com/papapumpkin/graha/internal/config"
	"github.com/papapumpkin/graha/internal/metrics"
	"github.com/papapumpkin/graha/internal/telemetry"
)

const scenarioChart = `
ascendant = 0.0

[[bodies]]
name = "Sun"
longitude = 100.0

[[bodies]]
name = "Moon"
longitude = 100.5

[[bodies]]
name = "Mars"
longitude = 280.5
`

func testBatch(t *testing.T, w io.Writer) *batch {
	t.Helper()
	c, err := catalog.Build(catalog.File{
		ReturnTolerance: 1,
		Aspects: []aspect.Rule{
			{Name: "conjunction", Angle: 0, Orb: 1},
			{Name: "opposition", Angle: 180, Orb: 1},
		},
	}, "inline")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &batch{
		catalog:     c,
		log:         log,
		emitter:     telemetry.NewWriterEmitter(w),
		metrics:     metrics.New(),
		concurrency: 2,
		runID:       "run-1",
	}
}

func TestBatch_Run(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := filepath.Join(dir, "chart.toml")
	if err := os.WriteFile(good, []byte(scenarioChart), 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "missing.toml")

	var events bytes.Buffer
	b := testBatch(t, &events)
	outcomes, err := b.run(context.Background(), []string{good, missing, good})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(outcomes) != 3 {
		t.Fatalf("outcomes = %d, want 3", len(outcomes))
	}
	for _, i := range []int{0, 2} {
		o := outcomes[i]
		if o.err != nil || o.file != good {
			t.Fatalf("outcome %d = %+v", i, o)
		}
		if len(o.report.Aspects) != 3 {
			t.Errorf("outcome %d aspects = %d, want 3", i, len(o.report.Aspects))
		}
	}
	if outcomes[1].err == nil || !errors.Is(outcomes[1].err, os.ErrNotExist) {
		t.Errorf("missing chart error = %v, want os.ErrNotExist", outcomes[1].err)
	}

	kinds := make(map[string]int)
	for _, line := range strings.Split(strings.TrimSpace(events.String()), "\n") {
		var evt telemetry.Event
		if err := json.Unmarshal([]byte(line), &evt); err != nil {
			t.Fatalf("bad event line %q: %v", line, err)
		}
		if evt.RunID != "run-1" {
			t.Errorf("event %s has run %q", evt.Kind, evt.RunID)
		}
		kinds[evt.Kind]++
	}
	want := map[string]int{
		telemetry.KindRunStart:  1,
		telemetry.KindRunDone:   1,
		telemetry.KindChartDone: 2,
		telemetry.KindStage:     10, // five transitions per analysed chart
	}
	for kind, n := range want {
		if kinds[kind] != n {
			t.Errorf("%s events = %d, want %d", kind, kinds[kind], n)
		}
	}

	if n, err := testutil.GatherAndCount(b.metrics.Registry(), "graha_analyses_total"); err != nil || n != 1 {
		t.Errorf("analyses series = %d (%v), want 1", n, err)
	}
}

func TestBatch_RunCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := testBatch(t, io.Discard).run(ctx, []string{"a.toml"}); !errors.Is(err, context.Canceled) {
		t.Errorf("run error = %v, want context.Canceled", err)
	}
}

func TestLoadCatalog(t *testing.T) {
	t.Parallel()

	c, err := loadCatalog(config.Config{DisabledPatterns: []string{"yuti"}, ReturnTolerance: 2}, "")
	if err != nil {
		t.Fatalf("loadCatalog: %v", err)
	}
	if c.ReturnTolerance != 2 {
		t.Errorf("ReturnTolerance = %v, want 2", c.ReturnTolerance)
	}
	for _, p := range c.Patterns {
		if p.Disabled != (p.Name == "yuti") {
			t.Errorf("pattern %s disabled = %v", p.Name, p.Disabled)
		}
	}

	if _, err := loadCatalog(config.Config{DisabledPatterns: []string{"nope"}}, ""); !errors.Is(err, catalog.ErrUnknownPattern) {
		t.Errorf("unknown pattern error = %v", err)
	}
	if _, err := loadCatalog(config.Config{}, "rules.json"); !errors.Is(err, catalog.ErrUnsupportedFormat) {
		t.Errorf("json catalogue error = %v", err)
	}
}

func TestPrintEvent(t *testing.T) {
	t.Parallel()

	line := `{"ts":"2025-01-01T12:30:00Z","kind":"chart_done","run":"r1","chart":"a.toml","data":{"patterns":0,"aspects":3}}`
	tests := []struct {
		name  string
		line  string
		runID string
		want  string
	}{
		{"all runs", line, "", "[12:30:00] chart_done run=r1 chart=a.toml aspects=3 patterns=0\n"},
		{"matching run", line, "r1", "[12:30:00] chart_done run=r1 chart=a.toml aspects=3 patterns=0\n"},
		{"other run", line, "r2", ""},
		{"not json", "garbage", "", "??? garbage\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			printEvent(&buf, tt.line, tt.runID)
			if buf.String() != tt.want {
				t.Errorf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestLineReader_HoldsPartialLine(t *testing.T) {
	t.Parallel()

	input := `{"ts":"2025-01-01T00:00:00Z","kind":"run_start"}` + "\n" + `{"ts":"2025-01-01T00:00:01Z","kind":"run_`
	lr := &lineReader{r: bufio.NewReader(strings.NewReader(input))}

	var buf bytes.Buffer
	if err := lr.drain(&buf); err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(buf.String(), "\n"); got != 1 {
		t.Fatalf("printed %d lines before flush, want 1: %q", got, buf.String())
	}
	if !strings.Contains(buf.String(), "run_start") {
		t.Errorf("output = %q", buf.String())
	}

	lr.flush(&buf)
	if !strings.Contains(buf.String(), "??? ") {
		t.Errorf("flushed partial line not printed: %q", buf.String())
	}
}
