package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/papapumpkin/graha/internal/ansi"
	"github.com/papapumpkin/graha/internal/catalog"
	"github.com/papapumpkin/graha/internal/ephemeris"
	"github.com/papapumpkin/graha/internal/logging"
	"github.com/papapumpkin/graha/internal/metrics"
	"github.com/papapumpkin/graha/internal/report"
	"github.com/papapumpkin/graha/internal/telemetry"
	"github.com/papapumpkin/graha/internal/ui"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <chart>...",
	Short: "Analyse one or more chart files",
	Long: `Analyses each chart file (TOML or YAML) against the catalogue and writes
one report per chart to stdout, in argument order. Charts are analysed in
parallel; a chart that fails does not stop the others.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.Close()

	c, err := loadCatalog(s.cfg, "")
	if err != nil {
		s.printer.Error(err.Error())
		return err
	}

	em, err := openTelemetry(s.cfg.TelemetryPath)
	if err != nil {
		return err
	}
	defer em.Close()

	b := &batch{
		catalog:     c,
		log:         logging.WithComponent(s.log, "analyze"),
		emitter:     em,
		metrics:     metrics.New(),
		concurrency: s.cfg.Concurrency,
		runID:       uuid.NewString(),
	}
	outcomes, err := b.run(cmd.Context(), args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	color := ansi.IsTerminal(out)
	var failed int
	for _, o := range outcomes {
		if o.err != nil {
			failed++
			s.printer.ChartFailed(o.file, o.err)
			continue
		}
		if err := ui.Render(out, o.report, s.cfg.Output, color); err != nil {
			return err
		}
		if len(outcomes) > 1 {
			s.printer.ChartDone(o.file, o.report)
		}
	}

	if err := writeMetrics(s, b.metrics); err != nil {
		s.log.WithError(err).Warn("metrics not written")
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d chart(s) failed", failed, len(outcomes))
	}
	return nil
}

// openTelemetry returns a file emitter for path, or a nil (no-op) emitter
// when path is empty.
func openTelemetry(path string) (*telemetry.Emitter, error) {
	if path == "" {
		return nil, nil
	}
	return telemetry.NewEmitter(path)
}

// batch analyses many charts against one catalogue.
type batch struct {
	catalog     *catalog.Catalog
	log         logrus.FieldLogger
	emitter     *telemetry.Emitter
	metrics     *metrics.Metrics
	concurrency int
	runID       string
}

// outcome is the result of one chart. Exactly one of report and err is set.
type outcome struct {
	file   string
	report *report.Report
	err    error
}

// run analyses files with at most b.concurrency charts in flight and
// returns the outcomes in input order. Per-chart failures are recorded in
// the outcome; only cancellation of ctx fails the batch.
func (b *batch) run(ctx context.Context, files []string) ([]outcome, error) {
	_ = b.emitter.Emit(telemetry.Event{
		Kind:  telemetry.KindRunStart,
		RunID: b.runID,
		Data:  map[string]any{"catalog": b.catalog.Source, "charts": len(files)},
	})

	outcomes := make([]outcome, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(b.concurrency, 1))
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rep, err := b.analyzeFile(gctx, file)
			outcomes[i] = outcome{file: file, report: rep, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var failed int
	for _, o := range outcomes {
		if o.err != nil {
			failed++
			continue
		}
		b.metrics.RecordReport(o.report)
	}
	_ = b.emitter.Emit(telemetry.Event{
		Kind:  telemetry.KindRunDone,
		RunID: b.runID,
		Data:  map[string]any{"ok": len(files) - failed, "failed": failed},
	})
	return outcomes, nil
}

// analyzeFile loads a chart snapshot and analyses it through the snapshot's
// own provider, so the positions flow through the same path a live
// ephemeris would use.
func (b *batch) analyzeFile(ctx context.Context, file string) (*report.Report, error) {
	log := b.log.WithField("chart", file)
	snap, err := ephemeris.LoadSnapshot(file)
	if err != nil {
		log.WithError(err).Warn("chart not loaded")
		return nil, err
	}

	a := report.New(b.catalog,
		report.WithLogger(log),
		report.WithObserver(report.Observers{
			telemetry.Observer{Emitter: b.emitter, RunID: b.runID, Chart: file},
			b.metrics,
		}),
	)
	rep, err := a.AnalyzeAt(ctx, snap, snap.Query(), report.Request{
		Natal:     snap.Natal,
		Ascendant: snap.Ascendant,
		Night:     snap.Night,
	})
	if err != nil {
		return nil, err
	}

	_ = b.emitter.Emit(telemetry.Event{
		Kind:  telemetry.KindChartDone,
		RunID: b.runID,
		Chart: file,
		Data: map[string]any{
			"aspects":  len(rep.Aspects) + len(rep.CrossAspects),
			"patterns": len(rep.Patterns),
			"points":   len(rep.Points),
			"returns":  len(rep.Returns),
		},
	})
	log.Debug("chart analysed")
	return rep, nil
}
