package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/papapumpkin/graha/internal/ansi"
	"github.com/papapumpkin/graha/internal/catalog"
	"github.com/papapumpkin/graha/internal/logging"
	"github.com/papapumpkin/graha/internal/metrics"
	"github.com/papapumpkin/graha/internal/telemetry"
	"github.com/papapumpkin/graha/internal/ui"
	"github.com/papapumpkin/graha/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch <chart>",
	Short: "Re-analyse a chart whenever it or the catalogue changes",
	Long: `Analyses the chart once, then again every time the chart file or the
configured catalogue file changes. Each run loads a fresh catalogue; a
catalogue that fails validation is reported and the previous one is kept.
Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.Close()

	c, err := loadCatalog(s.cfg, "")
	if err != nil {
		s.printer.CatalogInvalid(s.cfg.Catalog, err)
		return err
	}

	em, err := openTelemetry(s.cfg.TelemetryPath)
	if err != nil {
		return err
	}
	defer em.Close()

	chartFile := args[0]
	w, err := watch.New([]string{chartFile, s.cfg.Catalog})
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	b := &batch{
		catalog:     c,
		log:         logging.WithComponent(s.log, "watch"),
		emitter:     em,
		metrics:     metrics.New(),
		concurrency: 1,
		runID:       uuid.NewString(),
	}
	out := cmd.OutOrStdout()
	color := ansi.IsTerminal(out)

	analyzeOnce := func(ctx context.Context) error {
		rep, err := b.analyzeFile(ctx, chartFile)
		if err != nil {
			s.printer.ChartFailed(chartFile, err)
			return nil
		}
		b.metrics.RecordReport(rep)
		if err := ui.Render(out, rep, s.cfg.Output, color); err != nil {
			return err
		}
		s.printer.ChartDone(chartFile, rep)
		return nil
	}

	ctx := cmd.Context()
	if err := analyzeOnce(ctx); err != nil {
		return err
	}
	s.printer.Info(fmt.Sprintf("watching %d file(s)", len(w.Files())))

	for {
		select {
		case <-ctx.Done():
			s.printer.Info("shutting down...")
			return writeMetrics(s, b.metrics)
		case change, ok := <-w.Changes:
			if !ok {
				return nil
			}
			_ = em.Emit(telemetry.Event{
				Kind:  telemetry.KindReload,
				RunID: b.runID,
				Chart: chartFile,
				Data:  map[string]any{"file": change.File, "change": change.Kind.String()},
			})
			s.printer.Reloaded(change.File)
			if change.Kind == watch.ChangeRemoved {
				continue
			}
			b.catalog = reloadCatalog(s, b.catalog)
			if err := analyzeOnce(ctx); err != nil {
				return err
			}
		}
	}
}

// reloadCatalog builds a fresh catalogue, keeping prev when the new one
// does not load.
func reloadCatalog(s *session, prev *catalog.Catalog) *catalog.Catalog {
	c, err := loadCatalog(s.cfg, "")
	if err != nil {
		s.printer.CatalogInvalid(prev.Source, err)
		return prev
	}
	return c
}

func writeMetrics(s *session, m *metrics.Metrics) error {
	if s.cfg.MetricsPath == "" {
		return nil
	}
	return m.WriteTextfile(s.cfg.MetricsPath)
}
