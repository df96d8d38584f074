package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/papapumpkin/graha/internal/ansi"
	"github.com/papapumpkin/graha/internal/catalog"
	"github.com/papapumpkin/graha/internal/report"
)

// Printer writes human-facing status lines, normally to stderr, so that
// stdout carries only reports.
type Printer struct {
	w     io.Writer
	color bool
}

// New returns a Printer writing to w.
func New(w io.Writer, color bool) *Printer {
	return &Printer{w: w, color: color}
}

func (p *Printer) paint(code, s string) string {
	if !p.color {
		return s
	}
	return ansi.Wrap(code, s)
}

// Info prints a dimmed message.
func (p *Printer) Info(msg string) {
	fmt.Fprintln(p.w, p.paint(ansi.Dim, msg))
}

// Error prints an error message.
func (p *Printer) Error(msg string) {
	fmt.Fprintf(p.w, "%s%s\n", p.paint(ansi.Red+ansi.Bold, "error: "), msg)
}

// ChartDone summarizes a finished analysis.
func (p *Printer) ChartDone(file string, r *report.Report) {
	fmt.Fprintf(p.w, "%s %s %s\n",
		p.paint(ansi.Green+ansi.Bold, "✓"),
		file,
		p.paint(ansi.Dim, fmt.Sprintf("(%d aspects, %d patterns, %d points, %d returns)",
			len(r.Aspects)+len(r.CrossAspects), len(r.Patterns), len(r.Points), len(r.Returns))))
}

// ChartFailed reports an analysis that produced no report.
func (p *Printer) ChartFailed(file string, err error) {
	fmt.Fprintf(p.w, "%s %s: %v\n", p.paint(ansi.Red+ansi.Bold, "✗"), file, err)
}

// Reloaded reports that a watched file changed and the chart is being
// analysed again.
func (p *Printer) Reloaded(file string) {
	fmt.Fprintf(p.w, "%s %s\n", p.paint(ansi.Cyan, "↻ changed"), file)
}

// CatalogValid confirms a catalogue loaded without problems.
func (p *Printer) CatalogValid(c *catalog.Catalog) {
	fmt.Fprintf(p.w, "%s — %d aspect(s), %d pattern(s), %d formula(s)\n",
		p.paint(ansi.Green+ansi.Bold, fmt.Sprintf("✓ catalogue %q", c.Source)),
		len(c.Aspects), len(c.Patterns), len(c.Formulas))
	if len(c.Patterns) > 0 {
		fmt.Fprintf(p.w, "  patterns: %s\n", strings.Join(c.PatternNames(), ", "))
	}
}

// CatalogInvalid lists every validation problem found in a catalogue.
// Errors that are not validation errors are printed as a single line.
func (p *Printer) CatalogInvalid(source string, err error) {
	problems := catalog.Problems(err)
	if len(problems) == 0 {
		fmt.Fprintf(p.w, "%s — %v\n", p.paint(ansi.Red+ansi.Bold, fmt.Sprintf("✗ catalogue %q", source)), err)
		return
	}
	fmt.Fprintf(p.w, "%s — %d error(s):\n", p.paint(ansi.Red+ansi.Bold, fmt.Sprintf("✗ catalogue %q", source)), len(problems))
	for _, ve := range problems {
		fmt.Fprintf(p.w, "  %s%s\n", p.paint(ansi.Red, "• "), ve.Error())
	}
}
