// Package ui renders analysis reports for people and programs: indented
// JSON for pipelines, go-pretty tables for the terminal.
package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/papapumpkin/graha/internal/angle"
	"github.com/papapumpkin/graha/internal/ansi"
	"github.com/papapumpkin/graha/internal/aspect"
	"github.com/papapumpkin/graha/internal/report"
)

// Output formats.
const (
	FormatJSON  = "json"
	FormatTable = "table"
)

// Render writes r to w in the given format. Color only affects tables.
func Render(w io.Writer, r *report.Report, format string, color bool) error {
	switch format {
	case FormatJSON, "":
		return RenderJSON(w, r)
	case FormatTable:
		return RenderTable(w, r, color)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// RenderJSON writes r as indented JSON followed by a newline. Identical
// reports always produce identical bytes.
func RenderJSON(w io.Writer, r *report.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

// RenderTable writes one table per non-empty report section.
func RenderTable(w io.Writer, r *report.Report, color bool) error {
	paint := func(code, s string) string {
		if !color {
			return s
		}
		return ansi.Wrap(code, s)
	}

	sections := []table.Writer{bodiesTable(r)}
	if len(r.Houses) > 0 {
		sections = append(sections, housesTable(r))
	}
	if len(r.Aspects) > 0 {
		sections = append(sections, aspectsTable("Aspects", r.Aspects, paint))
	}
	if len(r.CrossAspects) > 0 {
		sections = append(sections, aspectsTable("Aspects to natal", r.CrossAspects, paint))
	}
	if len(r.Patterns) > 0 {
		sections = append(sections, patternsTable(r))
	}
	if len(r.Points) > 0 {
		sections = append(sections, pointsTable(r))
	}
	if len(r.Returns) > 0 {
		sections = append(sections, returnsTable(r))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", paint(ansi.Bold, "catalogue"), r.Catalog)
	if r.Night {
		b.WriteString(" (night)")
	}
	if r.Ascendant != nil {
		fmt.Fprintf(&b, ", ascendant %s", Longitude(*r.Ascendant))
	}
	b.WriteString("\n")
	for _, t := range sections {
		b.WriteString(t.Render())
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func newTable(title string, header ...any) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	t.AppendHeader(table.Row(header))
	return t
}

func rightAligned(cols ...int) []table.ColumnConfig {
	cfgs := make([]table.ColumnConfig, len(cols))
	for i, c := range cols {
		cfgs[i] = table.ColumnConfig{Number: c, Align: text.AlignRight}
	}
	return cfgs
}

func bodiesTable(r *report.Report) table.Writer {
	t := newTable("Bodies", "Body", "Longitude", "Speed")
	for _, b := range r.Bodies {
		speed := "-"
		if b.HasSpeed {
			speed = fmt.Sprintf("%.4f", b.Speed)
			if b.Retrograde() {
				speed += " R"
			}
		}
		t.AppendRow(table.Row{b.Name, Longitude(b.Longitude), speed})
	}
	t.SetColumnConfigs(rightAligned(3))
	return t
}

func housesTable(r *report.Report) table.Writer {
	t := newTable("Houses", "Body", "House")
	for _, h := range r.Houses {
		t.AppendRow(table.Row{h.Body, h.House})
	}
	t.SetColumnConfigs(rightAligned(2))
	return t
}

func aspectsTable(title string, matches []aspect.Match, paint func(code, s string) string) table.Writer {
	t := newTable(title, "First", "Second", "Aspect", "Separation", "Orb", "Strength")
	for _, m := range matches {
		strength := paint(ansi.ForStrength(m.Strength), fmt.Sprintf("%.1f", m.Strength))
		t.AppendRow(table.Row{
			m.First, m.Second, m.Rule,
			fmt.Sprintf("%.2f", m.Separation),
			fmt.Sprintf("%.2f", m.Orb),
			strength,
		})
	}
	t.SetColumnConfigs(rightAligned(4, 5, 6))
	return t
}

func patternsTable(r *report.Report) table.Writer {
	t := newTable("Patterns", "Pattern", "Bodies", "Roles", "Receiver")
	for _, m := range r.Patterns {
		roles := make([]string, 0, len(m.Roles))
		for slot, body := range m.Roles {
			roles = append(roles, slot+"="+body)
		}
		sort.Strings(roles)
		t.AppendRow(table.Row{m.Pattern, strings.Join(m.Bodies, ", "), strings.Join(roles, " "), m.Receiver})
	}
	return t
}

func pointsTable(r *report.Report) table.Writer {
	t := newTable("Derived points", "Point", "Longitude", "House")
	for _, p := range r.Points {
		h := "-"
		if p.House != nil {
			h = fmt.Sprint(p.House.House)
		}
		t.AppendRow(table.Row{p.Name, Longitude(p.Longitude), h})
	}
	t.SetColumnConfigs(rightAligned(3))
	return t
}

func returnsTable(r *report.Report) table.Writer {
	t := newTable("Returns", "Body", "Natal", "Proximity", "Within", "Motion", "Approaching")
	for _, e := range r.Returns {
		approaching := "-"
		if e.Approaching != nil {
			approaching = fmt.Sprint(*e.Approaching)
		}
		t.AppendRow(table.Row{
			e.Body, Longitude(e.Reference),
			fmt.Sprintf("%.2f", e.Proximity),
			e.Within, e.Motion, approaching,
		})
	}
	t.SetColumnConfigs(rightAligned(3))
	return t
}

// Longitude formats an ecliptic longitude as degrees and minutes within
// its sign, e.g. "12°30' Taurus".
func Longitude(lon float64) string {
	total := int(math.Round(angle.Normalize(lon)*60)) % (360 * 60)
	sign := total / (30 * 60)
	within := total % (30 * 60)
	return fmt.Sprintf("%d°%02d' %s", within/60, within%60, angle.SignName(sign))
}
