package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/papapumpkin/graha/internal/catalog"
	"github.com/papapumpkin/graha/internal/saham"
)

// RenderCatalog writes the rules of c as tables: aspects, body orbs,
// patterns, and derived points in evaluation order.
func RenderCatalog(w io.Writer, c *catalog.Catalog) error {
	var b strings.Builder
	fmt.Fprintf(&b, "catalogue %s, return tolerance %.2f°\n", c.Source, c.ReturnTolerance)

	aspects := newTable("Aspects", "Aspect", "Angle", "Orb")
	for _, r := range c.Aspects {
		aspects.AppendRow(table.Row{r.Name, fmt.Sprintf("%g", r.Angle), fmt.Sprintf("%g", r.Orb)})
	}
	aspects.SetColumnConfigs(rightAligned(2, 3))
	b.WriteString(aspects.Render())
	b.WriteString("\n")

	if len(c.BodyOrbs) > 0 {
		names := make([]string, 0, len(c.BodyOrbs))
		for name := range c.BodyOrbs {
			names = append(names, name)
		}
		sort.Strings(names)
		orbs := newTable("Body orbs", "Body", "Orb")
		for _, name := range names {
			orbs.AppendRow(table.Row{name, fmt.Sprintf("%g", c.BodyOrbs[name])})
		}
		orbs.SetColumnConfigs(rightAligned(2))
		b.WriteString(orbs.Render())
		b.WriteString("\n")
	}

	patterns := newTable("Patterns", "Pattern", "Slots", "Constraints", "Status")
	for _, p := range c.Patterns {
		slots := make([]string, len(p.Slots))
		for i, s := range p.Slots {
			slots[i] = s.Name
			if s.Body != "" {
				slots[i] += "=" + s.Body
			}
		}
		status := "enabled"
		if p.Disabled {
			status = "disabled"
		}
		patterns.AppendRow(table.Row{p.Name, strings.Join(slots, ", "), len(p.Constraints), status})
	}
	patterns.SetColumnConfigs(rightAligned(3))
	b.WriteString(patterns.Render())
	b.WriteString("\n")

	if len(c.Formulas) > 0 {
		deps, err := saham.Dependencies(c.Formulas)
		if err != nil {
			return err
		}
		points := newTable("Derived points", "#", "Point", "Day", "Night", "Needs")
		for i, f := range c.Formulas {
			night := "-"
			if len(f.Night) > 0 {
				night = saham.String(f.Night)
			}
			needs := "-"
			if len(deps[f.Name]) > 0 {
				needs = strings.Join(deps[f.Name], ", ")
			}
			points.AppendRow(table.Row{i + 1, f.Name, saham.String(f.Terms), night, needs})
		}
		b.WriteString(points.Render())
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
