package saham

import (
	"fmt"

	"github.com/papapumpkin/graha/internal/dag"
)

// Order returns formulas sorted so that any formula used as an input to
// another comes first; otherwise declaration order is kept. Duplicate
// names and dependency cycles are errors wrapping dag.ErrDuplicateNode and
// dag.ErrCycle.
func Order(formulas []Formula) ([]Formula, error) {
	g, err := graph(formulas)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]Formula, len(formulas))
	for _, f := range formulas {
		byName[f.Name] = f
	}

	names, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}
	out := make([]Formula, len(names))
	for i, n := range names {
		out[i] = byName[n]
	}
	return out, nil
}

// Dependencies maps each formula name to the other formulas it needs,
// directly or through another formula, sorted by name. Formulas that only
// read bodies map to an empty slice.
func Dependencies(formulas []Formula) (map[string][]string, error) {
	g, err := graph(formulas)
	if err != nil {
		return nil, err
	}
	deps := make(map[string][]string, len(formulas))
	for _, f := range formulas {
		deps[f.Name] = g.Ancestors(f.Name)
	}
	return deps, nil
}

// graph links every formula to the formulas it reads. Inputs that are not
// formula names are bodies and stay out of the graph.
func graph(formulas []Formula) (*dag.DAG, error) {
	g := dag.New()
	for _, f := range formulas {
		if err := g.AddNode(f.Name); err != nil {
			return nil, fmt.Errorf("saham %s: %w", f.Name, err)
		}
	}
	for _, f := range formulas {
		for _, in := range f.Inputs() {
			if !g.Has(in) {
				continue
			}
			if err := g.AddEdge(f.Name, in); err != nil {
				return nil, fmt.Errorf("saham %s: %w", f.Name, err)
			}
		}
	}
	return g, nil
}
