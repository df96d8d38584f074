// Package catalog loads the engine's static configuration: the aspect
// table, pattern rules, derived-point formulas, per-body orbs, and the
// return tolerance. A Catalog is validated once when it is built and is
// read-only afterwards, so one instance can serve concurrent analyses.
package catalog

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/papapumpkin/graha/internal/aspect"
	"github.com/papapumpkin/graha/internal/saham"
	"github.com/papapumpkin/graha/internal/yoga"
)

// File is the on-disk shape of a catalogue, shared by the TOML and YAML
// encodings.
type File struct {
	ReturnTolerance float64            `toml:"return_tolerance" yaml:"return_tolerance"`
	BodyOrbs        map[string]float64 `toml:"body_orbs" yaml:"body_orbs"`
	Aspects         []aspect.Rule      `toml:"aspects" yaml:"aspects"`
	Patterns        []yoga.Pattern     `toml:"patterns" yaml:"patterns"`
	Sahams          []FormulaSpec      `toml:"sahams" yaml:"sahams"`
}

// FormulaSpec declares a derived point as text. Night, when set, replaces
// Day for charts cast at night.
type FormulaSpec struct {
	Name        string `toml:"name" yaml:"name" json:"name"`
	Description string `toml:"description,omitempty" yaml:"description,omitempty" json:"description,omitempty"`
	Day         string `toml:"day" yaml:"day" json:"day"`
	Night       string `toml:"night,omitempty" yaml:"night,omitempty" json:"night,omitempty"`
}

// Catalog is a validated, immutable rule set.
type Catalog struct {
	// Source is the file the catalogue came from, or "default".
	Source          string
	Aspects         aspect.Table
	Patterns        []yoga.Pattern
	Formulas        []saham.Formula // evaluation order
	BodyOrbs        map[string]float64
	ReturnTolerance float64
}

// Build validates f and converts it into a Catalog. All problems are
// reported together as *ValidationError values joined with errors.Join.
func Build(f File, source string) (*Catalog, error) {
	verrs := Validate(&f)
	formulas, perrs := parseFormulas(f.Sahams)
	verrs = append(verrs, perrs...)
	if len(verrs) == 0 {
		ordered, err := saham.Order(formulas)
		if err != nil {
			verrs = append(verrs, ValidationError{
				Category: ValCatCycle,
				Section:  "sahams",
				Err:      fmt.Errorf("%w: %w", ErrInvalidConfiguration, err),
			})
		}
		formulas = ordered
	}
	if len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i := range verrs {
			errs[i] = &verrs[i]
		}
		return nil, fmt.Errorf("catalogue %s: %w", source, errors.Join(errs...))
	}

	return &Catalog{
		Source:          source,
		Aspects:         slices.Clone(aspect.Table(f.Aspects)),
		Patterns:        slices.Clone(f.Patterns),
		Formulas:        formulas,
		BodyOrbs:        maps.Clone(f.BodyOrbs),
		ReturnTolerance: f.ReturnTolerance,
	}, nil
}

// parseFormulas turns the textual formulas into terms, reporting syntax
// errors per entry.
func parseFormulas(specs []FormulaSpec) ([]saham.Formula, []ValidationError) {
	var (
		out  []saham.Formula
		errs []ValidationError
	)
	for _, s := range specs {
		if s.Day == "" {
			// Reported by Validate as an empty formula.
			continue
		}
		f := saham.Formula{Name: s.Name}
		var err error
		if f.Terms, err = saham.Parse(s.Day); err != nil {
			errs = append(errs, syntaxError(s.Name, "day", err))
			continue
		}
		if s.Night != "" {
			if f.Night, err = saham.Parse(s.Night); err != nil {
				errs = append(errs, syntaxError(s.Name, "night", err))
				continue
			}
		}
		out = append(out, f)
	}
	return out, errs
}

func syntaxError(name, field string, err error) ValidationError {
	return ValidationError{
		Category: ValCatSyntax,
		Section:  "sahams",
		Name:     name,
		Field:    field,
		Err:      fmt.Errorf("%w: %w", ErrInvalidConfiguration, err),
	}
}

// Env returns the pattern-evaluation context backed by this catalogue.
func (c *Catalog) Env() yoga.Env {
	return yoga.Env{Aspects: c.Aspects, BodyOrbs: c.BodyOrbs}
}

// PatternNames returns the names of all patterns in catalogue order.
func (c *Catalog) PatternNames() []string {
	names := make([]string, len(c.Patterns))
	for i, p := range c.Patterns {
		names[i] = p.Name
	}
	return names
}

// WithDisabled returns a copy of c in which the named patterns are
// disabled. The receiver is left untouched. Unknown names are an error
// wrapping ErrUnknownPattern.
func (c *Catalog) WithDisabled(names ...string) (*Catalog, error) {
	out := *c
	out.Patterns = slices.Clone(c.Patterns)
	for _, name := range names {
		i := slices.IndexFunc(out.Patterns, func(p yoga.Pattern) bool { return p.Name == name })
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPattern, name)
		}
		out.Patterns[i].Disabled = true
	}
	return &out, nil
}

// WithReturnTolerance returns a copy of c using tol for return detection.
// A non-positive tol leaves the catalogue value in place.
func (c *Catalog) WithReturnTolerance(tol float64) *Catalog {
	out := *c
	if tol > 0 {
		out.ReturnTolerance = tol
	}
	return &out
}
