package catalog

import (
	"fmt"
	"sort"

	"github.com/papapumpkin/graha/internal/yoga"
)

// Validate checks a catalogue file for structural correctness: positive
// orbs and tolerance, aspect angles in range, unique names, and patterns
// whose constraints only reference declared slots and rules. Formula syntax
// and dependency cycles are checked by Build.
func Validate(f *File) []ValidationError {
	var errs []ValidationError
	add := func(cat ValidationCategory, section, name, field, format string, args ...any) {
		errs = append(errs, ValidationError{
			Category: cat,
			Section:  section,
			Name:     name,
			Field:    field,
			Err:      fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfiguration}, args...)...),
		})
	}

	if f.ReturnTolerance <= 0 {
		add(ValCatBoundsViolation, "catalogue", "", "return_tolerance",
			"return_tolerance must be > 0, got %v", f.ReturnTolerance)
	}

	bodies := make([]string, 0, len(f.BodyOrbs))
	for b := range f.BodyOrbs {
		bodies = append(bodies, b)
	}
	sort.Strings(bodies)
	for _, b := range bodies {
		if orb := f.BodyOrbs[b]; orb <= 0 {
			add(ValCatBoundsViolation, "body_orbs", b, "", "orb must be > 0, got %v", orb)
		}
	}

	rules := make(map[string]bool)
	for _, r := range f.Aspects {
		if r.Name == "" {
			add(ValCatMissingField, "aspects", "", "name", "name is required")
			continue
		}
		if rules[r.Name] {
			add(ValCatDuplicateName, "aspects", r.Name, "", "%q already defined", r.Name)
		}
		rules[r.Name] = true
		if r.Orb <= 0 {
			add(ValCatBoundsViolation, "aspects", r.Name, "orb", "orb must be > 0, got %v", r.Orb)
		}
		if r.Angle < 0 || r.Angle > 180 {
			add(ValCatBoundsViolation, "aspects", r.Name, "angle", "angle must be in [0,180], got %v", r.Angle)
		}
	}

	patterns := make(map[string]bool)
	for _, p := range f.Patterns {
		if p.Name == "" {
			add(ValCatMissingField, "patterns", "", "name", "name is required")
			continue
		}
		if patterns[p.Name] {
			add(ValCatDuplicateName, "patterns", p.Name, "", "%q already defined", p.Name)
		}
		patterns[p.Name] = true
		for _, ve := range validatePattern(p, rules) {
			add(ve.cat, "patterns", p.Name, ve.field, "%s", ve.msg)
		}
	}

	sahams := make(map[string]bool)
	for _, s := range f.Sahams {
		if s.Name == "" {
			add(ValCatMissingField, "sahams", "", "name", "name is required")
			continue
		}
		if sahams[s.Name] {
			add(ValCatDuplicateName, "sahams", s.Name, "", "%q already defined", s.Name)
		}
		sahams[s.Name] = true
		if s.Day == "" {
			add(ValCatMissingField, "sahams", s.Name, "day", "formula is empty")
		}
	}

	return errs
}

type patternProblem struct {
	cat   ValidationCategory
	field string
	msg   string
}

// validatePattern checks slots, constraints, symmetry groups, and the
// receiver of one pattern against the declared aspect rules.
func validatePattern(p yoga.Pattern, rules map[string]bool) []patternProblem {
	var out []patternProblem
	problem := func(cat ValidationCategory, field, format string, args ...any) {
		out = append(out, patternProblem{cat: cat, field: field, msg: fmt.Sprintf(format, args...)})
	}

	if len(p.Slots) < 2 {
		problem(ValCatBoundsViolation, "slots", "pattern needs at least 2 slots, got %d", len(p.Slots))
	}
	slots := make(map[string]bool, len(p.Slots))
	for i, s := range p.Slots {
		switch {
		case s.Name == "":
			problem(ValCatMissingField, fmt.Sprintf("slots[%d].name", i), "slot name is required")
		case slots[s.Name]:
			problem(ValCatDuplicateName, fmt.Sprintf("slots[%d].name", i), "slot %q already defined", s.Name)
		}
		slots[s.Name] = true
	}

	for i, c := range p.Constraints {
		field := fmt.Sprintf("constraints[%d]", i)
		switch c.Kind {
		case yoga.KindAspect, yoga.KindNoAspect, yoga.KindFaster,
			yoga.KindApplying, yoga.KindSeparating, yoga.KindSignOffset:
		default:
			problem(ValCatUnknownRef, field+".kind", "unknown constraint kind %q", c.Kind)
		}
		for _, ref := range []string{c.A, c.B} {
			if !slots[ref] {
				problem(ValCatUnknownRef, field, "unknown slot %q", ref)
			}
		}
		if c.A == c.B && c.A != "" {
			problem(ValCatUnknownRef, field, "constraint relates slot %q to itself", c.A)
		}
		if !c.UsesAspect() {
			continue
		}
		switch c.Rule {
		case "":
			if c.Orb <= 0 && !c.BodyOrbs {
				problem(ValCatBoundsViolation, field+".orb", "orb must be > 0, got %v", c.Orb)
			}
			if c.Angle < 0 || c.Angle > 180 {
				problem(ValCatBoundsViolation, field+".angle", "angle must be in [0,180], got %v", c.Angle)
			}
		case yoga.AnyRule:
		default:
			if !rules[c.Rule] {
				problem(ValCatUnknownRef, field+".rule", "unknown aspect rule %q", c.Rule)
			}
		}
	}

	for i, g := range p.Symmetric {
		for _, name := range g {
			if !slots[name] {
				problem(ValCatUnknownRef, fmt.Sprintf("symmetric[%d]", i), "unknown slot %q", name)
			}
		}
	}
	if p.Receiver != "" && !slots[p.Receiver] {
		problem(ValCatUnknownRef, "receiver", "unknown slot %q", p.Receiver)
	}
	return out
}
