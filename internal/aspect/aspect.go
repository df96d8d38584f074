// Package aspect classifies the angular relationship between two longitudes
// against a static table of named target angles and orbs.
package aspect

import (
	"math"

	"github.com/papapumpkin/graha/internal/angle"
	"github.com/papapumpkin/graha/internal/chart"
)

// Rule is a named target separation and the deviation allowed around it.
type Rule struct {
	Name  string  `toml:"name" yaml:"name" json:"name"`
	Angle float64 `toml:"angle" yaml:"angle" json:"angle"`
	Orb   float64 `toml:"orb" yaml:"orb" json:"orb"`
}

// Table is an ordered list of rules. Declaration order breaks ties between
// rules matching with equal deviation.
type Table []Rule

// Lookup returns the rule with the given name.
func (t Table) Lookup(name string) (Rule, bool) {
	for _, r := range t {
		if r.Name == name {
			return r, true
		}
	}
	return Rule{}, false
}

// Match is one classified relationship between two bodies.
type Match struct {
	First      string  `json:"first"`
	Second     string  `json:"second"`
	Rule       string  `json:"rule"`
	Angle      float64 `json:"angle"`      // target angle of the matched rule
	Separation float64 `json:"separation"` // actual circular distance
	Orb        float64 `json:"orb"`        // deviation from the target angle
	Strength   float64 `json:"strength"`   // 100 when exact, 0 at the orb edge
}

// Deviation returns how far the separation between a and b is from target.
func Deviation(a, b, target float64) float64 {
	return math.Abs(angle.Distance(a, b) - target)
}

// Within reports whether a and b are separated by target ± orb.
func Within(a, b, target, orb float64) bool {
	return Deviation(a, b, target) <= orb
}

// Strength maps a deviation inside orb linearly onto [0,100].
func Strength(deviation, orb float64) float64 {
	if orb <= 0 {
		return 0
	}
	s := 100 * (1 - deviation/orb)
	return math.Max(0, math.Min(100, s))
}

// Classify returns the best rule in table matching the separation between
// a and b. The smallest deviation wins; equal deviations fall back to table
// order. The boolean is false when no rule matches, which is the common
// case and not an error. The returned Match has empty body names; use
// Pairs or Cross to get labelled matches.
func Classify(a, b float64, table Table) (Match, bool) {
	sep := angle.Distance(a, b)
	best := -1
	bestDev := math.Inf(1)
	for i, r := range table {
		dev := math.Abs(sep - r.Angle)
		if dev > r.Orb {
			continue
		}
		if dev < bestDev {
			best, bestDev = i, dev
		}
	}
	if best < 0 {
		return Match{}, false
	}
	r := table[best]
	return Match{
		Rule:       r.Name,
		Angle:      r.Angle,
		Separation: sep,
		Orb:        bestDev,
		Strength:   Strength(bestDev, r.Orb),
	}, true
}

// Pairs classifies every unordered pair of bodies in s, in set order
// (first index before second).
func Pairs(s chart.Set, table Table) []Match {
	var out []Match
	for i := 0; i < s.Len(); i++ {
		for j := i + 1; j < s.Len(); j++ {
			a, b := s.At(i), s.At(j)
			if m, ok := Classify(a.Longitude, b.Longitude, table); ok {
				m.First, m.Second = a.Name, b.Name
				out = append(out, m)
			}
		}
	}
	return out
}

// Cross classifies every body in from against every body in to, for
// example transiting bodies against natal positions. First names come from
// from, Second names from to.
func Cross(from, to chart.Set, table Table) []Match {
	var out []Match
	for i := 0; i < from.Len(); i++ {
		for j := 0; j < to.Len(); j++ {
			a, b := from.At(i), to.At(j)
			if m, ok := Classify(a.Longitude, b.Longitude, table); ok {
				m.First, m.Second = a.Name, b.Name
				out = append(out, m)
			}
		}
	}
	return out
}
