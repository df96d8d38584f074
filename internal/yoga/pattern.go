// Package yoga detects multi-body patterns declared as role slots plus
// angular and kinematic constraints. Patterns are data: adding a new yoga
// is a catalogue entry, not new code. One enumeration algorithm serves
// every pattern.
package yoga

import (
	"github.com/papapumpkin/graha/internal/aspect"
)

// Kind names a constraint type.
type Kind string

// Constraint kinds understood by the detector.
const (
	KindAspect     Kind = "aspect"      // A and B are in the given aspect
	KindNoAspect   Kind = "no_aspect"   // A and B are in none of the table's aspects
	KindFaster     Kind = "faster"      // A moves faster than B
	KindApplying   Kind = "applying"    // A and B are in aspect and closing
	KindSeparating Kind = "separating"  // A and B are in aspect and parting
	KindSignOffset Kind = "sign_offset" // B is Signs whole signs forward of A
)

// AnyRule in Constraint.Rule accepts every rule of the aspect table.
const AnyRule = "*"

// Slot is a named role in a pattern. Body pins the slot to one body;
// Exclude lists bodies that may never fill it.
type Slot struct {
	Name    string   `toml:"name" yaml:"name" json:"name"`
	Body    string   `toml:"body,omitempty" yaml:"body,omitempty" json:"body,omitempty"`
	Exclude []string `toml:"exclude,omitempty" yaml:"exclude,omitempty" json:"exclude,omitempty"`
}

// accepts reports whether the named body may fill the slot.
func (s Slot) accepts(body string) bool {
	if s.Body != "" && s.Body != body {
		return false
	}
	for _, x := range s.Exclude {
		if x == body {
			return false
		}
	}
	return true
}

// Constraint is one condition between two slots.
//
// For the aspect-based kinds (aspect, applying, separating) the target is
// chosen by Rule: empty means the explicit Angle and Orb, AnyRule means every
// rule in the table, and any other value names a single table rule. A
// positive Orb overrides a named rule's orb. With BodyOrbs set the orb is
// the mean of the two bodies' own orbs instead.
type Constraint struct {
	Kind     Kind    `toml:"kind" yaml:"kind" json:"kind"`
	A        string  `toml:"a" yaml:"a" json:"a"`
	B        string  `toml:"b" yaml:"b" json:"b"`
	Rule     string  `toml:"rule,omitempty" yaml:"rule,omitempty" json:"rule,omitempty"`
	Angle    float64 `toml:"angle,omitempty" yaml:"angle,omitempty" json:"angle,omitempty"`
	Orb      float64 `toml:"orb,omitempty" yaml:"orb,omitempty" json:"orb,omitempty"`
	BodyOrbs bool    `toml:"body_orbs,omitempty" yaml:"body_orbs,omitempty" json:"body_orbs,omitempty"`
	Signs    int     `toml:"signs,omitempty" yaml:"signs,omitempty" json:"signs,omitempty"`
}

// UsesAspect reports whether the constraint kind needs an aspect target.
func (c Constraint) UsesAspect() bool {
	switch c.Kind {
	case KindAspect, KindApplying, KindSeparating:
		return true
	}
	return false
}

// Pattern is a declarative multi-body configuration.
//
// Symmetric lists groups of slot names whose bodies can be swapped without
// producing a different match; such permutations are reported once.
// Receiver names the slot holding the completing or receiving body.
type Pattern struct {
	Name        string       `toml:"name" yaml:"name" json:"name"`
	Description string       `toml:"description,omitempty" yaml:"description,omitempty" json:"description,omitempty"`
	Disabled    bool         `toml:"disabled,omitempty" yaml:"disabled,omitempty" json:"disabled,omitempty"`
	Slots       []Slot       `toml:"slots" yaml:"slots" json:"slots"`
	Constraints []Constraint `toml:"constraints" yaml:"constraints" json:"constraints"`
	Symmetric   [][]string   `toml:"symmetric,omitempty" yaml:"symmetric,omitempty" json:"symmetric,omitempty"`
	Receiver    string       `toml:"receiver,omitempty" yaml:"receiver,omitempty" json:"receiver,omitempty"`
}

// SlotIndex returns the position of the named slot, or -1.
func (p Pattern) SlotIndex(name string) int {
	for i, s := range p.Slots {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// Env is the read-only context patterns are evaluated in.
type Env struct {
	Aspects  aspect.Table
	BodyOrbs map[string]float64
}

// Match is one instance of a pattern. Bodies lists the participating bodies
// in slot order; Roles maps slot names to those bodies.
type Match struct {
	Pattern  string            `json:"pattern"`
	Bodies   []string          `json:"bodies"`
	Roles    map[string]string `json:"roles"`
	Receiver string            `json:"receiver,omitempty"`
}
