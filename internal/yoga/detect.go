package yoga

import (
	"sort"
	"strconv"
	"strings"

	"github.com/papapumpkin/graha/internal/chart"
)

// Detect returns every match of the enabled patterns in set, grouped by
// pattern in catalogue order and, within a pattern, in enumeration order
// (slot 0 varies slowest, bodies in set order). Every assignment of
// distinct bodies to slots is tried; none is skipped or capped. An empty
// result is the common case, not an error.
func Detect(set chart.Set, patterns []Pattern, env Env) []Match {
	var out []Match
	for _, p := range patterns {
		if p.Disabled {
			continue
		}
		out = append(out, detectPattern(set, p, env)...)
	}
	return out
}

// bound is a constraint with its slots resolved to positions.
type bound struct {
	c    Constraint
	a, b int
}

// detector holds the state of one pattern's enumeration.
type detector struct {
	set     chart.Set
	pattern Pattern
	env     Env
	// checks[i] holds the constraints whose later slot is i, so each is
	// tested as soon as both of its bodies are placed.
	checks [][]bound
	groups [][]int
	assign []int
	used   []bool
	seen   map[string]bool
	out    []Match
}

func detectPattern(set chart.Set, p Pattern, env Env) []Match {
	k := len(p.Slots)
	if k == 0 || set.Len() < k {
		return nil
	}
	d := &detector{
		set:     set,
		pattern: p,
		env:     env,
		checks:  make([][]bound, k),
		assign:  make([]int, k),
		used:    make([]bool, set.Len()),
		seen:    make(map[string]bool),
	}
	for _, c := range p.Constraints {
		a, b := p.SlotIndex(c.A), p.SlotIndex(c.B)
		if a < 0 || b < 0 || a == b {
			// Unsatisfiable; load-time validation reports it.
			return nil
		}
		last := max(a, b)
		d.checks[last] = append(d.checks[last], bound{c: c, a: a, b: b})
	}
	for _, g := range p.Symmetric {
		var idx []int
		for _, name := range g {
			if i := p.SlotIndex(name); i >= 0 {
				idx = append(idx, i)
			}
		}
		if len(idx) > 1 {
			d.groups = append(d.groups, idx)
		}
	}
	d.place(0)
	return d.out
}

// place fills slot i with every admissible unused body and recurses.
func (d *detector) place(i int) {
	if i == len(d.assign) {
		d.emit()
		return
	}
	slot := d.pattern.Slots[i]
	for j := 0; j < d.set.Len(); j++ {
		if d.used[j] || !slot.accepts(d.set.At(j).Name) {
			continue
		}
		d.assign[i] = j
		if !d.satisfied(i) {
			continue
		}
		d.used[j] = true
		d.place(i + 1)
		d.used[j] = false
	}
}

// satisfied tests the constraints that became decidable at slot i.
func (d *detector) satisfied(i int) bool {
	for _, b := range d.checks[i] {
		first := d.set.At(d.assign[b.a])
		second := d.set.At(d.assign[b.b])
		if !b.c.holds(first, second, d.env) {
			return false
		}
	}
	return true
}

// emit records the current assignment unless a symmetric permutation of it
// was already reported.
func (d *detector) emit() {
	key := d.canonicalKey()
	if d.seen[key] {
		return
	}
	d.seen[key] = true

	m := Match{
		Pattern: d.pattern.Name,
		Bodies:  make([]string, len(d.assign)),
		Roles:   make(map[string]string, len(d.assign)),
	}
	for i, j := range d.assign {
		name := d.set.At(j).Name
		m.Bodies[i] = name
		m.Roles[d.pattern.Slots[i].Name] = name
	}
	if d.pattern.Receiver != "" {
		m.Receiver = m.Roles[d.pattern.Receiver]
	}
	d.out = append(d.out, m)
}

// canonicalKey encodes the assignment with the bodies of each symmetric
// group sorted, so permutations inside a group share a key.
func (d *detector) canonicalKey() string {
	canon := make([]int, len(d.assign))
	copy(canon, d.assign)
	for _, g := range d.groups {
		vals := make([]int, len(g))
		for k, slot := range g {
			vals[k] = d.assign[slot]
		}
		sort.Ints(vals)
		slots := append([]int(nil), g...)
		sort.Ints(slots)
		for k, slot := range slots {
			canon[slot] = vals[k]
		}
	}
	parts := make([]string, len(canon))
	for i, v := range canon {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
