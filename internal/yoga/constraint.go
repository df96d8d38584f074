package yoga

import (
	"math"

	"github.com/papapumpkin/graha/internal/angle"
	"github.com/papapumpkin/graha/internal/aspect"
	"github.com/papapumpkin/graha/internal/chart"
)

// motionStep is the look-ahead in days used to decide whether an aspect is
// applying or separating.
const motionStep = 0.01

// target is one candidate angle and the orb allowed around it.
type target struct {
	angle float64
	orb   float64
}

// targets resolves the angles a constraint accepts between bodies a and b.
func (c Constraint) targets(a, b chart.Body, env Env) []target {
	var out []target
	switch c.Rule {
	case "":
		out = append(out, target{angle: c.Angle, orb: c.Orb})
	case AnyRule:
		for _, r := range env.Aspects {
			out = append(out, target{angle: r.Angle, orb: r.Orb})
		}
	default:
		r, ok := env.Aspects.Lookup(c.Rule)
		if !ok {
			return nil
		}
		orb := r.Orb
		if c.Orb > 0 {
			orb = c.Orb
		}
		out = append(out, target{angle: r.Angle, orb: orb})
	}
	if c.BodyOrbs {
		if orb, ok := meanOrb(a.Name, b.Name, env.BodyOrbs); ok {
			for i := range out {
				out[i].orb = orb
			}
		}
	}
	return out
}

// meanOrb averages the two bodies' own orbs when both are known.
func meanOrb(a, b string, orbs map[string]float64) (float64, bool) {
	oa, okA := orbs[a]
	ob, okB := orbs[b]
	if !okA || !okB {
		return 0, false
	}
	return (oa + ob) / 2, true
}

// closest returns the target nearest the current separation among those
// within orb. Ties keep the earlier target.
func closest(a, b float64, ts []target) (target, bool) {
	best, found := target{}, false
	bestDev := math.Inf(1)
	for _, t := range ts {
		dev := aspect.Deviation(a, b, t.angle)
		if dev <= t.orb && dev < bestDev {
			best, bestDev, found = t, dev, true
		}
	}
	return best, found
}

// holds evaluates the constraint for the two bodies filling slots A and B.
func (c Constraint) holds(a, b chart.Body, env Env) bool {
	switch c.Kind {
	case KindAspect:
		_, ok := closest(a.Longitude, b.Longitude, c.targets(a, b, env))
		return ok
	case KindNoAspect:
		for _, r := range env.Aspects {
			if aspect.Within(a.Longitude, b.Longitude, r.Angle, r.Orb) {
				return false
			}
		}
		return true
	case KindFaster:
		if !a.HasSpeed || !b.HasSpeed {
			return false
		}
		return math.Abs(a.Speed) > math.Abs(b.Speed)
	case KindApplying, KindSeparating:
		if !a.HasSpeed || !b.HasSpeed {
			return false
		}
		t, ok := closest(a.Longitude, b.Longitude, c.targets(a, b, env))
		if !ok {
			return false
		}
		now := aspect.Deviation(a.Longitude, b.Longitude, t.angle)
		next := aspect.Deviation(
			a.Longitude+a.Speed*motionStep,
			b.Longitude+b.Speed*motionStep,
			t.angle,
		)
		if c.Kind == KindApplying {
			return next < now
		}
		return next > now
	case KindSignOffset:
		return angle.SignOffset(a.Longitude, b.Longitude) == ((c.Signs%12)+12)%12
	}
	return false
}
