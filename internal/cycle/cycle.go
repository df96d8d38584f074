// Package cycle detects returns: a body coming back within a tolerance of a
// reference longitude it occupied earlier, such as the Sun reaching its
// natal degree for an annual chart.
package cycle

import (
	"github.com/papapumpkin/graha/internal/angle"
	"github.com/papapumpkin/graha/internal/chart"
)

// Motion is a body's direction of travel as reported by the position
// provider. The engine never infers it.
type Motion int

const (
	MotionUnknown    Motion = iota // no speed supplied
	MotionDirect                   // increasing longitude
	MotionRetrograde               // decreasing longitude
)

// String returns the lower-case motion name.
func (m Motion) String() string {
	switch m {
	case MotionDirect:
		return "direct"
	case MotionRetrograde:
		return "retrograde"
	default:
		return "unknown"
	}
}

// MarshalText encodes the motion as its name.
func (m Motion) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// MotionOf derives the motion of b from its speed, if known.
func MotionOf(b chart.Body) Motion {
	switch {
	case !b.HasSpeed:
		return MotionUnknown
	case b.Speed < 0:
		return MotionRetrograde
	default:
		return MotionDirect
	}
}

// Event reports how close a body is to its reference longitude. Signed is
// the proximity made negative while the body is still approaching and
// positive once it has passed; Signed and Approaching are nil when the
// motion is unknown.
type Event struct {
	Body        string   `json:"body"`
	Reference   float64  `json:"reference"`
	Proximity   float64  `json:"proximity"`
	Within      bool     `json:"within"`
	Motion      Motion   `json:"motion"`
	Approaching *bool    `json:"approaching,omitempty"`
	Signed      *float64 `json:"signed,omitempty"`
}

// Detect measures the return of body from current towards reference.
// With known motion, Approaching is true when the body still has to travel
// forward (direct) or backward (retrograde) to reach the reference. A body
// exactly on the reference is not approaching.
func Detect(body string, current, reference, tolerance float64, m Motion) Event {
	ev := Event{
		Body:      body,
		Reference: angle.Normalize(reference),
		Proximity: angle.Distance(current, reference),
		Motion:    m,
	}
	ev.Within = ev.Proximity <= tolerance

	if m == MotionUnknown {
		return ev
	}

	approaching := false
	if ev.Proximity > 0 {
		// ahead is true when the shorter way from current to reference
		// runs forward along the zodiac.
		ahead := angle.Offset(reference, current) < angle.Circle/2
		approaching = ahead == (m == MotionDirect)
	}
	signed := ev.Proximity
	if approaching {
		signed = -signed
	}
	ev.Approaching = &approaching
	ev.Signed = &signed
	return ev
}
