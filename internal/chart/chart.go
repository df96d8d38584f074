// Package chart holds the engine's input model: named bodies with a
// longitude and optional daily motion, collected into ordered sets with
// unique names.
package chart

import (
	"errors"
	"fmt"
	"math"

	"github.com/papapumpkin/graha/internal/angle"
)

// ErrDuplicateBody is returned when a set would contain two bodies with the
// same name.
var ErrDuplicateBody = errors.New("duplicate body")

// ErrEmptyName is returned when a body has no name.
var ErrEmptyName = errors.New("body name is empty")

// ErrInvalidLongitude is returned for a NaN or infinite longitude.
var ErrInvalidLongitude = errors.New("longitude is not finite")

// Body is a celestial body or sensitive point at one instant. Speed is in
// degrees per day as reported by the position provider; it is only
// meaningful when HasSpeed is true. A negative speed means retrograde.
type Body struct {
	Name      string  `json:"name"`
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Speed     float64 `json:"speed"`
	HasSpeed  bool    `json:"has_speed"`
}

// NewBody returns a body at the normalised longitude with unknown speed.
func NewBody(name string, lon float64) Body {
	return Body{Name: name, Longitude: angle.Normalize(lon)}
}

// WithSpeed returns a copy of b carrying the given daily motion.
func (b Body) WithSpeed(speed float64) Body {
	b.Speed = speed
	b.HasSpeed = true
	return b
}

// Retrograde reports whether the body is known to be moving backwards.
func (b Body) Retrograde() bool {
	return b.HasSpeed && b.Speed < 0
}

// Set is an ordered collection of bodies keyed by unique name. The zero
// value is an empty set. A Set is never modified after construction.
type Set struct {
	bodies []Body
	index  map[string]int
}

// NewSet builds a set from bodies in the given order. Longitudes are
// normalised. Returns ErrDuplicateBody, ErrEmptyName, or ErrInvalidLongitude
// on malformed input.
func NewSet(bodies ...Body) (Set, error) {
	s := Set{
		bodies: make([]Body, 0, len(bodies)),
		index:  make(map[string]int, len(bodies)),
	}
	for _, b := range bodies {
		if b.Name == "" {
			return Set{}, ErrEmptyName
		}
		if _, exists := s.index[b.Name]; exists {
			return Set{}, fmt.Errorf("%w: %s", ErrDuplicateBody, b.Name)
		}
		if !Finite(b.Longitude) {
			return Set{}, fmt.Errorf("%w: %s = %v", ErrInvalidLongitude, b.Name, b.Longitude)
		}
		b.Longitude = angle.Normalize(b.Longitude)
		s.index[b.Name] = len(s.bodies)
		s.bodies = append(s.bodies, b)
	}
	return s, nil
}

// Finite reports whether deg is neither NaN nor infinite.
func Finite(deg float64) bool {
	return !math.IsNaN(deg) && !math.IsInf(deg, 0)
}

// MustSet is like NewSet but panics on error. Intended for fixtures.
func MustSet(bodies ...Body) Set {
	s, err := NewSet(bodies...)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of bodies in the set.
func (s Set) Len() int {
	return len(s.bodies)
}

// Bodies returns a copy of the bodies in set order.
func (s Set) Bodies() []Body {
	out := make([]Body, len(s.bodies))
	copy(out, s.bodies)
	return out
}

// At returns the i-th body in set order.
func (s Set) At(i int) Body {
	return s.bodies[i]
}

// Names returns body names in set order.
func (s Set) Names() []string {
	names := make([]string, len(s.bodies))
	for i, b := range s.bodies {
		names[i] = b.Name
	}
	return names
}

// Get returns the named body and whether it is present.
func (s Set) Get(name string) (Body, bool) {
	i, ok := s.index[name]
	if !ok {
		return Body{}, false
	}
	return s.bodies[i], true
}

// Longitude returns the named body's longitude and whether it is present.
func (s Set) Longitude(name string) (float64, bool) {
	b, ok := s.Get(name)
	return b.Longitude, ok
}
