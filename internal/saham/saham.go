// Package saham computes derived sensitive points: fixed integer linear
// combinations of body longitudes (and of other derived points), reduced
// onto the circle. A formula whose inputs are not all present fails rather
// than producing a meaningless longitude.
package saham

import (
	"errors"
	"fmt"

	"github.com/papapumpkin/graha/internal/angle"
	"github.com/papapumpkin/graha/internal/house"
)

// ErrMissingInput indicates a formula referenced a body or point that was
// not supplied.
var ErrMissingInput = errors.New("missing formula input")

// MissingInputError names the formula and the input it could not resolve.
type MissingInputError struct {
	Formula string
	Input   string
}

// Error returns a human-readable description of the missing input.
func (e *MissingInputError) Error() string {
	return fmt.Sprintf("%s: %s requires %q", ErrMissingInput, e.Formula, e.Input)
}

// Unwrap returns ErrMissingInput for use with errors.Is.
func (e *MissingInputError) Unwrap() error {
	return ErrMissingInput
}

// Term is one signed, weighted input of a formula.
type Term struct {
	Input string `json:"input"`
	Coef  int    `json:"coef"`
}

// Formula is a named linear combination. Night, when non-empty, replaces
// Terms for charts cast at night.
type Formula struct {
	Name  string
	Terms []Term
	Night []Term
}

// TermsFor returns the terms that apply for a day or night chart.
func (f Formula) TermsFor(night bool) []Term {
	if night && len(f.Night) > 0 {
		return f.Night
	}
	return f.Terms
}

// Inputs returns every distinct input named by either variant, in first
// appearance order.
func (f Formula) Inputs() []string {
	seen := make(map[string]bool)
	var out []string
	for _, terms := range [][]Term{f.Terms, f.Night} {
		for _, t := range terms {
			if !seen[t.Input] {
				seen[t.Input] = true
				out = append(out, t.Input)
			}
		}
	}
	return out
}

// Source resolves input names to longitudes. chart.Set satisfies it.
type Source interface {
	Longitude(name string) (float64, bool)
}

// Options controls a computation. Reference, when set, is the angle house 1
// starts from and causes the point to be placed in a house.
type Options struct {
	Night     bool
	Reference *float64
}

// Point is a computed sensitive point.
type Point struct {
	Name      string            `json:"name"`
	Longitude float64           `json:"longitude"`
	Sign      int               `json:"sign"`
	House     *house.Assignment `json:"house,omitempty"`
}

// Compute evaluates f against src. Every input must resolve; the first
// that does not yields a *MissingInputError.
func Compute(f Formula, src Source, opts Options) (Point, error) {
	var sum float64
	for _, t := range f.TermsFor(opts.Night) {
		lon, ok := src.Longitude(t.Input)
		if !ok {
			return Point{}, &MissingInputError{Formula: f.Name, Input: t.Input}
		}
		sum += float64(t.Coef) * lon
	}

	lon := angle.Normalize(sum)
	p := Point{
		Name:      f.Name,
		Longitude: lon,
		Sign:      angle.Sign(lon),
	}
	if opts.Reference != nil {
		a := house.Locate(f.Name, lon, *opts.Reference)
		p.House = &a
	}
	return p, nil
}

// overlay resolves computed points before falling back to the base source.
type overlay struct {
	points map[string]float64
	base   Source
}

func (o overlay) Longitude(name string) (float64, bool) {
	if lon, ok := o.points[name]; ok {
		return lon, true
	}
	return o.base.Longitude(name)
}

// Evaluate orders formulas so that points used as inputs are computed
// first, then computes each one. Point names shadow same-named entries in
// src. Results are returned in evaluation order; any failure aborts the
// whole evaluation.
func Evaluate(formulas []Formula, src Source, opts Options) ([]Point, error) {
	ordered, err := Order(formulas)
	if err != nil {
		return nil, err
	}
	ov := overlay{points: make(map[string]float64, len(ordered)), base: src}
	out := make([]Point, 0, len(ordered))
	for _, f := range ordered {
		p, err := Compute(f, ov, opts)
		if err != nil {
			return nil, err
		}
		ov.points[p.Name] = p.Longitude
		out = append(out, p)
	}
	return out, nil
}
