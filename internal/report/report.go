// Package report runs a full analysis over one body set and assembles the
// results of every sub-component into a single immutable Report. An
// analysis either completes or fails as a whole: no partially populated
// report ever leaves the package.
package report

import (
	"strings"

	"github.com/papapumpkin/graha/internal/angle"
	"github.com/papapumpkin/graha/internal/aspect"
	"github.com/papapumpkin/graha/internal/chart"
	"github.com/papapumpkin/graha/internal/cycle"
	"github.com/papapumpkin/graha/internal/house"
	"github.com/papapumpkin/graha/internal/saham"
	"github.com/papapumpkin/graha/internal/yoga"
)

// Names under which formulas address inputs that are not transiting bodies.
const (
	AscendantInput = "Ascendant"
	NatalPrefix    = "natal."
)

// Request is the input of one analysis. Natal, when set, enables cross
// aspects and return detection. Ascendant, when set, enables house
// placement of bodies and derived points.
type Request struct {
	Bodies    chart.Set
	Natal     *chart.Set
	Ascendant *float64
	Night     bool
}

// Report is the result of one analysis. Collections are never nil; an
// empty collection means nothing matched. A Report is not modified after
// it is returned.
type Report struct {
	Catalog      string             `json:"catalog"`
	Ascendant    *float64           `json:"ascendant,omitempty"`
	Night        bool               `json:"night"`
	Bodies       []chart.Body       `json:"bodies"`
	Aspects      []aspect.Match     `json:"aspects"`
	CrossAspects []aspect.Match     `json:"cross_aspects"`
	Houses       []house.Assignment `json:"houses"`
	Patterns     []yoga.Match       `json:"patterns"`
	Points       []saham.Point      `json:"points"`
	Returns      []cycle.Event      `json:"returns"`
}

// pointSource resolves formula inputs: transiting bodies first, then the
// ascendant, then natal bodies under NatalPrefix.
type pointSource struct {
	bodies    chart.Set
	natal     *chart.Set
	ascendant *float64
}

func (s pointSource) Longitude(name string) (float64, bool) {
	if lon, ok := s.bodies.Longitude(name); ok {
		return lon, true
	}
	if name == AscendantInput && s.ascendant != nil {
		return angle.Normalize(*s.ascendant), true
	}
	if rest, ok := strings.CutPrefix(name, NatalPrefix); ok && s.natal != nil {
		return s.natal.Longitude(rest)
	}
	return 0, false
}

// nonNil returns s, or an empty slice when s is nil, so that empty results
// encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
