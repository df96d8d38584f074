// Package house places longitudes into twelve equal 30° houses counted
// forward from a reference angle such as the ascendant.
package house

import (
	"math"

	"github.com/papapumpkin/graha/internal/angle"
	"github.com/papapumpkin/graha/internal/chart"
)

// Count is the number of houses.
const Count = 12

// Assignment records which house a body falls in relative to Reference.
type Assignment struct {
	Body      string  `json:"body"`
	House     int     `json:"house"`
	Reference float64 `json:"reference"`
}

// Number returns the 1-based house containing lon when house 1 begins at
// ref. The result is always in 1..12.
func Number(lon, ref float64) int {
	h := int(math.Floor(angle.Offset(lon, ref)/angle.SignWidth)) + 1
	if h > Count {
		h = Count
	}
	return h
}

// Locate returns the house assignment for one body.
func Locate(body string, lon, ref float64) Assignment {
	return Assignment{
		Body:      body,
		House:     Number(lon, ref),
		Reference: angle.Normalize(ref),
	}
}

// LocateSet assigns every body in s, in set order.
func LocateSet(s chart.Set, ref float64) []Assignment {
	out := make([]Assignment, 0, s.Len())
	for i := 0; i < s.Len(); i++ {
		b := s.At(i)
		out = append(out, Locate(b.Name, b.Longitude, ref))
	}
	return out
}
