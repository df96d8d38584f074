// Package angle provides circular arithmetic on the 360° ecliptic: reducing
// arbitrary values into [0,360), measuring the shortest separation between
// two longitudes, and measuring forward travel from a reference point.
// Every other engine package goes through these helpers instead of
// subtracting longitudes directly.
package angle

import "math"

// Circle is the number of degrees in one revolution.
const Circle = 360.0

// SignWidth is the span of one zodiac sign or equal house.
const SignWidth = 30.0

// Normalize reduces deg into the half-open interval [0,360). Negative values
// and sums spanning several revolutions are handled. NaN and ±Inf propagate
// as NaN.
func Normalize(deg float64) float64 {
	r := math.Mod(deg, Circle)
	if r < 0 {
		r += Circle
	}
	// r+360 can round up to exactly 360 for tiny negative inputs, and
	// math.Mod preserves the sign of -0.
	if r >= Circle || r == 0 {
		return 0
	}
	return r
}

// Distance returns the shortest angular separation between a and b, in
// [0,180]. It is symmetric in its arguments.
func Distance(a, b float64) float64 {
	d := math.Abs(Normalize(a) - Normalize(b))
	if d > Circle/2 {
		d = Circle - d
	}
	return d
}

// Offset returns the forward distance travelled from ref to a, in [0,360).
// Unlike Distance, direction matters: Offset(10, 350) is 20 while
// Offset(350, 10) is 340.
func Offset(a, ref float64) float64 {
	return Normalize(a - ref)
}

// Sign returns the zero-based zodiac sign index (0 = Aries .. 11 = Pisces)
// containing deg.
func Sign(deg float64) int {
	s := int(math.Floor(Normalize(deg) / SignWidth))
	if s > 11 {
		s = 11
	}
	return s
}

// SignOffset returns how many whole signs b lies forward of a, in 0..11.
func SignOffset(a, b float64) int {
	return ((Sign(b)-Sign(a))%12 + 12) % 12
}

// Degree returns the position of deg within its sign, in [0,30).
func Degree(deg float64) float64 {
	return Normalize(deg) - float64(Sign(deg))*SignWidth
}

var signNames = [12]string{
	"Aries", "Taurus", "Gemini", "Cancer", "Leo", "Virgo",
	"Libra", "Scorpio", "Sagittarius", "Capricorn", "Aquarius", "Pisces",
}

// SignName returns the English name of the zero-based sign index, or an
// empty string when idx is out of range.
func SignName(idx int) string {
	if idx < 0 || idx >= len(signNames) {
		return ""
	}
	return signNames[idx]
}
