// Package geo provides scalar distance estimates between fleet positions.
// Distances are treated as precomputed costs; road-network routing is out
// of scope.
package geo

import (
	"math"

	"github.com/greenmove/evcharge/core/model"
)

// metersPerDegreeLat is the approximate ground length of one degree of
// latitude.
const metersPerDegreeLat = 111320.0

// Distance returns the approximate ground distance in meters between two
// positions using an equirectangular projection. Accurate enough at city
// scale, which is the operating range of the service radius.
func Distance(a, b model.Position) float64 {
	latM := (a.Lat - b.Lat) * metersPerDegreeLat
	lonM := (a.Lon - b.Lon) * metersPerDegreeLat * math.Cos(a.Lat*math.Pi/180)
	return math.Sqrt(latM*latM + lonM*lonM)
}
