// Package vincenty solves the direct and inverse geodesic problems on an
// oblate ellipsoid with Vincenty's iterative formulae. All angles are in
// radians, distances are in the linear unit of the semi-major axis.
package vincenty

// Ellipsoid describes the reference ellipsoid. Values are trusted; callers
// supplying inverted or non-positive axes get meaningless geometry.
type Ellipsoid struct {
	SemiMajorAxis float64
	SemiMinorAxis float64
	Flattening    float64
}

// WGS84 is the default reference ellipsoid.
var WGS84 = NewEllipsoid(6378137.0, 6356752.3142)

// NewEllipsoid derives the flattening from the semi-major axis a and the
// semi-minor axis b.
func NewEllipsoid(a, b float64) Ellipsoid {
	return Ellipsoid{SemiMajorAxis: a, SemiMinorAxis: b, Flattening: (a - b) / a}
}

// EllipsoidFromFlattening derives the semi-minor axis from a and f.
func EllipsoidFromFlattening(a, f float64) Ellipsoid {
	return Ellipsoid{SemiMajorAxis: a, SemiMinorAxis: a * (1 - f), Flattening: f}
}

// Inverse solves the inverse problem on e. See SolveInverse.
func (e Ellipsoid) Inverse(lat1, lon1, lat2, lon2 float64) (s12, azi1, azi2 float64, err error) {
	return SolveInverse(e.Flattening, e.SemiMajorAxis, lat1, lon1, lat2, lon2)
}

// Direct solves the direct problem on e. See SolveDirect.
func (e Ellipsoid) Direct(lat1, lon1, azi1, s12 float64) (lat2, lon2, azi2 float64, err error) {
	return SolveDirect(e.Flattening, e.SemiMajorAxis, lat1, lon1, azi1, s12)
}
