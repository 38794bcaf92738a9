package vincenty

import "math"

// SolveInverse computes the geodesic between (lat1, lon1) and (lat2, lon2)
// on the ellipsoid with flattening f and semi-major axis a. It returns the
// distance s12 in the unit of a, the azimuth azi1 at the first point and the
// reverse azimuth azi2 at the second point (pointing back to the first one).
// Azimuths are clockwise from north in [0, 2π).
//
// Coincident points give (0, 0, 0). NaN inputs propagate as NaN results.
// ErrNoConvergence is returned for nearly antipodal points where the
// longitude series does not settle within MaxIterations.
func SolveInverse(f, a, lat1, lon1, lat2, lon2 float64) (s12, azi1, azi2 float64, err error) {
	return solveInverse(f, a, lat1, lon1, lat2, lon2, MaxIterations)
}

func solveInverse(f, a, lat1, lon1, lat2, lon2 float64, maxIter int) (s12, azi1, azi2 float64, err error) {
	if anyNaN(f, a, lat1, lon1, lat2, lon2) {
		nan := math.NaN()
		return nan, nan, nan, nil
	}
	if math.Abs(lat2-lat1) < 1e-8 && math.Abs(lon2-lon1) < 1e-8 {
		return 0, 0, 0, nil
	}

	b := a * (1 - f)
	sinU1, cosU1 := math.Sincos(math.Atan((1 - f) * math.Tan(lat1)))
	sinU2, cosU2 := math.Sincos(math.Atan((1 - f) * math.Tan(lat2)))

	omega := lon2 - lon1
	lambda := omega

	var (
		sinLambda, cosLambda      float64
		sinSigma, cosSigma, sigma float64
		sinAlpha, cos2Alpha       float64
		cos2SigmaM                float64
	)
	for it := 0; ; it++ {
		if it == maxIter {
			return 0, 0, 0, ErrNoConvergence
		}
		sinLambda, cosLambda = math.Sincos(lambda)
		sinSigma = math.Hypot(cosU2*sinLambda, cosU1*sinU2-sinU1*cosU2*cosLambda)
		if sinSigma == 0 {
			// same point on the auxiliary sphere, e.g. a pole reached
			// with two different longitudes
			return 0, 0, 0, nil
		}
		cosSigma = sinU1*sinU2 + cosU1*cosU2*cosLambda
		sigma = math.Atan2(sinSigma, cosSigma)

		sinAlpha = clamp(cosU1*cosU2*sinLambda/sinSigma, -1, 1)
		cos2Alpha = 1 - sinAlpha*sinAlpha
		cos2SigmaM = 0 // equatorial line
		if cos2Alpha != 0 {
			cos2SigmaM = cosSigma - 2*sinU1*sinU2/cos2Alpha
		}
		C := correctionC(f, cos2Alpha)

		prev := lambda
		lambda = omega + lambdaCorrection(f, C, sinAlpha, sigma, sinSigma, cosSigma, cos2SigmaM)
		if converged(prev, lambda) {
			break
		}
	}

	u2 := cos2Alpha * (a*a - b*b) / (b * b)
	A, B := seriesAB(u2)
	s12 = b * A * (sigma - deltaSigma(B, sinSigma, cosSigma, cos2SigmaM))

	azi1 = normalizeAngle(math.Atan2(cosU2*sinLambda, cosU1*sinU2-sinU1*cosU2*cosLambda))
	azi2 = normalizeAngle(math.Atan2(cosU1*sinLambda, -sinU1*cosU2+cosU1*sinU2*cosLambda) + math.Pi)
	return s12, azi1, azi2, nil
}
