package vincenty

import "math"

// SolveDirect follows the geodesic leaving (lat1, lon1) with azimuth azi1
// over a distance s12 (unit of a) and returns the destination (lat2, lon2)
// and the reverse azimuth azi2 in [0, 2π) pointing back along the line.
//
// A zero distance returns the start point and azi1 unchanged without
// iterating.
func SolveDirect(f, a, lat1, lon1, azi1, s12 float64) (lat2, lon2, azi2 float64, err error) {
	return solveDirect(f, a, lat1, lon1, azi1, s12, MaxIterations)
}

func solveDirect(f, a, lat1, lon1, azi1, s12 float64, maxIter int) (lat2, lon2, azi2 float64, err error) {
	if anyNaN(f, a, lat1, lon1, azi1, s12) {
		nan := math.NaN()
		return nan, nan, nan, nil
	}

	alpha1 := normalizeAngle(azi1)
	sinAlpha1, cosAlpha1 := math.Sincos(alpha1)

	b := a * (1 - f)
	tanU1 := (1 - f) * math.Tan(lat1)
	sinU1, cosU1 := math.Sincos(math.Atan(tanU1))
	sigma1 := math.Atan2(tanU1, cosAlpha1)
	sinAlpha := cosU1 * sinAlpha1
	cos2Alpha := 1 - sinAlpha*sinAlpha

	u2 := cos2Alpha * (a*a - b*b) / (b * b)
	A, B := seriesAB(u2)

	sigma0 := s12 / (b * A)
	if sigma0 == 0 {
		return lat1, lon1, azi1, nil
	}

	sigma := sigma0
	var sinSigma, cosSigma, cos2SigmaM float64
	for it := 0; ; it++ {
		if it == maxIter {
			return 0, 0, 0, ErrNoConvergence
		}
		cos2SigmaM = math.Cos(2*sigma1 + sigma)
		sinSigma, cosSigma = math.Sincos(sigma)
		prev := sigma
		sigma = sigma0 + deltaSigma(B, sinSigma, cosSigma, cos2SigmaM)
		if converged(prev, sigma) {
			break
		}
	}
	cos2SigmaM = math.Cos(2*sigma1 + sigma)
	sinSigma, cosSigma = math.Sincos(sigma)

	tmp := sinU1*sinSigma - cosU1*cosSigma*cosAlpha1
	lat2 = math.Atan2(sinU1*cosSigma+cosU1*sinSigma*cosAlpha1,
		(1-f)*math.Sqrt(sinAlpha*sinAlpha+tmp*tmp))

	lambda := math.Atan2(sinSigma*sinAlpha1, cosU1*cosSigma-sinU1*sinSigma*cosAlpha1)
	C := correctionC(f, cos2Alpha)
	omega := lambda - lambdaCorrection(f, C, sinAlpha, sigma, sinSigma, cosSigma, cos2SigmaM)
	lon2 = lon1 + omega

	azi2 = normalizeAngle(math.Atan2(sinAlpha, -tmp) + math.Pi)
	return lat2, lon2, azi2, nil
}
