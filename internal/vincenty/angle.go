package vincenty

import "math"

const twoPi = 2 * math.Pi

// normalizeAngle puts rad in [0, 2π).
func normalizeAngle(rad float64) float64 {
	rad = math.Mod(rad, twoPi)
	if rad < 0 {
		rad += twoPi
	}
	// -tiny + 2π rounds up to 2π
	if rad >= twoPi {
		rad = 0
	}
	return rad
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// converged reports whether next differs from prev by less than the relative
// tolerance used by both solvers.
func converged(prev, next float64) bool {
	return next == prev || math.Abs(next-prev) < 1e-9*math.Abs(next)
}

func anyNaN(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) {
			return true
		}
	}
	return false
}

// seriesAB returns Vincenty's A and B coefficients for u².
func seriesAB(u2 float64) (A, B float64) {
	A = 1 + u2/16384*(4096+u2*(-768+u2*(320-175*u2)))
	B = u2 / 1024 * (256 + u2*(-128+u2*(74-47*u2)))
	return
}

// deltaSigma is the second order correction Δσ.
func deltaSigma(B, sinSigma, cosSigma, cos2SigmaM float64) float64 {
	c2 := cos2SigmaM * cos2SigmaM
	return B * sinSigma * (cos2SigmaM + B/4*(cosSigma*(-1+2*c2)-
		B/6*cos2SigmaM*(-3+4*sinSigma*sinSigma)*(-3+4*c2)))
}

// lambdaCorrection is the term added to (or removed from) the longitude
// difference on the auxiliary sphere.
func lambdaCorrection(f, C, sinAlpha, sigma, sinSigma, cosSigma, cos2SigmaM float64) float64 {
	return (1 - C) * f * sinAlpha *
		(sigma + C*sinSigma*(cos2SigmaM+C*cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)))
}

func correctionC(f, cos2Alpha float64) float64 {
	return f / 16 * cos2Alpha * (4 + f*(4-3*cos2Alpha))
}
