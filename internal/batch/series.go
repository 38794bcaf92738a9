package batch

import (
	"encoding/json"
	"math"
)

// Series is one output column of a batch call. Entries where Valid is false
// hold NaN.
type Series struct {
	Values []float64

	// Valid is nil for unmasked calls.
	Valid  []bool
	scalar bool
}

func (s Series) Len() int { return len(s.Values) }
func (s Series) IsMasked() bool { return s.Valid != nil }

// IsScalar reports whether the series came from a call whose inputs were
// all scalars.
func (s Series) IsScalar() bool { return s.scalar }

// At returns the i'th value and whether it is present.
func (s Series) At(i int) (float64, bool) {
	if s.Valid != nil && !s.Valid[i] {
		return math.NaN(), false
	}
	return s.Values[i], true
}

// Scalar returns the first value, NaN if the series is empty or missing
// there.
func (s Series) Scalar() float64 {
	if s.Len() == 0 {
		return math.NaN()
	}
	v, _ := s.At(0)
	return v
}

// Map applies fn to every present value in place and returns s.
func (s Series) Map(fn func(float64) float64) Series {
	for i := range s.Values {
		if s.Valid == nil || s.Valid[i] {
			s.Values[i] = fn(s.Values[i])
		}
	}
	return s
}

// MarshalJSON encodes scalar series as a number and everything else as an
// array. Missing and NaN entries become null.
func (s Series) MarshalJSON() ([]byte, error) {
	if s.scalar && s.Len() == 1 {
		return json.Marshal(jsonNumber(s.At(0)))
	}
	out := make([]*float64, s.Len())
	for i := range out {
		out[i] = jsonNumber(s.At(i))
	}
	return json.Marshal(out)
}

func jsonNumber(v float64, ok bool) *float64 {
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// NormalizeDegrees maps deg into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(math.Mod(deg, 360)+360, 360)
	if deg >= 360 {
		deg = 0
	}
	return deg
}
