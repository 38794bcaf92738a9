// Package gc is the public entry point for geodesic computations on an
// ellipsoid. Inputs and outputs are in meters and decimal degrees; each
// input field may be a scalar, a dense sequence or a masked sequence (see
// package batch).
package gc

import (
	"context"

	"github.com/golang/geo/s1"

	"gc-distance/internal/batch"
	"gc-distance/internal/vincenty"
)

// Defaults for the WGS84 ellipsoid.
const (
	DefaultRMajor = 6378137.0
	DefaultRMinor = 6356752.3142
)

// Options are shared by GreatCircle and GreatDistance.
type Options struct {
	// Ellipsoid overrides WGS84 when set.
	Ellipsoid *vincenty.Ellipsoid
	// Workers bounds the number of goroutines; <= 0 means one per CPU.
	Workers int
}

func (o Options) ellipsoid() vincenty.Ellipsoid {
	if o.Ellipsoid != nil {
		return *o.Ellipsoid
	}
	return vincenty.WGS84
}

// WithAxes returns an ellipsoid override for the given semi-major and
// semi-minor axes.
func WithAxes(rmajor, rminor float64) *vincenty.Ellipsoid {
	e := vincenty.NewEllipsoid(rmajor, rminor)
	return &e
}

// CircleParams are the inputs of the direct problem.
type CircleParams struct {
	Distance  batch.Field // meters
	Azimuth   batch.Field // degrees clockwise from north
	Latitude  batch.Field
	Longitude batch.Field
	Options
}

// CircleResult is the destination of GreatCircle.
type CircleResult struct {
	Latitude       batch.Series `json:"latitude"`
	Longitude      batch.Series `json:"longitude"`
	ReverseAzimuth batch.Series `json:"reverse_azimuth"`
}

// DistanceParams are the inputs of the inverse problem.
type DistanceParams struct {
	StartLatitude  batch.Field
	StartLongitude batch.Field
	EndLatitude    batch.Field
	EndLongitude   batch.Field
	Options
}

// DistanceResult is the geodesic found by GreatDistance.
type DistanceResult struct {
	Distance       batch.Series `json:"distance"`
	Azimuth        batch.Series `json:"azimuth"`
	ReverseAzimuth batch.Series `json:"reverse_azimuth"`
}

// GreatCircle travels Distance meters from (Latitude, Longitude) along the
// geodesic with initial heading Azimuth and reports where it ends up.
func GreatCircle(ctx context.Context, p CircleParams) (*CircleResult, error) {
	fr, err := batch.Broadcast(
		batch.Named("distance", p.Distance),
		batch.Named("azimuth", p.Azimuth),
		batch.Named("latitude", p.Latitude),
		batch.Named("longitude", p.Longitude),
	)
	if err != nil {
		return nil, err
	}

	e := p.ellipsoid()
	out, err := fr.Evaluate(ctx, p.Workers, 3, func(row, res []float64) error {
		lat, lon, baz, err := e.Direct(radians(row[2]), radians(row[3]), radians(row[1]), row[0])
		if err != nil {
			return err
		}
		res[0], res[1], res[2] = degrees(lat), degrees(lon), degrees(baz)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &CircleResult{
		Latitude:       out[0],
		Longitude:      out[1],
		ReverseAzimuth: out[2].Map(batch.NormalizeDegrees),
	}, nil
}

// GreatDistance measures the geodesic between the start and end points.
func GreatDistance(ctx context.Context, p DistanceParams) (*DistanceResult, error) {
	fr, err := batch.Broadcast(
		batch.Named("start_latitude", p.StartLatitude),
		batch.Named("start_longitude", p.StartLongitude),
		batch.Named("end_latitude", p.EndLatitude),
		batch.Named("end_longitude", p.EndLongitude),
	)
	if err != nil {
		return nil, err
	}

	e := p.ellipsoid()
	out, err := fr.Evaluate(ctx, p.Workers, 3, func(row, res []float64) error {
		s, faz, baz, err := e.Inverse(radians(row[0]), radians(row[1]), radians(row[2]), radians(row[3]))
		if err != nil {
			return err
		}
		res[0], res[1], res[2] = s, degrees(faz), degrees(baz)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &DistanceResult{
		Distance:       out[0],
		Azimuth:        out[1],
		ReverseAzimuth: out[2].Map(batch.NormalizeDegrees),
	}, nil
}

func radians(deg float64) float64 { return (s1.Angle(deg) * s1.Degree).Radians() }
func degrees(rad float64) float64 { return s1.Angle(rad).Degrees() }
