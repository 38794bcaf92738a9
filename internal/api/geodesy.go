package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gc-distance/gc"
	"gc-distance/internal/batch"
	"gc-distance/internal/vincenty"
)

// ellipsoidRequest lets a request override the configured ellipsoid.
// A missing axis falls back to the default one.
type ellipsoidRequest struct {
	RMajor *float64 `json:"rmajor"`
	RMinor *float64 `json:"rminor"`
}

type greatCircleRequest struct {
	Distance  batch.Field `json:"distance"`
	Azimuth   batch.Field `json:"azimuth"`
	Latitude  batch.Field `json:"latitude"`
	Longitude batch.Field `json:"longitude"`
	ellipsoidRequest
}

type greatDistanceRequest struct {
	StartLatitude  batch.Field `json:"start_latitude"`
	StartLongitude batch.Field `json:"start_longitude"`
	EndLatitude    batch.Field `json:"end_latitude"`
	EndLongitude   batch.Field `json:"end_longitude"`
	ellipsoidRequest
}

var errInvalidEllipsoid = errors.New("rmajor and rminor must be positive with rminor <= rmajor")

func (r ellipsoidRequest) options(defaults gc.Options) (gc.Options, error) {
	if r.RMajor == nil && r.RMinor == nil {
		return defaults, nil
	}
	base := vincenty.WGS84
	if defaults.Ellipsoid != nil {
		base = *defaults.Ellipsoid
	}
	a, b := base.SemiMajorAxis, base.SemiMinorAxis
	if r.RMajor != nil {
		a = *r.RMajor
	}
	if r.RMinor != nil {
		b = *r.RMinor
	}
	if !(a > 0 && b > 0 && b <= a) {
		return defaults, errInvalidEllipsoid
	}
	opts := defaults
	opts.Ellipsoid = gc.WithAxes(a, b)
	return opts, nil
}

// statusFor maps computation errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, vincenty.ErrNoConvergence):
		return http.StatusUnprocessableEntity
	case errors.Is(err, batch.ErrShapeMismatch),
		errors.Is(err, batch.ErrMaskConsistency),
		errors.Is(err, batch.ErrMissingField),
		errors.Is(err, errInvalidEllipsoid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	body := gin.H{"error": err.Error()}
	var elemErr *batch.ElementError
	if errors.As(err, &elemErr) {
		body["index"] = elemErr.Index
	}
	c.AbortWithStatusJSON(statusFor(err), body)
}

// GreatCircleHandler solves the direct problem for a JSON batch.
func GreatCircleHandler(defaults gc.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req greatCircleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		opts, err := req.options(defaults)
		if err != nil {
			abortWithError(c, err)
			return
		}

		res, err := gc.GreatCircle(c.Request.Context(), gc.CircleParams{
			Distance:  req.Distance,
			Azimuth:   req.Azimuth,
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
			Options:   opts,
		})
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// GreatDistanceHandler solves the inverse problem for a JSON batch.
func GreatDistanceHandler(defaults gc.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req greatDistanceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		opts, err := req.options(defaults)
		if err != nil {
			abortWithError(c, err)
			return
		}

		res, err := gc.GreatDistance(c.Request.Context(), gc.DistanceParams{
			StartLatitude:  req.StartLatitude,
			StartLongitude: req.StartLongitude,
			EndLatitude:    req.EndLatitude,
			EndLongitude:   req.EndLongitude,
			Options:        opts,
		})
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}
