package vincenty

import "errors"

// MaxIterations bounds the fixed-point iteration of both solvers. Nearly
// antipodal points can keep the series from damping.
const MaxIterations = 1000

// ErrNoConvergence is returned when a solver exhausts MaxIterations.
var ErrNoConvergence = errors.New("vincenty: formula failed to converge")
