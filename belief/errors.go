package belief

import "github.com/pkg/errors"

var (
	// ErrNotPositiveDefinite is returned when a belief would carry a
	// covariance that is not positive semi-definite, or when a covariance
	// needed for a correction or for sampling cannot be factorized.
	ErrNotPositiveDefinite = errors.New("belief: covariance is not positive definite")
	// ErrNoMeasurement is returned when an operation needs the measurement
	// implied by a belief before ComputeMeasurement was called.
	ErrNoMeasurement = errors.New("belief: measurement has not been computed")
	// ErrShape is returned when inputs do not match the shape of a belief.
	ErrShape = errors.New("belief: shape mismatch")
)
