// Package errmodel scores a boundary sequence against sorted input values.
//
// The cost of a point x in bin [lo, hi] is w*(x-lo)*(hi-x): the variance of
// stochastically rounding x to one of the bin edges. Bins are half-open
// [B[k], B[k+1]) except that a value equal to an interior boundary stays in
// the lower bin, where it costs nothing.
//
// These functions are diagnostics for callers and tests. The solvers compute
// bin costs from prefix sums and never call into this package on their hot
// path.
package errmodel

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrInvalidBoundaries is returned when boundaries are too short, not
	// non-decreasing, or do not bracket the values.
	ErrInvalidBoundaries = errors.New("errmodel: invalid boundaries")

	// ErrLengthMismatch is returned when weights and values differ in length,
	// or values is empty.
	ErrLengthMismatch = errors.New("errmodel: length mismatch")

	// ErrUnsorted is returned when the sweep meets a value smaller than an
	// earlier one.
	ErrUnsorted = errors.New("errmodel: values not sorted")
)

// Cost returns sum_i w[i]*(x[i]-B[k(i)])*(B[k(i)+1]-x[i]) for sorted values.
// A nil weights slice means every weight is 1.
//
// The bin cursor only moves forward, so the sweep is O(n+s).
func Cost(values, weights, boundaries []float64) (float64, error) {
	if err := check(values, weights, boundaries); err != nil {
		return 0, err
	}

	var (
		cost float64
		k    int
	)
	s := len(boundaries) - 1
	for i, x := range values {
		for k < s-1 && x > boundaries[k+1] {
			k++
		}
		if x < boundaries[k] || x > boundaries[k+1] {
			return 0, fmt.Errorf("%w: value %d (%g) out of order", ErrUnsorted, i, x)
		}
		c := (x - boundaries[k]) * (boundaries[k+1] - x)
		if weights != nil {
			c *= weights[i]
		}
		cost += c
	}
	return cost, nil
}

// NormalizedError returns Cost divided by the weighted signal energy
// sum_i w[i]*x[i]^2. An input with zero energy scores 0.
func NormalizedError(values, weights, boundaries []float64) (float64, error) {
	cost, err := Cost(values, weights, boundaries)
	if err != nil {
		return 0, err
	}

	energy := Energy(values, weights)
	if energy == 0 {
		return 0, nil
	}
	return cost / energy, nil
}

// Energy returns sum_i w[i]*x[i]^2 (sum_i x[i]^2 when weights is nil).
func Energy(values, weights []float64) float64 {
	if weights == nil {
		return floats.Dot(values, values)
	}
	var energy float64
	for i, x := range values {
		energy += weights[i] * x * x
	}
	return energy
}

func check(values, weights, boundaries []float64) error {
	n := len(values)
	if n == 0 {
		return fmt.Errorf("%w: no values", ErrLengthMismatch)
	}
	if weights != nil && len(weights) != n {
		return fmt.Errorf("%w: %d weights for %d values", ErrLengthMismatch, len(weights), n)
	}
	s := len(boundaries) - 1
	if s < 1 {
		return fmt.Errorf("%w: need at least 2 boundaries, got %d", ErrInvalidBoundaries, len(boundaries))
	}
	for k := 1; k <= s; k++ {
		if boundaries[k] < boundaries[k-1] {
			return fmt.Errorf("%w: boundary %d (%g) below boundary %d (%g)",
				ErrInvalidBoundaries, k, boundaries[k], k-1, boundaries[k-1])
		}
	}
	if boundaries[0] > values[0] || boundaries[s] < values[n-1] {
		return fmt.Errorf("%w: [%g, %g] does not bracket [%g, %g]",
			ErrInvalidBoundaries, boundaries[0], boundaries[s], values[0], values[n-1])
	}
	return nil
}
