// Package testutil provides testing utilities for quiver.
//
// This package is intended for use in tests and benchmarks only.
// It provides seeded generators for sorted inputs and weights, and a
// brute-force reference solver for small inputs.
//
// # Sorted Inputs
//
//	rng := testutil.NewRNG(seed)
//	values := rng.SortedNormal(1 << 12)     // standard normal, ascending
//	values = rng.SortedLogNormal(1 << 12)   // exp(N(0,1)), ascending
//	weights := rng.Weights(len(values))     // uniform (0, 1]
//
// # Ground Truth
//
//	best := testutil.BruteForceCost(values, weights, s)
package testutil
